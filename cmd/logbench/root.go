package main

import (
	"encoding"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/logbench"
	"pkt.systems/logbench/backends"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

type app struct {
	stdout    io.Writer
	stderr    io.Writer
	registry  *logbench.Registry
	lookupEnv func(string) (string, bool)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		registry:  backends.NewRegistry(),
		lookupEnv: os.LookupEnv,
	}
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "logbench",
		Short:         "Benchmark structured logging backends writing JSON to local files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.AddCommand(a.runCommand())
	cmd.AddCommand(a.listCommand())
	cmd.AddCommand(a.verifyCommand())
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered backends in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Backend\tOutput file\tDescription")
			for _, b := range a.registry.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Name, logbench.FileName(b.Name), b.Description)
			}
			return tw.Flush()
		},
	}
}

// resolveFormat turns auto into table on a terminal and json otherwise.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch format {
	case formatTable, formatJSON:
		return format, nil
	case formatAuto, "":
		if isTerminal(w) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto, table or json)", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// textValue exposes a text-marshalling enum as a pflag.Value.
type textValue struct {
	v interface {
		encoding.TextMarshaler
		encoding.TextUnmarshaler
	}
	typ string
}

func (t textValue) String() string {
	text, err := t.v.MarshalText()
	if err != nil {
		return ""
	}
	return string(text)
}

func (t textValue) Set(value string) error { return t.v.UnmarshalText([]byte(value)) }

func (t textValue) Type() string { return t.typ }
