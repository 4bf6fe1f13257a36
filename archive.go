package logbench

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"pkt.systems/pslog"
)

// ArchiveOutputs writes a zstd-compressed tar of every output file referenced
// by reports to dest. Missing files are skipped. Entries are named
// run-<n>/<file>.
func ArchiveOutputs(ctx context.Context, dest string, reports ...Report) (err error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("archive: %w", cerr)
		}
	}()
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	tw := tar.NewWriter(enc)
	files := 0
	for _, report := range reports {
		for _, res := range report.Results {
			if err := ctx.Err(); err != nil {
				return errors.Join(err, tw.Close(), enc.Close())
			}
			name := fmt.Sprintf("run-%d/%s", report.Run, filepath.Base(res.OutputPath))
			added, err := addArchiveFile(tw, res.OutputPath, name)
			if err != nil {
				return errors.Join(fmt.Errorf("archive: %w", err), tw.Close(), enc.Close())
			}
			if added {
				files++
			}
		}
	}
	if err := errors.Join(tw.Close(), enc.Close()); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	pslog.Ctx(ctx).Info("archive.written", "path", dest, "files", files)
	return nil
}

func addArchiveFile(tw *tar.Writer, path, name string) (bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return false, err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return false, err
	}
	if _, err := io.Copy(tw, file); err != nil {
		return false, err
	}
	return true, nil
}
