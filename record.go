package logbench

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindString
	KindFloat
	KindBool
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a small tagged union holding one field value. The zero Value is
// the integer 0.
type Value struct {
	kind Kind
	num  int64
	flt  float64
	str  string
}

// Kind reports which payload accessor is meaningful.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer payload. It is only meaningful for KindInt.
func (v Value) Int64() int64 { return v.num }

// Float64 returns the float payload. It is only meaningful for KindFloat.
func (v Value) Float64() float64 { return v.flt }

// Str returns the string payload. It is only meaningful for KindString.
func (v Value) Str() string { return v.str }

// Bool returns the boolean payload. It is only meaningful for KindBool.
func (v Value) Bool() bool { return v.num != 0 }

// Any returns the payload boxed in an interface.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return v.flt
	case KindBool:
		return v.num != 0
	default:
		return v.num
	}
}

// String renders the value the way it appears in an interpolated message.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	default:
		return strconv.FormatInt(v.num, 10)
	}
}

// Field is one named value of a Record.
type Field struct {
	Key   string
	Value Value
}

// Int returns an integer field.
func Int(key string, v int64) Field {
	return Field{Key: key, Value: Value{kind: KindInt, num: v}}
}

// String returns a string field.
func String(key, v string) Field {
	return Field{Key: key, Value: Value{kind: KindString, str: v}}
}

// Float returns a float field.
func Float(key string, v float64) Field {
	return Field{Key: key, Value: Value{kind: KindFloat, flt: v}}
}

// Bool returns a boolean field.
func Bool(key string, v bool) Field {
	var n int64
	if v {
		n = 1
	}
	return Field{Key: key, Value: Value{kind: KindBool, num: n}}
}

// Record is one structured log event. Records are immutable: every accessor
// returns a copy or a read-only view, and the field slice is never handed out.
type Record struct {
	time     time.Time
	level    Level
	logger   string
	template string
	message  string
	fields   []Field
}

// NewRecord builds a Record and renders its message from template and fields.
func NewRecord(t time.Time, level Level, logger, template string, fields ...Field) Record {
	owned := make([]Field, len(fields))
	copy(owned, fields)
	return Record{
		time:     t,
		level:    level,
		logger:   logger,
		template: template,
		message:  RenderTemplate(template, owned),
		fields:   owned,
	}
}

// Time returns the record's timestamp.
func (r Record) Time() time.Time { return r.time }

// Level returns the record's severity.
func (r Record) Level() Level { return r.level }

// Logger returns the logger name the record is attributed to.
func (r Record) Logger() string { return r.logger }

// Template returns the unrendered message template.
func (r Record) Template() string { return r.template }

// Message returns the template with every hole replaced by its field value.
func (r Record) Message() string { return r.message }

// Len reports the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Field returns the i'th field.
func (r Record) Field(i int) Field { return r.fields[i] }

// EachField calls fn for every field in order.
func (r Record) EachField(fn func(Field)) {
	for _, f := range r.fields {
		fn(f)
	}
}

// Fields returns a copy of the field list.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// WithTime returns a copy of r stamped with t. The field slice is shared,
// which is safe because nothing mutates it after NewRecord.
func (r Record) WithTime(t time.Time) Record {
	r.time = t
	return r
}

// RenderTemplate binds the holes of a message template to fields in order.
// "{X} and {Y}" with fields (x=1, y=2) renders "1 and 2". Doubled braces
// render a literal brace and holes without a matching field are kept as-is.
func RenderTemplate(template string, fields []Field) string {
	if strings.IndexByte(template, '{') < 0 && strings.IndexByte(template, '}') < 0 {
		return template
	}
	var b strings.Builder
	b.Grow(len(template) + 8*len(fields))
	next := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				return b.String()
			}
			hole := template[i : i+end+2]
			if next < len(fields) {
				b.WriteString(fields[next].Value.String())
				next++
			} else {
				b.WriteString(hole)
			}
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
