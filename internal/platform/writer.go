package platform

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Sink receives finished DDL statements, one at a time and without the
// statement delimiter.
type Sink interface {
	WriteStatement(stmt string) error
}

// TextSink writes statements as a script, each followed by the delimiter
// and a blank line
type TextSink struct {
	writer    io.Writer
	delimiter string
}

// NewTextSink creates a sink writing to w
func NewTextSink(w io.Writer, delimiter string) *TextSink {
	return &TextSink{writer: w, delimiter: delimiter}
}

// WriteStatement writes one statement
func (s *TextSink) WriteStatement(stmt string) error {
	if _, err := fmt.Fprintf(s.writer, "%s%s\n\n", stmt, s.delimiter); err != nil {
		return errors.Annotate(err, "failed to write statement")
	}
	return nil
}

// CollectSink keeps statements in memory
type CollectSink struct {
	Statements []string
}

// WriteStatement records one statement
func (s *CollectSink) WriteStatement(stmt string) error {
	s.Statements = append(s.Statements, stmt)
	return nil
}

// Script joins the collected statements using the given delimiter
func (s *CollectSink) Script(delimiter string) string {
	var sb strings.Builder
	for _, stmt := range s.Statements {
		sb.WriteString(stmt)
		sb.WriteString(delimiter)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

const indent = "    "

func (b *Builder) emit(sink Sink, stmt string) error {
	b.logger.Debug("emitting statement", zap.String("dialect", b.info.Name), zap.String("sql", stmt))
	return errors.Trace(sink.WriteStatement(stmt))
}

// Identifier shortens the name to the engine's limit and quotes it when
// delimited identifiers are on.
func (b *Builder) Identifier(name string) string {
	name = ShortenName(name, b.info.MaxIdentifierLength)
	if !b.delimited || b.info.IdentifierQuote == "" {
		return name
	}
	q := b.info.IdentifierQuote
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func (b *Builder) identifierList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = b.Identifier(name)
	}
	return strings.Join(quoted, ", ")
}

// Literal quotes a string value, escaping it for the engine
func (b *Builder) Literal(value string) string {
	return b.info.ValueQuote + b.EscapeString(value) + b.info.ValueQuote
}

// EscapeString applies the engine's escape sequences in order
func (b *Builder) EscapeString(value string) string {
	for _, esc := range b.info.EscapedChars {
		value = strings.ReplaceAll(value, esc.From, esc.To)
	}
	return value
}

// ConstraintName builds a name such as seq_users_id for objects that belong
// to a table, shortened to the engine's limit.
func (b *Builder) ConstraintName(prefix, table, suffix string) string {
	name := prefix + "_" + table
	if suffix != "" {
		name += "_" + suffix
	}
	return ShortenName(name, b.info.MaxIdentifierLength)
}

// ShortenName cuts a name down to maxLength bytes by keeping its start and
// end and joining them with an underscore. Cuts fall on character
// boundaries. Names within the limit and a limit of 0 leave the name
// unchanged.
func ShortenName(name string, maxLength int) string {
	if maxLength <= 0 || len(name) <= maxLength {
		return name
	}
	if maxLength < 3 {
		return clipName(name, maxLength)
	}
	head := maxLength / 2
	tail := maxLength - head - 1
	return strings.TrimRight(clipName(name, head), "_") + "_" + strings.TrimLeft(clipNameStart(name, tail), "_")
}

// clipName returns the longest prefix of name that fits in n bytes
func clipName(name string, n int) string {
	if len(name) <= n {
		return name
	}
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// clipNameStart returns the longest suffix of name that fits in n bytes
func clipNameStart(name string, n int) string {
	if len(name) <= n {
		return name
	}
	i := len(name) - n
	for i < len(name) && !utf8.RuneStart(name[i]) {
		i++
	}
	return name[i:]
}
