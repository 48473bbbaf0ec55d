package internal

import (
	"bufio"
	"io"
	"strings"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// TraceWriter records the parse as nested tags, one per line:
//
//	<class>
//	<keyword>class</keyword>
//	<identifier>Main</identifier>
//	...
//	</class>
//
// A TraceWriter built on a nil writer discards everything.
type TraceWriter struct {
	writer *bufio.Writer
}

func NewTraceWriter(w io.Writer) *TraceWriter {
	if w == nil {
		return &TraceWriter{}
	}
	return &TraceWriter{writer: bufio.NewWriter(w)}
}

func (w *TraceWriter) Open(tag string) {
	w.writeLine("<" + tag + ">")
}

func (w *TraceWriter) Close(tag string) {
	w.writeLine("</" + tag + ">")
}

func (w *TraceWriter) Terminal(tag, value string) {
	w.writeLine("<" + tag + ">" + xmlEscaper.Replace(value) + "</" + tag + ">")
}

func (w *TraceWriter) writeLine(line string) {
	if w.writer == nil {
		return
	}
	_, _ = w.writer.WriteString(line)
	_ = w.writer.WriteByte('\n')
}

func (w *TraceWriter) Flush() error {
	if w.writer == nil {
		return nil
	}
	return w.writer.Flush()
}

// WriteTokens tokenizes rd and writes every token as a leaf inside a <tokens> element.
func WriteTokens(rd io.Reader, w io.Writer) error {
	tokenizer := NewTokenizer(rd)
	traceWriter := NewTraceWriter(w)
	traceWriter.Open("tokens")
	for tokenizer.HasMoreTokens() {
		if err := tokenizer.Advance(); err != nil {
			return err
		}
		token := tokenizer.Token()
		traceWriter.Terminal(token.Type().String(), token.Content())
	}
	traceWriter.Close("tokens")
	return traceWriter.Flush()
}
