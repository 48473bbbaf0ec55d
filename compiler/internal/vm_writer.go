package internal

import (
	"bufio"
	"fmt"
	"io"
)

type Segment string

const (
	ConstantSegment Segment = "constant"
	ArgumentSegment Segment = "argument"
	LocalSegment    Segment = "local"
	StaticSegment   Segment = "static"
	ThisSegment     Segment = "this"
	ThatSegment     Segment = "that"
	PointerSegment  Segment = "pointer"
	TempSegment     Segment = "temp"
)

// Command is one of the vm arithmetic and logical commands.
type Command string

const (
	AddCommand Command = "add"
	SubCommand Command = "sub"
	NegCommand Command = "neg"
	EqCommand  Command = "eq"
	GtCommand  Command = "gt"
	LtCommand  Command = "lt"
	AndCommand Command = "and"
	OrCommand  Command = "or"
	NotCommand Command = "not"
)

// VMWriter writes vm commands, one per line. Writes are buffered and the first
// write error is reported by Flush.
type VMWriter struct {
	writer *bufio.Writer
}

func NewVMWriter(w io.Writer) *VMWriter {
	return &VMWriter{writer: bufio.NewWriter(w)}
}

func (w *VMWriter) writeOutput(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w.writer, format, args...)
	_ = w.writer.WriteByte('\n')
}

func (w *VMWriter) WritePush(segment Segment, index int) {
	w.writeOutput("push %s %d", segment, index)
}

func (w *VMWriter) WritePop(segment Segment, index int) {
	w.writeOutput("pop %s %d", segment, index)
}

func (w *VMWriter) WriteArithmetic(command Command) {
	w.writeOutput("%s", command)
}

func (w *VMWriter) WriteLabel(label string) {
	w.writeOutput("label %s", label)
}

func (w *VMWriter) WriteGoto(label string) {
	w.writeOutput("goto %s", label)
}

func (w *VMWriter) WriteIf(label string) {
	w.writeOutput("if-goto %s", label)
}

func (w *VMWriter) WriteCall(name string, nArgs int) {
	w.writeOutput("call %s %d", name, nArgs)
}

func (w *VMWriter) WriteFunction(name string, nLocals int) {
	w.writeOutput("function %s %d", name, nLocals)
}

func (w *VMWriter) WriteReturn() {
	w.writeOutput("return")
}

func (w *VMWriter) Flush() error {
	return w.writer.Flush()
}
