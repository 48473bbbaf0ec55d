package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMWriter_Write(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewVMWriter(buf)
	writer.WriteFunction("Main.main", 2)
	writer.WritePush(ConstantSegment, 7)
	writer.WritePop(LocalSegment, 1)
	writer.WriteArithmetic(NegCommand)
	writer.WriteLabel("while_start_0")
	writer.WriteIf("while_end_0")
	writer.WriteGoto("while_start_0")
	writer.WriteCall("Math.multiply", 2)
	writer.WriteReturn()
	require.NoError(t, writer.Flush())
	expected := []string{
		"function Main.main 2",
		"push constant 7",
		"pop local 1",
		"neg",
		"label while_start_0",
		"if-goto while_end_0",
		"goto while_start_0",
		"call Math.multiply 2",
		"return",
	}
	assert.Equal(t, strings.Join(expected, "\n")+"\n", buf.String())
}

func TestTraceWriter_Write(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewTraceWriter(buf)
	writer.Open("expression")
	writer.Terminal("symbol", "<")
	writer.Terminal("stringConstant", `say "a & b"`)
	writer.Close("expression")
	require.NoError(t, writer.Flush())
	assert.Equal(t, "<expression>\n<symbol>&lt;</symbol>\n<stringConstant>say &quot;a &amp; b&quot;</stringConstant>\n</expression>\n", buf.String())

	discard := NewTraceWriter(nil)
	discard.Open("class")
	assert.NoError(t, discard.Flush())
}

func TestWriteTokens(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteTokens(strings.NewReader(`if (x < 10) { let s = "ok"; }`), buf))
	expected := []string{
		"<tokens>",
		"<keyword>if</keyword>",
		"<symbol>(</symbol>",
		"<identifier>x</identifier>",
		"<symbol>&lt;</symbol>",
		"<integerConstant>10</integerConstant>",
		"<symbol>)</symbol>",
		"<symbol>{</symbol>",
		"<keyword>let</keyword>",
		"<identifier>s</identifier>",
		"<symbol>=</symbol>",
		"<stringConstant>ok</stringConstant>",
		"<symbol>;</symbol>",
		"<symbol>}</symbol>",
		"</tokens>",
	}
	assert.Equal(t, strings.Join(expected, "\n")+"\n", buf.String())

	assert.Error(t, WriteTokens(strings.NewReader(`let s = "open`), &bytes.Buffer{}))
}
