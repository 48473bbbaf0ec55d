package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileString(src string, option Option) (vmCode, trace string, err error) {
	vmOut, traceOut := &bytes.Buffer{}, &bytes.Buffer{}
	err = CompileSource(strings.NewReader(src), vmOut, traceOut, option)
	return vmOut.String(), traceOut.String(), err
}

func compileLines(t *testing.T, src string, option Option) []string {
	vmCode, _, err := compileString(src, option)
	require.NoError(t, err)
	if vmCode == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(vmCode, "\n"), "\n")
}

// wrapFunction puts statements into Main.f with an int local x.
func wrapFunction(statements string) string {
	return "class Main { function void f() { var int x; " + statements + " return; } }"
}

func TestEngine_EmptyClass(t *testing.T) {
	vmCode, trace, err := compileString("class Main {}", Option{})
	require.NoError(t, err)
	assert.Empty(t, vmCode)
	assert.Equal(t, "<class>\n<keyword>class</keyword>\n<identifier>Main</identifier>\n<symbol>{</symbol>\n<symbol>}</symbol>\n</class>\n", trace)
}

func TestEngine_Function(t *testing.T) {
	vmCode, trace, err := compileString("class Main { function void main() { var int x; let x = 1 + 2; return; } }", Option{})
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"function Main.main 1",
		"push constant 1",
		"push constant 2",
		"add",
		"pop local 0",
		"push constant 0",
		"return",
	}, "\n")+"\n", vmCode)
	assert.Equal(t, strings.Join([]string{
		"<class>",
		"<keyword>class</keyword>",
		"<identifier>Main</identifier>",
		"<symbol>{</symbol>",
		"<subroutineDec>",
		"<keyword>function</keyword>",
		"<keyword>void</keyword>",
		"<identifier>main</identifier>",
		"<symbol>(</symbol>",
		"<parameterList>",
		"</parameterList>",
		"<symbol>)</symbol>",
		"<subroutineBody>",
		"<symbol>{</symbol>",
		"<varDec>",
		"<keyword>var</keyword>",
		"<keyword>int</keyword>",
		"<identifier>x</identifier>",
		"<symbol>;</symbol>",
		"</varDec>",
		"<statements>",
		"<letStatement>",
		"<keyword>let</keyword>",
		"<identifier>x</identifier>",
		"<symbol>=</symbol>",
		"<expression>",
		"<term>",
		"<integerConstant>1</integerConstant>",
		"</term>",
		"<symbol>+</symbol>",
		"<term>",
		"<integerConstant>2</integerConstant>",
		"</term>",
		"</expression>",
		"<symbol>;</symbol>",
		"</letStatement>",
		"<returnStatement>",
		"<keyword>return</keyword>",
		"<symbol>;</symbol>",
		"</returnStatement>",
		"</statements>",
		"<symbol>}</symbol>",
		"</subroutineBody>",
		"</subroutineDec>",
		"<symbol>}</symbol>",
		"</class>",
	}, "\n")+"\n", trace)
}

func TestEngine_Statements(t *testing.T) {
	testData := []struct {
		statements string
		expected   []string
	}{
		{
			statements: "if (x) { let x = 1; } else { let x = 2; }",
			expected: []string{
				"push local 0", "not", "if-goto else_0",
				"push constant 1", "pop local 0",
				"goto end_0", "label else_0",
				"push constant 2", "pop local 0",
				"label end_0",
			},
		},
		{
			statements: "if (x) { }",
			expected:   []string{"push local 0", "not", "if-goto else_0", "goto end_0", "label else_0", "label end_0"},
		},
		{
			statements: "while (x) { let x = x; }",
			expected: []string{
				"label while_start_0",
				"push local 0", "not", "if-goto while_end_0",
				"push local 0", "pop local 0",
				"goto while_start_0",
				"label while_end_0",
			},
		},
		{
			statements: `do Output.printString("hi");`,
			expected: []string{
				"push constant 2", "call String.new 1",
				"push constant 104", "call String.appendChar 2",
				"push constant 105", "call String.appendChar 2",
				"call Output.printString 1",
				"pop temp 0",
			},
		},
		{
			statements: "let x = x * 2 / 3;",
			expected: []string{
				"push local 0", "push constant 2", "call Math.multiply 2",
				"push constant 3", "call Math.divide 2",
				"pop local 0",
			},
		},
		{
			statements: "let x = ~(x < 1) | (x > 2) & (x = 3);",
			expected: []string{
				"push local 0", "push constant 1", "lt", "not",
				"push local 0", "push constant 2", "gt", "or",
				"push local 0", "push constant 3", "eq", "and",
				"pop local 0",
			},
		},
		{
			statements: "let x = true; let x = ~false; let x = null; let x = -x;",
			expected: []string{
				"push constant 1", "neg", "pop local 0",
				"push constant 0", "not", "pop local 0",
				"push constant 0", "pop local 0",
				"push local 0", "neg", "pop local 0",
			},
		},
		{
			statements: `let x = ""; do Main.g(); do Sys.wait(x, 5);`,
			expected: []string{
				"push constant 0", "call String.new 1", "pop local 0",
				"call Main.g 0", "pop temp 0",
				"push local 0", "push constant 5", "call Sys.wait 2", "pop temp 0",
			},
		},
	}
	for _, data := range testData {
		lines := compileLines(t, wrapFunction(data.statements), Option{})
		expected := append([]string{"function Main.f 1"}, data.expected...)
		expected = append(expected, "push constant 0", "return")
		assert.Equal(t, expected, lines, data.statements)
	}
}

func TestEngine_UniqueLabels(t *testing.T) {
	src := `class Main {
  function void f() {
    var int x;
    if (x) { let x = 1; }
    if (x) { while (x) { let x = 0; } }
    while (x) { if (x) { let x = 2; } else { let x = 3; } }
    return;
  }
  function void g() {
    if (true) { }
    return;
  }
}`
	var labels []string
	for _, line := range compileLines(t, src, Option{}) {
		if strings.HasPrefix(line, "label ") {
			labels = append(labels, strings.TrimPrefix(line, "label "))
		}
	}
	assert.Equal(t, []string{
		"else_0", "end_0",
		"while_start_0", "while_end_0", "else_1", "end_1",
		"while_start_1", "else_2", "end_2", "while_end_1",
		"else_0", "end_0",
	}, labels)
}

func TestEngine_Arrays(t *testing.T) {
	src := "class Main { function void f(Array a, Array b) { var int i; let a[i] = b[i + 1]; return; } }"
	assert.Equal(t, []string{
		"function Main.f 1",
		"push argument 0", "push local 0", "add",
		"push argument 1", "push local 0", "push constant 1", "add", "add",
		"pop pointer 1", "push that 0",
		"pop temp 0", "pop pointer 1", "push temp 0", "pop that 0",
		"push constant 0", "return",
	}, compileLines(t, src, Option{}))
}

func TestEngine_Objects(t *testing.T) {
	src := `class Point {
  field int x, y;
  static int count;

  constructor Point new(int ax, int ay) {
    let x = ax;
    let y = ay;
    let count = count + 1;
    return this;
  }

  method int getX() { return x; }

  method int sum(Point other) { return getX() + other.getX(); }

  function int make() {
    var Point p;
    let p = Point.new(1, 2);
    return p.sum(p);
  }
}`
	assert.Equal(t, []string{
		"function Point.new 0",
		"push constant 2", "call Memory.alloc 1", "pop pointer 0",
		"push argument 0", "pop this 0",
		"push argument 1", "pop this 1",
		"push static 0", "push constant 1", "add", "pop static 0",
		"push pointer 0", "return",
		"function Point.getX 0",
		"push argument 0", "pop pointer 0",
		"push this 0", "return",
		"function Point.sum 0",
		"push argument 0", "pop pointer 0",
		"push pointer 0", "call Point.getX 1",
		"push argument 1", "call Point.getX 1",
		"add", "return",
		"function Point.make 1",
		"push constant 1", "push constant 2", "call Point.new 2", "pop local 0",
		"push local 0", "push local 0", "call Point.sum 2",
		"return",
	}, compileLines(t, src, Option{}))
}

func TestEngine_LocalShadowsField(t *testing.T) {
	src := "class Main { field int x; method void f(int x) { let x = 1; return; } }"
	assert.Equal(t, []string{
		"function Main.f 0",
		"push argument 0", "pop pointer 0",
		"push constant 1", "pop argument 1",
		"push constant 0", "return",
	}, compileLines(t, src, Option{}))
}

func TestEngine_RightFold(t *testing.T) {
	src := wrapFunction("let x = 10 - 4 - 3 * 2;")
	leftCode, leftTrace, err := compileString(src, Option{})
	require.NoError(t, err)
	rightCode, rightTrace, err := compileString(src, Option{RightFold: true})
	require.NoError(t, err)
	assert.Equal(t, leftTrace, rightTrace)
	assert.Contains(t, leftCode, "push constant 10\npush constant 4\nsub\npush constant 3\npush constant 2\ncall Math.multiply 2\nsub\n")
	assert.Contains(t, rightCode, "push constant 10\npush constant 4\npush constant 3\npush constant 2\ncall Math.multiply 2\nsub\nsub\n")
}

func TestEngine_Idempotent(t *testing.T) {
	src := wrapFunction(`while (x < 3) { if (x = 1) { do Output.printString("one"); } let x = x + 1; }`)
	firstCode, firstTrace, err := compileString(src, Option{})
	require.NoError(t, err)
	secondCode, secondTrace, err := compileString(src, Option{})
	require.NoError(t, err)
	assert.Equal(t, firstCode, secondCode)
	assert.Equal(t, firstTrace, secondTrace)
}

func TestEngine_SyntaxErrors(t *testing.T) {
	testData := []struct {
		src      string
		line     int
		expected string
		found    string
	}{
		{src: "", line: 1, expected: `keyword ["class"]`, found: "end of input"},
		{src: "class Main {", line: 1, expected: `symbol "}"`, found: "end of input"},
		{src: "class Main {} class Other {}", line: 1, expected: "end of input", found: `keyword "class"`},
		{src: "class 1 {}", line: 1, expected: "identifier (class name)", found: `integerConstant "1"`},
		{src: "class Main {\n function void f() {\n return\n }\n}", line: 4, expected: "term", found: `symbol "}"`},
		{src: "class Main {\n function void f() {\n var int x;\n let x = 1;\n var int y;\n }\n}", line: 5, expected: "statement", found: `keyword "var"`},
		{src: "class Main { function void f() { var Array x; let x[1 = 2; } }", line: 1, expected: `symbol "]"`, found: `symbol ";"`},
		{src: "class Main { function void f() { do Output.printInt(1 2); } }", line: 1, expected: `symbol ")"`, found: `integerConstant "2"`},
		{src: "class Main { function void f() { var int x; let x = do; } }", line: 1, expected: "term", found: `keyword "do"`},
		{src: "class Main { function f() { return; } }", line: 1, expected: "identifier (subroutine name)", found: `symbol "("`},
		{src: "class Main { field int x y; }", line: 1, expected: `symbol ";"`, found: `identifier "y"`},
	}
	for _, data := range testData {
		_, _, err := compileString(data.src, Option{})
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr), "%s: %v", data.src, err)
		assert.Equal(t, data.line, syntaxErr.Line, data.src)
		assert.Equal(t, data.expected, syntaxErr.Expected, data.src)
		assert.Equal(t, data.found, syntaxErr.Found, data.src)
	}
}

func TestEngine_UndefinedName(t *testing.T) {
	testData := []struct {
		src     string
		name    string
		context string
		line    int
	}{
		{src: "class Main {\n  function void main() {\n    let y = 1;\n    return;\n  }\n}", name: "y", context: "Main.main", line: 3},
		{src: "class Main { method int f() { return z[0]; } }", name: "z", context: "Main.f", line: 1},
		{src: "class Main { function void f() { var int a; let a = b; return; } function void g(int b) { return; } }", name: "b", context: "Main.f", line: 1},
	}
	for _, data := range testData {
		_, _, err := compileString(data.src, Option{})
		var undefinedErr *UndefinedNameError
		require.True(t, errors.As(err, &undefinedErr), "%s: %v", data.src, err)
		assert.Equal(t, data.name, undefinedErr.Name)
		assert.Equal(t, data.context, undefinedErr.Context)
		assert.Equal(t, data.line, undefinedErr.Line)
	}
}

func TestEngine_LexicalError(t *testing.T) {
	_, _, err := compileString("class Main {\n  function void f() { var int x; let x = 1 ? 2; }\n}", Option{})
	var lexicalErr *LexicalError
	require.True(t, errors.As(err, &lexicalErr), "%v", err)
	assert.Equal(t, "?", lexicalErr.Near)
	assert.Equal(t, 2, lexicalErr.Line)
}

func TestEngine_LiteralCalls(t *testing.T) {
	src := `class Main {
  field int size;
  constructor Main new() { return this; }
  method void grow(int by) { let size = size + by; return; }
  function void main() {
    var Point p;
    do draw(1);
    do p.move(2);
    do Point.new(3, 4);
    return;
  }
}`
	assert.Equal(t, []string{
		"function Main.new 0",
		"push pointer 0", "return",
		"function Main.grow 0",
		"push this 0", "push argument 0", "add", "pop this 0",
		"push constant 0", "return",
		"function Main.main 1",
		"push constant 1", "call draw 1", "pop temp 0",
		"push constant 2", "call p.move 1", "pop temp 0",
		"push constant 3", "push constant 4", "call Point.new 2", "pop temp 0",
		"push constant 0", "return",
	}, compileLines(t, src, Option{LiteralCalls: true}))
}
