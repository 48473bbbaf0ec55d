package internal

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Engine is a single pass recursive descent parser. Every grammar rule validates the syntax,
// maintains the class and subroutine symbol tables, writes the trace, and emits vm code as
// soon as it is recognized. There is no intermediate tree.
//
// One Engine compiles exactly one class.
type Engine struct {
	tokenizer   *Tokenizer
	vmWriter    *VMWriter
	traceWriter *TraceWriter
	option      Option

	className       string
	subroutineName  string
	classTable      *SymbolTable
	subroutineTable *SymbolTable
	// Label counters, reset per subroutine.
	ifLabel    int
	whileLabel int
}

func NewEngine(tokenizer *Tokenizer, vmWriter *VMWriter, traceWriter *TraceWriter, option Option) *Engine {
	return &Engine{
		tokenizer:       tokenizer,
		vmWriter:        vmWriter,
		traceWriter:     traceWriter,
		option:          option,
		classTable:      NewSymbolTable(),
		subroutineTable: NewSymbolTable(),
	}
}

// CompileSource compiles the single class in rd. vm code goes to vmOut, the parse trace
// to traceOut when it is not nil.
func CompileSource(rd io.Reader, vmOut, traceOut io.Writer, option Option) error {
	engine := NewEngine(NewTokenizer(rd), NewVMWriter(vmOut), NewTraceWriter(traceOut), option)
	return engine.CompileClass()
}

// CompileClass compiles the whole input and flushes both writers, also when compiling fails.
func (engine *Engine) CompileClass() error {
	err := engine.compileClass()
	return multierr.Combine(err, engine.vmWriter.Flush(), engine.traceWriter.Flush())
}

// class className { classVarDec* subroutineDec* }
func (engine *Engine) compileClass() (err error) {
	engine.traceWriter.Open("class")
	if err = engine.stepForward(); err != nil {
		return err
	}
	if _, err = engine.eatKeyWord("class"); err != nil {
		return err
	}
	if engine.className, err = engine.eatIdentifier("class name"); err != nil {
		return err
	}
	if err = engine.eatSymbol('{'); err != nil {
		return err
	}
	for engine.isKeyWord("static", "field") {
		if err = engine.compileClassVarDec(); err != nil {
			return err
		}
	}
	for engine.isKeyWord("constructor", "function", "method") {
		if err = engine.compileSubroutineDec(); err != nil {
			return err
		}
	}
	if err = engine.eatSymbol('}'); err != nil {
		return err
	}
	engine.traceWriter.Close("class")
	// Nothing may follow the class.
	if engine.tokenizer.TokenType() != NoneTP {
		return engine.makeError("end of input")
	}
	return nil
}

// [static|field] type varName (, varName)* ;
func (engine *Engine) compileClassVarDec() error {
	engine.traceWriter.Open("classVarDec")
	keyWord, err := engine.eatKeyWord("static", "field")
	if err != nil {
		return err
	}
	kind := FieldKind
	if keyWord == "static" {
		kind = StaticKind
	}
	if err = engine.compileVarNames(kind); err != nil {
		return err
	}
	engine.traceWriter.Close("classVarDec")
	return nil
}

// [constructor|function|method] [void|type] subroutineName ( parameterList ) subroutineBody
func (engine *Engine) compileSubroutineDec() error {
	engine.traceWriter.Open("subroutineDec")
	engine.subroutineTable.Reset()
	engine.ifLabel, engine.whileLabel = 0, 0
	subroutineKind, err := engine.eatKeyWord("constructor", "function", "method")
	if err != nil {
		return err
	}
	if engine.isKeyWord("void") {
		_, err = engine.eatKeyWord("void")
	} else {
		_, err = engine.eatType()
	}
	if err != nil {
		return err
	}
	if engine.subroutineName, err = engine.eatIdentifier("subroutine name"); err != nil {
		return err
	}
	// A method receives the object it is called on as argument 0.
	if subroutineKind == "method" && !engine.option.LiteralCalls {
		engine.subroutineTable.Define("this", engine.className, ArgumentKind)
	}
	if err = engine.eatSymbol('('); err != nil {
		return err
	}
	if err = engine.compileParameterList(); err != nil {
		return err
	}
	if err = engine.eatSymbol(')'); err != nil {
		return err
	}
	if err = engine.compileSubroutineBody(subroutineKind); err != nil {
		return err
	}
	engine.traceWriter.Close("subroutineDec")
	return nil
}

// ((type varName) (, type varName)*)?
func (engine *Engine) compileParameterList() error {
	engine.traceWriter.Open("parameterList")
	for !engine.isSymbol(')') {
		variableType, err := engine.eatType()
		if err != nil {
			return err
		}
		name, err := engine.eatIdentifier("parameter name")
		if err != nil {
			return err
		}
		engine.subroutineTable.Define(name, variableType, ArgumentKind)
		if !engine.isSymbol(',') {
			break
		}
		if err = engine.eatSymbol(','); err != nil {
			return err
		}
	}
	engine.traceWriter.Close("parameterList")
	return nil
}

// { varDec* statements }
//
// The function header is written once all locals are declared and before any statement,
// so its local count is final.
func (engine *Engine) compileSubroutineBody(subroutineKind string) error {
	engine.traceWriter.Open("subroutineBody")
	if err := engine.eatSymbol('{'); err != nil {
		return err
	}
	for engine.isKeyWord("var") {
		if err := engine.compileVarDec(); err != nil {
			return err
		}
	}
	engine.vmWriter.WriteFunction(engine.className+"."+engine.subroutineName, engine.subroutineTable.Count(LocalKind))
	switch {
	case engine.option.LiteralCalls:
	case subroutineKind == "constructor":
		engine.vmWriter.WritePush(ConstantSegment, engine.classTable.Count(FieldKind))
		engine.vmWriter.WriteCall("Memory.alloc", 1)
		engine.vmWriter.WritePop(PointerSegment, 0)
	case subroutineKind == "method":
		engine.vmWriter.WritePush(ArgumentSegment, 0)
		engine.vmWriter.WritePop(PointerSegment, 0)
	}
	if err := engine.compileStatements(); err != nil {
		return err
	}
	if err := engine.eatSymbol('}'); err != nil {
		return err
	}
	engine.traceWriter.Close("subroutineBody")
	return nil
}

// var type varName (, varName)* ;
func (engine *Engine) compileVarDec() error {
	engine.traceWriter.Open("varDec")
	if _, err := engine.eatKeyWord("var"); err != nil {
		return err
	}
	if err := engine.compileVarNames(LocalKind); err != nil {
		return err
	}
	engine.traceWriter.Close("varDec")
	return nil
}

// type varName (, varName)* ; shared by class and local declarations.
func (engine *Engine) compileVarNames(kind Kind) error {
	variableType, err := engine.eatType()
	if err != nil {
		return err
	}
	table := engine.subroutineTable
	if kind == StaticKind || kind == FieldKind {
		table = engine.classTable
	}
	for {
		name, err := engine.eatIdentifier("variable name")
		if err != nil {
			return err
		}
		table.Define(name, variableType, kind)
		if !engine.isSymbol(',') {
			break
		}
		if err = engine.eatSymbol(','); err != nil {
			return err
		}
	}
	return engine.eatSymbol(';')
}

// stepForward makes the next token current, or leaves no current token at the end of input.
func (engine *Engine) stepForward() error {
	if !engine.tokenizer.HasMoreTokens() {
		engine.tokenizer.current = nil
		return nil
	}
	return engine.tokenizer.Advance()
}

func (engine *Engine) isSymbol(symbol byte) bool {
	return engine.tokenizer.TokenType() == SymbolTP && engine.tokenizer.Symbol() == symbol
}

func (engine *Engine) isKeyWord(keyWords ...string) bool {
	if engine.tokenizer.TokenType() != KeyWordTP {
		return false
	}
	current := engine.tokenizer.KeyWord()
	for _, keyWord := range keyWords {
		if current == keyWord {
			return true
		}
	}
	return false
}

func (engine *Engine) eatSymbol(symbol byte) error {
	if !engine.isSymbol(symbol) {
		return engine.makeError(fmt.Sprintf("symbol %q", string(symbol)))
	}
	engine.traceWriter.Terminal(SymbolTP.String(), string(symbol))
	return engine.stepForward()
}

func (engine *Engine) eatKeyWord(keyWords ...string) (string, error) {
	if !engine.isKeyWord(keyWords...) {
		return "", engine.makeError(fmt.Sprintf("keyword %q", keyWords))
	}
	keyWord := engine.tokenizer.KeyWord()
	engine.traceWriter.Terminal(KeyWordTP.String(), keyWord)
	return keyWord, engine.stepForward()
}

func (engine *Engine) eatIdentifier(what string) (string, error) {
	if engine.tokenizer.TokenType() != IdentifierTP {
		return "", engine.makeError("identifier (" + what + ")")
	}
	identifier := engine.tokenizer.Identifier()
	engine.traceWriter.Terminal(IdentifierTP.String(), identifier)
	return identifier, engine.stepForward()
}

// int | char | boolean | className
func (engine *Engine) eatType() (string, error) {
	if engine.isKeyWord("int", "char", "boolean") {
		return engine.eatKeyWord("int", "char", "boolean")
	}
	if engine.tokenizer.TokenType() == IdentifierTP {
		return engine.eatIdentifier("class name")
	}
	return "", engine.makeError("type")
}

// resolve looks name up in the subroutine scope first, then in the class scope.
func (engine *Engine) resolve(name string, line int) (*SymbolDesc, error) {
	if desc := engine.lookUp(name); desc != nil {
		return desc, nil
	}
	return nil, makeUndefinedNameError(line, name, engine.className+"."+engine.subroutineName)
}

func (engine *Engine) lookUp(name string) *SymbolDesc {
	if desc := engine.subroutineTable.lookUp(name); desc != nil {
		return desc
	}
	return engine.classTable.lookUp(name)
}

func (engine *Engine) makeError(expected string) error {
	found := "end of input"
	if token := engine.tokenizer.Token(); token != nil {
		found = fmt.Sprintf("%s %q", token.Type(), token.Content())
	}
	return makeSyntaxError(engine.tokenizer.Line(), expected, found)
}
