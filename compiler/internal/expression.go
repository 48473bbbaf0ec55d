package internal

var binaryOpCommands = map[byte]Command{
	'+': AddCommand,
	'-': SubCommand,
	'&': AndCommand,
	'|': OrCommand,
	'<': LtCommand,
	'>': GtCommand,
	'=': EqCommand,
}

func (engine *Engine) isBinaryOp() bool {
	if engine.tokenizer.TokenType() != SymbolTP {
		return false
	}
	switch engine.tokenizer.Symbol() {
	case '+', '-', '*', '/', '&', '|', '<', '>', '=':
		return true
	}
	return false
}

// term (op term)*
//
// Operators fold to the left: a - b - c is (a - b) - c. With Option.RightFold the operators
// are held back and written innermost first, giving a - (b - c).
func (engine *Engine) compileExpression() error {
	engine.traceWriter.Open("expression")
	if err := engine.compileTerm(); err != nil {
		return err
	}
	var pendingOps []byte
	for engine.isBinaryOp() {
		op := engine.tokenizer.Symbol()
		if err := engine.eatSymbol(op); err != nil {
			return err
		}
		if err := engine.compileTerm(); err != nil {
			return err
		}
		if engine.option.RightFold {
			pendingOps = append(pendingOps, op)
			continue
		}
		engine.writeBinaryOp(op)
	}
	for i := len(pendingOps) - 1; i >= 0; i-- {
		engine.writeBinaryOp(pendingOps[i])
	}
	engine.traceWriter.Close("expression")
	return nil
}

func (engine *Engine) writeBinaryOp(op byte) {
	switch op {
	case '*':
		engine.vmWriter.WriteCall("Math.multiply", 2)
	case '/':
		engine.vmWriter.WriteCall("Math.divide", 2)
	default:
		engine.vmWriter.WriteArithmetic(binaryOpCommands[op])
	}
}

// integerConstant | stringConstant | keywordConstant | ( expression ) | unaryOp term |
// varName | varName [ expression ] | subroutineCall
func (engine *Engine) compileTerm() (err error) {
	engine.traceWriter.Open("term")
	switch engine.tokenizer.TokenType() {
	case IntegerConstantTP:
		value := engine.tokenizer.IntValue()
		engine.traceWriter.Terminal(IntegerConstantTP.String(), engine.tokenizer.Token().Content())
		engine.vmWriter.WritePush(ConstantSegment, value)
		err = engine.stepForward()
	case StringConstantTP:
		value := engine.tokenizer.StringValue()
		engine.traceWriter.Terminal(StringConstantTP.String(), value)
		engine.writeStringConstant(value)
		err = engine.stepForward()
	case KeyWordTP:
		err = engine.compileKeyWordConstant()
	case SymbolTP:
		err = engine.compileSymbolTerm()
	case IdentifierTP:
		err = engine.compileIdentifierTerm()
	default:
		err = engine.makeError("term")
	}
	if err != nil {
		return err
	}
	engine.traceWriter.Close("term")
	return nil
}

// true is all ones, false and null are 0.
func (engine *Engine) compileKeyWordConstant() error {
	keyWord, err := engine.eatKeyWord("true", "false", "null", "this")
	if err != nil {
		return engine.makeError("term")
	}
	switch keyWord {
	case "true":
		engine.vmWriter.WritePush(ConstantSegment, 1)
		engine.vmWriter.WriteArithmetic(NegCommand)
	case "false", "null":
		engine.vmWriter.WritePush(ConstantSegment, 0)
	case "this":
		engine.vmWriter.WritePush(PointerSegment, 0)
	}
	return nil
}

// ( expression ) | - term | ~ term
func (engine *Engine) compileSymbolTerm() error {
	switch symbol := engine.tokenizer.Symbol(); symbol {
	case '(':
		return engine.compileCondition()
	case '-', '~':
		if err := engine.eatSymbol(symbol); err != nil {
			return err
		}
		if err := engine.compileTerm(); err != nil {
			return err
		}
		if symbol == '-' {
			engine.vmWriter.WriteArithmetic(NegCommand)
		} else {
			engine.vmWriter.WriteArithmetic(NotCommand)
		}
		return nil
	}
	return engine.makeError("term")
}

// varName | varName [ expression ] | subroutineName ( ... ) | name . subroutineName ( ... )
//
// The token after the identifier decides which one.
func (engine *Engine) compileIdentifierTerm() error {
	line := engine.tokenizer.Line()
	name, err := engine.eatIdentifier("variable or subroutine name")
	if err != nil {
		return err
	}
	if engine.isSymbol('(') || engine.isSymbol('.') {
		return engine.compileSubroutineCall(name)
	}
	variable, err := engine.resolve(name, line)
	if err != nil {
		return err
	}
	if !engine.isSymbol('[') {
		engine.vmWriter.WritePush(variable.kind.Segment(), variable.index)
		return nil
	}
	if err = engine.compileArrayAddress(variable); err != nil {
		return err
	}
	engine.vmWriter.WritePop(PointerSegment, 1)
	engine.vmWriter.WritePush(ThatSegment, 0)
	return nil
}

// [ expression ] after an array variable, leaving base + index on the stack.
func (engine *Engine) compileArrayAddress(variable *SymbolDesc) error {
	if err := engine.eatSymbol('['); err != nil {
		return err
	}
	engine.vmWriter.WritePush(variable.kind.Segment(), variable.index)
	if err := engine.compileExpression(); err != nil {
		return err
	}
	if err := engine.eatSymbol(']'); err != nil {
		return err
	}
	engine.vmWriter.WriteArithmetic(AddCommand)
	return nil
}

// compileSubroutineCall compiles the call whose first identifier, name, is already consumed.
//
//   - f(args) is a method call on this: push pointer 0, call Class.f n+1.
//   - v.f(args) where v is a variable is a method call on v: push v, call Type.f n+1.
//   - C.f(args) otherwise calls the function or constructor C.f with n arguments.
//
// With Option.LiteralCalls every call is written as it reads: call f n, call v.f n.
func (engine *Engine) compileSubroutineCall(name string) error {
	callee, nArgs := "", 0
	if engine.isSymbol('.') {
		if err := engine.eatSymbol('.'); err != nil {
			return err
		}
		subroutineName, err := engine.eatIdentifier("subroutine name")
		if err != nil {
			return err
		}
		callee = name + "." + subroutineName
		if variable := engine.lookUp(name); variable != nil && !engine.option.LiteralCalls {
			engine.vmWriter.WritePush(variable.kind.Segment(), variable.index)
			callee, nArgs = variable.variableType+"."+subroutineName, 1
		}
	} else if engine.option.LiteralCalls {
		callee = name
	} else {
		engine.vmWriter.WritePush(PointerSegment, 0)
		callee, nArgs = engine.className+"."+name, 1
	}
	if err := engine.eatSymbol('('); err != nil {
		return err
	}
	n, err := engine.compileExpressionList()
	if err != nil {
		return err
	}
	if err = engine.eatSymbol(')'); err != nil {
		return err
	}
	engine.vmWriter.WriteCall(callee, nArgs+n)
	return nil
}

// (expression (, expression)*)? and returns the number of expressions.
func (engine *Engine) compileExpressionList() (int, error) {
	engine.traceWriter.Open("expressionList")
	count := 0
	for !engine.isSymbol(')') {
		if err := engine.compileExpression(); err != nil {
			return 0, err
		}
		count++
		if !engine.isSymbol(',') {
			break
		}
		if err := engine.eatSymbol(','); err != nil {
			return 0, err
		}
	}
	engine.traceWriter.Close("expressionList")
	return count, nil
}

// writeStringConstant builds the string at runtime; String.appendChar returns the string,
// so it stays on the stack for the next character.
func (engine *Engine) writeStringConstant(value string) {
	engine.vmWriter.WritePush(ConstantSegment, len(value))
	engine.vmWriter.WriteCall("String.new", 1)
	for i := 0; i < len(value); i++ {
		engine.vmWriter.WritePush(ConstantSegment, int(value[i]))
		engine.vmWriter.WriteCall("String.appendChar", 2)
	}
}
