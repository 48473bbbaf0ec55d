package internal

import "fmt"

// statement*, where a statement starts with let, if, while, do or return.
func (engine *Engine) compileStatements() (err error) {
	engine.traceWriter.Open("statements")
	for engine.tokenizer.TokenType() == KeyWordTP {
		switch engine.tokenizer.KeyWord() {
		case "let":
			err = engine.compileLetStatement()
		case "if":
			err = engine.compileIfStatement()
		case "while":
			err = engine.compileWhileStatement()
		case "do":
			err = engine.compileDoStatement()
		case "return":
			err = engine.compileReturnStatement()
		default:
			err = engine.makeError("statement")
		}
		if err != nil {
			return err
		}
	}
	engine.traceWriter.Close("statements")
	return nil
}

// let varName ([ expression ])? = expression ;
//
// For an array element the target address is computed before the value and parked in
// pointer 1 only after the value is evaluated, since the value may index arrays itself.
func (engine *Engine) compileLetStatement() error {
	engine.traceWriter.Open("letStatement")
	if _, err := engine.eatKeyWord("let"); err != nil {
		return err
	}
	line := engine.tokenizer.Line()
	name, err := engine.eatIdentifier("variable name")
	if err != nil {
		return err
	}
	variable, err := engine.resolve(name, line)
	if err != nil {
		return err
	}
	indexed := engine.isSymbol('[')
	if indexed {
		if err = engine.compileArrayAddress(variable); err != nil {
			return err
		}
	}
	if err = engine.eatSymbol('='); err != nil {
		return err
	}
	if err = engine.compileExpression(); err != nil {
		return err
	}
	if indexed {
		engine.vmWriter.WritePop(TempSegment, 0)
		engine.vmWriter.WritePop(PointerSegment, 1)
		engine.vmWriter.WritePush(TempSegment, 0)
		engine.vmWriter.WritePop(ThatSegment, 0)
	} else {
		engine.vmWriter.WritePop(variable.kind.Segment(), variable.index)
	}
	if err = engine.eatSymbol(';'); err != nil {
		return err
	}
	engine.traceWriter.Close("letStatement")
	return nil
}

// if ( expression ) { statements } (else { statements })?
//
//	<condition>
//	not
//	if-goto else_N
//	<then statements>
//	goto end_N
//	label else_N
//	<else statements>
//	label end_N
func (engine *Engine) compileIfStatement() error {
	engine.traceWriter.Open("ifStatement")
	if _, err := engine.eatKeyWord("if"); err != nil {
		return err
	}
	elseLabel, endLabel := fmt.Sprintf("else_%d", engine.ifLabel), fmt.Sprintf("end_%d", engine.ifLabel)
	engine.ifLabel++
	if err := engine.compileCondition(); err != nil {
		return err
	}
	engine.vmWriter.WriteArithmetic(NotCommand)
	engine.vmWriter.WriteIf(elseLabel)
	if err := engine.compileBlock(); err != nil {
		return err
	}
	engine.vmWriter.WriteGoto(endLabel)
	engine.vmWriter.WriteLabel(elseLabel)
	if engine.isKeyWord("else") {
		if _, err := engine.eatKeyWord("else"); err != nil {
			return err
		}
		if err := engine.compileBlock(); err != nil {
			return err
		}
	}
	engine.vmWriter.WriteLabel(endLabel)
	engine.traceWriter.Close("ifStatement")
	return nil
}

// while ( expression ) { statements }
//
//	label while_start_N
//	<condition>
//	not
//	if-goto while_end_N
//	<statements>
//	goto while_start_N
//	label while_end_N
func (engine *Engine) compileWhileStatement() error {
	engine.traceWriter.Open("whileStatement")
	if _, err := engine.eatKeyWord("while"); err != nil {
		return err
	}
	startLabel, endLabel := fmt.Sprintf("while_start_%d", engine.whileLabel), fmt.Sprintf("while_end_%d", engine.whileLabel)
	engine.whileLabel++
	engine.vmWriter.WriteLabel(startLabel)
	if err := engine.compileCondition(); err != nil {
		return err
	}
	engine.vmWriter.WriteArithmetic(NotCommand)
	engine.vmWriter.WriteIf(endLabel)
	if err := engine.compileBlock(); err != nil {
		return err
	}
	engine.vmWriter.WriteGoto(startLabel)
	engine.vmWriter.WriteLabel(endLabel)
	engine.traceWriter.Close("whileStatement")
	return nil
}

// do subroutineCall ;
//
// The returned value is dropped so the stack stays balanced between statements.
func (engine *Engine) compileDoStatement() error {
	engine.traceWriter.Open("doStatement")
	if _, err := engine.eatKeyWord("do"); err != nil {
		return err
	}
	name, err := engine.eatIdentifier("subroutine name")
	if err != nil {
		return err
	}
	if err = engine.compileSubroutineCall(name); err != nil {
		return err
	}
	engine.vmWriter.WritePop(TempSegment, 0)
	if err = engine.eatSymbol(';'); err != nil {
		return err
	}
	engine.traceWriter.Close("doStatement")
	return nil
}

// return expression? ;
func (engine *Engine) compileReturnStatement() error {
	engine.traceWriter.Open("returnStatement")
	if _, err := engine.eatKeyWord("return"); err != nil {
		return err
	}
	if engine.isSymbol(';') {
		// Every vm function returns a value, void ones return 0.
		engine.vmWriter.WritePush(ConstantSegment, 0)
	} else if err := engine.compileExpression(); err != nil {
		return err
	}
	engine.vmWriter.WriteReturn()
	if err := engine.eatSymbol(';'); err != nil {
		return err
	}
	engine.traceWriter.Close("returnStatement")
	return nil
}

// ( expression )
func (engine *Engine) compileCondition() error {
	if err := engine.eatSymbol('('); err != nil {
		return err
	}
	if err := engine.compileExpression(); err != nil {
		return err
	}
	return engine.eatSymbol(')')
}

// { statements }
func (engine *Engine) compileBlock() error {
	if err := engine.eatSymbol('{'); err != nil {
		return err
	}
	if err := engine.compileStatements(); err != nil {
		return err
	}
	return engine.eatSymbol('}')
}
