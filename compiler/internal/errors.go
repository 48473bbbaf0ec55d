package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// LexicalError reports a fault found while splitting the source into tokens.
type LexicalError struct {
	Line int
	Near string
	Msg  string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("Tokenizer: tokenizer error near %q at line %d, msg: %s", e.Near, e.Line, e.Msg)
}

// SyntaxError reports a token that does not fit the grammar at the current position.
type SyntaxError struct {
	Line     int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Parser: syntax error at line %d, expected %s but found %s", e.Line, e.Expected, e.Found)
}

// UndefinedNameError reports a variable that resolves in neither the subroutine nor the class scope.
type UndefinedNameError struct {
	Line    int
	Name    string
	Context string
}

func (e *UndefinedNameError) Error() string {
	return fmt.Sprintf("Parser: undefined name %s in %s at line %d", e.Name, e.Context, e.Line)
}

func makeLexicalError(near string, line int, format string, args ...interface{}) error {
	return errors.WithStack(&LexicalError{Line: line, Near: near, Msg: fmt.Sprintf(format, args...)})
}

func makeSyntaxError(line int, expected, found string) error {
	return errors.WithStack(&SyntaxError{Line: line, Expected: expected, Found: found})
}

func makeUndefinedNameError(line int, name, context string) error {
	return errors.WithStack(&UndefinedNameError{Line: line, Name: name, Context: context})
}
