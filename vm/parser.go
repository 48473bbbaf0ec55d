package vm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A parser for the vm language emitted by the jack compiler.

// There are four kinds of vm commands, they are:
// * Arithmetic commands: add, sub, neg, eq, gt, lt, and, or, not.
// * Memory access commands: push segment index, pop segment index, where segment can be
//   argument, local, static, constant, this, that, pointer, temp.
// * Program flow commands: label name, if-goto name, goto name.
// * Function calling commands: function f n, call f m, return.
// A line may end with a // comment, blank lines are skipped.

type CommandType int

const (
	PushCommand CommandType = iota
	PopCommand
	ArithmeticCommand
	LabelCommand
	GotoCommand
	IfGotoCommand
	FunctionCommand
	CallCommand
	ReturnCommand
)

var keyWordsMap = map[string]CommandType{
	"push":     PushCommand,
	"pop":      PopCommand,
	"add":      ArithmeticCommand,
	"sub":      ArithmeticCommand,
	"neg":      ArithmeticCommand,
	"eq":       ArithmeticCommand,
	"gt":       ArithmeticCommand,
	"lt":       ArithmeticCommand,
	"and":      ArithmeticCommand,
	"or":       ArithmeticCommand,
	"not":      ArithmeticCommand,
	"label":    LabelCommand,
	"goto":     GotoCommand,
	"if-goto":  IfGotoCommand,
	"function": FunctionCommand,
	"call":     CallCommand,
	"return":   ReturnCommand,
}

var segments = map[string]bool{
	"argument": true,
	"local":    true,
	"static":   true,
	"constant": true,
	"this":     true,
	"that":     true,
	"pointer":  true,
	"temp":     true,
}

// maxConstant is the largest value push constant can load into a word.
const maxConstant = 32767

var labelFormat = regexp.MustCompile("^[a-zA-Z_.:][0-9a-zA-Z_.$:]*$")

// Command is one parsed vm command. Arg1 holds the arithmetic operator, the segment, the label or
// the function name; Arg2 holds the index, the local count or the argument count.
type Command struct {
	Type CommandType
	Arg1 string
	Arg2 int
	Line int
}

func (command Command) String() string {
	switch command.Type {
	case PushCommand:
		return fmt.Sprintf("push %s %d", command.Arg1, command.Arg2)
	case PopCommand:
		return fmt.Sprintf("pop %s %d", command.Arg1, command.Arg2)
	case ArithmeticCommand:
		return command.Arg1
	case LabelCommand:
		return "label " + command.Arg1
	case GotoCommand:
		return "goto " + command.Arg1
	case IfGotoCommand:
		return "if-goto " + command.Arg1
	case FunctionCommand:
		return fmt.Sprintf("function %s %d", command.Arg1, command.Arg2)
	case CallCommand:
		return fmt.Sprintf("call %s %d", command.Arg1, command.Arg2)
	}
	return "return"
}

type parser struct {
	lineCounter int
}

// ParseCommands reads every command in rd.
func ParseCommands(rd io.Reader) ([]Command, error) {
	p := &parser{}
	reader := bufio.NewReader(rd)
	var commands []Command
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, errors.WithStack(err)
		}
		if len(line) == 0 && err == io.EOF {
			return commands, nil
		}
		p.lineCounter++
		command, ok, parseErr := p.parseLine(line)
		if parseErr != nil {
			return nil, parseErr
		}
		if ok {
			commands = append(commands, command)
		}
		if err == io.EOF {
			return commands, nil
		}
	}
}

// getNextToken returns the next whitespace separated token and the rest of the line.
func (p *parser) getNextToken(line []byte) (string, []byte) {
	line = bytes.TrimSpace(line)
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return string(line[:i]), line[i:]
		}
	}
	return string(line), nil
}

func (p *parser) parseLine(line []byte) (command Command, ok bool, err error) {
	token, line := p.getNextToken(line)
	if len(token) == 0 || strings.HasPrefix(token, "//") {
		return command, false, nil
	}
	tp, exist := keyWordsMap[token]
	if !exist {
		return command, false, p.makeError(token)
	}
	command = Command{Type: tp, Line: p.lineCounter}
	switch tp {
	case PushCommand, PopCommand:
		line, err = p.parseSegment(&command, line)
	case ArithmeticCommand:
		command.Arg1 = token
	case LabelCommand, GotoCommand, IfGotoCommand:
		command.Arg1, line, err = p.parseName(line)
	case FunctionCommand, CallCommand:
		if command.Arg1, line, err = p.parseName(line); err == nil {
			command.Arg2, line, err = p.getIntegerValue(line)
		}
	}
	if err != nil {
		return command, false, err
	}
	return command, true, p.parseRemainContent(line)
}

func (p *parser) parseSegment(command *Command, line []byte) (rest []byte, err error) {
	segment, line := p.getNextToken(line)
	if !segments[segment] {
		return nil, p.makeError(segment)
	}
	if command.Type == PopCommand && segment == "constant" {
		return nil, p.makeError("pop constant")
	}
	command.Arg1 = segment
	command.Arg2, rest, err = p.getIntegerValue(line)
	if err == nil && segment == "constant" && command.Arg2 > maxConstant {
		return nil, p.makeError(strconv.Itoa(command.Arg2))
	}
	return rest, err
}

func (p *parser) parseName(line []byte) (string, []byte, error) {
	token, line := p.getNextToken(line)
	if !labelFormat.MatchString(token) {
		return "", nil, p.makeError(token)
	}
	return token, line, nil
}

func (p *parser) getIntegerValue(line []byte) (int, []byte, error) {
	token, line := p.getNextToken(line)
	ret, err := strconv.Atoi(token)
	if err != nil || ret < 0 {
		return -1, nil, p.makeError(token)
	}
	return ret, line, nil
}

func (p *parser) parseRemainContent(line []byte) error {
	remain := bytes.TrimSpace(line)
	if len(remain) == 0 || bytes.HasPrefix(remain, []byte("//")) {
		return nil
	}
	return p.makeError(string(remain))
}

func (p *parser) makeError(near string) error {
	return errors.Errorf("SyntaxError: syntax error near %q at line %d", near, p.lineCounter)
}
