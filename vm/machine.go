package vm

import (
	"strings"

	"github.com/pkg/errors"
)

// The Hack memory map.
const (
	SP   = 0
	LCL  = 1
	ARG  = 2
	THIS = 3
	THAT = 4

	tempBase   = 5
	tempSize   = 8
	staticBase = 16
	staticEnd  = 256
	stackBase  = 256
	heapBase   = 2048
	heapEnd    = 16384
	ramSize    = 32768
)

const defaultStepLimit = 10000000

// haltAddress is the return address of the outermost frame started by Call.
const haltAddress = -1

type function struct {
	name    string
	start   int
	nLocals int
	labels  map[string]int
}

type instruction struct {
	Command
	file       string
	staticBase int
	function   *function
}

// Machine executes vm commands on a 32K word RAM laid out like the Hack platform. Functions that
// are not loaded but have a built-in implementation, such as Math.multiply or String.new, run
// natively.
type Machine struct {
	// StepLimit bounds the number of commands a single Call may execute.
	StepLimit int

	ram         [ramSize]int16
	program     []instruction
	functions   map[string]*function
	staticBases map[string]int
	nextStatic  int
	heapFree    int
	returnStack []int
	pc          int
	steps       int
	halted      bool
	output      strings.Builder
}

func NewMachine() *Machine {
	machine := &Machine{
		StepLimit:   defaultStepLimit,
		functions:   map[string]*function{},
		staticBases: map[string]int{},
		nextStatic:  staticBase,
		heapFree:    heapBase,
	}
	machine.ram[SP] = stackBase
	return machine
}

// Load appends the commands of one vm file. Static variables are private to file. Every command
// has to belong to a function and every jump target has to be a label of the same function.
func (machine *Machine) Load(file string, commands []Command) error {
	if _, exist := machine.staticBases[file]; exist {
		return errors.Errorf("vm: file %s already loaded", file)
	}
	base, size := machine.nextStatic, 0
	var current *function
	// Nothing is committed to the machine until the whole file is checked.
	start := len(machine.program)
	var program []instruction
	functions := map[string]*function{}
	for _, command := range commands {
		switch command.Type {
		case FunctionCommand:
			_, loaded := machine.functions[command.Arg1]
			if _, exist := functions[command.Arg1]; exist || loaded {
				return machine.makeLoadError(file, command, "duplicate function")
			}
			current = &function{name: command.Arg1, start: start + len(program), nLocals: command.Arg2, labels: map[string]int{}}
			functions[command.Arg1] = current
		case LabelCommand:
			if current == nil {
				return machine.makeLoadError(file, command, "label outside function")
			}
			if _, exist := current.labels[command.Arg1]; exist {
				return machine.makeLoadError(file, command, "duplicate label")
			}
			current.labels[command.Arg1] = start + len(program)
		case PushCommand, PopCommand:
			if command.Arg1 == "static" && command.Arg2+1 > size {
				size = command.Arg2 + 1
			}
		}
		if current == nil {
			return machine.makeLoadError(file, command, "command outside function")
		}
		program = append(program, instruction{Command: command, file: file, staticBase: base, function: current})
	}
	if base+size > staticEnd {
		return errors.Errorf("vm: too many static variables in %s", file)
	}
	for _, inst := range program {
		if inst.Type != GotoCommand && inst.Type != IfGotoCommand {
			continue
		}
		if _, exist := inst.function.labels[inst.Arg1]; !exist {
			return machine.makeLoadError(file, inst.Command, "undefined label")
		}
	}
	machine.program = append(machine.program, program...)
	for name, fn := range functions {
		machine.functions[name] = fn
	}
	machine.staticBases[file] = base
	machine.nextStatic = base + size
	return nil
}

// HasFunction reports whether a vm function called name has been loaded.
func (machine *Machine) HasFunction(name string) bool {
	_, exist := machine.functions[name]
	return exist
}

// Call runs function with args to completion and returns its value. A program calling Sys.halt
// stops with a zero value.
func (machine *Machine) Call(name string, args ...int16) (int16, error) {
	machine.steps, machine.halted = 0, false
	machine.ram[SP], machine.returnStack = stackBase, nil
	for _, arg := range args {
		if err := machine.push(arg); err != nil {
			return 0, err
		}
	}
	machine.pc = haltAddress
	if err := machine.call(name, len(args)); err != nil {
		return 0, err
	}
	for machine.pc != haltAddress && !machine.halted {
		if machine.pc < 0 || machine.pc >= len(machine.program) {
			return 0, errors.Errorf("vm: program counter %d out of program", machine.pc)
		}
		machine.steps++
		if machine.steps > machine.StepLimit {
			return 0, errors.Errorf("vm: step limit %d exceeded in %s", machine.StepLimit, machine.program[machine.pc].function.name)
		}
		inst := machine.program[machine.pc]
		machine.pc++
		if err := machine.execute(inst); err != nil {
			return 0, errors.Wrapf(err, "%s line %d: %s", inst.file, inst.Line, inst.Command)
		}
	}
	if machine.halted {
		return 0, nil
	}
	return machine.pop()
}

// Output is everything the program printed through the Output built-ins.
func (machine *Machine) Output() string {
	return machine.output.String()
}

// Peek reads one RAM word.
func (machine *Machine) Peek(address int) (int16, error) {
	if err := checkAddress(address); err != nil {
		return 0, err
	}
	return machine.ram[address], nil
}

func (machine *Machine) execute(inst instruction) error {
	switch inst.Type {
	case PushCommand:
		if inst.Arg1 == "constant" {
			return machine.push(int16(inst.Arg2))
		}
		address, err := machine.address(inst)
		if err != nil {
			return err
		}
		return machine.push(machine.ram[address])
	case PopCommand:
		address, err := machine.address(inst)
		if err != nil {
			return err
		}
		value, err := machine.pop()
		if err != nil {
			return err
		}
		machine.ram[address] = value
	case ArithmeticCommand:
		return machine.arithmetic(inst.Arg1)
	case LabelCommand, FunctionCommand:
	case GotoCommand:
		machine.pc = inst.function.labels[inst.Arg1]
	case IfGotoCommand:
		value, err := machine.pop()
		if err != nil {
			return err
		}
		if value != 0 {
			machine.pc = inst.function.labels[inst.Arg1]
		}
	case CallCommand:
		return machine.call(inst.Arg1, inst.Arg2)
	case ReturnCommand:
		return machine.ret()
	}
	return nil
}

func (machine *Machine) address(inst instruction) (int, error) {
	index := inst.Arg2
	var address int
	switch inst.Arg1 {
	case "local":
		address = int(machine.ram[LCL]) + index
	case "argument":
		address = int(machine.ram[ARG]) + index
	case "this":
		address = int(machine.ram[THIS]) + index
	case "that":
		address = int(machine.ram[THAT]) + index
	case "pointer":
		if index > 1 {
			return 0, errors.Errorf("vm: pointer index %d out of range", index)
		}
		address = THIS + index
	case "temp":
		if index >= tempSize {
			return 0, errors.Errorf("vm: temp index %d out of range", index)
		}
		address = tempBase + index
	case "static":
		address = inst.staticBase + index
	default:
		return 0, errors.Errorf("vm: unknown segment %s", inst.Arg1)
	}
	return address, checkAddress(address)
}

func (machine *Machine) arithmetic(operator string) error {
	y, err := machine.pop()
	if err != nil {
		return err
	}
	switch operator {
	case "neg":
		return machine.push(-y)
	case "not":
		return machine.push(^y)
	}
	x, err := machine.pop()
	if err != nil {
		return err
	}
	switch operator {
	case "add":
		return machine.push(x + y)
	case "sub":
		return machine.push(x - y)
	case "and":
		return machine.push(x & y)
	case "or":
		return machine.push(x | y)
	case "eq":
		return machine.push(boolValue(x == y))
	case "gt":
		return machine.push(boolValue(x > y))
	case "lt":
		return machine.push(boolValue(x < y))
	}
	return errors.Errorf("vm: unknown operator %s", operator)
}

// call pushes the frame
//
//	return address, LCL, ARG, THIS, THAT
//
// and enters the function. The return address slot holds 0; program counters live on a
// separate stack since a program may be longer than a word can address.
func (machine *Machine) call(name string, nArgs int) error {
	fn, loaded := machine.functions[name]
	if !loaded {
		builtin, exist := builtins[name]
		if !exist {
			return errors.Errorf("vm: undefined function %s", name)
		}
		return machine.callBuiltin(builtin, nArgs)
	}
	if int(machine.ram[SP])-nArgs < stackBase {
		return errors.Errorf("vm: %s called with %d arguments on a shorter stack", name, nArgs)
	}
	machine.returnStack = append(machine.returnStack, machine.pc)
	for _, value := range []int16{0, machine.ram[LCL], machine.ram[ARG], machine.ram[THIS], machine.ram[THAT]} {
		if err := machine.push(value); err != nil {
			return err
		}
	}
	machine.ram[ARG] = machine.ram[SP] - int16(nArgs) - 5
	machine.ram[LCL] = machine.ram[SP]
	for i := 0; i < fn.nLocals; i++ {
		if err := machine.push(0); err != nil {
			return err
		}
	}
	machine.pc = fn.start + 1
	return nil
}

func (machine *Machine) ret() error {
	if len(machine.returnStack) == 0 {
		return errors.New("vm: return without call")
	}
	frame := int(machine.ram[LCL])
	value, err := machine.pop()
	if err != nil {
		return err
	}
	arg := machine.ram[ARG]
	machine.ram[arg] = value
	machine.ram[SP] = arg + 1
	machine.ram[THAT] = machine.ram[frame-1]
	machine.ram[THIS] = machine.ram[frame-2]
	machine.ram[ARG] = machine.ram[frame-3]
	machine.ram[LCL] = machine.ram[frame-4]
	last := len(machine.returnStack) - 1
	machine.pc = machine.returnStack[last]
	machine.returnStack = machine.returnStack[:last]
	return nil
}

func (machine *Machine) callBuiltin(builtin builtin, nArgs int) error {
	if nArgs != builtin.nArgs {
		return errors.Errorf("vm: %s takes %d arguments, called with %d", builtin.name, builtin.nArgs, nArgs)
	}
	args := make([]int16, nArgs)
	for i := nArgs - 1; i >= 0; i-- {
		value, err := machine.pop()
		if err != nil {
			return err
		}
		args[i] = value
	}
	value, err := builtin.run(machine, args)
	if err != nil {
		return errors.Wrap(err, builtin.name)
	}
	return machine.push(value)
}

func (machine *Machine) push(value int16) error {
	sp := int(machine.ram[SP])
	if sp < stackBase || sp >= heapBase {
		return errors.New("vm: stack overflow")
	}
	machine.ram[sp] = value
	machine.ram[SP]++
	return nil
}

func (machine *Machine) pop() (int16, error) {
	sp := int(machine.ram[SP])
	if sp <= stackBase {
		return 0, errors.New("vm: stack underflow")
	}
	machine.ram[SP]--
	return machine.ram[sp-1], nil
}

func (machine *Machine) makeLoadError(file string, command Command, msg string) error {
	return errors.Errorf("vm: %s in %s at line %d: %s", msg, file, command.Line, command)
}

func checkAddress(address int) error {
	if address < 0 || address >= ramSize {
		return errors.Errorf("vm: address %d out of range", address)
	}
	return nil
}

func boolValue(b bool) int16 {
	if b {
		return -1
	}
	return 0
}
