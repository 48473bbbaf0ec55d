package vm

import (
	"strconv"

	"github.com/pkg/errors"
)

// builtin is a native implementation of an operating system function.
type builtin struct {
	name  string
	nArgs int
	run   func(machine *Machine, args []int16) (int16, error)
}

var builtins = map[string]builtin{}

func init() {
	for _, b := range []builtin{
		{"Math.multiply", 2, func(_ *Machine, args []int16) (int16, error) { return args[0] * args[1], nil }},
		{"Math.divide", 2, mathDivide},
		{"Math.abs", 1, mathAbs},
		{"Math.min", 2, mathMin},
		{"Math.max", 2, mathMax},
		{"Memory.alloc", 1, memoryAlloc},
		{"Memory.deAlloc", 1, returnsZero},
		{"Memory.peek", 1, memoryPeek},
		{"Memory.poke", 2, memoryPoke},
		{"Array.new", 1, memoryAlloc},
		{"Array.dispose", 1, returnsZero},
		{"String.new", 1, stringNew},
		{"String.appendChar", 2, stringAppendChar},
		{"String.length", 1, stringLength},
		{"String.charAt", 2, stringCharAt},
		{"String.setCharAt", 3, stringSetCharAt},
		{"Output.printString", 1, outputPrintString},
		{"Output.printInt", 1, outputPrintInt},
		{"Output.printChar", 1, outputPrintChar},
		{"Output.println", 0, outputPrintln},
		{"Sys.halt", 0, sysHalt},
		{"Sys.error", 1, sysError},
	} {
		builtins[b.name] = b
	}
}

func returnsZero(_ *Machine, _ []int16) (int16, error) {
	return 0, nil
}

func mathDivide(_ *Machine, args []int16) (int16, error) {
	if args[1] == 0 {
		return 0, errors.New("division by zero")
	}
	return args[0] / args[1], nil
}

func mathAbs(_ *Machine, args []int16) (int16, error) {
	if args[0] < 0 {
		return -args[0], nil
	}
	return args[0], nil
}

func mathMin(_ *Machine, args []int16) (int16, error) {
	if args[0] < args[1] {
		return args[0], nil
	}
	return args[1], nil
}

func mathMax(_ *Machine, args []int16) (int16, error) {
	if args[0] > args[1] {
		return args[0], nil
	}
	return args[1], nil
}

// memoryAlloc hands out heap blocks in order. Blocks are never reused. An object without
// fields still gets one word so every object has its own address.
func memoryAlloc(machine *Machine, args []int16) (int16, error) {
	size := int(args[0])
	if size < 0 {
		return 0, errors.Errorf("allocated size %d must not be negative", size)
	}
	if size == 0 {
		size = 1
	}
	if machine.heapFree+size > heapEnd {
		return 0, errors.Errorf("heap overflow allocating %d words", size)
	}
	address := machine.heapFree
	machine.heapFree += size
	return int16(address), nil
}

func memoryPeek(machine *Machine, args []int16) (int16, error) {
	return machine.Peek(int(args[0]))
}

func memoryPoke(machine *Machine, args []int16) (int16, error) {
	if err := checkAddress(int(args[0])); err != nil {
		return 0, err
	}
	machine.ram[args[0]] = args[1]
	return 0, nil
}

// A string object is laid out as
//
//	capacity, length, chars...
func stringNew(machine *Machine, args []int16) (int16, error) {
	capacity := args[0]
	if capacity < 0 {
		return 0, errors.Errorf("negative string capacity %d", capacity)
	}
	address, err := memoryAlloc(machine, []int16{capacity + 2})
	if err != nil {
		return 0, err
	}
	machine.ram[address] = capacity
	machine.ram[address+1] = 0
	return address, nil
}

func (machine *Machine) stringObject(address int16) (capacity, length int16, err error) {
	if address < heapBase || int(address)+1 >= heapEnd {
		return 0, 0, errors.Errorf("%d is not a string", address)
	}
	capacity, length = machine.ram[address], machine.ram[address+1]
	if capacity < 0 || length < 0 || length > capacity || int(address)+2+int(capacity) > heapEnd {
		return 0, 0, errors.Errorf("%d is not a string", address)
	}
	return capacity, length, nil
}

func stringAppendChar(machine *Machine, args []int16) (int16, error) {
	capacity, length, err := machine.stringObject(args[0])
	if err != nil {
		return 0, err
	}
	if length >= capacity {
		return 0, errors.New("string is full")
	}
	machine.ram[args[0]+2+length] = args[1]
	machine.ram[args[0]+1] = length + 1
	return args[0], nil
}

func stringLength(machine *Machine, args []int16) (int16, error) {
	_, length, err := machine.stringObject(args[0])
	return length, err
}

func (machine *Machine) stringIndex(address, index int16) (int16, error) {
	_, length, err := machine.stringObject(address)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= length {
		return 0, errors.Errorf("index %d out of string of length %d", index, length)
	}
	return address + 2 + index, nil
}

func stringCharAt(machine *Machine, args []int16) (int16, error) {
	address, err := machine.stringIndex(args[0], args[1])
	if err != nil {
		return 0, err
	}
	return machine.ram[address], nil
}

func stringSetCharAt(machine *Machine, args []int16) (int16, error) {
	address, err := machine.stringIndex(args[0], args[1])
	if err != nil {
		return 0, err
	}
	machine.ram[address] = args[2]
	return 0, nil
}

func outputPrintString(machine *Machine, args []int16) (int16, error) {
	_, length, err := machine.stringObject(args[0])
	if err != nil {
		return 0, err
	}
	for i := int16(0); i < length; i++ {
		machine.output.WriteByte(byte(machine.ram[args[0]+2+i]))
	}
	return 0, nil
}

func outputPrintInt(machine *Machine, args []int16) (int16, error) {
	machine.output.WriteString(strconv.Itoa(int(args[0])))
	return 0, nil
}

func outputPrintChar(machine *Machine, args []int16) (int16, error) {
	machine.output.WriteByte(byte(args[0]))
	return 0, nil
}

func outputPrintln(machine *Machine, _ []int16) (int16, error) {
	machine.output.WriteByte('\n')
	return 0, nil
}

func sysHalt(machine *Machine, _ []int16) (int16, error) {
	machine.halted = true
	return 0, nil
}

func sysError(_ *Machine, args []int16) (int16, error) {
	return 0, errors.Errorf("Sys.error %d", args[0])
}
