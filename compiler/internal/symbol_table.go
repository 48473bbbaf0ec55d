package internal

// Kind is the storage kind of a variable. Static and Field live in the class scope,
// Argument and Local in the subroutine scope.
type Kind int

const (
	StaticKind Kind = iota
	FieldKind
	ArgumentKind
	LocalKind
)

func (kind Kind) String() string {
	switch kind {
	case StaticKind:
		return "static"
	case FieldKind:
		return "field"
	case ArgumentKind:
		return "argument"
	case LocalKind:
		return "local"
	}
	return "unknown"
}

// Segment returns the vm memory segment a variable of this kind lives in.
func (kind Kind) Segment() Segment {
	switch kind {
	case StaticKind:
		return StaticSegment
	case FieldKind:
		return ThisSegment
	case ArgumentKind:
		return ArgumentSegment
	}
	return LocalSegment
}

type SymbolDesc struct {
	name         string
	variableType string
	kind         Kind
	index        int
}

// SymbolTable maps names to their type, kind and index within one scope. The engine keeps two:
// one for the class, one reset at the start of every subroutine.
type SymbolTable struct {
	symbols map[string]*SymbolDesc
	counts  [LocalKind + 1]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: map[string]*SymbolDesc{}}
}

// Define adds name with the next index of kind. Defining an existing name replaces it
// and still consumes a new index.
func (table *SymbolTable) Define(name, variableType string, kind Kind) {
	table.symbols[name] = &SymbolDesc{
		name:         name,
		variableType: variableType,
		kind:         kind,
		index:        table.counts[kind],
	}
	table.counts[kind]++
}

func (table *SymbolTable) KindOf(name string) (Kind, bool) {
	desc, ok := table.symbols[name]
	if !ok {
		return 0, false
	}
	return desc.kind, true
}

func (table *SymbolTable) TypeOf(name string) (string, bool) {
	desc, ok := table.symbols[name]
	if !ok {
		return "", false
	}
	return desc.variableType, true
}

func (table *SymbolTable) IndexOf(name string) (int, bool) {
	desc, ok := table.symbols[name]
	if !ok {
		return 0, false
	}
	return desc.index, true
}

func (table *SymbolTable) Count(kind Kind) int {
	return table.counts[kind]
}

func (table *SymbolTable) Reset() {
	table.symbols = map[string]*SymbolDesc{}
	table.counts = [LocalKind + 1]int{}
}

func (table *SymbolTable) lookUp(name string) *SymbolDesc {
	return table.symbols[name]
}
