package bytecode

// MemberRef is a resolved Fieldref/Methodref/InterfaceMethodref.
// Owner is a dotted type name; it is empty for invokedynamic call sites.
type MemberRef struct {
	Owner      string
	Name       string
	Descriptor string
}

type LiteralKind uint8

const (
	LiteralNone LiteralKind = iota
	LiteralString
	LiteralInt
	LiteralFloat
	LiteralClass
	LiteralOther // MethodType, MethodHandle, Dynamic
)

// Literal is the constant loaded by ldc, ldc_w or ldc2_w.
type Literal struct {
	Kind  LiteralKind
	Text  string // String value or dotted class name
	Int   int64
	Float float64
}

// Resolver looks up the constant-pool entries an instruction refers to.
// classfile.ConstantPool implements it.
type Resolver interface {
	Literal(index uint16) (Literal, error)
	MemberRef(index uint16) (MemberRef, error)
	ClassName(index uint16) (string, error)
}

// Instruction is one decoded instruction. Compact and wide load/store
// forms are normalized: astore_2, astore 2 and wide astore 2 all come out
// as Opcode Astore with Slot 2.
type Instruction struct {
	Offset int
	Length int
	Opcode Opcode
	Wide   bool

	// Slot is the local variable index for loads, stores, iinc and ret; -1 otherwise.
	Slot int
	// Index is the raw constant-pool index for ldc*, field, invoke and type instructions.
	Index uint16

	Literal Literal
	Member  MemberRef
	Class   string // new, anewarray, checkcast, instanceof, multianewarray

	// Int holds pushed constants (iconst, bipush, sipush), the iinc
	// increment, or the absolute target of a branch.
	Int int64
}

// Next returns the offset of the following instruction.
func (ins Instruction) Next() int {
	return ins.Offset + ins.Length
}

func (ins Instruction) IsStore() bool {
	return ins.Opcode.isExplicitStore()
}

func (ins Instruction) IsLoad() bool {
	return ins.Opcode.isExplicitLoad()
}

// StringLiteral returns the text of an ldc/ldc_w String constant.
func (ins Instruction) StringLiteral() (string, bool) {
	if ins.Literal.Kind != LiteralString {
		return "", false
	}
	return ins.Literal.Text, true
}

// Calls reports whether ins invokes owner.name with the given descriptor.
// An empty descriptor matches any.
func (ins Instruction) Calls(owner, name, descriptor string) bool {
	if !ins.Opcode.IsInvoke() {
		return false
	}
	m := ins.Member
	return m.Owner == owner && m.Name == name && (descriptor == "" || m.Descriptor == descriptor)
}
