package classfile

import (
	"sort"

	"github.com/mabhi256/inthunter/internal/bytecode"
)

type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
)

func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag != 0
}

// ClassFile is the parsed form of one .class file. It is not modified
// after Parse returns.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	AccessFlags  AccessFlags
	Name         string // dotted, e.g. com.example.User
	SuperName    string // empty for java.lang.Object and module-info
	Interfaces   []string
	Fields       []Field
	Methods      []Method
	Annotations  Annotations
	SourceFile   string
	ConstantPool ConstantPool
}

// ReferencesClass reports whether any Class constant satisfies match.
// Detectors use it as a cheap pre-filter before walking methods.
func (c *ClassFile) ReferencesClass(match func(name string) bool) bool {
	for _, name := range c.ConstantPool.ClassNames() {
		if match(name) {
			return true
		}
	}
	return false
}

type Field struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Annotations Annotations
}

// Type is the Java type name of the field, e.g. int or java.lang.Integer.
func (f Field) Type() string {
	return TypeName(f.Descriptor)
}

type Method struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Annotations Annotations
	Code        *Code // nil for abstract and native methods
}

// IsInitializer reports whether m is a constructor or static initializer.
func (m Method) IsInitializer() bool {
	return m.Name == "<init>" || m.Name == "<clinit>"
}

type Code struct {
	MaxStack     uint16
	MaxLocals    uint16
	Bytes        []byte
	Instructions []bytecode.Instruction
	LineNumbers  LineNumberTable
}

// LineFor maps a bytecode offset to a source line, or -1 when the method
// carries no line-number information.
func (c *Code) LineFor(offset int) int {
	if c == nil {
		return -1
	}
	return c.LineNumbers.LineFor(offset)
}

type LineNumber struct {
	StartPC int
	Line    int
}

// LineNumberTable is kept sorted by StartPC.
type LineNumberTable []LineNumber

// LineFor returns the line of the last entry starting at or before offset.
// Offsets before the first entry map to the first entry's line.
func (t LineNumberTable) LineFor(offset int) int {
	if len(t) == 0 {
		return -1
	}
	i := sort.Search(len(t), func(i int) bool { return t[i].StartPC > offset })
	if i == 0 {
		return t[0].Line
	}
	return t[i-1].Line
}
