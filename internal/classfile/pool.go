package classfile

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/mabhi256/inthunter/internal/bytecode"
)

// ConstantPool is indexed by constant-pool index. Index 0 and the slot
// following each Long or Double hold nil.
type ConstantPool []Entry

var _ bytecode.Resolver = ConstantPool(nil)

/*
readConstantPool parses:

u2			constant_pool_count
cp_info		constant_pool[constant_pool_count-1]
*/
func readConstantPool(br *BinaryReader) (ConstantPool, error) {
	count, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", err)
	}
	if count == 0 {
		return nil, malformed(br.Offset()-2, "constant pool count is zero")
	}

	pool := make(ConstantPool, count)
	for i := 1; i < int(count); i++ {
		entry, err := readEntry(br)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant #%d: %w", i, err)
		}
		pool[i] = entry
		if entry.Tag().Wide() {
			i++
		}
	}
	return pool, nil
}

func readEntry(br *BinaryReader) (Entry, error) {
	start := br.Offset()
	b, err := br.ReadU1()
	if err != nil {
		return nil, err
	}
	tag := ConstantTag(b)

	switch tag {
	case TagUtf8:
		n, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		raw, err := br.ReadNBytes(int(n))
		if err != nil {
			return nil, err
		}
		return Utf8{Value: decodeModifiedUTF8(raw)}, nil

	case TagInteger, TagFloat:
		v, err := br.ReadU4()
		if err != nil {
			return nil, err
		}
		if tag == TagInteger {
			return Integer{Value: int32(v)}, nil
		}
		return Float{Value: math.Float32frombits(v)}, nil

	case TagLong, TagDouble:
		v, err := br.ReadU8()
		if err != nil {
			return nil, err
		}
		if tag == TagLong {
			return Long{Value: int64(v)}, nil
		}
		return Double{Value: math.Float64frombits(v)}, nil

	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		idx, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagClass:
			return ClassRef{NameIndex: idx}, nil
		case TagString:
			return StringRef{StringIndex: idx}, nil
		case TagMethodType:
			return MethodType{DescriptorIndex: idx}, nil
		case TagModule:
			return ModuleRef{NameIndex: idx}, nil
		default:
			return PackageRef{NameIndex: idx}, nil
		}

	case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		first, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		second, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagNameAndType:
			return NameAndType{NameIndex: first, DescriptorIndex: second}, nil
		case TagDynamic, TagInvokeDynamic:
			return DynamicRef{Kind: tag, BootstrapIndex: first, NameAndTypeIndex: second}, nil
		default:
			return MemberRef{Kind: tag, ClassIndex: first, NameAndTypeIndex: second}, nil
		}

	case TagMethodHandle:
		kind, err := br.ReadU1()
		if err != nil {
			return nil, err
		}
		idx, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		return MethodHandle{ReferenceKind: kind, ReferenceIndex: idx}, nil
	}

	return nil, malformed(start, "unknown constant tag %d", b)
}

// Entry returns the entry at index. Index 0, indices past the end and the
// unusable slot after a Long or Double are all MalformedInput.
func (cp ConstantPool) Entry(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(cp) {
		return nil, malformed(-1, "constant pool index %d out of range [1, %d)", index, len(cp))
	}
	e := cp[index]
	if e == nil {
		return nil, malformed(-1, "constant pool index %d is the unusable slot after a long or double", index)
	}
	return e, nil
}

func entryAs[T Entry](cp ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	e, err := cp.Entry(index)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, malformed(-1, "constant pool index %d is %s, want %s", index, e.Tag(), want)
	}
	return t, nil
}

func (cp ConstantPool) Utf8(index uint16) (string, error) {
	e, err := entryAs[Utf8](cp, index, TagUtf8)
	return e.Value, err
}

// ClassName resolves a Class entry to a dotted name.
func (cp ConstantPool) ClassName(index uint16) (string, error) {
	e, err := entryAs[ClassRef](cp, index, TagClass)
	if err != nil {
		return "", err
	}
	name, err := cp.Utf8(e.NameIndex)
	if err != nil {
		return "", err
	}
	return dotted(name), nil
}

func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := entryAs[NameAndType](cp, index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(e.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(e.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MemberRef resolves a field, method or interface-method reference. For
// Dynamic and InvokeDynamic entries the owner is left empty.
func (cp ConstantPool) MemberRef(index uint16) (bytecode.MemberRef, error) {
	e, err := cp.Entry(index)
	if err != nil {
		return bytecode.MemberRef{}, err
	}

	var owner string
	var natIndex uint16
	switch ref := e.(type) {
	case MemberRef:
		if owner, err = cp.ClassName(ref.ClassIndex); err != nil {
			return bytecode.MemberRef{}, err
		}
		natIndex = ref.NameAndTypeIndex
	case DynamicRef:
		natIndex = ref.NameAndTypeIndex
	default:
		return bytecode.MemberRef{}, malformed(-1, "constant pool index %d is %s, want a member reference", index, e.Tag())
	}

	name, descriptor, err := cp.NameAndType(natIndex)
	if err != nil {
		return bytecode.MemberRef{}, err
	}
	return bytecode.MemberRef{Owner: owner, Name: name, Descriptor: descriptor}, nil
}

// Literal resolves a constant loadable by ldc, ldc_w or ldc2_w.
func (cp ConstantPool) Literal(index uint16) (bytecode.Literal, error) {
	e, err := cp.Entry(index)
	if err != nil {
		return bytecode.Literal{}, err
	}

	switch c := e.(type) {
	case StringRef:
		text, err := cp.Utf8(c.StringIndex)
		if err != nil {
			return bytecode.Literal{}, err
		}
		return bytecode.Literal{Kind: bytecode.LiteralString, Text: text}, nil
	case Integer:
		return bytecode.Literal{Kind: bytecode.LiteralInt, Int: int64(c.Value)}, nil
	case Long:
		return bytecode.Literal{Kind: bytecode.LiteralInt, Int: c.Value}, nil
	case Float:
		return bytecode.Literal{Kind: bytecode.LiteralFloat, Float: float64(c.Value)}, nil
	case Double:
		return bytecode.Literal{Kind: bytecode.LiteralFloat, Float: c.Value}, nil
	case ClassRef:
		name, err := cp.ClassName(index)
		if err != nil {
			return bytecode.Literal{}, err
		}
		return bytecode.Literal{Kind: bytecode.LiteralClass, Text: name}, nil
	case MethodType, MethodHandle, DynamicRef:
		return bytecode.Literal{Kind: bytecode.LiteralOther}, nil
	}
	return bytecode.Literal{}, malformed(-1, "constant pool index %d is %s, which is not loadable", index, e.Tag())
}

// ClassNames lists the dotted names of every resolvable Class entry,
// array descriptors included, in pool order.
func (cp ConstantPool) ClassNames() []string {
	var names []string
	for i, e := range cp {
		if _, ok := e.(ClassRef); !ok {
			continue
		}
		if name, err := cp.ClassName(uint16(i)); err == nil {
			names = append(names, name)
		}
	}
	return names
}

func dotted(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded as
// C0 80 and supplementary characters as surrogate pairs of 3-byte sequences.
// Malformed sequences decode to U+FFFD.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 || c == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}
