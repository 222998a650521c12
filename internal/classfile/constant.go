package classfile

import "fmt"

type ConstantTag uint8

const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

func (t ConstantTag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Wide reports whether the constant takes two pool slots.
func (t ConstantTag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// Entry is one constant-pool entry.
type Entry interface {
	Tag() ConstantTag
}

type Utf8 struct{ Value string }
type Integer struct{ Value int32 }
type Float struct{ Value float32 }
type Long struct{ Value int64 }
type Double struct{ Value float64 }
type ClassRef struct{ NameIndex uint16 }
type StringRef struct{ StringIndex uint16 }

// MemberRef covers Fieldref, Methodref and InterfaceMethodref.
type MemberRef struct {
	Kind             ConstantTag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type NameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type MethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

type MethodType struct{ DescriptorIndex uint16 }

// DynamicRef covers Dynamic and InvokeDynamic.
type DynamicRef struct {
	Kind             ConstantTag
	BootstrapIndex   uint16
	NameAndTypeIndex uint16
}

type ModuleRef struct{ NameIndex uint16 }
type PackageRef struct{ NameIndex uint16 }

func (Utf8) Tag() ConstantTag         { return TagUtf8 }
func (Integer) Tag() ConstantTag      { return TagInteger }
func (Float) Tag() ConstantTag        { return TagFloat }
func (Long) Tag() ConstantTag         { return TagLong }
func (Double) Tag() ConstantTag       { return TagDouble }
func (ClassRef) Tag() ConstantTag     { return TagClass }
func (StringRef) Tag() ConstantTag    { return TagString }
func (m MemberRef) Tag() ConstantTag  { return m.Kind }
func (NameAndType) Tag() ConstantTag  { return TagNameAndType }
func (MethodHandle) Tag() ConstantTag { return TagMethodHandle }
func (MethodType) Tag() ConstantTag   { return TagMethodType }
func (d DynamicRef) Tag() ConstantTag { return d.Kind }
func (ModuleRef) Tag() ConstantTag    { return TagModule }
func (PackageRef) Tag() ConstantTag   { return TagPackage }
