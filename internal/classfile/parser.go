package classfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/mabhi256/inthunter/internal/bytecode"
)

const Magic uint32 = 0xCAFEBABE

// ParseFile reads and parses the class file at path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cf, err := Parse(data)
	if err != nil {
		return nil, withFile(err, path)
	}
	return cf, nil
}

/*
Parse decodes a class file:

u4				magic
u2				minor_version
u2				major_version
u2				constant_pool_count
cp_info			constant_pool[constant_pool_count-1]
u2				access_flags
u2				this_class
u2				super_class
u2				interfaces_count
u2				interfaces[interfaces_count]
u2				fields_count
field_info		fields[fields_count]
u2				methods_count
method_info		methods[methods_count]
u2				attributes_count
attribute_info	attributes[attributes_count]

Every structural failure wraps ErrMalformedInput.
*/
func Parse(data []byte) (*ClassFile, error) {
	br := NewBinaryReader(data)

	magic, err := br.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != Magic {
		return nil, malformed(0, "bad magic 0x%08X", magic)
	}

	cf := &ClassFile{}
	if cf.MinorVersion, err = br.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read minor version: %w", err)
	}
	if cf.MajorVersion, err = br.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read major version: %w", err)
	}

	if cf.ConstantPool, err = readConstantPool(br); err != nil {
		return nil, err
	}
	cp := cf.ConstantPool

	access, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read access flags: %w", err)
	}
	cf.AccessFlags = AccessFlags(access)

	thisIndex, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read this_class: %w", err)
	}
	if cf.Name, err = cp.ClassName(thisIndex); err != nil {
		return nil, fmt.Errorf("failed to resolve this_class: %w", err)
	}

	superIndex, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read super_class: %w", err)
	}
	if superIndex != 0 {
		if cf.SuperName, err = cp.ClassName(superIndex); err != nil {
			return nil, fmt.Errorf("failed to resolve super_class: %w", err)
		}
	}

	if cf.Interfaces, err = readInterfaces(br, cp); err != nil {
		return nil, err
	}
	if cf.Fields, err = readFields(br, cp); err != nil {
		return nil, err
	}
	if cf.Methods, err = readMethods(br, cp); err != nil {
		return nil, err
	}

	err = readAttributes(br, cp, func(name string, body *BinaryReader) error {
		switch name {
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			anns, err := readAnnotations(body, cp, name == "RuntimeVisibleAnnotations")
			if err != nil {
				return err
			}
			cf.Annotations = mergeAnnotations(cf.Annotations, anns)
		case "SourceFile":
			idx, err := body.ReadU2()
			if err != nil {
				return err
			}
			if cf.SourceFile, err = cp.Utf8(idx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}

	return cf, nil
}

func readInterfaces(br *BinaryReader, cp ConstantPool) ([]string, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read interfaces count: %w", err)
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		idx, err := br.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("failed to read interface %d: %w", i, err)
		}
		name, err := cp.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve interface %d: %w", i, err)
		}
		out = append(out, name)
	}
	return out, nil
}

// memberHeader is the prefix shared by field_info and method_info:
// u2 access_flags, u2 name_index, u2 descriptor_index.
func readMemberHeader(br *BinaryReader, cp ConstantPool) (AccessFlags, string, string, error) {
	access, err := br.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	nameIndex, err := br.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	descIndex, err := br.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	name, err := cp.Utf8(nameIndex)
	if err != nil {
		return 0, "", "", err
	}
	desc, err := cp.Utf8(descIndex)
	if err != nil {
		return 0, "", "", err
	}
	return AccessFlags(access), name, desc, nil
}

func readFields(br *BinaryReader, cp ConstantPool) ([]Field, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", err)
	}
	fields := make([]Field, 0, n)
	for i := 0; i < int(n); i++ {
		access, name, desc, err := readMemberHeader(br, cp)
		if err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
		f := Field{AccessFlags: access, Name: name, Descriptor: desc}
		err = readAttributes(br, cp, func(attr string, body *BinaryReader) error {
			return collectAnnotations(attr, body, cp, &f.Annotations)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read attributes of field %s: %w", name, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func readMethods(br *BinaryReader, cp ConstantPool) ([]Method, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", err)
	}
	methods := make([]Method, 0, n)
	for i := 0; i < int(n); i++ {
		access, name, desc, err := readMemberHeader(br, cp)
		if err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
		m := Method{AccessFlags: access, Name: name, Descriptor: desc}
		err = readAttributes(br, cp, func(attr string, body *BinaryReader) error {
			if attr == "Code" {
				code, err := readCode(body, cp)
				if err != nil {
					return err
				}
				m.Code = code
				return nil
			}
			return collectAnnotations(attr, body, cp, &m.Annotations)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read method %s%s: %w", name, desc, err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func collectAnnotations(attr string, body *BinaryReader, cp ConstantPool, into *Annotations) error {
	if attr != "RuntimeVisibleAnnotations" && attr != "RuntimeInvisibleAnnotations" {
		return nil
	}
	anns, err := readAnnotations(body, cp, attr == "RuntimeVisibleAnnotations")
	if err != nil {
		return err
	}
	*into = mergeAnnotations(*into, anns)
	return nil
}

// mergeAnnotations keeps visible annotations ahead of invisible ones
// regardless of attribute order.
func mergeAnnotations(have, add Annotations) Annotations {
	merged := append(have, add...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Visible && !merged[j].Visible
	})
	return merged
}

/*
readAttributes walks an attribute table, handing each body to visit:

u2		attributes_count
{
	u2	attribute_name_index
	u4	attribute_length
	u1	info[attribute_length]
}

Unrecognised attributes are skipped by length.
*/
func readAttributes(br *BinaryReader, cp ConstantPool, visit func(name string, body *BinaryReader) error) error {
	n, err := br.ReadU2()
	if err != nil {
		return fmt.Errorf("failed to read attributes count: %w", err)
	}
	for i := 0; i < int(n); i++ {
		nameIndex, err := br.ReadU2()
		if err != nil {
			return err
		}
		length, err := br.ReadU4()
		if err != nil {
			return err
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return err
		}
		body, err := br.Sub(int(length))
		if err != nil {
			return fmt.Errorf("failed to read %s attribute: %w", name, err)
		}
		if err := visit(name, body); err != nil {
			return fmt.Errorf("failed to parse %s attribute: %w", name, err)
		}
	}
	return nil
}

/*
readCode parses a Code attribute body:

u2		max_stack
u2		max_locals
u4		code_length
u1		code[code_length]
u2		exception_table_length
{u2 start_pc, u2 end_pc, u2 handler_pc, u2 catch_type} exception_table[exception_table_length]
u2		attributes_count
attribute_info attributes[attributes_count]
*/
func readCode(br *BinaryReader, cp ConstantPool) (*Code, error) {
	c := &Code{}
	var err error
	if c.MaxStack, err = br.ReadU2(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = br.ReadU2(); err != nil {
		return nil, err
	}
	length, err := br.ReadU4()
	if err != nil {
		return nil, err
	}
	codeStart := br.Offset()
	raw, err := br.ReadNBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read code array: %w", err)
	}
	c.Bytes = bytes.Clone(raw)

	handlers, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	if err := br.Skip(8 * int(handlers)); err != nil {
		return nil, fmt.Errorf("failed to read exception table: %w", err)
	}

	err = readAttributes(br, cp, func(name string, body *BinaryReader) error {
		if name != "LineNumberTable" {
			return nil
		}
		lines, err := readLineNumbers(body)
		if err != nil {
			return err
		}
		c.LineNumbers = append(c.LineNumbers, lines...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(c.LineNumbers, func(i, j int) bool {
		return c.LineNumbers[i].StartPC < c.LineNumbers[j].StartPC
	})

	c.Instructions, err = bytecode.Decode(c.Bytes, cp)
	if err != nil {
		if errors.Is(err, ErrMalformedInput) {
			return nil, err
		}
		return nil, malformed(codeStart, "%v", err)
	}
	return c, nil
}

/*
readLineNumbers parses a LineNumberTable body:

u2	line_number_table_length
{u2 start_pc, u2 line_number} line_number_table[line_number_table_length]
*/
func readLineNumbers(br *BinaryReader) (LineNumberTable, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make(LineNumberTable, 0, n)
	for i := 0; i < int(n); i++ {
		pc, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		line, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		out = append(out, LineNumber{StartPC: int(pc), Line: int(line)})
	}
	return out, nil
}
