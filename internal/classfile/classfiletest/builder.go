// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mabhi256/inthunter/internal/bytecode"
)

const (
	AccPublic  uint16 = 0x0001
	AccPrivate uint16 = 0x0002
	AccStatic  uint16 = 0x0008
	AccFinal   uint16 = 0x0010
	AccSuper   uint16 = 0x0020
)

// Annotation describes an annotation with string-valued elements only,
// which is all the detectors read.
type Annotation struct {
	Type      string // dotted
	Strings   map[string]string
	Invisible bool
}

// Line marks the source line starting at a bytecode offset.
type Line struct {
	PC   int
	Line int
}

type Code struct {
	MaxStack  uint16
	MaxLocals uint16
	Bytes     []byte
	Lines     []Line
}

type member struct {
	access uint16
	name   uint16
	desc   uint16
	attrs  [][]byte
}

// Builder interns constants on demand and serializes a class file whose
// pool holds exactly what was requested, in request order.
type Builder struct {
	pool  []byte
	next  uint16
	cache map[string]uint16

	major      uint16
	access     uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     []member
	methods    []member
	attrs      [][]byte
}

// New starts a public class named name (dotted) extending java.lang.Object.
func New(name string) *Builder {
	b := &Builder{next: 1, cache: make(map[string]uint16), major: 52, access: AccPublic | AccSuper}
	b.this = b.Class(name)
	b.super = b.Class("java.lang.Object")
	return b
}

func (b *Builder) Super(name string) *Builder {
	b.super = b.Class(name)
	return b
}

func (b *Builder) Implements(name string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(name))
	return b
}

// PoolCount is the constant_pool_count the class file will carry.
func (b *Builder) PoolCount() uint16 {
	return b.next
}

func (b *Builder) intern(key string, wide bool, entry []byte) uint16 {
	if idx, ok := b.cache[key]; ok {
		return idx
	}
	idx := b.next
	b.pool = append(b.pool, entry...)
	b.next++
	if wide {
		b.next++
	}
	b.cache[key] = idx
	return idx
}

// Raw appends an arbitrary entry without interning.
func (b *Builder) Raw(tag byte, payload ...byte) uint16 {
	idx := b.next
	b.pool = append(append(b.pool, tag), payload...)
	b.next++
	if tag == 5 || tag == 6 {
		b.next++
	}
	return idx
}

func (b *Builder) Utf8(s string) uint16 {
	entry := []byte{1}
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(s)))
	entry = append(entry, s...)
	return b.intern("utf8:"+s, false, entry)
}

// Class interns a Class entry; name may be dotted or internal.
func (b *Builder) Class(name string) uint16 {
	internal := strings.ReplaceAll(name, ".", "/")
	nameIndex := b.Utf8(internal)
	return b.intern("class:"+internal, false, binary.BigEndian.AppendUint16([]byte{7}, nameIndex))
}

func (b *Builder) StringConst(s string) uint16 {
	utf := b.Utf8(s)
	return b.intern("string:"+s, false, binary.BigEndian.AppendUint16([]byte{8}, utf))
}

func (b *Builder) Integer(v int32) uint16 {
	return b.intern(fmt.Sprintf("int:%d", v), false, binary.BigEndian.AppendUint32([]byte{3}, uint32(v)))
}

func (b *Builder) Long(v int64) uint16 {
	return b.intern(fmt.Sprintf("long:%d", v), true, binary.BigEndian.AppendUint64([]byte{5}, uint64(v)))
}

func (b *Builder) Double(v float64) uint16 {
	return b.intern(fmt.Sprintf("double:%v", v), true, binary.BigEndian.AppendUint64([]byte{6}, math.Float64bits(v)))
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	entry := binary.BigEndian.AppendUint16([]byte{12}, n)
	entry = binary.BigEndian.AppendUint16(entry, d)
	return b.intern("nat:"+name+":"+desc, false, entry)
}

func (b *Builder) ref(tag byte, owner, name, desc string) uint16 {
	c, nat := b.Class(owner), b.NameAndType(name, desc)
	entry := binary.BigEndian.AppendUint16([]byte{tag}, c)
	entry = binary.BigEndian.AppendUint16(entry, nat)
	return b.intern(fmt.Sprintf("ref%d:%s.%s:%s", tag, owner, name, desc), false, entry)
}

func (b *Builder) Fieldref(owner, name, desc string) uint16 { return b.ref(9, owner, name, desc) }

func (b *Builder) Methodref(owner, name, desc string) uint16 { return b.ref(10, owner, name, desc) }

func (b *Builder) InterfaceMethodref(owner, name, desc string) uint16 {
	return b.ref(11, owner, name, desc)
}

func (b *Builder) attribute(name string, body []byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, b.Utf8(name))
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func (b *Builder) annotationAttrs(anns []Annotation) [][]byte {
	var visible, invisible []Annotation
	for _, a := range anns {
		if a.Invisible {
			invisible = append(invisible, a)
		} else {
			visible = append(visible, a)
		}
	}

	var attrs [][]byte
	if len(visible) > 0 {
		attrs = append(attrs, b.attribute("RuntimeVisibleAnnotations", b.encodeAnnotations(visible)))
	}
	if len(invisible) > 0 {
		attrs = append(attrs, b.attribute("RuntimeInvisibleAnnotations", b.encodeAnnotations(invisible)))
	}
	return attrs
}

func (b *Builder) encodeAnnotations(anns []Annotation) []byte {
	out := binary.BigEndian.AppendUint16(nil, uint16(len(anns)))
	for _, a := range anns {
		desc := "L" + strings.ReplaceAll(a.Type, ".", "/") + ";"
		out = binary.BigEndian.AppendUint16(out, b.Utf8(desc))
		out = binary.BigEndian.AppendUint16(out, uint16(len(a.Strings)))

		keys := make([]string, 0, len(a.Strings))
		for k := range a.Strings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = binary.BigEndian.AppendUint16(out, b.Utf8(k))
			out = append(out, 's')
			out = binary.BigEndian.AppendUint16(out, b.Utf8(a.Strings[k]))
		}
	}
	return out
}

// Annotate adds class-level annotations.
func (b *Builder) Annotate(anns ...Annotation) *Builder {
	b.attrs = append(b.attrs, b.annotationAttrs(anns)...)
	return b
}

func (b *Builder) SourceFile(name string) *Builder {
	b.attrs = append(b.attrs, b.attribute("SourceFile", binary.BigEndian.AppendUint16(nil, b.Utf8(name))))
	return b
}

func (b *Builder) Field(access uint16, name, desc string, anns ...Annotation) *Builder {
	b.fields = append(b.fields, member{
		access: access,
		name:   b.Utf8(name),
		desc:   b.Utf8(desc),
		attrs:  b.annotationAttrs(anns),
	})
	return b
}

// Method adds a method; code nil makes it abstract.
func (b *Builder) Method(access uint16, name, desc string, code *Code, anns ...Annotation) *Builder {
	m := member{access: access, name: b.Utf8(name), desc: b.Utf8(desc)}
	if code != nil {
		m.attrs = append(m.attrs, b.attribute("Code", b.encodeCode(code)))
	} else {
		m.access |= 0x0400
	}
	m.attrs = append(m.attrs, b.annotationAttrs(anns)...)
	b.methods = append(b.methods, m)
	return b
}

func (b *Builder) encodeCode(c *Code) []byte {
	out := binary.BigEndian.AppendUint16(nil, c.MaxStack)
	out = binary.BigEndian.AppendUint16(out, c.MaxLocals)
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Bytes)))
	out = append(out, c.Bytes...)
	out = binary.BigEndian.AppendUint16(out, 0) // exception table

	if len(c.Lines) == 0 {
		return binary.BigEndian.AppendUint16(out, 0)
	}
	table := binary.BigEndian.AppendUint16(nil, uint16(len(c.Lines)))
	for _, l := range c.Lines {
		table = binary.BigEndian.AppendUint16(table, uint16(l.PC))
		table = binary.BigEndian.AppendUint16(table, uint16(l.Line))
	}
	out = binary.BigEndian.AppendUint16(out, 1)
	return append(out, b.attribute("LineNumberTable", table)...)
}

func appendMembers(out []byte, members []member) []byte {
	out = binary.BigEndian.AppendUint16(out, uint16(len(members)))
	for _, m := range members {
		out = binary.BigEndian.AppendUint16(out, m.access)
		out = binary.BigEndian.AppendUint16(out, m.name)
		out = binary.BigEndian.AppendUint16(out, m.desc)
		out = binary.BigEndian.AppendUint16(out, uint16(len(m.attrs)))
		for _, a := range m.attrs {
			out = append(out, a...)
		}
	}
	return out
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, b.major)
	out = binary.BigEndian.AppendUint16(out, b.next)
	out = append(out, b.pool...)
	out = binary.BigEndian.AppendUint16(out, b.access)
	out = binary.BigEndian.AppendUint16(out, b.this)
	out = binary.BigEndian.AppendUint16(out, b.super)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	out = appendMembers(out, b.fields)
	out = appendMembers(out, b.methods)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.attrs)))
	for _, a := range b.attrs {
		out = append(out, a...)
	}
	return out
}

// Asm assembles a method body against b's constant pool.
type Asm struct {
	b     *Builder
	code  []byte
	lines []Line
}

func (b *Builder) Asm() *Asm {
	return &Asm{b: b}
}

func (a *Asm) Offset() int {
	return len(a.code)
}

// Line starts source line n at the current offset.
func (a *Asm) Line(n int) *Asm {
	a.lines = append(a.lines, Line{PC: len(a.code), Line: n})
	return a
}

func (a *Asm) Op(ops ...bytecode.Opcode) *Asm {
	for _, op := range ops {
		a.code = append(a.code, byte(op))
	}
	return a
}

func (a *Asm) Raw(bs ...byte) *Asm {
	a.code = append(a.code, bs...)
	return a
}

func (a *Asm) u2(op bytecode.Opcode, idx uint16) *Asm {
	a.code = binary.BigEndian.AppendUint16(append(a.code, byte(op)), idx)
	return a
}

// Ldc pushes a string literal, widening to ldc_w when the index needs it.
func (a *Asm) Ldc(s string) *Asm {
	idx := a.b.StringConst(s)
	if idx < 256 {
		a.code = append(a.code, byte(bytecode.Ldc), byte(idx))
		return a
	}
	return a.u2(bytecode.LdcW, idx)
}

func (a *Asm) LdcW(s string) *Asm {
	return a.u2(bytecode.LdcW, a.b.StringConst(s))
}

func (a *Asm) Iconst(n int) *Asm {
	switch {
	case n >= -1 && n <= 5:
		return a.Op(bytecode.Iconst0 + bytecode.Opcode(n))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		return a.Raw(byte(bytecode.Bipush), byte(int8(n)))
	default:
		return a.u2(bytecode.Sipush, uint16(int16(n)))
	}
}

// local emits the shortest form of a load or store: compact for slots
// 0-3, explicit up to 255, wide beyond.
func (a *Asm) local(explicit, compact0 bytecode.Opcode, slot int) *Asm {
	switch {
	case slot <= 3:
		return a.Op(compact0 + bytecode.Opcode(slot))
	case slot <= 255:
		return a.Raw(byte(explicit), byte(slot))
	default:
		a.code = append(a.code, byte(bytecode.Wide), byte(explicit))
		a.code = binary.BigEndian.AppendUint16(a.code, uint16(slot))
		return a
	}
}

func (a *Asm) Aload(slot int) *Asm  { return a.local(bytecode.Aload, bytecode.Aload0, slot) }
func (a *Asm) Iload(slot int) *Asm  { return a.local(bytecode.Iload, bytecode.Iload0, slot) }
func (a *Asm) Astore(slot int) *Asm { return a.local(bytecode.Astore, bytecode.Astore0, slot) }
func (a *Asm) Istore(slot int) *Asm { return a.local(bytecode.Istore, bytecode.Istore0, slot) }

func (a *Asm) Getfield(owner, name, desc string) *Asm {
	return a.u2(bytecode.Getfield, a.b.Fieldref(owner, name, desc))
}

func (a *Asm) Anewarray(class string) *Asm {
	return a.u2(bytecode.Anewarray, a.b.Class(class))
}

func (a *Asm) InvokeVirtual(owner, name, desc string) *Asm {
	return a.u2(bytecode.Invokevirtual, a.b.Methodref(owner, name, desc))
}

func (a *Asm) InvokeSpecial(owner, name, desc string) *Asm {
	return a.u2(bytecode.Invokespecial, a.b.Methodref(owner, name, desc))
}

func (a *Asm) InvokeStatic(owner, name, desc string) *Asm {
	return a.u2(bytecode.Invokestatic, a.b.Methodref(owner, name, desc))
}

// InvokeInterface emits the 5-byte form; count is the argument slot count
// including the receiver.
func (a *Asm) InvokeInterface(owner, name, desc string, count int) *Asm {
	a.u2(bytecode.Invokeinterface, a.b.InterfaceMethodref(owner, name, desc))
	a.code = append(a.code, byte(count), 0)
	return a
}

// Code finishes the body.
func (a *Asm) Code() *Code {
	return &Code{MaxStack: 8, MaxLocals: 16, Bytes: a.code, Lines: a.lines}
}
