package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrMalformedCode = errors.New("malformed bytecode")

func malformedCode(offset int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformedCode, offset, fmt.Sprintf(format, args...))
}

// Decoder walks a method's code array one instruction at a time. It can be
// repositioned with Seek, which is how detectors resume a forward scan
// after a call site.
type Decoder struct {
	code     []byte
	pos      int
	resolver Resolver
}

// NewDecoder returns a decoder over code. resolver may be nil, in which
// case constant-pool operands are left unresolved.
func NewDecoder(code []byte, resolver Resolver) *Decoder {
	return &Decoder{code: code, resolver: resolver}
}

// Seek moves to offset, which must be an instruction boundary.
func (d *Decoder) Seek(offset int) {
	d.pos = offset
}

func (d *Decoder) Offset() int {
	return d.pos
}

func (d *Decoder) More() bool {
	return d.pos < len(d.code)
}

// Decode decodes the whole code array.
func Decode(code []byte, resolver Resolver) ([]Instruction, error) {
	return DecodeFrom(code, 0, resolver)
}

// DecodeFrom decodes from offset to the end of code.
func DecodeFrom(code []byte, offset int, resolver Resolver) ([]Instruction, error) {
	d := NewDecoder(code, resolver)
	d.Seek(offset)

	var out []Instruction
	for d.More() {
		ins, err := d.Next()
		if err != nil {
			return out, err
		}
		out = append(out, ins)
	}
	return out, nil
}

// Next decodes the instruction at the current offset and advances past it.
// It returns io.EOF once the code array is exhausted.
func (d *Decoder) Next() (Instruction, error) {
	start := d.pos
	if start < 0 || start >= len(d.code) {
		return Instruction{}, io.EOF
	}

	op := Opcode(d.code[start])
	if !op.Valid() {
		return Instruction{}, malformedCode(start, "unknown opcode 0x%02X", uint8(op))
	}

	length := opcodes[op].length
	var err error
	switch op {
	case Tableswitch, Lookupswitch:
		length, err = d.switchLength(op, start)
	case Wide:
		length, err = d.wideLength(start)
	}
	if err != nil {
		return Instruction{}, err
	}
	if start+length > len(d.code) {
		return Instruction{}, malformedCode(start, "%s needs %d bytes, %d left", op, length, len(d.code)-start)
	}

	ins := Instruction{Offset: start, Length: length, Opcode: op, Slot: -1}
	if err := d.decodeOperands(&ins, d.code[start+1:start+length]); err != nil {
		return Instruction{}, err
	}

	d.pos = start + length
	return ins, nil
}

/*
*	tableswitch:  op, 0-3 pad, s4 default, s4 low, s4 high, s4 offsets[high-low+1]
*	lookupswitch: op, 0-3 pad, s4 default, u4 npairs, (s4 match, s4 offset)[npairs]
*
*	Padding aligns the first operand to a multiple of 4 from the start of the code array.
 */
func (d *Decoder) switchLength(op Opcode, start int) (int, error) {
	pad := (4 - (start+1)%4) % 4
	header := 1 + pad + 8 // default + npairs
	if op == Tableswitch {
		header += 4 // default, low, high
	}
	if start+header > len(d.code) {
		return 0, malformedCode(start, "truncated %s header", op)
	}
	words := d.code[start+1+pad:]

	if op == Tableswitch {
		low := int32(binary.BigEndian.Uint32(words[4:8]))
		high := int32(binary.BigEndian.Uint32(words[8:12]))
		if high < low {
			return 0, malformedCode(start, "tableswitch high %d < low %d", high, low)
		}
		return header + 4*int(int64(high)-int64(low)+1), nil
	}

	npairs := int32(binary.BigEndian.Uint32(words[4:8]))
	if npairs < 0 {
		return 0, malformedCode(start, "lookupswitch with %d pairs", npairs)
	}
	return header + 8*int(npairs), nil
}

// wide prefixes a load/store/ret (4 bytes total) or iinc (6 bytes total).
func (d *Decoder) wideLength(start int) (int, error) {
	if start+1 >= len(d.code) {
		return 0, malformedCode(start, "truncated wide")
	}
	inner := Opcode(d.code[start+1])
	switch {
	case inner == Iinc:
		return 6, nil
	case inner.isExplicitLoad(), inner.isExplicitStore(), inner == Ret:
		return 4, nil
	}
	return 0, malformedCode(start, "wide cannot modify %s", inner)
}

func (d *Decoder) decodeOperands(ins *Instruction, operands []byte) error {
	op := ins.Opcode
	switch {
	case op == Wide:
		ins.Wide = true
		ins.Opcode = Opcode(operands[0])
		ins.Slot = int(binary.BigEndian.Uint16(operands[1:3]))
		if ins.Opcode == Iinc {
			ins.Int = int64(int16(binary.BigEndian.Uint16(operands[3:5])))
		}

	case op >= IconstM1 && op <= Iconst5:
		ins.Int = int64(op) - int64(Iconst0)
	case op == Bipush:
		ins.Int = int64(int8(operands[0]))
	case op == Sipush:
		ins.Int = int64(int16(binary.BigEndian.Uint16(operands)))

	case op == Ldc:
		ins.Index = uint16(operands[0])
		return d.resolveLiteral(ins)
	case op == LdcW, op == Ldc2W:
		ins.Index = binary.BigEndian.Uint16(operands)
		return d.resolveLiteral(ins)

	case op.isExplicitLoad(), op.isExplicitStore(), op == Ret:
		ins.Slot = int(operands[0])
	case op.isCompactLoad(), op.isCompactStore():
		ins.Opcode, ins.Slot = op.expandCompact()
	case op == Iinc:
		ins.Slot = int(operands[0])
		ins.Int = int64(int8(operands[1]))

	case (op >= Ifeq && op <= Jsr) || op == Ifnull || op == Ifnonnull:
		ins.Int = int64(ins.Offset) + int64(int16(binary.BigEndian.Uint16(operands)))
	case op == GotoW, op == JsrW:
		ins.Int = int64(ins.Offset) + int64(int32(binary.BigEndian.Uint32(operands)))

	case op.IsFieldAccess(), op.IsInvoke():
		ins.Index = binary.BigEndian.Uint16(operands)
		return d.resolveMember(ins)

	case op == New, op == Anewarray, op == Checkcast, op == Instanceof, op == Multianewarray:
		ins.Index = binary.BigEndian.Uint16(operands)
		return d.resolveClass(ins)
	case op == Newarray:
		ins.Int = int64(operands[0])
	}
	return nil
}

func (d *Decoder) resolveLiteral(ins *Instruction) error {
	if d.resolver == nil {
		return nil
	}
	lit, err := d.resolver.Literal(ins.Index)
	if err != nil {
		return fmt.Errorf("failed to resolve %s operand at offset %d: %w", ins.Opcode, ins.Offset, err)
	}
	ins.Literal = lit
	return nil
}

func (d *Decoder) resolveMember(ins *Instruction) error {
	if d.resolver == nil {
		return nil
	}
	ref, err := d.resolver.MemberRef(ins.Index)
	if err != nil {
		return fmt.Errorf("failed to resolve %s operand at offset %d: %w", ins.Opcode, ins.Offset, err)
	}
	ins.Member = ref
	return nil
}

func (d *Decoder) resolveClass(ins *Instruction) error {
	if d.resolver == nil {
		return nil
	}
	name, err := d.resolver.ClassName(ins.Index)
	if err != nil {
		return fmt.Errorf("failed to resolve %s operand at offset %d: %w", ins.Opcode, ins.Offset, err)
	}
	ins.Class = name
	return nil
}
