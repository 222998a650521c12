package bytecode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct {
	literals map[uint16]Literal
	members  map[uint16]MemberRef
	classes  map[uint16]string
}

func (p fakePool) Literal(i uint16) (Literal, error) {
	if l, ok := p.literals[i]; ok {
		return l, nil
	}
	return Literal{}, fmt.Errorf("no literal #%d", i)
}

func (p fakePool) MemberRef(i uint16) (MemberRef, error) {
	if m, ok := p.members[i]; ok {
		return m, nil
	}
	return MemberRef{}, fmt.Errorf("no member #%d", i)
}

func (p fakePool) ClassName(i uint16) (string, error) {
	if c, ok := p.classes[i]; ok {
		return c, nil
	}
	return "", fmt.Errorf("no class #%d", i)
}

func lengths(t *testing.T, code []byte) []int {
	t.Helper()
	insns, err := Decode(code, nil)
	require.NoError(t, err)
	var out []int
	for _, ins := range insns {
		out = append(out, ins.Length)
	}
	return out
}

func TestInstructionLengths(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want []int
	}{
		{"bipush", []byte{0x10, 0x05}, []int{2}},
		{"sipush", []byte{0x11, 0x01, 0x00}, []int{3}},
		{"ldc", []byte{0x12, 0x01}, []int{2}},
		{"ldc_w and ldc2_w", []byte{0x13, 0x00, 0x01, 0x14, 0x00, 0x02}, []int{3, 3}},
		{"invokeinterface", []byte{0xb9, 0x00, 0x01, 0x02, 0x00, 0x57}, []int{5, 1}},
		{"invokedynamic", []byte{0xba, 0x00, 0x01, 0x00, 0x00}, []int{5}},
		{"multianewarray", []byte{0xc5, 0x00, 0x01, 0x02}, []int{4}},
		{"goto_w and jsr_w", []byte{0xc8, 0, 0, 0, 5, 0xc9, 0, 0, 0, 0}, []int{5, 5}},
		{"wide load", []byte{0xc4, 0x15, 0x01, 0x00}, []int{4}},
		{"wide iinc", []byte{0xc4, 0x84, 0x00, 0x01, 0x00, 0x02}, []int{6}},
		{
			"tableswitch at 0",
			[]byte{
				0xaa, 0, 0, 0, // opcode + 3 pad
				0, 0, 0, 20, // default
				0, 0, 0, 0, // low
				0, 0, 0, 1, // high
				0, 0, 0, 20, 0, 0, 0, 20, // two offsets
			},
			[]int{24},
		},
		{
			"tableswitch after nop",
			[]byte{
				0x00,
				0xaa, 0, 0, // opcode + 2 pad
				0, 0, 0, 20,
				0, 0, 0, 0,
				0, 0, 0, 0,
				0, 0, 0, 20,
			},
			[]int{1, 19},
		},
		{
			"lookupswitch",
			[]byte{
				0xab, 0, 0, 0,
				0, 0, 0, 20, // default
				0, 0, 0, 1, // npairs
				0, 0, 0, 7, 0, 0, 0, 20,
				0xb1,
			},
			[]int{20, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lengths(t, tt.code))
		})
	}
}

func TestStoreForms_Normalize(t *testing.T) {
	ignore := cmpopts.IgnoreFields(Instruction{}, "Offset", "Length", "Wide")

	for slot := 0; slot <= 3; slot++ {
		t.Run(fmt.Sprintf("slot %d", slot), func(t *testing.T) {
			code := []byte{
				byte(Astore0) + byte(slot),
				byte(Astore), byte(slot),
				byte(Wide), byte(Astore), 0x00, byte(slot),
			}
			insns, err := Decode(code, nil)
			require.NoError(t, err)
			require.Len(t, insns, 3)

			want := Instruction{Opcode: Astore, Slot: slot}
			for _, ins := range insns {
				if diff := cmp.Diff(want, ins, ignore); diff != "" {
					t.Errorf("instruction at %d mismatch (-want +got):\n%s", ins.Offset, diff)
				}
				assert.True(t, ins.IsStore())
			}
			assert.True(t, insns[2].Wide)
		})
	}
}

func TestCompactLoads_Normalize(t *testing.T) {
	insns, err := Decode([]byte{0x1a, 0x1f, 0x24, 0x29, 0x2b}, nil)
	require.NoError(t, err)

	var got []Opcode
	var slots []int
	for _, ins := range insns {
		got = append(got, ins.Opcode)
		slots = append(slots, ins.Slot)
		assert.True(t, ins.IsLoad())
	}
	assert.Equal(t, []Opcode{Iload, Lload, Fload, Dload, Aload}, got)
	assert.Equal(t, []int{0, 1, 2, 3, 1}, slots)
}

func TestDecode_ResolvesOperands(t *testing.T) {
	pool := fakePool{
		literals: map[uint16]Literal{
			1: {Kind: LiteralString, Text: "INSERT INTO t VALUES (?)"},
			300: {Kind: LiteralInt, Int: 42},
		},
		members: map[uint16]MemberRef{
			2: {Owner: "java.lang.Integer", Name: "valueOf", Descriptor: "(I)Ljava/lang/Integer;"},
			3: {Owner: "java.sql.Connection", Name: "prepareStatement", Descriptor: "(Ljava/lang/String;)Ljava/sql/PreparedStatement;"},
		},
		classes: map[uint16]string{4: "java.lang.Object"},
	}

	code := []byte{
		0x12, 0x01, // ldc #1
		0x14, 0x01, 0x2c, // ldc2_w #300
		0xb8, 0x00, 0x02, // invokestatic #2
		0xb9, 0x00, 0x03, 0x02, 0x00, // invokeinterface #3
		0xbd, 0x00, 0x04, // anewarray #4
		0x10, 0xfe, // bipush -2
		0xb1,
	}
	insns, err := Decode(code, pool)
	require.NoError(t, err)
	require.Len(t, insns, 7)

	s, ok := insns[0].StringLiteral()
	assert.True(t, ok)
	assert.Equal(t, "INSERT INTO t VALUES (?)", s)

	assert.Equal(t, int64(42), insns[1].Literal.Int)
	_, ok = insns[1].StringLiteral()
	assert.False(t, ok)

	assert.True(t, insns[2].Calls("java.lang.Integer", "valueOf", "(I)Ljava/lang/Integer;"))
	assert.True(t, insns[3].Calls("java.sql.Connection", "prepareStatement", ""))
	assert.True(t, insns[3].Opcode.IsVirtualCall())
	assert.Equal(t, "java.lang.Object", insns[4].Class)
	assert.Equal(t, int64(-2), insns[5].Int)
	assert.True(t, insns[6].Opcode.IsReturn())
	assert.Equal(t, 18, insns[6].Offset)
}

func TestDecodeFrom_ResumesAtBoundary(t *testing.T) {
	code := []byte{
		0xb9, 0x00, 0x01, 0x02, 0x00, // invokeinterface, 5 bytes
		0x4c, // astore_1
		0x2b, // aload_1
		0x04, // iconst_1
		0xb1, // return
	}
	all, err := Decode(code, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)

	rest, err := DecodeFrom(code, all[0].Next(), nil)
	require.NoError(t, err)
	assert.Equal(t, all[1:], rest)
	assert.Equal(t, Astore, rest[0].Opcode)
	assert.Equal(t, 1, rest[0].Slot)
	assert.Equal(t, int64(1), rest[2].Int)
}

func TestDecoder_SeekAndNext(t *testing.T) {
	code := []byte{0x00, 0x10, 0x07, 0xb1}
	d := NewDecoder(code, nil)
	d.Seek(1)

	ins, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Bipush, ins.Opcode)
	assert.Equal(t, 3, d.Offset())

	ins, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, Return, ins.Opcode)
	assert.False(t, d.More())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"unknown opcode", []byte{0xcb}},
		{"truncated sipush", []byte{0x11, 0x01}},
		{"truncated invokeinterface", []byte{0xb9, 0x00, 0x01}},
		{"wide of non-local", []byte{0xc4, 0xb1, 0x00, 0x00}},
		{"truncated tableswitch", []byte{0xaa, 0, 0, 0, 0, 0}},
		{"inverted tableswitch", []byte{0xaa, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCode), "got %v", err)
		})
	}
}

func TestDecode_ResolverErrorPropagates(t *testing.T) {
	_, err := Decode([]byte{0x12, 0x09}, fakePool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ldc")
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "invokeinterface", Invokeinterface.String())
	assert.Equal(t, "astore_3", Astore3.String())
	assert.Equal(t, "Opcode(0xCB)", Opcode(0xcb).String())
}
