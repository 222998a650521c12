package classfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/inthunter/internal/bytecode"
	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/classfile/classfiletest"
)

func userClass() *classfiletest.Builder {
	b := classfiletest.New("com.example.User").
		Super("com.example.Base").
		Implements("java.io.Serializable").
		SourceFile("User.java").
		Annotate(
			classfiletest.Annotation{Type: "javax.persistence.Entity"},
			classfiletest.Annotation{Type: "javax.persistence.Table", Strings: map[string]string{"name": "users"}, Invisible: true},
		).
		Field(classfiletest.AccPrivate, "id", "I",
			classfiletest.Annotation{Type: "javax.persistence.Column", Strings: map[string]string{"name": "user_id"}}).
		Field(classfiletest.AccPrivate, "tags", "[Ljava/lang/String;")

	code := b.Asm().Line(10).Aload(0).Line(11).Op(bytecode.Return).Code()
	return b.Method(classfiletest.AccPublic, "touch", "()V", code).
		Method(classfiletest.AccPublic, "name", "()Ljava/lang/String;", nil)
}

func TestParse_ClassStructure(t *testing.T) {
	cf, err := classfile.Parse(userClass().Bytes())
	require.NoError(t, err)

	assert.Equal(t, "com.example.User", cf.Name)
	assert.Equal(t, "com.example.Base", cf.SuperName)
	assert.Equal(t, []string{"java.io.Serializable"}, cf.Interfaces)
	assert.Equal(t, "User.java", cf.SourceFile)
	assert.Equal(t, uint16(52), cf.MajorVersion)

	require.Len(t, cf.Fields, 2)
	assert.Equal(t, "id", cf.Fields[0].Name)
	assert.Equal(t, "int", cf.Fields[0].Type())
	assert.Equal(t, "java.lang.String[]", cf.Fields[1].Type())
	assert.True(t, cf.Fields[0].AccessFlags.Has(classfile.AccPrivate))

	col, ok := cf.Fields[0].Annotations.Find("javax.persistence.Column")
	require.True(t, ok)
	name, ok := col.StringValue("name")
	assert.True(t, ok)
	assert.Equal(t, "user_id", name)

	require.Len(t, cf.Methods, 2)
	touch := cf.Methods[0]
	require.NotNil(t, touch.Code)
	require.Len(t, touch.Code.Instructions, 2)
	assert.Equal(t, bytecode.Aload, touch.Code.Instructions[0].Opcode)
	assert.Equal(t, 0, touch.Code.Instructions[0].Slot)
	assert.Equal(t, 10, touch.Code.LineFor(0))
	assert.Equal(t, 11, touch.Code.LineFor(1))
	assert.Nil(t, cf.Methods[1].Code)
	assert.True(t, cf.Methods[1].AccessFlags.Has(classfile.AccAbstract))
}

func TestParse_MergesVisibleAndInvisibleAnnotations(t *testing.T) {
	cf, err := classfile.Parse(userClass().Bytes())
	require.NoError(t, err)

	assert.True(t, cf.Annotations.Has("jakarta.persistence.Entity", "javax.persistence.Entity"))
	table, ok := cf.Annotations.Find("jakarta.persistence.Table", "javax.persistence.Table")
	require.True(t, ok)
	assert.False(t, table.Visible)
	name, _ := table.StringValue("name")
	assert.Equal(t, "users", name)

	// invisible attribute first in the file, visible still sorts first
	b := classfiletest.New("com.example.Order").Annotate(
		classfiletest.Annotation{Type: "com.example.Hidden", Invisible: true},
	).Annotate(
		classfiletest.Annotation{Type: "com.example.Shown"},
	)
	cf, err = classfile.Parse(b.Bytes())
	require.NoError(t, err)
	require.Len(t, cf.Annotations, 2)
	assert.Equal(t, "com.example.Shown", cf.Annotations[0].Type)
	assert.Equal(t, "com.example.Hidden", cf.Annotations[1].Type)
}

func TestConstantPool_PhantomSlotAfterLong(t *testing.T) {
	b := classfiletest.New("com.example.Wide")
	idx := b.Long(1 << 40)
	after := b.Utf8("after")

	cf, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)
	pool := cf.ConstantPool

	e, err := pool.Entry(idx)
	require.NoError(t, err)
	assert.Equal(t, classfile.Long{Value: 1 << 40}, e)

	_, err = pool.Entry(idx + 1)
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)

	s, err := pool.Utf8(after)
	require.NoError(t, err)
	assert.Equal(t, "after", s)

	_, err = pool.Entry(0)
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)
	_, err = pool.Entry(b.PoolCount())
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)
	_, err = pool.ClassName(after)
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)
}

func TestParse_InstructionReferencingPhantomSlot(t *testing.T) {
	b := classfiletest.New("com.example.Phantom")
	phantom := b.Long(7) + 1
	code := b.Asm().
		Raw(byte(bytecode.LdcW), byte(phantom>>8), byte(phantom)).
		Op(bytecode.Return).
		Code()
	b.Method(classfiletest.AccPublic, "m", "()V", code)

	_, err := classfile.Parse(b.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)
}

func TestParse_Malformed(t *testing.T) {
	valid := userClass().Bytes()

	badMagic := append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, valid[4:]...)
	unknownOpcode := classfiletest.New("com.example.Bad")
	unknownOpcode.Method(classfiletest.AccPublic, "m", "()V", unknownOpcode.Asm().Raw(0xcb).Code())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", badMagic},
		{"truncated header", valid[:9]},
		{"truncated tail", valid[:len(valid)-3]},
		{"unknown opcode", unknownOpcode.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classfile.Parse(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, classfile.ErrMalformedInput)

			var mie *classfile.MalformedInputError
			assert.True(t, errors.As(err, &mie))
		})
	}
}

func TestParseFile_NamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Broken.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE}, 0o644))

	_, err := classfile.ParseFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, classfile.ErrMalformedInput)
	assert.Contains(t, err.Error(), "Broken.class")
}

func TestConstantPool_ModifiedUTF8(t *testing.T) {
	b := classfiletest.New("com.example.Text")
	nul := b.Raw(1, 0x00, 0x02, 0xC0, 0x80)
	emoji := b.Raw(1, 0x00, 0x06, 0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80)

	cf, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)

	s, err := cf.ConstantPool.Utf8(nul)
	require.NoError(t, err)
	assert.Equal(t, "\x00", s)

	s, err = cf.ConstantPool.Utf8(emoji)
	require.NoError(t, err)
	assert.Equal(t, "\U0001F600", s)
}

func TestConstantPool_ClassNames(t *testing.T) {
	b := classfiletest.New("com.example.Dao")
	b.Class("org.springframework.jdbc.core.JdbcTemplate")

	cf, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"com.example.Dao",
		"java.lang.Object",
		"org.springframework.jdbc.core.JdbcTemplate",
	}, cf.ConstantPool.ClassNames())
	assert.True(t, cf.ReferencesClass(func(n string) bool { return n == "java.lang.Object" }))
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"I":                   "int",
		"Z":                   "boolean",
		"Ljava/lang/Integer;": "java.lang.Integer",
		"[I":                  "int[]",
		"[[Ljava/util/List;":  "java.util.List[][]",
		"Q":                   "Q",
		"L;":                  "L;",
	}
	for desc, want := range tests {
		assert.Equal(t, want, classfile.TypeName(desc), desc)
	}
}

func TestLineNumberTable_LineFor(t *testing.T) {
	table := classfile.LineNumberTable{{StartPC: 0, Line: 5}, {StartPC: 4, Line: 6}, {StartPC: 9, Line: 8}}
	assert.Equal(t, 5, table.LineFor(0))
	assert.Equal(t, 5, table.LineFor(3))
	assert.Equal(t, 6, table.LineFor(4))
	assert.Equal(t, 8, table.LineFor(100))
	assert.Equal(t, -1, classfile.LineNumberTable(nil).LineFor(0))

	var code *classfile.Code
	assert.Equal(t, -1, code.LineFor(3))
}
