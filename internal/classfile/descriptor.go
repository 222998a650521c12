package classfile

import "strings"

var primitiveNames = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// TypeName converts a field descriptor to a Java type name:
// I -> int, Ljava/lang/Integer; -> java.lang.Integer, [[B -> byte[][].
// Descriptors it cannot decode are returned unchanged.
func TypeName(descriptor string) string {
	dims := 0
	for dims < len(descriptor) && descriptor[dims] == '[' {
		dims++
	}
	base := descriptor[dims:]

	var name string
	switch {
	case len(base) == 1 && primitiveNames[base[0]] != "":
		name = primitiveNames[base[0]]
	case len(base) > 2 && base[0] == 'L' && base[len(base)-1] == ';':
		name = dotted(base[1 : len(base)-1])
	default:
		return descriptor
	}
	return name + strings.Repeat("[]", dims)
}
