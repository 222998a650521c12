package classfile

import (
	"fmt"
)

// nested annotations and arrays deeper than this are rejected
const maxElementDepth = 32

// Annotation is one runtime-visible or runtime-invisible annotation.
type Annotation struct {
	Type    string // dotted
	Visible bool
	Values  map[string]ElementValue
}

// StringValue returns the named element if it is a string constant.
func (a Annotation) StringValue(name string) (string, bool) {
	v, ok := a.Values[name]
	if !ok || v.Tag != 's' {
		return "", false
	}
	return v.Str, true
}

// ElementValue is an annotation element. Tag selects which fields are set:
//
//	B C I J S Z   Int
//	D F           Float
//	s             Str
//	e             EnumType, Str (constant name)
//	c             Str (Java type name)
//	@             Annotation
//	[             Array
type ElementValue struct {
	Tag        byte
	Int        int64
	Float      float64
	Str        string
	EnumType   string
	Annotation *Annotation
	Array      []ElementValue
}

// Annotations merges the visible and invisible sets of one class, field
// or method, visible first.
type Annotations []Annotation

// Find returns the first annotation whose type is any of types.
func (as Annotations) Find(types ...string) (Annotation, bool) {
	for _, a := range as {
		for _, t := range types {
			if a.Type == t {
				return a, true
			}
		}
	}
	return Annotation{}, false
}

func (as Annotations) Has(types ...string) bool {
	_, ok := as.Find(types...)
	return ok
}

/*
readAnnotations parses a Runtime(In)VisibleAnnotations body:

u2			num_annotations
annotation	annotations[num_annotations]
*/
func readAnnotations(br *BinaryReader, cp ConstantPool, visible bool) (Annotations, error) {
	n, err := br.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation count: %w", err)
	}
	out := make(Annotations, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := readAnnotation(br, cp, visible, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to read annotation %d: %w", i, err)
		}
		out = append(out, *a)
	}
	return out, nil
}

/*
readAnnotation parses:

u2		type_index (Utf8 field descriptor)
u2		num_element_value_pairs
{
	u2				element_name_index
	element_value	value
}		element_value_pairs[num_element_value_pairs]
*/
func readAnnotation(br *BinaryReader, cp ConstantPool, visible bool, depth int) (*Annotation, error) {
	typeIndex, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	desc, err := cp.Utf8(typeIndex)
	if err != nil {
		return nil, err
	}
	pairs, err := br.ReadU2()
	if err != nil {
		return nil, err
	}

	a := &Annotation{Type: TypeName(desc), Visible: visible, Values: make(map[string]ElementValue, pairs)}
	for i := 0; i < int(pairs); i++ {
		nameIndex, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		v, err := readElementValue(br, cp, visible, depth+1)
		if err != nil {
			return nil, fmt.Errorf("failed to read element %q of %s: %w", name, a.Type, err)
		}
		a.Values[name] = v
	}
	return a, nil
}

func readElementValue(br *BinaryReader, cp ConstantPool, visible bool, depth int) (ElementValue, error) {
	if depth > maxElementDepth {
		return ElementValue{}, malformed(br.Offset(), "annotation nesting deeper than %d", maxElementDepth)
	}

	start := br.Offset()
	tag, err := br.ReadU1()
	if err != nil {
		return ElementValue{}, err
	}
	v := ElementValue{Tag: tag}

	switch tag {
	case 'B', 'C', 'I', 'S', 'Z', 'J', 'D', 'F', 's':
		idx, err := br.ReadU2()
		if err != nil {
			return v, err
		}
		err = v.resolveConst(cp, idx)
		return v, err

	case 'e':
		typeIndex, err := br.ReadU2()
		if err != nil {
			return v, err
		}
		constIndex, err := br.ReadU2()
		if err != nil {
			return v, err
		}
		desc, err := cp.Utf8(typeIndex)
		if err != nil {
			return v, err
		}
		v.EnumType = TypeName(desc)
		v.Str, err = cp.Utf8(constIndex)
		return v, err

	case 'c':
		idx, err := br.ReadU2()
		if err != nil {
			return v, err
		}
		desc, err := cp.Utf8(idx)
		if err != nil {
			return v, err
		}
		v.Str = TypeName(desc)
		return v, nil

	case '@':
		a, err := readAnnotation(br, cp, visible, depth)
		if err != nil {
			return v, err
		}
		v.Annotation = a
		return v, nil

	case '[':
		n, err := br.ReadU2()
		if err != nil {
			return v, err
		}
		v.Array = make([]ElementValue, 0, n)
		for i := 0; i < int(n); i++ {
			elem, err := readElementValue(br, cp, visible, depth+1)
			if err != nil {
				return v, err
			}
			v.Array = append(v.Array, elem)
		}
		return v, nil
	}

	return v, malformed(start, "unknown element value tag %q", tag)
}

func (v *ElementValue) resolveConst(cp ConstantPool, idx uint16) error {
	switch v.Tag {
	case 's':
		s, err := cp.Utf8(idx)
		v.Str = s
		return err
	case 'J':
		c, err := entryAs[Long](cp, idx, TagLong)
		v.Int = c.Value
		return err
	case 'D':
		c, err := entryAs[Double](cp, idx, TagDouble)
		v.Float = c.Value
		return err
	case 'F':
		c, err := entryAs[Float](cp, idx, TagFloat)
		v.Float = float64(c.Value)
		return err
	default:
		c, err := entryAs[Integer](cp, idx, TagInteger)
		v.Int = int64(c.Value)
		return err
	}
}
