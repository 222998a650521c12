package detector

import (
	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/finding"
)

var (
	entityAnnotations = []string{"javax.persistence.Entity", "jakarta.persistence.Entity"}
	tableAnnotations  = []string{"javax.persistence.Table", "jakarta.persistence.Table"}
	columnAnnotations = []string{"javax.persistence.Column", "jakarta.persistence.Column"}
)

// HibernateIntField flags int and Integer fields on JPA entities.
type HibernateIntField struct{}

func init() {
	Register(HibernateIntField{})
}

func (HibernateIntField) Name() string {
	return string(finding.KindHibernateIntField)
}

func (d HibernateIntField) Detect(ctx *Context, class *classfile.ClassFile) ([]finding.Finding, error) {
	log := ctx.logger().With("detector", d.Name(), "class", class.Name)
	if !class.Annotations.Has(entityAnnotations...) {
		log.Trace("not an entity")
		return nil, nil
	}

	table := nameMember(class.Annotations, tableAnnotations)

	var out []finding.Finding
	for _, f := range class.Fields {
		if f.AccessFlags.Has(classfile.AccStatic) && f.AccessFlags.Has(classfile.AccFinal) {
			continue
		}
		javaType := f.Type()
		if javaType != "int" && javaType != "java.lang.Integer" {
			continue
		}
		out = append(out, finding.EntityIntField{
			Class:    class.Name,
			Field:    f.Name,
			Table:    table,
			Column:   nameMember(f.Annotations, columnAnnotations),
			JavaType: javaType,
		})
	}

	log.Debug("entity scanned", "table", table, "findings", len(out))
	return out, nil
}

// nameMember returns the string "name" element of the first matching
// annotation, or "" when absent or not a string.
func nameMember(anns classfile.Annotations, types []string) string {
	a, ok := anns.Find(types...)
	if !ok {
		return ""
	}
	name, _ := a.StringValue("name")
	return name
}
