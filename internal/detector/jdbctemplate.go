package detector

import (
	"strings"

	"github.com/mabhi256/inthunter/internal/bytecode"
	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/finding"
)

const (
	jdbcTemplate      = "org.springframework.jdbc.core.JdbcTemplate"
	namedJdbcTemplate = "org.springframework.jdbc.core.namedparam.NamedParameterJdbcTemplate"

	// maximum bytecode distance between Integer.valueOf and the update call
	boxingDistance = 200
	minTemplateSQL = 6
)

func isTemplateType(name string) bool {
	return name == jdbcTemplate || name == namedJdbcTemplate || strings.HasSuffix(name, "JdbcTemplate")
}

// JdbcTemplateInt flags JdbcTemplate.update calls whose arguments include
// a freshly boxed int.
type JdbcTemplateInt struct{}

func init() {
	Register(JdbcTemplateInt{})
}

func (JdbcTemplateInt) Name() string {
	return string(finding.KindJdbcTemplateInt)
}

func (d JdbcTemplateInt) Detect(ctx *Context, class *classfile.ClassFile) ([]finding.Finding, error) {
	log := ctx.logger().With("detector", d.Name(), "class", class.Name)
	if !class.ReferencesClass(isTemplateType) {
		log.Trace("no JdbcTemplate references")
		return nil, nil
	}

	var out []finding.Finding
	for _, m := range class.Methods {
		if m.Code == nil || m.IsInitializer() {
			continue
		}
		found := d.scanMethod(class, m)
		if len(found) > 0 {
			log.Debug("boxed int passed to update", "method", m.Name, "count", len(found))
		}
		out = append(out, found...)
	}
	return out, nil
}

func (d JdbcTemplateInt) scanMethod(class *classfile.ClassFile, m classfile.Method) []finding.Finding {
	var out []finding.Finding
	recentSQL := ""
	lastBox := -1

	for _, ins := range m.Code.Instructions {
		if s, ok := ins.StringLiteral(); ok && looksLikeSQL(s, minTemplateSQL) {
			recentSQL = s
		}

		if ins.Opcode == bytecode.Invokestatic && ins.Calls("java.lang.Integer", "valueOf", "(I)Ljava/lang/Integer;") {
			lastBox = ins.Offset
		}

		if !ins.Opcode.IsVirtualCall() || ins.Member.Name != "update" || !isTemplateType(ins.Member.Owner) {
			continue
		}

		if lastBox != -1 && ins.Offset-lastBox <= boxingDistance {
			sql := ""
			if recentSQL != "" {
				sql = cleanSQL(recentSQL)
			}
			out = append(out, finding.TemplateIntUpdate{
				Class:    class.Name,
				Method:   m.Name,
				Line:     m.Code.LineFor(ins.Offset),
				SQL:      sql,
				Template: ins.Member.Owner,
			})
		}

		// each update call starts a fresh window
		recentSQL = ""
		lastBox = -1
	}
	return out
}
