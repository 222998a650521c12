package detector

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mabhi256/inthunter/internal/bytecode"
	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/finding"
)

const minStatementSQL = 10

var statementSetters = map[string]bool{
	"setInt":        true,
	"setLong":       true,
	"setString":     true,
	"setDouble":     true,
	"setFloat":      true,
	"setBoolean":    true,
	"setDate":       true,
	"setTimestamp":  true,
	"setBigDecimal": true,
	"setBytes":      true,
	"setObject":     true,
}

const (
	preparedStatement = "java.sql.PreparedStatement"
	callableStatement = "java.sql.CallableStatement"
)

// isStatementType is the pre-filter: any class named PreparedStatement or
// CallableStatement, in whatever package.
func isStatementType(name string) bool {
	for _, simple := range []string{"PreparedStatement", "CallableStatement"} {
		if name == simple || strings.HasSuffix(name, "."+simple) {
			return true
		}
	}
	return false
}

// isStatementOwner accepts setter calls made through the java.sql
// interfaces only. Wrapper and driver types are not followed.
func isStatementOwner(name string) bool {
	return name == preparedStatement || name == callableStatement
}

func isPrepareCall(ref bytecode.MemberRef) bool {
	return ref.Name == "prepareStatement" && strings.HasSuffix(ref.Owner, "Connection")
}

// PreparedStatementSetter flags setter calls on statements prepared from
// INSERT, UPDATE or DELETE literals.
type PreparedStatementSetter struct{}

func init() {
	Register(PreparedStatementSetter{})
}

func (PreparedStatementSetter) Name() string {
	return string(finding.KindPreparedStatement)
}

func (d PreparedStatementSetter) Detect(ctx *Context, class *classfile.ClassFile) ([]finding.Finding, error) {
	log := ctx.logger().With("detector", d.Name(), "class", class.Name)
	if !class.ReferencesClass(isStatementType) {
		log.Trace("no PreparedStatement or CallableStatement references")
		return nil, nil
	}

	var out []finding.Finding
	for _, m := range class.Methods {
		if m.Code == nil || m.IsInitializer() {
			continue
		}
		out = append(out, d.scanMethod(log, class, m)...)
	}
	return out, nil
}

// scanMethod remembers the latest SQL literal and, at each prepareStatement
// call, looks forward for the first setter on the resulting statement.
func (d PreparedStatementSetter) scanMethod(log hclog.Logger, class *classfile.ClassFile, m classfile.Method) []finding.Finding {
	var out []finding.Finding
	insns := m.Code.Instructions
	recentSQL := ""

	for i, ins := range insns {
		if s, ok := ins.StringLiteral(); ok && looksLikeSQL(s, minStatementSQL) {
			recentSQL = s
		}
		if recentSQL == "" || !ins.Opcode.IsVirtualCall() || !isPrepareCall(ins.Member) {
			continue
		}

		slot := -1
		if i+1 < len(insns) && insns[i+1].Opcode == bytecode.Astore {
			slot = insns[i+1].Slot
		}
		log.Trace("prepareStatement", "method", m.Name, "offset", ins.Offset, "slot", slot)

		if f, ok := findSetter(class, m, ins.Next(), recentSQL, slot); ok {
			out = append(out, f)
		}
		recentSQL = ""
	}
	return out
}

// findSetter decodes forward from offset until a statement setter or a
// return. Exceptions thrown on the way do not end the search.
func findSetter(class *classfile.ClassFile, m classfile.Method, offset int, sql string, slot int) (finding.StatementSetter, bool) {
	if !isModifying(sql) {
		return finding.StatementSetter{}, false
	}

	dec := bytecode.NewDecoder(m.Code.Bytes, class.ConstantPool)
	dec.Seek(offset)
	for dec.More() {
		ins, err := dec.Next()
		if err != nil {
			return finding.StatementSetter{}, false
		}
		if ins.Opcode.IsVirtualCall() && isStatementOwner(ins.Member.Owner) && statementSetters[ins.Member.Name] {
			return finding.StatementSetter{
				Class:  class.Name,
				Method: m.Name,
				Line:   m.Code.LineFor(ins.Offset),
				SQL:    cleanSQL(sql),
				Setter: ins.Member.Name,
				Slot:   slot,
			}, true
		}
		if ins.Opcode.IsReturn() {
			break
		}
	}
	return finding.StatementSetter{}, false
}
