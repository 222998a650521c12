package classfiletest

import "github.com/mabhi256/inthunter/internal/bytecode"

const (
	JdbcTemplate       = "org.springframework.jdbc.core.JdbcTemplate"
	templateDescriptor = "Lorg/springframework/jdbc/core/JdbcTemplate;"
	updateDescriptor   = "(Ljava/lang/String;[Ljava/lang/Object;)I"
	valueOfDescriptor  = "(I)Ljava/lang/Integer;"

	Connection        = "java.sql.Connection"
	PreparedStatement = "java.sql.PreparedStatement"
	prepareDescriptor = "(Ljava/lang/String;)Ljava/sql/PreparedStatement;"
)

// UserEntity is a JPA entity with an int id, an Integer age, a String
// name and a static final int constant.
func UserEntity(name string) *Builder {
	return New(name).
		Annotate(
			Annotation{Type: "javax.persistence.Entity"},
			Annotation{Type: "javax.persistence.Table", Strings: map[string]string{"name": "users"}},
		).
		Field(AccPrivate, "id", "I", Annotation{Type: "javax.persistence.Column", Strings: map[string]string{"name": "user_id"}}).
		Field(AccPrivate, "age", "Ljava/lang/Integer;").
		Field(AccPrivate, "name", "Ljava/lang/String;").
		Field(AccPublic|AccStatic|AccFinal, "MAX_AGE", "I")
}

// UserDao has insertUser, which passes two Strings to JdbcTemplate.update,
// and insertUserxx, which also boxes an int via Integer.valueOf. The update
// call of insertUserxx sits on line 31.
func UserDao(name string) *Builder {
	b := New(name).Field(AccPrivate, "jdbcTemplate", templateDescriptor)

	insertUser := b.Asm().Line(20).
		Aload(0).Getfield(name, "jdbcTemplate", templateDescriptor).
		Ldc("INSERT INTO users(name,email) VALUES(?,?)").
		Iconst(2).Anewarray("java.lang.Object").
		Op(bytecode.Dup).Iconst(0).Aload(1).Op(bytecode.Aastore).
		Op(bytecode.Dup).Iconst(1).Aload(2).Op(bytecode.Aastore).
		Line(21).InvokeVirtual(JdbcTemplate, "update", updateDescriptor).
		Op(bytecode.Pop, bytecode.Return).
		Code()

	insertUserxx := b.Asm().Line(30).
		Aload(0).Getfield(name, "jdbcTemplate", templateDescriptor).
		Ldc("INSERT INTO users(name,email,age) VALUES(?,?,?) -- v2").
		Iconst(3).Anewarray("java.lang.Object").
		Op(bytecode.Dup).Iconst(0).Aload(1).Op(bytecode.Aastore).
		Op(bytecode.Dup).Iconst(1).Aload(2).Op(bytecode.Aastore).
		Op(bytecode.Dup).Iconst(2).Iload(3).
		InvokeStatic("java.lang.Integer", "valueOf", valueOfDescriptor).
		Op(bytecode.Aastore).
		Line(31).InvokeVirtual(JdbcTemplate, "update", updateDescriptor).
		Op(bytecode.Pop, bytecode.Return).
		Code()

	return b.
		Method(AccPublic, "insertUser", "(Ljava/lang/String;Ljava/lang/String;)V", insertUser).
		Method(AccPublic, "insertUserxx", "(Ljava/lang/String;Ljava/lang/String;I)V", insertUserxx)
}

// StatementRepo has one method, save, that prepares sql on a Connection,
// stores the statement in local 3 and calls setInt on line 41.
func StatementRepo(name, sql string) *Builder {
	return StatementRepoSetterOn(name, sql, PreparedStatement)
}

// StatementRepoSetterOn is StatementRepo with the setInt call made through
// owner instead of java.sql.PreparedStatement.
func StatementRepoSetterOn(name, sql, owner string) *Builder {
	b := New(name)
	code := b.Asm().Line(40).
		Aload(1).Ldc(sql).
		InvokeInterface(Connection, "prepareStatement", prepareDescriptor, 2).
		Astore(3).
		Line(41).Aload(3).Iconst(1).Iload(2).
		InvokeInterface(owner, "setInt", "(II)V", 3).
		Line(42).Aload(3).InvokeInterface(PreparedStatement, "executeUpdate", "()I", 1).
		Op(bytecode.Pop, bytecode.Return).
		Code()
	return b.Method(AccPublic, "save", "(Ljava/sql/Connection;I)V", code)
}
