package detector

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`--.*?(\r?\n|$)`)

	sqlVerbs       = []string{"select", "insert", "update", "delete", "merge", "call"}
	modifyingVerbs = []string{"insert", "update", "delete"}
)

// looksLikeSQL reports whether s is at least minLen UTF-16 units long, as
// the JVM counts string length, and, trimmed, starts with a SQL verb in
// any case.
func looksLikeSQL(s string, minLen int) bool {
	if len(utf16.Encode([]rune(s))) < minLen {
		return false
	}
	return hasAnyPrefix(strings.ToLower(strings.TrimSpace(s)), sqlVerbs)
}

// cleanSQL strips block and line comments and trims.
func cleanSQL(sql string) string {
	sql = blockComment.ReplaceAllString(sql, "")
	sql = lineComment.ReplaceAllString(sql, "")
	return strings.TrimSpace(sql)
}

func isModifying(sql string) bool {
	return hasAnyPrefix(strings.ToLower(cleanSQL(sql)), modifyingVerbs)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
