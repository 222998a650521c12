package archive

import (
	"path/filepath"
	"strings"
)

// HostPath rewrites the name of a nested container so that dots in its
// base name become directories, e.g. lib/com.example.x.war becomes
// lib/com/example/x.war, then maps '/' to the host separator. Names
// without a .jar, .war or .ear extension only get the separator mapping.
func HostPath(entryName string) string {
	normalized := strings.ReplaceAll(entryName, `\`, "/")

	lastDot := strings.LastIndex(normalized, ".")
	lastSlash := strings.LastIndex(normalized, "/")
	if lastDot == -1 || lastDot <= lastSlash {
		return filepath.FromSlash(normalized)
	}

	ext := strings.ToLower(normalized[lastDot+1:])
	if !isContainerExt(ext) {
		return filepath.FromSlash(normalized)
	}

	dir := ""
	if lastSlash != -1 {
		dir = normalized[:lastSlash] + "/"
	}
	base := strings.ReplaceAll(normalized[lastSlash+1:lastDot], ".", "/")
	return filepath.FromSlash(dir + base + "." + ext)
}

func isContainerExt(ext string) bool {
	switch ext {
	case "jar", "war", "ear":
		return true
	}
	return false
}

// isNestedContainer reports whether an entry is a jar, war or ear to be
// unpacked in turn.
func isNestedContainer(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return isContainerExt(ext)
}
