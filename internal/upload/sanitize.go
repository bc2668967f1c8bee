package upload

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied filename to a safe, flat,
// ASCII-only name. Path separators become word breaks, runs of whitespace
// become a single underscore, anything outside [A-Za-z0-9_.-] is removed
// and leading or trailing dots and underscores are trimmed. The result
// may be empty.
func SanitizeFilename(name string) string {
	name = toASCII(norm.NFKD.String(name))
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// toASCII drops every non-ASCII rune. After NFKD decomposition this turns
// accented letters into their base letter.
func toASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Extension returns the lowercased text after the first dot of name, or
// "" when name has no dot. "notes.tar.gz" yields "tar.gz".
func Extension(name string) string {
	_, ext, ok := strings.Cut(name, ".")
	if !ok {
		return ""
	}
	return strings.ToLower(ext)
}

// ExtensionAllowed reports whether the extension of name is in allowed.
// Comparison is case insensitive.
func ExtensionAllowed(name string, allowed []string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}
