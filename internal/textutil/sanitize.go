package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

// SanitizeFileName makes name safe for use as a file name on common
// filesystems. Separators and reserved punctuation become underscores, the
// result is NFC-normalized and trimmed. Characters that are legal on disk,
// such as parentheses and commas, are kept so the name stays recognizable
// (MCP1402T-E/OT becomes MCP1402T-E_OT).
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	out := strings.TrimSpace(fileNameReplacer.Replace(name))
	if out == "." || out == ".." {
		return strings.Repeat("_", len(out))
	}
	return out
}
