package util

import (
	"path/filepath"
	"strings"
)

const (
	JackFileExtension = ".jack"
	VMFileExtension   = ".vm"
)

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// IsSpace reports the whitespace bytes the jack and vm languages skip between tokens.
func IsSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func IsJackFile(fileName string) bool {
	return strings.HasSuffix(fileName, JackFileExtension)
}

func IsVMFile(fileName string) bool {
	return strings.HasSuffix(fileName, VMFileExtension)
}

// ClassName returns the file name without directory and extension, which for a jack file
// is the name its class must carry.
func ClassName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SiblingPath returns a path next to filePath with the extension replaced by suffix,
// e.g. SiblingPath("a/Main.jack", "T.xml") is "a/MainT.xml".
func SiblingPath(filePath, suffix string) string {
	return filepath.Join(filepath.Dir(filePath), ClassName(filePath)+suffix)
}
