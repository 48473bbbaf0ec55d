package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLetterOrUnderscoreOrNumber(t *testing.T) {
	testData := []struct {
		b        byte
		expected bool
	}{
		{b: 'a', expected: true},
		{b: 'Z', expected: true},
		{b: '_', expected: true},
		{b: '7', expected: true},
		{b: '-', expected: false},
		{b: ' ', expected: false},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, IsLetterOrUnderscoreOrNumber(data.b), string(data.b))
	}
	assert.False(t, IsLetterOrUnderscore('7'))
}

func TestIsJackFile(t *testing.T) {
	assert.True(t, IsJackFile("xxx.jack"))
	assert.False(t, IsJackFile("xxx.j1ack1"))
	assert.False(t, IsJackFile("jack"))
	assert.True(t, IsVMFile("Main.vm"))
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "Main", ClassName(filepath.Join("a", "b", "Main.jack")))
	assert.Equal(t, filepath.Join("a", "MainT.xml"), SiblingPath(filepath.Join("a", "Main.jack"), "T.xml"))
	assert.Equal(t, filepath.Join("a", "Main.vm"), SiblingPath(filepath.Join("a", "Main.jack"), VMFileExtension))
}
