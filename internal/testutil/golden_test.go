package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\nb\n", NormalizeText("a\r\nb"))
	assert.Equal(t, "a\n", NormalizeText("a\n\n\n"))
}

func TestLineDiff(t *testing.T) {
	diff := LineDiff("one\ntwo\nthree\n", "one\n2\nthree\n")
	assert.Contains(t, diff, "  one\n")
	assert.Contains(t, diff, "- two\n")
	assert.Contains(t, diff, "+ 2\n")
	assert.Contains(t, diff, "  three\n")
}
