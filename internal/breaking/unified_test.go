package breaking

import (
	"fmt"
	"strings"
	"testing"

	godiff "github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int, edit func(i int) string) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if edit != nil {
			if s := edit(i); s != "" {
				b.WriteString(s + "\n")
				continue
			}
		}
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestUnifiedDiffEqual(t *testing.T) {
	out, err := UnifiedDiff("a", "b", baseSurface, baseSurface)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnifiedDiffSingleHunk(t *testing.T) {
	out, err := UnifiedDiff("base", "target", "a\nb\nc\n", "a\nB\nc\nd\n")
	require.NoError(t, err)

	fd, err := godiff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "base", fd.OrigName)
	assert.Equal(t, "target", fd.NewName)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	assert.Equal(t, int32(1), h.OrigStartLine)
	assert.Equal(t, int32(3), h.OrigLines)
	assert.Equal(t, int32(1), h.NewStartLine)
	assert.Equal(t, int32(4), h.NewLines)
	assert.Contains(t, string(h.Body), "-b\n+B\n")
	assert.Contains(t, string(h.Body), "+d\n")
}

func TestUnifiedDiffSeparatesDistantChanges(t *testing.T) {
	base := numbered(20, nil)
	target := numbered(20, func(i int) string {
		if i == 2 || i == 18 {
			return fmt.Sprintf("LINE %d", i)
		}
		return ""
	})

	out, err := UnifiedDiff("base", "target", base, target)
	require.NoError(t, err)
	fd, err := godiff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 2)

	assert.Equal(t, int32(1), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(5), fd.Hunks[0].OrigLines)
	assert.Equal(t, int32(15), fd.Hunks[1].OrigStartLine)
	assert.Equal(t, int32(6), fd.Hunks[1].OrigLines)
	assert.Equal(t, int32(6), fd.Hunks[1].NewLines)
}

func TestUnifiedDiffMergesNearbyChanges(t *testing.T) {
	base := numbered(20, nil)
	target := numbered(20, func(i int) string {
		if i == 5 || i == 10 {
			return fmt.Sprintf("LINE %d", i)
		}
		return ""
	})

	out, err := UnifiedDiff("base", "target", base, target)
	require.NoError(t, err)
	fd, err := godiff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, int32(2), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(12), fd.Hunks[0].OrigLines)
}

func TestUnifiedDiffFromEmpty(t *testing.T) {
	out, err := UnifiedDiff("base", "target", "", "x\ny\n")
	require.NoError(t, err)
	fd, err := godiff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, int32(0), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(0), fd.Hunks[0].OrigLines)
	assert.Equal(t, int32(2), fd.Hunks[0].NewLines)
}
