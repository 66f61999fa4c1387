package breaking

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// ContextLines is the number of unchanged lines around each hunk.
const ContextLines = 3

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

// lineOps computes a line level edit script.
func lineOps(base, target string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(base, target)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			ops = append(ops, lineOp{op: d.Type, text: strings.TrimSuffix(line, "\n")})
		}
	}
	return ops
}

// UnifiedDiff renders a unified diff between two surfaces. It returns an
// empty string when they are equal.
func UnifiedDiff(baseName, targetName, base, target string) (string, error) {
	fd := &godiff.FileDiff{OrigName: baseName, NewName: targetName, Hunks: hunks(lineOps(base, target))}
	if len(fd.Hunks) == 0 {
		return "", nil
	}
	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hunks(ops []lineOp) []*godiff.Hunk {
	var out []*godiff.Hunk
	// origLine/newLine are 1-based positions of ops[i]
	origAt := make([]int32, len(ops)+1)
	newAt := make([]int32, len(ops)+1)
	o, n := int32(1), int32(1)
	for i, op := range ops {
		origAt[i], newAt[i] = o, n
		if op.op != diffmatchpatch.DiffInsert {
			o++
		}
		if op.op != diffmatchpatch.DiffDelete {
			n++
		}
	}
	origAt[len(ops)], newAt[len(ops)] = o, n

	i := 0
	for i < len(ops) {
		if ops[i].op == diffmatchpatch.DiffEqual {
			i++
			continue
		}
		start := i - ContextLines
		if start < 0 {
			start = 0
		}
		// extend while the next change is within 2*ContextLines equal lines
		end := i
		for end < len(ops) {
			if ops[end].op != diffmatchpatch.DiffEqual {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].op == diffmatchpatch.DiffEqual {
				run++
			}
			if run == len(ops) || run-end > 2*ContextLines {
				end += min(ContextLines, run-end)
				break
			}
			end = run
		}

		h := &godiff.Hunk{OrigStartLine: origAt[start], NewStartLine: newAt[start]}
		var body strings.Builder
		for _, op := range ops[start:end] {
			switch op.op {
			case diffmatchpatch.DiffEqual:
				body.WriteByte(' ')
				h.OrigLines++
				h.NewLines++
			case diffmatchpatch.DiffDelete:
				body.WriteByte('-')
				h.OrigLines++
			case diffmatchpatch.DiffInsert:
				body.WriteByte('+')
				h.NewLines++
			}
			body.WriteString(op.text)
			body.WriteByte('\n')
		}
		// an empty side starts one line earlier by convention
		if h.OrigLines == 0 {
			h.OrigStartLine--
		}
		if h.NewLines == 0 {
			h.NewStartLine--
		}
		h.Body = []byte(body.String())
		out = append(out, h)
		i = end
	}
	return out
}
