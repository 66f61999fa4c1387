package breaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSurface = `public static class PointExtensions
{
    public static double Length(this Point p);
}
namespace Acme
{
    public enum Color : int
    {
        Red = 0,
        Green = 1,
    }
    public sealed class Gone { }
    public interface IShape
    {
        double Area { get; }
    }
    public class Widget : IShape
    {
        public const int Max = 10;
        public Widget();
        public double Area { get; }
        public int Count { get; set; }
        public void Resize(int width, int height = 0);
        public static Widget operator +(Widget a, Widget b);
    }
}
`

const targetSurface = `public static class PointExtensions
{
    public static double Length(this Point p);
}
namespace Acme
{
    public enum Color : int
    {
        Red = 0,
        Green = 2,
        Blue = 3,
    }
    public class Fresh { }
    public interface IShape
    {
        double Area { get; }
        double Perimeter { get; }
    }
    public class Widget : IDisposable, IShape
    {
        public const int Max = 10;
        public Widget();
        public double Area { get; }
        public int Total { get; set; }
        public void Resize(long width, int height = 0);
        public void Resize(int width, int height = 0);
        public static Widget operator +(Widget a, Widget b);
        public static Widget operator -(Widget a, Widget b);
    }
}
`

type changeRow struct {
	Kind     ChangeKind
	Severity Severity
	Path     string
}

func rows(changes []APIChange) []changeRow {
	out := make([]changeRow, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeRow{c.Kind, c.Severity, c.Path})
	}
	return out
}

func TestCompareResult_HasBreakingChanges(t *testing.T) {
	tests := []struct {
		name     string
		summary  *Summary
		expected bool
	}{
		{
			name:     "nil summary",
			summary:  nil,
			expected: false,
		},
		{
			name: "no breaking changes",
			summary: &Summary{
				TotalChanges:    5,
				BreakingChanges: 0,
				Additions:       5,
			},
			expected: false,
		},
		{
			name: "has breaking changes",
			summary: &Summary{
				TotalChanges:    3,
				BreakingChanges: 2,
				Warnings:        1,
			},
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := &CompareResult{Summary: tc.summary}
			if result.HasBreakingChanges() != tc.expected {
				t.Errorf("HasBreakingChanges() = %v, want %v", result.HasBreakingChanges(), tc.expected)
			}
		})
	}
}

func TestCompareSurfaces(t *testing.T) {
	result := CompareSurfaces(baseSurface, targetSurface)

	assert.Equal(t, []changeRow{
		{ChangeSignatureChanged, SeverityBreaking, "Acme/Color/Green"},
		{ChangeRemoved, SeverityBreaking, "Acme/Gone"},
		{ChangeRenamed, SeverityBreaking, "Acme/Widget/Count"},
		{ChangeAdded, SeverityWarning, "Acme/IShape/Perimeter"},
		{ChangeAdded, SeverityNonBreaking, "Acme/Color/Blue"},
		{ChangeAdded, SeverityNonBreaking, "Acme/Fresh"},
		{ChangeTypeChanged, SeverityNonBreaking, "Acme/Widget"},
		{ChangeAdded, SeverityNonBreaking, "Acme/Widget/Resize(long, int)"},
		{ChangeAdded, SeverityNonBreaking, "Acme/Widget/operator -(Widget, Widget)"},
	}, rows(result.Changes))

	require.NotNil(t, result.Summary)
	assert.Equal(t, 9, result.Summary.TotalChanges)
	assert.Equal(t, 3, result.Summary.BreakingChanges)
	assert.Equal(t, 1, result.Summary.Warnings)
	assert.Equal(t, 5, result.Summary.Additions)
	assert.Equal(t, 5, result.Summary.ByKind["added"])
	assert.Equal(t, 1, result.Summary.ByKind["type_changed"])
	assert.Equal(t, "major", result.SemverAdvice)
	assert.True(t, result.HasBreakingChanges())

	rename := result.Changes[2]
	assert.Equal(t, "'Count' was renamed to 'Total'", rename.Description)
	assert.Equal(t, "public int Count { get; set; }", rename.OldValue)
	assert.Equal(t, "public int Total { get; set; }", rename.NewValue)
	assert.Equal(t, 22, rename.OldLine)
	assert.Equal(t, 24, rename.NewLine)

	green := result.Changes[0]
	assert.Equal(t, "Green = 1,", green.OldValue)
	assert.Equal(t, "Green = 2,", green.NewValue)
}

func TestCompareSurfacesIdentical(t *testing.T) {
	result := CompareSurfaces(baseSurface, baseSurface)
	assert.NotNil(t, result.Changes)
	assert.Empty(t, result.Changes)
	assert.Equal(t, "patch", result.SemverAdvice)
	assert.False(t, result.HasBreakingChanges())
	assert.Equal(t, result.TotalBaseSymbols, result.TotalTargetSymbols)
}

func TestCompareSurfacesAdditionsOnly(t *testing.T) {
	base := "namespace Acme\n{\n    public class Bag { }\n}\n"
	target := "namespace Acme\n{\n    public class Bag\n    {\n        public int Count { get; }\n    }\n}\n"

	result := CompareSurfaces(base, target)
	assert.Equal(t, []changeRow{
		{ChangeAdded, SeverityNonBreaking, "Acme/Bag/Count"},
	}, rows(result.Changes))
	assert.Equal(t, "minor", result.SemverAdvice)
}

func TestCompareSurfacesFoldsContainers(t *testing.T) {
	base := `namespace Acme
{
    public class Bag
    {
        public int Count { get; }
        public void Clear();
    }
    public class Keep { }
}
namespace Legacy
{
    public class Old
    {
        public Old();
    }
}
`
	target := `namespace Acme
{
    public class Keep { }
}
namespace Modern
{
    public struct Point
    {
        public int X;
    }
}
`
	result := CompareSurfaces(base, target)
	assert.Equal(t, []changeRow{
		{ChangeRemoved, SeverityBreaking, "Acme/Bag"},
		{ChangeRemoved, SeverityBreaking, "Legacy"},
		{ChangeAdded, SeverityNonBreaking, "Modern"},
	}, rows(result.Changes))
	assert.Equal(t, "Class 'Bag' was removed", result.Changes[0].Description)
	assert.Equal(t, "New namespace 'Modern' added", result.Changes[2].Description)
}

func TestCompareSurfacesImplementerWarnings(t *testing.T) {
	base := `public interface IRunner
{
    void Run();
}
public abstract class Runner
{
    public abstract void Run();
}
`
	target := `public interface IRunner
{
    void Run();
    void Stop();
    static IRunner Create();
}
public abstract class Runner
{
    public abstract void Run();
    public abstract void Stop();
    public virtual void Reset();
}
`
	result := CompareSurfaces(base, target)
	assert.Equal(t, []changeRow{
		{ChangeAdded, SeverityWarning, "IRunner/Stop()"},
		{ChangeAdded, SeverityWarning, "Runner/Stop()"},
		{ChangeAdded, SeverityNonBreaking, "IRunner/Create()"},
		{ChangeAdded, SeverityNonBreaking, "Runner/Reset()"},
	}, rows(result.Changes))
	assert.Contains(t, result.Changes[0].Description, "implementers must provide it")
	assert.Contains(t, result.Changes[1].Description, "subclasses must override it")
	assert.Equal(t, "major", result.SemverAdvice)
	assert.False(t, result.HasBreakingChanges())
}

func TestCompareSurfacesHeaderChanges(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		target   string
		severity Severity
	}{
		{"gains interface", "public class A : IOne", "public class A : IOne, ITwo", SeverityNonBreaking},
		{"gains base list", "public class A", "public class A : IOne", SeverityNonBreaking},
		{"loses interface", "public class A : IOne, ITwo", "public class A : IOne", SeverityBreaking},
		{"becomes sealed", "public class A", "public sealed class A", SeverityBreaking},
		{"constraint kept", "public class A<T> where T : class", "public class A<T> : IOne where T : class", SeverityNonBreaking},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CompareSurfaces(tc.base+" { }\n", tc.target+" { }\n")
			require.Len(t, result.Changes, 1)
			assert.Equal(t, ChangeTypeChanged, result.Changes[0].Kind)
			assert.Equal(t, tc.severity, result.Changes[0].Severity)
			assert.Equal(t, tc.base, result.Changes[0].OldValue)
		})
	}
}
