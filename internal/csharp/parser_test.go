//go:build cgo

package csharp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
	"apidump/internal/printer"
	"apidump/internal/testutil"
)

func parseAndRender(t *testing.T, src string) string {
	t.Helper()
	m, err := NewParser(nil).ParseSource(context.Background(), "test.cs", []byte(src))
	require.NoError(t, err)
	g, err := graphfile.Build(m)
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)
	return out
}

func TestParseFixture(t *testing.T) {
	m, err := NewParser(nil).ParseFile(context.Background(), testutil.FixturePath(t, "shapes.cs"))
	require.NoError(t, err)
	assert.True(t, m.Nullable)
	require.Len(t, m.Namespaces, 1)
	ns := m.Namespaces[0]
	assert.Equal(t, "Acme.Geometry", ns.Name)
	assert.Equal(t, []string{"System", "System.Collections.Generic"}, ns.Usings)

	names := make([]string, len(ns.Types))
	for i, td := range ns.Types {
		names[i] = td.Name
	}
	assert.Equal(t, []string{"Edges", "IShape", "Projection", "Shape", "Size", "ShapeExtensions"}, names)

	edges := ns.Types[0]
	assert.Equal(t, "enum", edges.Kind)
	assert.Equal(t, "byte", edges.Underlying)
	assert.Contains(t, edges.Modifiers, "flags")
	require.Len(t, edges.Members, 4)
	assert.Equal(t, "Top | Bottom", edges.Members[3].Value)

	g, err := graphfile.Build(m)
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)

	for _, line := range []string{
		"namespace Acme.Geometry\n",
		"    public enum Edges : byte\n",
		"        Vertical = 3,\n",
		"    public interface IShape\n",
		"        double Area { get; }\n",
		"    public delegate TOut Projection<in TIn, out TOut>(TIn input);\n",
		"    public abstract class Shape : IDisposable, IShape\n",
		"        public const string Unit = \"cm\";\n",
		"        protected Shape();\n",
		"        public abstract double Area { get; }\n",
		"        public string? Label { get; protected set; }\n",
		"        public event EventHandler? Changed;\n",
		"        public virtual IShape Scale(double factor);\n",
		"        void IDisposable.Dispose();\n",
		"    public readonly struct Size\n",
		"        public Size(double width, double height);\n",
		"        public static Size operator +(Size a, Size b);\n",
		"        public static explicit operator double(Size s);\n",
		"    public static class ShapeExtensions\n",
		"        public static T Largest<T>(this IEnumerable<T> shapes, int skip = 0) where T : class, IShape;\n",
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "_id")
	assert.NotContains(t, out, "Hidden")
}

func TestParseFileScopedNamespace(t *testing.T) {
	out := parseAndRender(t, `
namespace Demo.Scoped;

public class Widget
{
    public int Size { get; set; }
}
`)
	assert.Equal(t, "namespace Demo.Scoped\n"+
		"{\n"+
		"    public class Widget\n"+
		"    {\n"+
		"        public int Size { get; set; }\n"+
		"    }\n"+
		"}\n", out)
}

func TestParseStructMembers(t *testing.T) {
	out := parseAndRender(t, `
namespace Demo
{
    public unsafe struct Buffer
    {
        public fixed byte Data[16];
        public int Length { readonly get; set; }
        public readonly int Id { get; init; }
        public ref byte this[int index] => ref Data[index];
    }

    public class Outer
    {
        public class Inner { }
        private class Hidden { }
        ~Outer() { }
    }
}
`)
	assert.Contains(t, out, "public fixed byte Data[16];")
	assert.Contains(t, out, "public int Length { readonly get; set; }")
	assert.Contains(t, out, "public readonly int Id { get; init; }")
	assert.Contains(t, out, "public ref byte this[int index] { get; }")
	assert.Contains(t, out, "~Outer();")
	assert.Contains(t, out, "public class Inner { }")
	assert.NotContains(t, out, "Hidden")
}

func TestParseInternalTypesAreHidden(t *testing.T) {
	out := parseAndRender(t, `
namespace Demo
{
    class Implicit { }
    internal class Explicit { }
}
`)
	assert.Empty(t, out)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := NewParser(nil).ParseSource(context.Background(), "bad.cs", []byte("namespace Demo { public class { }"))
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.InputInvalid))
	assert.Contains(t, err.Error(), "bad.cs:")
}
