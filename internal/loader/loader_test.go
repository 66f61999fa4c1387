package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apidump/internal/csharp"
	apierrors "apidump/internal/errors"
	"apidump/internal/printer"
	"apidump/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const shapesYAML = `
namespaces:
  - name: Demo
    types:
      - kind: class
        name: Circle
        base: Shape
`

const shapeJSON = `{
  "namespaces": [
    {"name": "Demo", "types": [{"kind": "class", "name": "Shape", "modifiers": ["abstract"]}]}
  ]
}`

func TestDetectKind(t *testing.T) {
	cases := map[string]Kind{
		"a.yaml":      KindYAML,
		"a.YML":       KindYAML,
		"a.json":      KindJSON,
		"a.toml":      KindTOML,
		"Program.cs":  KindCSharp,
		"index.scip":  KindSCIP,
		"dir/x.y.yml": KindYAML,
	}
	for path, want := range cases {
		got, ok := DetectKind(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := DetectKind("README.md")
	assert.False(t, ok)
}

func TestLoadResolvesAcrossInputs(t *testing.T) {
	dir := t.TempDir()
	circle := writeFile(t, dir, "circle.yaml", shapesYAML)
	shape := writeFile(t, dir, "shape.json", shapeJSON)

	g, err := Load(context.Background(), []string{circle, shape}, Options{Parallelism: 2})
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "namespace Demo\n"+
		"{\n"+
		"    public class Circle : Shape { }\n"+
		"    public abstract class Shape { }\n"+
		"}\n", out)
}

func TestLoadManifestsKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var sources []Source
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		content := "namespaces:\n  - name: N" + name + "\n    types:\n      - {kind: class, name: T" + name + "}\n"
		if i%2 == 1 {
			content = `{"namespaces": [{"name": "N` + name + `", "types": [{"kind": "class", "name": "T` + name + `"}]}]}`
			sources = append(sources, Source{Path: writeFile(t, dir, name+".json", content), Kind: KindJSON})
			continue
		}
		sources = append(sources, Source{Path: writeFile(t, dir, name+".yaml", content), Kind: KindYAML})
	}

	manifests, err := LoadManifests(context.Background(), sources, Options{Parallelism: 3})
	require.NoError(t, err)
	require.Len(t, manifests, 6)
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, "N"+name, manifests[i].Namespaces[0].Name)
	}
}

func TestLoadFixtureMatchesGolden(t *testing.T) {
	g, err := Load(context.Background(), []string{testutil.FixturePath(t, "library.yaml")}, Options{})
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)
	testutil.CompareGoldenText(t, "library", out)
}

func TestManifestFixturesLoad(t *testing.T) {
	fixtures := testutil.AvailableFixtures(t, ".yaml")
	require.NotEmpty(t, fixtures)
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			g, err := Load(context.Background(), []string{testutil.FixturePath(t, name)}, Options{Parallelism: 2})
			require.NoError(t, err)
			out, err := printer.RenderString(g, printer.DefaultOptions())
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "namespaces: [\n")
	unknown := writeFile(t, dir, "notes.txt", "hello")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	cases := []struct {
		name   string
		inputs []string
		opts   Options
		code   apierrors.ErrorCode
	}{
		{"no inputs", nil, Options{}, apierrors.InputNotFound},
		{"missing file", []string{filepath.Join(dir, "missing.yaml")}, Options{}, apierrors.InputNotFound},
		{"malformed", []string{bad}, Options{}, apierrors.InputInvalid},
		{"unknown extension", []string{unknown}, Options{}, apierrors.UnsupportedFormat},
		{"empty directory", []string{empty}, Options{}, apierrors.InputNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), tc.inputs, tc.opts)
			require.Error(t, err)
			assert.True(t, apierrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestDefaultFormatAppliesToUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "api.manifest", shapeJSON)
	m, err := LoadManifest(context.Background(), p, Options{DefaultFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, "Shape", m.Namespaces[0].Types[0].Name)
}

func TestExpandDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/Two.cs", "")
	writeFile(t, dir, "a/One.cs", "")
	writeFile(t, dir, "obj/Generated.cs", "")
	writeFile(t, dir, "readme.md", "")

	sources, err := Expand([]string{dir}, "")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, filepath.Join(dir, "a", "One.cs"), sources[0].Path)
	assert.Equal(t, filepath.Join(dir, "b", "Two.cs"), sources[1].Path)
	assert.Equal(t, KindCSharp, sources[0].Kind)
}

func TestLoadCSharpDirectory(t *testing.T) {
	if !csharp.Available {
		t.Skip("C# parsing needs cgo")
	}
	dir := t.TempDir()
	writeFile(t, dir, "Shape.cs", "namespace Demo { public abstract class Shape { } }")
	writeFile(t, dir, "Circle.cs", "namespace Demo { public class Circle : Shape { } }")

	g, err := Load(context.Background(), []string{dir}, Options{Parallelism: 2})
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, out, "public class Circle : Shape { }")
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "nullable: true\n"+shapesYAML)
	b := writeFile(t, dir, "b.json", shapeJSON)
	sources, err := Expand([]string{a, b}, "")
	require.NoError(t, err)
	manifests, err := LoadManifests(context.Background(), sources, Options{})
	require.NoError(t, err)

	merged := Merge(manifests)
	assert.False(t, merged.Nullable)
	require.Len(t, merged.Namespaces, 2)
	assert.Same(t, manifests[0], Merge(manifests[:1]))
}
