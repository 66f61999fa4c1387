package scipimport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
	"apidump/internal/printer"
)

func sym(desc string) string {
	return "scip-dotnet nuget Acme 1.0.0 " + desc
}

func info(desc string, kind scippb.SymbolInformation_Kind, rels ...*scippb.Relationship) *scippb.SymbolInformation {
	return &scippb.SymbolInformation{Symbol: sym(desc), Kind: kind, Relationships: rels}
}

func implements(desc string) *scippb.Relationship {
	return &scippb.Relationship{Symbol: sym(desc), IsImplementation: true}
}

func sampleIndex() *scippb.Index {
	return &scippb.Index{
		Metadata: &scippb.Metadata{ToolInfo: &scippb.ToolInfo{Name: "scip-dotnet", Version: "0.2.0"}},
		Documents: []*scippb.Document{
			{
				RelativePath: "Bag.cs",
				Symbols: []*scippb.SymbolInformation{
					// members before their type to check ordering independence
					info("Acme/Collections/Bag#Add().", scippb.SymbolInformation_Method),
					info("Acme/Collections/Bag#Add().(item)", scippb.SymbolInformation_Parameter),
					info("Acme/Collections/Bag#", scippb.SymbolInformation_Class,
						implements("System/Collections/IEnumerable#"),
						implements("Acme/Collections/IBag#")),
					info("Acme/Collections/Bag#[T]", scippb.SymbolInformation_TypeParameter),
					info("Acme/Collections/Bag#Count.", scippb.SymbolInformation_Property),
					info("Acme/Collections/Bag#`.ctor`().", scippb.SymbolInformation_Constructor),
					info("Acme/Collections/Bag#`.cctor`().", scippb.SymbolInformation_Constructor),
					info("Acme/Collections/Bag#Empty.", scippb.SymbolInformation_StaticField),
					info("Acme/Collections/Bag#Changed.", scippb.SymbolInformation_Event),
					info("Acme/Collections/Bag#Entry#", scippb.SymbolInformation_Struct),
					{Symbol: "local 3", Kind: scippb.SymbolInformation_Variable},
				},
			},
			{
				RelativePath: "IBag.cs",
				Symbols: []*scippb.SymbolInformation{
					info("Acme/Collections/IBag#", scippb.SymbolInformation_Interface),
					info("Acme/Collections/IBag#Clear().", scippb.SymbolInformation_AbstractMethod),
					info("Acme/Collections/Color#", scippb.SymbolInformation_Enum),
					info("Acme/Collections/Color#value__.", scippb.SymbolInformation_Field),
					info("Acme/Collections/Color#Red.", scippb.SymbolInformation_EnumMember),
					info("Acme/Collections/Color#Green.", scippb.SymbolInformation_EnumMember),
					info("Acme/Collections/Callback#", scippb.SymbolInformation_Delegate),
					info("TopLevel#", scippb.SymbolInformation_Class),
				},
			},
		},
		ExternalSymbols: []*scippb.SymbolInformation{
			info("System/Collections/IEnumerable#", scippb.SymbolInformation_Interface),
		},
	}
}

func TestImportManifest(t *testing.T) {
	m, err := Import(context.Background(), sampleIndex(), nil)
	require.NoError(t, err)

	require.Len(t, m.Namespaces, 2)
	assert.Equal(t, "Acme.Collections", m.Namespaces[0].Name)
	assert.Equal(t, "", m.Namespaces[1].Name)
	assert.Equal(t, []graphfile.ExternalDecl{{Name: "System.Collections.IEnumerable", Kind: "interface"}}, m.Externals)

	bag := m.Namespaces[0].Types[0]
	assert.Equal(t, "Bag", bag.Name)
	assert.Equal(t, "class", bag.Kind)
	assert.Equal(t, []graphfile.TypeParamDecl{{Name: "T"}}, bag.TypeParams)
	assert.Equal(t, []string{"System.Collections.IEnumerable", "Acme.Collections.IBag"}, bag.Interfaces)

	add := bag.Members[0]
	assert.Equal(t, "method", add.Kind)
	assert.Equal(t, "!", add.Returns)
	assert.Equal(t, []graphfile.ParamDecl{{Name: "item", Type: "!"}}, add.Params)
}

func TestImportRenders(t *testing.T) {
	m, err := Import(context.Background(), sampleIndex(), nil)
	require.NoError(t, err)
	g, err := graphfile.Build(m)
	require.NoError(t, err)
	out, err := printer.RenderString(g, printer.DefaultOptions())
	require.NoError(t, err)

	for _, line := range []string{
		"public class TopLevel { }\n",
		"namespace Acme.Collections\n",
		"    public class Bag<T> : ",
		"        public Bag();\n",
		"        public static ? Empty;\n",
		"        public ? Count { get; }\n",
		"        public event ? Changed;\n",
		"        public ? Add(? item);\n",
		"        public struct Entry { }\n",
		"    public delegate ? Callback();\n",
		"    public enum Color : int\n",
		"        Red = 0,\n",
		"        Green = 1,\n",
		"    public interface IBag\n",
		"        ? Clear();\n",
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "value__")
}

func TestImportFile(t *testing.T) {
	data, err := proto.Marshal(sampleIndex())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "index.scip")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := ImportFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Len(t, m.Namespaces, 2)

	_, err = ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.scip"), nil)
	assert.True(t, apierrors.IsCode(err, apierrors.InputNotFound))

	garbage := filepath.Join(t.TempDir(), "bad.scip")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0o644))
	_, err = ImportFile(context.Background(), garbage, nil)
	assert.True(t, apierrors.IsCode(err, apierrors.InputInvalid))
}

func TestImportRejectsMalformedSymbols(t *testing.T) {
	index := &scippb.Index{Documents: []*scippb.Document{{
		Symbols: []*scippb.SymbolInformation{{Symbol: "scip-dotnet nuget Acme 1.0.0 Bag%"}},
	}}}
	_, err := Import(context.Background(), index, nil)
	assert.True(t, apierrors.IsCode(err, apierrors.InputInvalid))
}

func TestImportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Import(ctx, sampleIndex(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
