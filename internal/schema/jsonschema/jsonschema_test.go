package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/schema"
)

func TestCompileStructWithListAndDefault(t *testing.T) {
	src := `{
		"type": "struct",
		"fields": {
			"name": {"type": "string"},
			"age": {"type": "u16", "default": 0},
			"tags": {"type": "list", "of": {"type": "string"}}
		}
	}`
	tbl, err := Compile([]byte(src))
	require.NoError(t, err)

	root := tbl.At(0)
	require.Equal(t, schema.KindStruct, root.Kind)
	require.Len(t, root.Fields, 3)
}

func TestRejectsNonObjectType(t *testing.T) {
	_, err := Compile([]byte(`{"type":5}`))
	require.Error(t, err)
}

func TestRejectsMissingType(t *testing.T) {
	_, err := Compile([]byte(`{"fields":{}}`))
	require.Error(t, err)
}

func TestRecursivePortal(t *testing.T) {
	src := `{
		"type": "struct",
		"name": "Node",
		"fields": {
			"val": {"type": "string"},
			"more": {"type": "portal", "path": "Node"}
		}
	}`
	tbl, err := Compile([]byte(src))
	require.NoError(t, err)
	root := tbl.At(0)
	var portalIdx int
	for _, f := range root.Fields {
		if f.Name == "more" {
			portalIdx = f.Child
		}
	}
	require.Equal(t, schema.KindPortal, tbl.At(portalIdx).Kind)
	require.Equal(t, 0, tbl.At(portalIdx).PortalTarget)
}

func TestEmitRoundTrip(t *testing.T) {
	src := `{"type":"struct","fields":{"name":{"type":"string"},"age":{"type":"u16","default":0}}}`
	tbl, err := Compile([]byte(src))
	require.NoError(t, err)

	out, err := Emit(tbl, 0)
	require.NoError(t, err)

	tbl2, err := Compile(out)
	require.NoError(t, err)
	require.Equal(t, len(tbl.Nodes), len(tbl2.Nodes))
}

func TestEnumChoicesAndDefault(t *testing.T) {
	tbl, err := Compile([]byte(`{"type":"enum","choices":["red","green","blue"],"default":"green"}`))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.At(0).EnumDefaultIndex)
}

func TestUnknownTypeRejected(t *testing.T) {
	_, err := Compile([]byte(`{"type":"bogus"}`))
	require.Error(t, err)
}
