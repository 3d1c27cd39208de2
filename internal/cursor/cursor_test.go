package cursor

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

// buildPersonTable builds { name: string, age: u16, tags: list<string> }
// without going through the IDL compiler, to keep this package's tests
// independent of internal/schema/idl.
func buildPersonTable() (*schema.Table, int) {
	t := &schema.Table{}
	strIdx := t.Push(schema.Node{Kind: schema.KindString, ValueKind: schema.Pointer})
	u16Idx := t.Push(schema.Node{Kind: schema.KindUint16, ValueKind: schema.Fixed, FixedWidth: 2})
	listStrIdx := t.Push(schema.Node{Kind: schema.KindString, ValueKind: schema.Pointer})
	listIdx := t.Push(schema.Node{Kind: schema.KindList, ValueKind: schema.Pointer, Child: listStrIdx})
	root := t.Push(schema.Node{
		Kind: schema.KindStruct,
		Fields: []schema.FieldDef{
			{Name: "name", Child: strIdx},
			{Name: "age", Child: u16Idx},
			{Name: "tags", Child: listIdx},
		},
	})
	schema.ComputeOffsets(t, root)
	return t, root
}

func newPersonRoot() (*mem.Region, *schema.Table, int) {
	t, rootIdx := buildPersonTable()
	r := mem.New(64)
	if _, ok := r.Reserve(schema.PointerWidth); !ok {
		panic("reserve failed")
	}
	return r, t, rootIdx
}

func TestStructSetAndGet(t *testing.T) {
	r, table, rootIdx := newPersonRoot()
	root := &Cursor{Region: r, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	name, err := root.Select([]string{"name"}, true)
	require.NoError(t, err)
	require.NoError(t, name.Set("Ada"))

	age, err := root.Select([]string{"age"}, true)
	require.NoError(t, err)
	require.NoError(t, age.Set(36))

	nameGot, err := root.Select([]string{"name"}, false)
	require.NoError(t, err)
	v, err := nameGot.Get()
	require.NoError(t, err)
	require.Equal(t, "Ada", v)

	ageGot, err := root.Select([]string{"age"}, false)
	require.NoError(t, err)
	v, err = ageGot.Get()
	require.NoError(t, err)
	require.EqualValues(t, 36, v)
}

func TestListAppendAndIterate(t *testing.T) {
	r, table, rootIdx := newPersonRoot()
	root := &Cursor{Region: r, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	for i, tag := range []string{"admin", "staff", "on-call"} {
		el, err := root.Select([]string{"tags", strconv.Itoa(i)}, true)
		require.NoError(t, err)
		require.NoError(t, el.Set(tag))
	}

	tags, err := root.Select([]string{"tags"}, false)
	require.NoError(t, err)
	n, err := tags.ListLen()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	for i, want := range []string{"admin", "staff", "on-call"} {
		el, err := root.Select([]string{"tags", strconv.Itoa(i)}, false)
		require.NoError(t, err)
		v, err := el.Get()
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

func TestToJSONRoundTrip(t *testing.T) {
	r, table, rootIdx := newPersonRoot()
	root := &Cursor{Region: r, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	require.NoError(t, root.SetFromJSON([]byte(`{"name":"Grace","age":85,"tags":["navy","compiler"]}`)))

	out, err := root.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Grace","age":85,"tags":["navy","compiler"]}`, string(out))
}

func TestSelectWithoutCreateReturnsNotPresent(t *testing.T) {
	r, table, rootIdx := newPersonRoot()
	root := &Cursor{Region: r, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	_, err := root.Select([]string{"name"}, false)
	require.ErrorIs(t, err, ErrNotPresent)
}

func TestCompactDropsUnreachableBytesButKeepsValues(t *testing.T) {
	r, table, rootIdx := newPersonRoot()
	root := &Cursor{Region: r, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	name, err := root.Select([]string{"name"}, true)
	require.NoError(t, err)
	require.NoError(t, name.Set("short"))
	require.NoError(t, name.Set("a much longer replacement string that reallocates"))

	compacted, err := Compact(root)
	require.NoError(t, err)
	require.Less(t, compacted.Len(), r.Len())

	newRoot := &Cursor{Region: compacted, Table: table, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}
	got, err := newRoot.Select([]string{"name"}, false)
	require.NoError(t, err)
	v, err := got.Get()
	require.NoError(t, err)
	require.Equal(t, "a much longer replacement string that reallocates", v)
}
