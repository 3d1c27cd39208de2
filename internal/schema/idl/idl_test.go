package idl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/schema"
)

func TestCompileStructWithListAndDefault(t *testing.T) {
	src := `struct({fields:{name:string(),age:u16({default:0}),tags:list({of:string()})}})`
	tbl, err := Compile(src)
	require.NoError(t, err)

	root := tbl.At(0)
	require.Equal(t, schema.KindStruct, root.Kind)
	require.Len(t, root.Fields, 3)
	require.Equal(t, "name", root.Fields[0].Name)
	require.Equal(t, "age", root.Fields[1].Name)
	require.Equal(t, "tags", root.Fields[2].Name)

	age := tbl.At(root.Fields[1].Child)
	require.Equal(t, schema.KindUint16, age.Kind)
	require.Equal(t, []byte{0, 0}, age.Default)
}

func TestCompileRecursivePortal(t *testing.T) {
	src := `struct({name:"Node",fields:{val:string(),more:portal({path:"Node"})}})`
	tbl, err := Compile(src)
	require.NoError(t, err)

	root := tbl.At(0)
	require.Equal(t, "more", root.Fields[1].Name)
	portal := tbl.At(root.Fields[1].Child)
	require.Equal(t, schema.KindPortal, portal.Kind)
	require.Equal(t, 0, portal.PortalTarget) // self-reference back to the struct root
}

func TestEmitRoundTrip(t *testing.T) {
	src := `struct({fields:{name:string(),age:u16({default:0})}})`
	tbl, err := Compile(src)
	require.NoError(t, err)

	text := Emit(tbl, 0)
	tbl2, err := Compile(text)
	require.NoError(t, err)

	require.Equal(t, len(tbl.Nodes), len(tbl2.Nodes))
	require.Equal(t, tbl.At(0).Fields[1].Name, tbl2.At(0).Fields[1].Name)
}

func TestEnumChoicesAndDefault(t *testing.T) {
	tbl, err := Compile(`enum({choices:["red","green","blue"],default:"green"})`)
	require.NoError(t, err)
	n := tbl.At(0)
	require.Equal(t, 1, n.EnumDefaultIndex)
}

func TestDuplicateFieldNameRejected(t *testing.T) {
	_, err := Compile(`struct({fields:{a:bool(),a:u8()}})`)
	require.Error(t, err)
}

func TestUnknownTypeRejected(t *testing.T) {
	_, err := Compile(`bogus()`)
	require.Error(t, err)
}
