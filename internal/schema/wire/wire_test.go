package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/schema"
	"github.com/noproto-go/noproto/internal/schema/idl"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := `struct({fields:{name:string(),age:u16({default:7}),tags:list({of:string()})}})`
	tbl, err := idl.Compile(src)
	require.NoError(t, err)

	data := Encode(tbl, 0)
	tbl2, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, len(tbl.Nodes), len(tbl2.Nodes))
	root := tbl2.At(0)
	require.Equal(t, schema.KindStruct, root.Kind)
	require.Len(t, root.Fields, 3)
	require.Equal(t, "age", root.Fields[1].Name)
	age := tbl2.At(root.Fields[1].Child)
	require.Equal(t, []byte{0, 7}, age.Default)
}

func TestRecursivePortalRoundTrip(t *testing.T) {
	src := `struct({name:"Node",fields:{val:string(),more:portal({path:"Node"})}})`
	tbl, err := idl.Compile(src)
	require.NoError(t, err)

	data := Encode(tbl, 0)
	tbl2, err := Decode(data)
	require.NoError(t, err)

	root := tbl2.At(0)
	portal := tbl2.At(root.Fields[1].Child)
	require.Equal(t, schema.KindPortal, portal.Kind)
	require.Equal(t, 0, portal.PortalTarget)
}

func TestEnumRoundTrip(t *testing.T) {
	tbl, err := idl.Compile(`enum({choices:["red","green","blue"],default:"green"})`)
	require.NoError(t, err)

	data := Encode(tbl, 0)
	tbl2, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 1, tbl2.At(0).EnumDefaultIndex)
	require.Equal(t, []string{"red", "green", "blue"}, tbl2.At(0).EnumChoices)
}

func TestTruncatedInputRejected(t *testing.T) {
	tbl, err := idl.Compile(`bool()`)
	require.NoError(t, err)
	data := Encode(tbl, 0)
	_, err = Decode(data[:len(data)-1])
	require.Error(t, err)
}
