package collection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

func structTable() *schema.Table {
	t := &schema.Table{}
	strIdx := t.Push(schema.Node{Kind: schema.KindString, ValueKind: schema.Pointer})
	u16Idx := t.Push(schema.Node{Kind: schema.KindUint16, ValueKind: schema.Fixed, FixedWidth: 2})
	root := t.Push(schema.Node{
		Kind:   schema.KindStruct,
		Fields: []schema.FieldDef{{Name: "name", Child: strIdx}, {Name: "age", Child: u16Idx}},
	})
	schema.ComputeOffsets(t, root)
	return t
}

func TestRecordSizeAndFieldSlot(t *testing.T) {
	table := structTable()
	size := RecordSize(table, 2)
	require.Equal(t, schema.PointerWidth+2, size)

	pos, ok := FieldIndexByName(table, 2, "age")
	require.True(t, ok)
	require.Equal(t, 1, pos)

	offset, width, fixed, ok := FieldSlot(table, 2, pos)
	require.True(t, ok)
	require.True(t, fixed)
	require.Equal(t, 2, width)
	require.Equal(t, schema.PointerWidth, offset)

	_, ok = FieldIndexByName(table, 2, "missing")
	require.False(t, ok)
}

func TestAllocateRecordReservesZeroedSpace(t *testing.T) {
	r := mem.New(64)
	table := structTable()
	addr, ok := AllocateRecord(r, table, 2)
	require.True(t, ok)
	require.Equal(t, mem.RootAddr, addr)
	data, ok := r.Read(addr, RecordSize(table, 2))
	require.True(t, ok)
	for _, b := range data {
		require.Zero(t, b)
	}
}

func TestListInsertOrderedAndFind(t *testing.T) {
	r := mem.New(64)
	var head uint32

	head, c2, ok := ListInsert(r, head, 2)
	require.True(t, ok)
	require.True(t, SetCellValueAddr(r, int(c2), 200))

	head, c0, ok := ListInsert(r, head, 0)
	require.True(t, ok)
	require.True(t, SetCellValueAddr(r, int(c0), 100))

	head, c1, ok := ListInsert(r, head, 1)
	require.True(t, ok)
	require.True(t, SetCellValueAddr(r, int(c1), 150))

	n, capExceeded := ListLen(r, head)
	require.False(t, capExceeded)
	require.Equal(t, 3, n)

	for _, tc := range []struct {
		index uint32
		want  uint32
	}{{0, 100}, {1, 150}, {2, 200}} {
		cell, _, found, capEx := ListFind(r, head, tc.index)
		require.False(t, capEx)
		require.True(t, found, "index %d", tc.index)
		v, ok := CellValueAddr(r, int(cell))
		require.True(t, ok)
		require.Equal(t, tc.want, v)
	}

	_, _, found, capEx := ListFind(r, head, 5)
	require.False(t, capEx)
	require.False(t, found)
}

func TestListInsertRejectsDuplicateIndex(t *testing.T) {
	r := mem.New(64)
	head, _, ok := ListInsert(r, 0, 3)
	require.True(t, ok)
	_, _, ok = ListInsert(r, head, 3)
	require.False(t, ok)
}

func TestMapInsertFindAndDelete(t *testing.T) {
	r := mem.New(64)
	var head uint32

	head, c1, err := MapInsert(r, head, []byte("alpha"))
	require.NoError(t, err)
	require.True(t, SetCellValueAddr(r, int(c1), 11))

	head, c2, err := MapInsert(r, head, []byte("beta"))
	require.NoError(t, err)
	require.True(t, SetCellValueAddr(r, int(c2), 22))

	cell, found, capEx := MapFind(r, head, []byte("alpha"))
	require.False(t, capEx)
	require.True(t, found)
	v, ok := CellValueAddr(r, int(cell))
	require.True(t, ok)
	require.Equal(t, uint32(11), v)

	_, found, _ = MapFind(r, head, []byte("gamma"))
	require.False(t, found)

	newHead, ok := MapDelete(r, head, c2)
	require.True(t, ok)
	_, found, _ = MapFind(r, newHead, []byte("beta"))
	require.False(t, found)
	_, found, _ = MapFind(r, newHead, []byte("alpha"))
	require.True(t, found)

	n, capEx := MapLen(r, newHead)
	require.False(t, capEx)
	require.Equal(t, 1, n)
}

func TestMapInsertRejectsOversizedKey(t *testing.T) {
	r := mem.New(64)
	_, _, err := MapInsert(r, 0, make([]byte, MaxKeyLen+1))
	require.Error(t, err)
}

func TestMapKeysOrder(t *testing.T) {
	r := mem.New(64)
	head, _, err := MapInsert(r, 0, []byte("a"))
	require.NoError(t, err)
	head, _, err = MapInsert(r, head, []byte("b"))
	require.NoError(t, err)

	keys, capEx := MapKeys(r, head)
	require.False(t, capEx)
	require.Equal(t, [][]byte{[]byte("b"), []byte("a")}, keys)
}

func TestUnionSelectAndReselectSameVariant(t *testing.T) {
	r := mem.New(64)
	addr, ok := AllocateUnion(r)
	require.True(t, ok)

	_, set := UnionDiscriminant(r, addr)
	require.False(t, set)

	require.NoError(t, SelectUnion(r, addr, 2, 500))
	variant, set := UnionDiscriminant(r, addr)
	require.True(t, set)
	require.Equal(t, 2, variant)
	v, ok := UnionValueAddr(r, addr)
	require.True(t, ok)
	require.Equal(t, uint32(500), v)

	require.NoError(t, SelectUnion(r, addr, 2, 600))
	v, ok = UnionValueAddr(r, addr)
	require.True(t, ok)
	require.Equal(t, uint32(600), v)
}

func TestUnionRejectsSwitchingVariantWithoutClear(t *testing.T) {
	r := mem.New(64)
	addr, ok := AllocateUnion(r)
	require.True(t, ok)
	require.NoError(t, SelectUnion(r, addr, 0, 10))

	err := SelectUnion(r, addr, 1, 20)
	require.Error(t, err)

	require.True(t, ClearUnion(r, addr))
	_, set := UnionDiscriminant(r, addr)
	require.False(t, set)
	require.NoError(t, SelectUnion(r, addr, 1, 20))
}
