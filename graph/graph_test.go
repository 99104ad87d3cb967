package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/graph/graphtest"
	"github.com/skdltmxn/sdkgen/memory"
)

func TestObjectNames(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	actor := b.Class(pkg, "Actor", 0, 0x40)
	health := b.Property(actor, graph.PropertyInt, graphtest.Prop{Name: "Health"})

	g := b.Graph(t)

	name, err := g.Object(health).Name()
	require.NoError(t, err)
	assert.Equal(t, "Health", name)

	qualified, err := g.Object(health).QualifiedName()
	require.NoError(t, err)
	assert.Equal(t, "Engine.Actor.Health", qualified)

	full, err := g.Object(actor).FullName()
	require.NoError(t, err)
	assert.Equal(t, "Class Engine.Actor", full)

	full, err = g.Object(health).FullName()
	require.NoError(t, err)
	assert.Equal(t, "IntProperty Engine.Actor.Health", full)
}

func TestNameNumberSuffix(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	obj := b.Class(pkg, "Actor", 0, 0x40)
	b.SetU32(obj, b.Layout().ObjectName+4, 3)

	g := b.Graph(t)
	name, err := g.Object(obj).Name()
	require.NoError(t, err)
	assert.Equal(t, "Actor_2", name)
}

func TestMissingName(t *testing.T) {
	b := graphtest.New()
	obj := b.Package("Engine")
	b.SetU32(obj, b.Layout().ObjectName, 0xFFFF)

	g := b.Graph(t)
	_, err := g.Object(obj).Name()
	require.ErrorIs(t, err, graph.ErrMissingName)

	var ne *graph.NodeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, obj, ne.Addr)
}

func TestObjectsSkipsNullSlots(t *testing.T) {
	b := graphtest.New()
	b.NullSlot()
	pkg := b.Package("Engine")
	b.NullSlot()

	g := b.Graph(t)

	count, err := g.ObjectCount()
	require.NoError(t, err)

	var seen []memory.Addr
	for obj, err := range g.Objects() {
		require.NoError(t, err)
		assert.False(t, obj.IsNull())
		seen = append(seen, obj.Addr)
	}
	assert.Len(t, seen, count-2)
	assert.Equal(t, pkg, seen[len(seen)-1])
}

func TestFind(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	fn := b.Function(b.Class(pkg, "Actor", 0, 0x40), "Tick", 0)

	g := b.Graph(t)

	obj, err := g.Find("Function Engine.Actor.Tick")
	require.NoError(t, err)
	assert.Equal(t, fn, obj.Addr)

	_, err = g.Find("Function Engine.Actor.Missing")
	assert.ErrorIs(t, err, graph.ErrObjectNotFound)
}

func TestIsWalksClassHierarchy(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	cls := b.Class(pkg, "Actor", 0, 0x40)
	meta := b.Property(cls, graph.PropertyClass, graphtest.Prop{Name: "Meta", Ref: cls, Ref2: cls})

	g := b.Graph(t)
	p := g.Object(meta)

	assert.True(t, p.Is(g.Object(b.CoreClass("ClassProperty"))))
	assert.True(t, p.Is(g.Object(b.CoreClass("ObjectProperty"))))
	assert.True(t, p.Is(g.Object(b.CoreClass("Property"))))
	assert.True(t, p.Is(g.Object(b.CoreClass("Object"))))
	assert.False(t, p.Is(g.Object(b.CoreClass("IntProperty"))))
	assert.False(t, p.Is(graph.Object{}))
}

func TestChildrenOrderAndCycle(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	st := b.ScriptStruct(pkg, "Vector", 0, 12)
	x := b.Property(st, graph.PropertyFloat, graphtest.Prop{Name: "X", Offset: 0})
	y := b.Property(st, graph.PropertyFloat, graphtest.Prop{Name: "Y", Offset: 4})
	z := b.Property(st, graph.PropertyFloat, graphtest.Prop{Name: "Z", Offset: 8})

	cyclic := b.ScriptStruct(pkg, "Loop", 0, 8)
	first := b.Property(cyclic, graph.PropertyInt, graphtest.Prop{Name: "A"})
	second := b.Property(cyclic, graph.PropertyInt, graphtest.Prop{Name: "B", Offset: 4})
	b.SetPtr(second, b.Layout().FieldNext, first)

	g := b.Graph(t, graph.WithMaxChain(16))

	var got []memory.Addr
	for p, err := range g.Object(st).AsStruct().Children() {
		require.NoError(t, err)
		got = append(got, p.Addr)
	}
	assert.Equal(t, []memory.Addr{x, y, z}, got)

	var chainErr error
	for _, err := range g.Object(cyclic).AsStruct().Children() {
		if err != nil {
			chainErr = err
		}
	}
	assert.ErrorIs(t, chainErr, graph.ErrChainTooLong)
}

func TestPropertyAccessors(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	st := b.ScriptStruct(pkg, "Box", 0, 0x20)
	flag := b.Property(st, graph.PropertyBool, graphtest.Prop{
		Name: "bHidden", Offset: 0x10, Mask: 0x4, Flags: graph.FlagParm | graph.FlagOutParm,
	})
	arr := b.Property(st, graph.PropertyInt, graphtest.Prop{Name: "Counts", Offset: 0x14, ArrayDim: 3})

	g := b.Graph(t)

	p := g.Object(flag).AsProperty()
	mask, err := p.BoolMask()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4), mask)

	flags, err := p.Flags()
	require.NoError(t, err)
	assert.True(t, flags.IsParam())
	assert.True(t, flags.IsOut())
	assert.False(t, flags.IsReturn())

	q := g.Object(arr).AsProperty()
	dim, err := q.ArrayDim()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), dim)

	size, err := q.ElementSize()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), size)

	off, err := q.Offset()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x14), off)
}

func TestEnumVariantsAndConstValue(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	e := b.Enum(pkg, "EWeapon", "WEAP_Pistol", "WEAP_MAX")
	bad := b.Enum(pkg, "EBroken", "OK", graphtest.Unresolved)
	c := b.Const(pkg, "MaxPlayers", "64")

	g := b.Graph(t)

	variants, err := g.Object(e).AsEnum().Variants()
	require.NoError(t, err)
	assert.Equal(t, []string{"WEAP_Pistol", "WEAP_MAX"}, variants)

	_, err = g.Object(bad).AsEnum().Variants()
	assert.ErrorIs(t, err, graph.ErrMissingName)

	value, err := g.Object(c).AsConst().Value()
	require.NoError(t, err)
	assert.Equal(t, "64", value)
}

func TestResolveDuplicate(t *testing.T) {
	b := graphtest.New()
	engine := b.Package("Engine")
	game := b.Package("GameFramework")
	pawn := b.Class(engine, "Pawn", 0, 0x40)
	vehicle := b.Class(game, "Vehicle", 0, 0x40)
	first := b.Enum(pawn, "EFlightMode", "FM_A")
	second := b.Enum(vehicle, "EFlightMode", "FM_B")
	plain := b.Enum(pawn, "EPlain", "P_A")
	orphan := b.Enum(0, "EFlightMode", "FM_C")

	g := b.Graph(t)

	n1, err := g.ResolveDuplicate(g.Object(first))
	require.NoError(t, err)
	n2, err := g.ResolveDuplicate(g.Object(second))
	require.NoError(t, err)

	assert.Equal(t, "Engine_Pawn_EFlightMode", n1)
	assert.Equal(t, "GameFramework_Vehicle_EFlightMode", n2)
	assert.NotEqual(t, n1, n2)

	n3, err := g.ResolveDuplicate(g.Object(plain))
	require.NoError(t, err)
	assert.Equal(t, "EPlain", n3)

	_, err = g.ResolveDuplicate(g.Object(orphan))
	assert.ErrorIs(t, err, graph.ErrNoOuter)
}

func TestResolveDuplicateCustomDenylist(t *testing.T) {
	b := graphtest.New()
	engine := b.Package("Engine")
	actor := b.Class(engine, "Actor", 0, 0x40)
	e := b.Enum(actor, "EFlightMode", "FM_A")
	f := b.Enum(actor, "ECustom", "C_A")

	g := b.Graph(t, graph.WithDenylist("ECustom"))

	name, err := g.ResolveDuplicate(g.Object(e))
	require.NoError(t, err)
	assert.Equal(t, "EFlightMode", name)

	name, err = g.ResolveDuplicate(g.Object(f))
	require.NoError(t, err)
	assert.Equal(t, "Engine_Actor_ECustom", name)

	g.AddDuplicates("EFlightMode")
	assert.Equal(t, []string{"ECustom", "EFlightMode"}, g.Duplicates())
}

func TestNames(t *testing.T) {
	b := graphtest.New()
	b.Package("Engine")

	g := b.Graph(t)

	found := map[string]bool{}
	for i, text := range g.Names() {
		assert.GreaterOrEqual(t, i, 0)
		found[text] = true
	}
	assert.True(t, found["None"])
	assert.True(t, found["Engine"])
	assert.True(t, found["ScriptStruct"])
}

func TestNewValidatesLayout(t *testing.T) {
	img, err := memory.NewImage(memory.BytesRegion(0x1000, make([]byte, 0x100)))
	require.NoError(t, err)
	mem, err := memory.NewReader(img, memory.WithPointerSize(8))
	require.NoError(t, err)

	_, err = graph.New(mem, graph.DefaultLayout(), 0x1000, 0x1010)
	assert.ErrorIs(t, err, graph.ErrLayout)

	layout := graph.DefaultLayout()
	layout.PointerSize = 8
	_, err = graph.New(mem, layout, 0, 0x1010)
	assert.ErrorIs(t, err, graph.ErrLayout)
}
