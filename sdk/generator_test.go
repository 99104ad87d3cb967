package sdk_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/graph/graphtest"
	"github.com/skdltmxn/sdkgen/internal/classify"
	"github.com/skdltmxn/sdkgen/internal/enums"
	"github.com/skdltmxn/sdkgen/internal/layout"
	"github.com/skdltmxn/sdkgen/sdk"
)

func newGenerator(t *testing.T, b *graphtest.Builder, opts sdk.Options) *sdk.Generator {
	t.Helper()
	g := b.Graph(t)
	m, err := g.FindMarkers()
	require.NoError(t, err)
	return sdk.New(g, m, opts)
}

func engine(b *graphtest.Builder) {
	pkg := b.Package("Engine")
	b.Const(pkg, "VERSION", "3")
	b.Enum(pkg, "EBad", "B_A", graphtest.Unresolved)
	b.Enum(pkg, "WEAP", "WEAP_Pistol", "WEAP_MAX")
	b.Enum(pkg, "EEmpty")

	broken := b.ScriptStruct(pkg, "Broken", 0, 8)
	b.Property(broken, graph.PropertyInt, graphtest.Prop{Name: "A", Offset: 0})
	b.Property(broken, graph.PropertyInt, graphtest.Prop{Name: "B", Offset: 2})

	stats := b.ScriptStruct(pkg, "Stats", 0, 8)
	b.Property(stats, graph.PropertyInt, graphtest.Prop{Name: "Health", Offset: 0})
	b.Property(stats, graph.PropertyFloat, graphtest.Prop{Name: "Mana", Offset: 4})
}

func TestGenerate(t *testing.T) {
	b := graphtest.New()
	engine(b)
	gen := newGenerator(t, b, sdk.Options{})

	var buf bytes.Buffer
	report, err := gen.Generate(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, sdk.DefaultPreamble))
	assert.Contains(t, out, "// Engine_VERSION = 3\n\n")
	assert.Contains(t, out, "pub enum WEAP {\n    Pistol,\n    MAX,\n}\n")
	assert.Contains(t, out, "pub struct Stats {\n")
	assert.NotContains(t, out, "EBad")
	assert.NotContains(t, out, "Broken")
	assert.NotContains(t, out, "EEmpty")

	// Constants, enums and structs come out in table order.
	assert.Less(t, strings.Index(out, "Engine_VERSION"), strings.Index(out, "enum WEAP"))
	assert.Less(t, strings.Index(out, "enum WEAP"), strings.Index(out, "struct Stats"))

	assert.Equal(t, 1, report.Emitted[graph.KindConst])
	assert.Equal(t, 1, report.Emitted[graph.KindEnum])
	assert.Equal(t, 1, report.Emitted[graph.KindScriptStruct])
	assert.Equal(t, 1, report.Skipped)

	require.Len(t, report.Failures, 2)
	assert.ErrorIs(t, report.Failures[0], enums.ErrBadVariant)
	assert.Equal(t, "Enum Engine.EBad", report.Failures[0].Name)
	assert.Equal(t, graph.KindEnum, report.Failures[0].Kind)
	assert.ErrorIs(t, report.Failures[1], layout.ErrOverlap)
	assert.Equal(t, "ScriptStruct Engine.Broken", report.Failures[1].Name)
}

func TestGenerateIsDeterministic(t *testing.T) {
	b := graphtest.New()
	engine(b)
	gen := newGenerator(t, b, sdk.Options{})

	var first, second bytes.Buffer
	_, err := gen.Generate(context.Background(), &first)
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), &second)
	require.NoError(t, err)
	assert.Equal(t, first.String(), second.String())
}

func TestGeneratePreambleOptions(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	b.Const(pkg, "VERSION", "3")

	var buf bytes.Buffer
	_, err := newGenerator(t, b, sdk.Options{SkipPreamble: true}).Generate(context.Background(), &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "// "))

	buf.Reset()
	_, err = newGenerator(t, b, sdk.Options{Preamble: "// custom\n\n"}).Generate(context.Background(), &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "// custom\n\n"))
}

func TestGenerateAutoDisambiguate(t *testing.T) {
	build := func() *graphtest.Builder {
		b := graphtest.New()
		eng := b.Package("Engine")
		fw := b.Package("GameFramework")
		b.ScriptStruct(b.Class(eng, "Pawn", 0, 4), "FlightData", 0, 4)
		b.ScriptStruct(b.Class(fw, "Vehicle", 0, 4), "FlightData", 0, 4)
		return b
	}

	var buf bytes.Buffer
	_, err := newGenerator(t, build(), sdk.Options{}).Generate(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(buf.String(), "pub struct FlightData {"))

	buf.Reset()
	_, err = newGenerator(t, build(), sdk.Options{AutoDisambiguate: true}).Generate(context.Background(), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pub struct Engine_Pawn_FlightData {")
	assert.Contains(t, buf.String(), "pub struct GameFramework_Vehicle_FlightData {")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestGenerateSinkFailure(t *testing.T) {
	b := graphtest.New()
	engine(b)

	_, err := newGenerator(t, b, sdk.Options{}).Generate(context.Background(), &failingWriter{})
	assert.ErrorIs(t, err, sdk.ErrSink)

	assert.ErrorContains(t, err, "disk full")
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func TestGenerateBuffersWrites(t *testing.T) {
	b := graphtest.New()
	engine(b)

	var w countingWriter
	report, err := newGenerator(t, b, sdk.Options{}).Generate(context.Background(), &w)
	require.NoError(t, err)
	require.Greater(t, report.Total(), 1)

	assert.LessOrEqual(t, w.writes, w.Len()/4096+1)
	assert.Less(t, w.writes, report.Total())

	var direct bytes.Buffer
	_, err = newGenerator(t, b, sdk.Options{}).Generate(context.Background(), &direct)
	require.NoError(t, err)
	assert.Equal(t, direct.String(), w.String())
}

func TestGenerateCanceled(t *testing.T) {
	b := graphtest.New()
	engine(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := newGenerator(t, b, sdk.Options{}).Generate(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

type observer struct {
	emitted map[graph.Kind]int
	failed  map[string]int
}

func (o *observer) ObjectEmitted(kind graph.Kind) {
	o.emitted[kind]++
}

func (o *observer) ObjectFailed(_ graph.Kind, reason string) {
	o.failed[reason]++
}

func TestGenerateObserver(t *testing.T) {
	b := graphtest.New()
	engine(b)

	obs := &observer{emitted: make(map[graph.Kind]int), failed: make(map[string]int)}
	var buf bytes.Buffer
	report, err := newGenerator(t, b, sdk.Options{Observer: obs}).Generate(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, report.Emitted, obs.emitted)
	assert.Equal(t, map[string]int{"bad_variant": 1, "overlap": 1}, obs.failed)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{enums.ErrBadVariant, "bad_variant"},
		{graph.ErrMissingName, "missing_name"},
		{&classify.NullReferenceError{Ref: classify.RefPropertyStruct}, "null_reference"},
		{&layout.SizeMismatchError{Delta: 4}, "size_mismatch"},
		{sdk.ErrConstOuter, "const_outer"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, sdk.Reason(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	actor := b.Class(pkg, "Actor", 0, 8)
	b.Property(actor, graph.PropertyBool, graphtest.Prop{Name: "bHidden", Offset: 0, Mask: 1})
	fn := b.Function(actor, "GetHealth", graph.FuncNative)
	b.Property(fn, graph.PropertyInt, graphtest.Prop{Name: "ReturnValue", Flags: graph.FlagParm | graph.FlagReturnParm})

	g := b.Graph(t)
	m, err := g.FindMarkers()
	require.NoError(t, err)
	gen := sdk.New(g, m, sdk.Options{})

	e, err := gen.Describe(g.Object(actor))
	require.NoError(t, err)
	assert.Equal(t, "class", e.Kind)
	assert.Equal(t, "Class Engine.Actor", e.FullName)
	assert.Equal(t, uint32(8), e.Size)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "bitfield", e.Fields[0].Kind)
	assert.Equal(t, "padding", e.Fields[1].Kind)
	require.Len(t, e.Accessors, 1)
	assert.Equal(t, "is_hidden", e.Accessors[0].Getter)
	require.Len(t, e.Methods, 1)
	assert.Equal(t, "GetHealth", e.Methods[0].Name)
	assert.True(t, e.Methods[0].Native)
	require.Len(t, e.Methods[0].Params, 1)
	assert.Equal(t, "out", e.Methods[0].Params[0].Direction)

	f, err := gen.Describe(g.Object(fn))
	require.NoError(t, err)
	assert.Equal(t, "function", f.Kind)
	assert.Len(t, f.Params, 1)
}
