package enums_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/sdkgen/graph/graphtest"
	"github.com/skdltmxn/sdkgen/internal/enums"
)

func TestNormalizeVariants(t *testing.T) {
	tests := []struct {
		name   string
		enum   string
		raw    []string
		want   []string
		prefix string
	}{
		{
			name:   "common prefix",
			enum:   "WEAP",
			raw:    []string{"WEAP_Pistol", "WEAP_Shotgun", "WEAP_MAX"},
			want:   []string{"Pistol", "Shotgun", "MAX"},
			prefix: "WEAP_",
		},
		{
			name:   "multi component prefix",
			enum:   "EMoveDir",
			raw:    []string{"MD_Dir_Up", "MD_Dir_Down", "MD_Left"},
			want:   []string{"Dir_Up", "Dir_Down", "Left"},
			prefix: "MD_",
		},
		{
			name:   "sentinel trim",
			enum:   "EFoo",
			raw:    []string{"X_Bar", "X_EFooMAX"},
			want:   []string{"Bar", "MAX"},
			prefix: "X_",
		},
		{
			name:   "leading digit keeps prefix",
			enum:   "EAxis",
			raw:    []string{"AX_2D", "AX_Three"},
			want:   []string{"AX_2D", "Three"},
			prefix: "AX_",
		},
		{
			name:   "self keeps prefix",
			enum:   "ETarget",
			raw:    []string{"T_Self", "T_Other"},
			want:   []string{"T_Self", "Other"},
			prefix: "T_",
		},
		{
			name:   "no common prefix",
			enum:   "EColor",
			raw:    []string{"Red", "Green"},
			want:   []string{"Red", "Green"},
			prefix: "",
		},
		{
			name:   "single variant is not emptied",
			enum:   "EOne",
			raw:    []string{"ONE_Only"},
			want:   []string{"ONE_Only"},
			prefix: "ONE_Only_",
		},
		{
			name:   "duplicates suffixed",
			enum:   "EDup",
			raw:    []string{"D_A", "D_B", "D_A", "D_A"},
			want:   []string{"A", "B", "A_1", "A_2"},
			prefix: "D_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, prefix := enums.NormalizeVariants(tt.enum, tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prefix, prefix)

			seen := map[string]bool{}
			for _, v := range got {
				assert.NotEmpty(t, v)
				assert.False(t, seen[v], v)
				seen[v] = true
			}
		})
	}
}

func TestNormalizeVariantsEmpty(t *testing.T) {
	got, prefix := enums.NormalizeVariants("E", nil)
	assert.Nil(t, got)
	assert.Empty(t, prefix)
}

func TestNormalize(t *testing.T) {
	b := graphtest.New()
	pkg := b.Package("Engine")
	weap := b.Enum(pkg, "WEAP", "WEAP_Pistol", "WEAP_Shotgun", "WEAP_MAX")
	empty := b.Enum(pkg, "EEmpty")
	bad := b.Enum(pkg, "EBad", "B_A", graphtest.Unresolved)

	g := b.Graph(t)
	n := enums.New(g)

	d, err := n.Normalize(g.Object(weap).AsEnum())
	require.NoError(t, err)
	assert.Equal(t, "WEAP", d.Name)
	assert.Equal(t, "Enum Engine.WEAP", d.FullName)
	assert.Equal(t, []string{"Pistol", "Shotgun", "MAX"}, d.Variants)
	assert.Equal(t, []string{"WEAP_Pistol", "WEAP_Shotgun", "WEAP_MAX"}, d.Raw)

	d, err = n.Normalize(g.Object(empty).AsEnum())
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = n.Normalize(g.Object(bad).AsEnum())
	assert.ErrorIs(t, err, enums.ErrBadVariant)
}

func TestNormalizeDuplicateEnumNames(t *testing.T) {
	b := graphtest.New()
	engine := b.Package("Engine")
	game := b.Package("GameFramework")
	first := b.Enum(b.Class(engine, "Pawn", 0, 0x40), "EFlightMode", "FM_Walk", "FM_Fly")
	second := b.Enum(b.Class(game, "Vehicle", 0, 0x40), "EFlightMode", "FM_Hover")

	g := b.Graph(t)
	n := enums.New(g)

	d1, err := n.Normalize(g.Object(first).AsEnum())
	require.NoError(t, err)
	d2, err := n.Normalize(g.Object(second).AsEnum())
	require.NoError(t, err)

	assert.Equal(t, "Engine_Pawn_EFlightMode", d1.Name)
	assert.Equal(t, "GameFramework_Vehicle_EFlightMode", d2.Name)
}
