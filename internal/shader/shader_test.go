package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/imdraw/internal/vertex"
)

// skipIfUnsupported mirrors how the GPU packages treat naga gaps: a missing
// compiler feature is not a defect in the program.
func skipIfUnsupported(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("naga feature not available: %v", err)
	}
}

func TestVariantSlots(t *testing.T) {
	tests := []struct {
		v        Variant
		slots    int
		textured bool
		name     string
	}{
		{Color, 0, false, "color"},
		{Textured4, 4, true, "textured4"},
		{Textured16, 16, true, "textured16"},
	}
	for _, tt := range tests {
		if got := tt.v.Slots(); got != tt.slots {
			t.Errorf("%v.Slots() = %d, want %d", tt.v, got, tt.slots)
		}
		if got := tt.v.Textured(); got != tt.textured {
			t.Errorf("%v.Textured() = %v, want %v", tt.v, got, tt.textured)
		}
		if got := tt.v.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
}

func TestVariantSupports(t *testing.T) {
	tests := []struct {
		batch, req Variant
		want       bool
	}{
		{Color, Color, true},
		{Color, Textured4, false},
		{Textured4, Color, true},
		{Textured4, Textured4, true},
		{Textured4, Textured16, false},
		{Textured16, Textured4, true},
		{Textured16, Color, true},
	}
	for _, tt := range tests {
		if got := tt.batch.Supports(tt.req); got != tt.want {
			t.Errorf("%v.Supports(%v) = %v, want %v", tt.batch, tt.req, got, tt.want)
		}
	}
}

func TestForSlots(t *testing.T) {
	for _, n := range []int{0, 4, 16} {
		v, err := ForSlots(n)
		if err != nil {
			t.Fatalf("ForSlots(%d): %v", n, err)
		}
		if v.Slots() != n {
			t.Errorf("ForSlots(%d) = %v", n, v)
		}
	}
	if _, err := ForSlots(8); !errors.Is(err, ErrUnsupportedSlots) {
		t.Errorf("ForSlots(8) error = %v, want ErrUnsupportedSlots", err)
	}
}

func TestBestForLimits(t *testing.T) {
	l := gputypes.DefaultLimits()
	if got := Best(l); got != Textured16 {
		t.Errorf("Best(default limits) = %v, want textured16", got)
	}
	l.MaxSampledTexturesPerShaderStage = 8
	if got := Best(l); got != Textured4 {
		t.Errorf("Best(8 textures) = %v, want textured4", got)
	}
	l.MaxBindingsPerBindGroup = 6
	if got := Best(l); got != Color {
		t.Errorf("Best(6 bindings) = %v, want color", got)
	}
}

func TestSourceSharesVertexStage(t *testing.T) {
	for _, v := range Variants {
		src := Source(v)
		if !strings.Contains(src, "fn "+VertexEntry) || !strings.Contains(src, "fn "+FragmentEntry) {
			t.Errorf("%v: missing entry points", v)
		}
		if v.Textured() && !strings.Contains(src, "rounding_keep(in.uv") {
			t.Errorf("%v: fragment stage does not apply rounding", v)
		}
	}
}

func TestProgramsValidate(t *testing.T) {
	for _, v := range Variants {
		t.Run(v.String(), func(t *testing.T) {
			if err := Validate(v); err != nil {
				skipIfUnsupported(t, err)
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestProgramBindings(t *testing.T) {
	for _, v := range Variants {
		t.Run(v.String(), func(t *testing.T) {
			mod, err := Module(v)
			if err != nil {
				skipIfUnsupported(t, err)
				t.Fatalf("Module: %v", err)
			}
			got := map[uint32]bool{}
			for _, b := range Bindings(mod) {
				if b.Group != 0 {
					t.Errorf("binding %d in group %d, want group 0", b.Binding, b.Group)
				}
				got[b.Binding] = true
			}
			if len(got) != 2*v.Slots() {
				t.Fatalf("%d bindings, want %d", len(got), 2*v.Slots())
			}
			for k := 1; k <= v.Slots(); k++ {
				if !got[TextureBinding(k)] || !got[SamplerBinding(k)] {
					t.Errorf("slot %d: texture %d / sampler %d not declared", k, TextureBinding(k), SamplerBinding(k))
				}
			}
		})
	}
}

func TestVertexInputMatchesLayout(t *testing.T) {
	mod, err := Module(Textured4)
	if err != nil {
		skipIfUnsupported(t, err)
		t.Fatalf("Module: %v", err)
	}
	locs := VertexLocations(mod)
	attrs := vertex.Layout()[0].Attributes
	if len(locs) != len(attrs) {
		t.Fatalf("shader declares %d vertex inputs, layout has %d", len(locs), len(attrs))
	}
	for i, a := range attrs {
		if locs[i] != a.ShaderLocation {
			t.Errorf("input %d: shader location %d, layout location %d", i, locs[i], a.ShaderLocation)
		}
	}
}
