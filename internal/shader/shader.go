// Package shader holds the fixed set of WGSL programs selected by shader
// variant. Every variant shares one vertex stage and one vertex layout; the
// fragment stage differs in how many texture/sampler pairs it binds.
package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed shaders/common.wgsl
var commonSource string

//go:embed shaders/color.wgsl
var colorSource string

//go:embed shaders/textured4.wgsl
var textured4Source string

//go:embed shaders/textured16.wgsl
var textured16Source string

// Entry points shared by every variant.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// ErrUnsupportedSlots is returned for a slot count with no matching variant.
var ErrUnsupportedSlots = errors.New("shader: no variant for slot count")

// Variant selects one precompiled pipeline configuration.
type Variant uint8

const (
	// Color shades with the vertex colour only. It binds nothing and skips
	// the rounding test.
	Color Variant = iota

	// Textured4 binds four texture/sampler pairs and applies rounding.
	Textured4

	// Textured16 binds sixteen texture/sampler pairs and applies rounding.
	Textured16
)

// Variants lists every variant in ascending capacity.
var Variants = [...]Variant{Color, Textured4, Textured16}

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case Color:
		return "color"
	case Textured4:
		return "textured4"
	case Textured16:
		return "textured16"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// Slots returns the number of texture slots the variant binds.
func (v Variant) Slots() int {
	switch v {
	case Textured4:
		return 4
	case Textured16:
		return 16
	default:
		return 0
	}
}

// Textured reports whether the variant samples textures and rounds corners.
func (v Variant) Textured() bool { return v.Slots() > 0 }

// Supports reports whether a batch drawn with v can also draw a shape that
// requires req. Textured variants draw colour-only geometry; the reverse is
// not possible.
func (v Variant) Supports(req Variant) bool {
	if v == req {
		return true
	}
	return v.Textured() && v.Slots() >= req.Slots()
}

// ForSlots returns the variant binding exactly n slots.
func ForSlots(n int) (Variant, error) {
	switch n {
	case 0:
		return Color, nil
	case 4:
		return Textured4, nil
	case 16:
		return Textured16, nil
	default:
		return Color, fmt.Errorf("%w: %d", ErrUnsupportedSlots, n)
	}
}

// MaxSlots returns how many texture/sampler pairs a device with the given
// limits can bind in one group for a fragment stage.
func MaxSlots(l gputypes.Limits) int {
	n := l.MaxBindingsPerBindGroup / 2
	n = min(n, l.MaxSampledTexturesPerShaderStage, l.MaxSamplersPerShaderStage)
	return int(n)
}

// Best returns the widest textured variant the limits allow, or Color when
// none fits.
func Best(l gputypes.Limits) Variant {
	limit := MaxSlots(l)
	best := Color
	for _, v := range Variants {
		if v.Slots() <= limit {
			best = v
		}
	}
	return best
}

// Source returns the complete WGSL program for v.
func Source(v Variant) string {
	switch v {
	case Textured4:
		return commonSource + "\n" + textured4Source
	case Textured16:
		return commonSource + "\n" + textured16Source
	default:
		return commonSource + "\n" + colorSource
	}
}

// TextureBinding returns the binding index of the texture for 1-based slot k.
func TextureBinding(k int) uint32 { return uint32(2 * (k - 1)) } //nolint:gosec // k <= 16

// SamplerBinding returns the binding index of the sampler for 1-based slot k.
func SamplerBinding(k int) uint32 { return TextureBinding(k) + 1 }

// Module parses and lowers the program for v into naga IR.
func Module(v Variant) (*ir.Module, error) {
	src := Source(v)
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", v, err)
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("shader %s: lower: %w", v, err)
	}
	return mod, nil
}

// Validate runs naga validation on the program for v.
func Validate(v Variant) error {
	mod, err := Module(v)
	if err != nil {
		return err
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return fmt.Errorf("shader %s: validate: %w", v, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("shader %s: %d validation errors, first: %v", v, len(verrs), verrs[0])
	}
	return nil
}

// Bindings returns the (group, binding) pairs of every resource mod
// declares.
func Bindings(mod *ir.Module) []ir.ResourceBinding {
	var out []ir.ResourceBinding
	for _, g := range mod.GlobalVariables {
		if g.Binding != nil {
			out = append(out, *g.Binding)
		}
	}
	return out
}

// VertexLocations returns the @location indices of the vertex entry point's
// input struct, in declaration order.
func VertexLocations(mod *ir.Module) []uint32 {
	for _, ep := range mod.EntryPoints {
		if ep.Stage != ir.StageVertex {
			continue
		}
		var locs []uint32
		for _, arg := range ep.Function.Arguments {
			if arg.Binding != nil {
				if lb, ok := (*arg.Binding).(ir.LocationBinding); ok {
					locs = append(locs, lb.Location)
				}
				continue
			}
			if int(arg.Type) >= len(mod.Types) {
				continue
			}
			st, ok := mod.Types[arg.Type].Inner.(ir.StructType)
			if !ok {
				continue
			}
			for _, m := range st.Members {
				if m.Binding == nil {
					continue
				}
				if lb, ok := (*m.Binding).(ir.LocationBinding); ok {
					locs = append(locs, lb.Location)
				}
			}
		}
		return locs
	}
	return nil
}
