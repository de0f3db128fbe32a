// Command imdraw-demo draws a sample scene with the imdraw renderer and
// saves it as a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/chewxy/math32"
	"gopkg.in/natefinch/lumberjack.v2"

	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/imdraw"
	"github.com/gogpu/imdraw/recording"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/surface"
	"github.com/gogpu/imdraw/text"
	"github.com/gogpu/imdraw/texture"
)

func main() {
	var (
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		output   = flag.String("output", "demo.png", "output file")
		slots    = flag.Int("slots", -1, "textures per batch: 0, 4 or 16 (-1 picks the widest)")
		config   = flag.String("config", "", "TOML renderer config")
		logfile  = flag.String("logfile", "", "write logs to a rotating file instead of stderr")
		loglevel = flag.String("loglevel", "info", "log level: debug, info, warn or error")
		record   = flag.String("record", "", "write the frame's batches to this file")
		label    = flag.String("text", "imdraw: batched 2D drawing", "text drawn at the bottom")
		probe    = flag.Bool("probe", false, "open a GPU device and report the adapter")
	)
	flag.Parse()

	setupLogging(*logfile, *loglevel)

	if *probe {
		probeDevice()
	}

	var opts []imdraw.Option
	if *config != "" {
		cfg, err := imdraw.LoadConfig(*config)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = append(opts, cfg.Options()...)
	}
	opts = append(opts, imdraw.WithSize(*width, *height))
	if *slots >= 0 {
		opts = append(opts, imdraw.WithSlots(*slots))
	}

	img, err := run(opts, *label, *record)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, img.Bounds().Dx(), img.Bounds().Dy())
}

func setupLogging(file, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: invalid log level, using info\n", level)
		lvl = slog.LevelInfo
	}
	var w io.Writer = os.Stderr
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    16, // MB
			MaxBackups: 3,
		}
	}
	imdraw.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

func probeDevice() {
	d, err := imdraw.OpenDevice()
	if err != nil {
		log.Printf("No GPU device: %v", err)
		return
	}
	defer d.Close()
	log.Printf("GPU adapter: %s (%s, %s)", d.Info.Name, d.Info.DeviceType, d.Info.Backend)
}

func run(opts []imdraw.Option, label, recordPath string) (*image.RGBA, error) {
	reg := texture.NewRegistry()
	defer reg.Destroy()

	var rec *recording.Recorder
	if recordPath != "" {
		rec = recording.NewRecorder(reg)
		opts = append(opts, imdraw.WithRecorder(rec))
	}
	opts = append(opts, imdraw.WithTextures(reg), imdraw.WithClearColor(shape.Hex("#101820")))

	r, err := imdraw.New(opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	off, ok := r.Surface().(*surface.Offscreen)
	if !ok {
		return nil, fmt.Errorf("demo needs an offscreen surface, got %T", r.Surface())
	}

	checkers, err := registerCheckers(reg, r.Slots()+1)
	if err != nil {
		return nil, err
	}
	face, err := text.Default(reg, 22)
	if err != nil {
		return nil, err
	}

	f, err := r.BeginFrame(context.Background())
	if err != nil {
		return nil, err
	}
	w, h := f.Size()
	drawBackground(f, w, h)
	drawShapesDemo(f)
	drawTransformDemo(f)
	drawJoinsDemo(f)
	if r.Slots() > 0 {
		drawTexturesDemo(f, checkers)
	}
	f.SetColor(shape.White)
	if err := f.Text(face, label, 40, float32(h)-60); err != nil {
		log.Printf("Text: %v", err)
	}
	if err := f.End(); err != nil {
		return nil, err
	}
	st := f.Stats()
	imdraw.Logger().Info("frame done", "batches", st.Batches, "shapes", st.Shapes, "vertices", st.Vertices)

	if rec != nil {
		if err := writeRecording(recordPath, rec.Recording()); err != nil {
			return nil, err
		}
	}
	return off.Snapshot(), nil
}

func drawBackground(f *imdraw.Frame, w, h int) {
	const steps = 60
	for i := range steps {
		t := float32(i) / steps
		f.SetColor(shape.RGB(0.06+t*0.1, 0.09+t*0.12, 0.13+t*0.2))
		y := float32(h) * t
		_ = f.Rect(0, y, float32(w), float32(h)/steps+1)
	}
}

func drawShapesDemo(f *imdraw.Frame) {
	// Overlapping translucent circles
	f.SetColor(shape.RGBA(1, 0.3, 0.3, 0.8))
	_ = f.Circle(110, 110, 50)
	f.SetColor(shape.RGBA(0.3, 1, 0.3, 0.8))
	_ = f.Circle(150, 110, 50)
	f.SetColor(shape.RGBA(0.3, 0.3, 1, 0.8))
	_ = f.Circle(130, 150, 50)

	f.SetColor(shape.RGB(1, 0.8, 0))
	_ = f.RoundedRect(230, 60, 120, 80, 16)
	f.SetColor(shape.RGB(0.9, 0.5, 0.1))
	_ = f.Ellipse(290, 180, 60, 24)

	// Outline from lines
	f.SetColor(shape.White)
	f.SetLineStyle(imdraw.LineStyle{Width: 3, Join: shape.JoinMiter})
	_ = f.Polyline(shape.V(230, 60), shape.V(350, 60), shape.V(350, 140), shape.V(230, 140), shape.V(230, 60))

	f.SetColor(shape.RGB(0.4, 0.9, 0.9))
	_ = f.Triangle(shape.V(380, 160), shape.V(440, 60), shape.V(500, 160))
}

func drawTransformDemo(f *imdraw.Frame) {
	for i := range 8 {
		f.Push()
		f.Translate(620, 110)
		f.Rotate(float32(i) * math32.Pi / 4)
		f.SetColor(hue(float32(i) / 8))
		_ = f.Rect(20, -10, 60, 20)
		_ = f.Pop()
	}
}

func drawJoinsDemo(f *imdraw.Frame) {
	joins := []shape.Join{
		shape.JoinNone, shape.JoinMerge, shape.JoinMiter,
		shape.JoinMiterUnlimited, shape.JoinBevel, shape.JoinRound,
	}
	for i, j := range joins {
		x := 40 + float32(i)*125
		f.SetColor(hue(float32(i) / float32(len(joins))))
		f.SetLineStyle(imdraw.LineStyle{Width: 10, Join: j})
		_ = f.Polyline(
			shape.V(x, 300),
			shape.V(x+40, 250),
			shape.V(x+70, 310),
			shape.V(x+100, 260),
		)
	}
}

func drawTexturesDemo(f *imdraw.Frame, checkers []texture.Handle) {
	f.SetColor(shape.White)
	for i, h := range checkers {
		x := 40 + float32(i%9)*80
		y := 340 + float32(i/9)*80
		if i%3 == 0 {
			_ = f.Submit(shape.Image{
				Tex:     h,
				TexSize: shape.V(8, 8),
				Pos:     shape.V(x, y),
				Size:    shape.V(64, 64),
				Radii:   shape.Uniform(16),
				Tint:    shape.White,
			})
			continue
		}
		_ = f.ImageScaled(h, x, y, 64, 64)
	}
	if len(checkers) > 0 {
		_ = f.TexturedTriangle(checkers[0],
			[3]shape.Vec2{shape.V(700, 580), shape.V(745, 500), shape.V(790, 580)},
			[3]shape.Vec2{shape.V(0, 1), shape.V(0.5, 0), shape.V(1, 1)})
	}
}

// registerCheckers creates n distinct checkerboards, enough to force the
// renderer to split batches.
func registerCheckers(reg *texture.Registry, n int) ([]texture.Handle, error) {
	hs := make([]texture.Handle, 0, n)
	for i := range n {
		c := hue(float32(i) / float32(max(n, 1))).NRGBA()
		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		for y := range 8 {
			for x := range 8 {
				if (x/2+y/2)%2 == 0 {
					img.SetNRGBA(x, y, c)
				} else {
					img.SetNRGBA(x, y, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
				}
			}
		}
		h, err := reg.Register(img, texture.WithLabel(fmt.Sprintf("checker_%d", i)), texture.WithFilter(texture.Nearest))
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

// hue returns a saturated colour for t in [0, 1).
func hue(t float32) shape.Color {
	ch := func(off float32) float32 {
		return 0.5 + 0.5*math32.Cos(2*math32.Pi*(t+off))
	}
	return shape.RGB(ch(0), ch(2.0/3), ch(1.0/3))
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecording(path string, r *recording.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	log.Printf("Recorded %d batches to %s", len(r.Batches), path)
	return f.Close()
}
