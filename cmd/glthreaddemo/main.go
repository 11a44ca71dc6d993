// Command glthreaddemo records a synthetic frame workload through the
// offload engine and reports how it was batched.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/glthread"
	"github.com/gogpu/glthread/api"
	"github.com/gogpu/glthread/backend"
	"github.com/gogpu/glthread/backend/wgpu"
	"github.com/gogpu/glthread/trace"
)

const shaderWGSL = `
@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		driver     = flag.String("backend", "", "backend driver (default: best available)")
		frames     = flag.Int("frames", 1000, "number of frames to record")
		batches    = flag.Int("batches", glthread.DefaultBatchCount, "batches in the ring")
		batchSize  = flag.Int("batch-size", glthread.DefaultBatchSize, "batch capacity in bytes")
		sync       = flag.Bool("sync", false, "execute every batch on the recording thread")
		tracePath  = flag.String("trace", "", "write a batch trace to this file")
		output     = flag.String("output", "", "save the final framebuffer as PNG")
		lang       = flag.String("lang", "en", "language for the report")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	glthread.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := glthread.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = glthread.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg = glthread.ConfigFromEnv(cfg)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "batches":
			cfg.Batches = *batches
		case "batch-size":
			cfg.BatchSize = *batchSize
		case "sync":
			cfg.Synchronous = *sync
		case "trace":
			cfg.TracePath = *tracePath
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	drv, err := openDriver(*driver)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer drv.Close()

	opts := cfg.Options()
	var tw *trace.Writer
	if cfg.TracePath != "" {
		if tw, err = trace.Create(cfg.TracePath); err != nil {
			log.Fatalf("Failed to create trace: %v", err)
		}
		opts = append(opts, glthread.WithTracer(tw))
	}

	var stateOpts []api.StateOption
	if dev, ok := drv.(*wgpu.Device); ok {
		stateOpts = append(stateOpts, api.WithUploader(dev), api.WithShaderCreator(dev))
	}
	state := api.NewState(append(stateOpts, api.WithFramebufferSize(256, 256))...)
	engine := glthread.New(drv, state, opts...)
	if cfg.Enabled && !engine.Init() {
		log.Printf("Offloading unavailable on %s, executing directly", drv.Name())
	}
	ctx := api.NewContext(engine, state)

	start := time.Now()
	img := run(ctx, *frames)
	elapsed := time.Since(start)

	stats := engine.Stats()
	engine.Destroy("demo finished")

	p := message.NewPrinter(language.Make(*lang))
	p.Printf("backend: %s, offloading: %v\n", drv.Name(), cfg.Enabled)
	p.Printf("%d frames in %v (%.1f frames/s)\n", *frames, elapsed.Round(time.Millisecond),
		float64(*frames)/elapsed.Seconds())
	p.Printf("batches: %d, offloaded: %d, direct: %d, syncs: %d\n",
		stats.Batches, stats.OffloadedItems, stats.DirectItems, stats.Syncs)

	if tw != nil {
		if err := tw.Close(); err != nil {
			log.Fatalf("Failed to write trace: %v", err)
		}
		if err := reportTrace(p, cfg.TracePath); err != nil {
			log.Fatalf("Failed to read trace: %v", err)
		}
	}

	if *output != "" {
		if err := savePNG(*output, img); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Framebuffer saved to %s\n", *output)
	}
}

func openDriver(name string) (backend.Driver, error) {
	if name == "" {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

// run records the workload and returns the final framebuffer.
func run(ctx *api.Context, frames int) *image.RGBA {
	sh := ctx.CreateShader()
	ctx.CompileShader(sh, shaderWGSL)
	prog := ctx.CreateProgram()
	ctx.LinkProgram(prog, sh)
	if ok, msg := ctx.GetProgramLinkStatus(prog); !ok {
		log.Printf("Program link failed: %s", msg)
	}
	ctx.UseProgram(prog)

	bufs := ctx.GenBuffers(2)
	ctx.BindBuffer(api.ArrayBuffer, bufs[0])
	ctx.BindBuffer(api.UniformBuffer, bufs[1])
	ctx.BufferData(api.ArrayBuffer, 64*1024, nil, api.StaticDraw)
	ctx.BufferData(api.UniformBuffer, 256, nil, api.DynamicDraw)

	ctx.NewList(1, api.Compile)
	ctx.BindTexture(api.Texture2D, 1)
	ctx.TexParameteri(api.Texture2D, api.TextureMinFilter, api.Nearest)
	ctx.BlitFramebuffer(image.Rect(0, 0, 128, 128), image.Rect(128, 128, 256, 256), api.Linear)
	ctx.EndList()

	uniforms := make([]byte, 256)
	vertices := make([]byte, 16*1024)
	for f := range frames {
		t := float32(f%256) / 255
		ctx.ClearColor(t, 0.2, 1-t, 1)
		ctx.Clear(api.ColorBufferBit)

		for i := range uniforms {
			uniforms[i] = byte(f + i)
		}
		ctx.BindBuffer(api.UniformBuffer, bufs[1])
		ctx.BufferSubData(api.UniformBuffer, 0, uniforms)
		if f%16 == 0 {
			ctx.BindBuffer(api.ArrayBuffer, bufs[0])
			ctx.BufferSubData(api.ArrayBuffer, (f/16%4)*len(vertices), vertices)
		}
		for range 4 {
			ctx.CallList(1)
		}
		ctx.Flush()
	}

	if e := ctx.GetError(); e != api.NoError {
		log.Printf("GL error: %v", e)
	}
	w, h := ctx.State().Size()
	return ctx.ReadPixels(0, 0, w, h)
}

func reportTrace(p *message.Printer, path string) error {
	records, err := trace.ReadFile(path)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	direct := 0
	for _, r := range records {
		if r.Direct {
			direct++
		}
		for _, id := range r.Commands {
			counts[api.CommandName(id)]++
		}
	}
	p.Printf("trace: %d batches (%d direct)\n", len(records), direct)

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })
	for _, name := range names {
		p.Printf("  %-18s %d\n", name, counts[name])
	}
	return nil
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
