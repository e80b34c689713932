package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/engine"
	"github.com/ivlev/forestscroll/internal/host"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/script"
	"github.com/ivlev/forestscroll/internal/source"
	"github.com/ivlev/forestscroll/internal/system"
	"github.com/ivlev/forestscroll/internal/telemetry"
	"github.com/ivlev/forestscroll/internal/video"
)

var app = cli.NewApp()
var log = logger.Log

const (
	scriptsDir = "scripts"
	audioDir   = "assets/audio"
	outputDir  = "output"
)

func init() {
	app.Name = "forestscroll"
	app.Usage = "A scroll-driven journey through a forest image sequence"
	app.UsageText = "forestscroll [--config file] command [options]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "YAML config file (defaults apply to missing keys)"},
	}
	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "Open a window and scroll through the journey",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "frames", Usage: "Frame directory, overrides player.image_path"},
				cli.StringFlag{Name: "pdf", Usage: "Use the pages of a PDF as frames"},
				cli.StringFlag{Name: "sound", Usage: "Ogg Vorbis soundscape (default: latest in " + audioDir + ")"},
				cli.BoolFlag{Name: "telemetry, t", Usage: "Log resource usage periodically"},
			},
			Action: runWindow,
		},
		{
			Name:    "export",
			Aliases: []string{"e"},
			Usage:   "Render a scripted journey to an MP4",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "script, s", Usage: "Scroll script (default: latest in " + scriptsDir + ", else a linear scroll)"},
				cli.StringFlag{Name: "output, o", Usage: "Output video (default: " + outputDir + "/forest_<time>.mp4)"},
				cli.StringFlag{Name: "frames", Usage: "Frame directory, overrides player.image_path"},
				cli.StringFlag{Name: "pdf", Usage: "Use the pages of a PDF as frames"},
				cli.StringFlag{Name: "audio", Usage: "Audio looped under the video"},
				cli.StringFlag{Name: "encoder", Usage: "ffmpeg video encoder (default: best available)"},
				cli.BoolFlag{Name: "no-ambient", Usage: "Leave out the ambient overlay"},
			},
			Action: exportVideo,
		},
		{
			Name:    "check",
			Aliases: []string{"c"},
			Usage:   "Verify that every frame exists and decodes",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "frames", Usage: "Frame directory, overrides player.image_path"},
			},
			Action: checkFrames,
		},
		{
			Name:  "script",
			Usage: "Write a scroll script for export",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "output, o", Usage: "Script file (default: " + scriptsDir + "/journey_<time>.yaml)"},
				cli.Float64Flag{Name: "duration, d", Usage: "Duration in seconds (default: export.duration)"},
				cli.IntFlag{Name: "fps", Usage: "Frames per second (default: export.fps)"},
				cli.IntFlag{Name: "stops", Usage: "Pause at this many points along the way"},
				cli.Float64Flag{Name: "hold", Value: 0.3, Usage: "Share of each stop spent standing still"},
			},
			Action: writeScript,
		},
	}
}

func loadConfig(c *cli.Context) (config.App, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cfg, err
	}
	if dir := c.String("frames"); dir != "" {
		cfg.Player.ImagePath = dir
	}
	return cfg, nil
}

// openPDF swaps the image directory for the pages of a PDF.
func openPDF(c *cli.Context, cfg *config.App) (*source.PDF, error) {
	path := c.String("pdf")
	if path == "" {
		return nil, nil
	}
	pdf, err := source.NewPDF(path, cfg.Player.DPI)
	if err != nil {
		return nil, err
	}
	cfg.Player.TotalFrames = pdf.Count()
	cfg.Player.MobileFrameCount = min(cfg.Player.MobileFrameCount, pdf.Count())
	log.Infof("[*] Using %d pages of %s as frames", pdf.Count(), path)
	return pdf, nil
}

func runWindow(c *cli.Context) error {
	system.InitResourceLimits()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var opts host.Options
	pdf, err := openPDF(c, &cfg)
	if err != nil {
		return err
	}
	if pdf != nil {
		defer pdf.Close()
		opts.Source = pdf
	}

	if path := c.String("sound"); path != "" {
		cfg.Window.SoundPath = path
		cfg.Ambient.SoundEnabled = true
	}
	if cfg.Ambient.SoundEnabled {
		path := cfg.Window.SoundPath
		if path == "" {
			if path, err = system.FindLatestAudio(audioDir, true); err != nil {
				log.Warnf("[!] Sound enabled but no soundscape found: %v", err)
			}
		}
		if path != "" {
			sound, err := host.NewSoundscape(path)
			if err != nil {
				return err
			}
			opts.Sound = sound
			log.Infof("[*] Soundscape: %s", path)
		}
	}

	if c.Bool("telemetry") {
		sampler, err := telemetry.NewSampler(context.Background())
		if err != nil {
			log.Warnf("[!] Telemetry disabled: %v", err)
		} else {
			opts.Sampler = sampler
		}
	}

	return host.Run(cfg, opts)
}

func exportVideo(c *cli.Context) error {
	system.InitResourceLimits()
	if err := video.Available(); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadScript(c, cfg)
	if err != nil {
		return err
	}

	project := &engine.Project{
		Config:    cfg,
		Script:    s,
		Encoder:   &video.FFmpegEncoder{},
		Output:    c.String("output"),
		AudioPath: c.String("audio"),
		NoAmbient: c.Bool("no-ambient"),
		Log:       log,
	}
	pdf, err := openPDF(c, &project.Config)
	if err != nil {
		return err
	}
	if pdf != nil {
		defer pdf.Close()
		project.Source = pdf
	}

	if enc := c.String("encoder"); enc != "" {
		project.Config.Export.VideoEncoder = enc
	}
	if project.Config.Export.VideoEncoder == "" {
		project.Config.Export.VideoEncoder = system.BestH264Encoder()
		if project.Config.Export.VideoEncoder != "libx264" {
			log.Infof("[*] Hardware acceleration detected: %s", project.Config.Export.VideoEncoder)
		}
	}

	if project.Output == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		project.Output = filepath.Join(outputDir, fmt.Sprintf("forest_%s.mp4", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(project.Output), 0755); err != nil {
		return err
	}

	bar := newProgress(s.Frames(), "[cyan][2/2][reset] Rendering")
	project.OnFrame = func(done, total int) { _ = bar.Set(done) }
	log.Info("[1/2] Preloading frames...")

	stats, err := project.Run(ctx)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("\n--- [EXPORT REPORT] ---\n"+
		"Frames: %d (sequence %d/%d loaded)\n"+
			"Buffers: %d\n"+
		"Preload: %.2fs\n"+
		"Total Time: %.2fs\n"+
		"Effective FPS: %.2f\n"+
		"-----------------------\n",
		stats.Frames, stats.LoadedFrames, stats.TotalFrames, stats.Buffers,
		stats.Preload.Seconds(), stats.Total.Seconds(), stats.FPS())
	log.Infof("[+++] Done! Video: %s", project.Output)
	return nil
}

func loadScript(c *cli.Context, cfg config.App) (*script.Script, error) {
	path := c.String("script")
	if path == "" {
		latest, err := script.FindLatest(scriptsDir)
		if err != nil {
			log.Infof("[*] No script found, scrolling linearly for %.0fs", cfg.Export.Duration)
			return script.Default(cfg.Export.Duration, cfg.Export.FPS), nil
		}
		path = latest
	}
	s, err := script.Read(path)
	if err != nil {
		return nil, err
	}
	log.Infof("[*] Using script: %s", path)
	return s, nil
}

func checkFrames(c *cli.Context) error {
	system.InitResourceLimits()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	p := cfg.Player

	ctx := context.Background()
	format := p.ImageFormat
	if !source.Probe(ctx, format) {
		format = source.Fallback(format)
		log.Infof("[*] %s not supported, checking %s frames", p.ImageFormat, format)
	}
	src := source.NewDir(p.ImagePath, p.ImagePrefix, format)

	bar := newProgress(p.TotalFrames, "Checking frames")
	report, err := source.Verify(ctx, src, p.TotalFrames, p.Workers, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	if report.OK() {
		log.Infof("[+++] All %d frames present in %s", report.Total, p.ImagePath)
		return nil
	}
	if len(report.Missing) > 0 {
		log.Warnf("[!] Missing frames: %s", names(src, report.Missing))
	}
	if len(report.Broken) > 0 {
		log.Warnf("[!] Undecodable frames: %s", names(src, report.Broken))
	}
	return fmt.Errorf("%d of %d frames unusable", len(report.Missing)+len(report.Broken), report.Total)
}

func names(src *source.Files, indices []int) string {
	const limit = 10
	var out []string
	for i, idx := range indices {
		if i == limit {
			out = append(out, fmt.Sprintf("and %d more", len(indices)-limit))
			break
		}
		out = append(out, src.Name(idx))
	}
	return strings.Join(out, ", ")
}

func writeScript(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	duration, fps := cfg.Export.Duration, cfg.Export.FPS
	if c.IsSet("duration") {
		duration = c.Float64("duration")
	}
	if c.IsSet("fps") {
		fps = c.Int("fps")
	}

	s := script.Default(duration, fps)
	if stops := c.Int("stops"); stops > 0 {
		s = script.Tour(duration, fps, stops, c.Float64("hold"))
	}
	if err := s.Validate(); err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		path = script.GeneratePath(scriptsDir)
	}
	if err := script.Write(s, path); err != nil {
		return err
	}
	log.Infof("[+++] Script saved: %s", path)
	return nil
}

func newProgress(max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
