package config

import (
	"fmt"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Player holds the tunables of the frame sequence player.
type Player struct {
	CanvasID    string `yaml:"canvas_id"`
	ImagePath   string `yaml:"image_path"`
	ImagePrefix string `yaml:"image_prefix"`
	ImageFormat string `yaml:"image_format"`
	TotalFrames int    `yaml:"total_frames"`

	// Smoothing is the spring constant used while scrolling slowly.
	Smoothing float64 `yaml:"smoothing"`
	// FastSmoothing replaces Smoothing once the scroll delta exceeds VelocityThreshold.
	FastSmoothing     float64 `yaml:"fast_smoothing"`
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	Damping           float64 `yaml:"damping"`
	SnapThreshold     float64 `yaml:"snap_threshold"`
	BlendThreshold    float64 `yaml:"blend_threshold"`

	PreloadCount     int     `yaml:"preload_count"`
	MobileFrameCount int     `yaml:"mobile_frame_count"`
	MobileBreakpoint float64 `yaml:"mobile_breakpoint"`

	ResizeDebounce time.Duration `yaml:"resize_debounce"`
	Workers        int           `yaml:"workers"`
	// DPI is only used when frames come from a PDF.
	DPI int `yaml:"dpi"`
}

// Ambient holds the tunables of the ambient overlay.
type Ambient struct {
	LayerID string `yaml:"layer_id"`
	LayerZ  int    `yaml:"layer_z"`

	ParticleCount     int     `yaml:"particle_count"`
	SparkleCount      int     `yaml:"sparkle_count"`
	ParticleSpeed     float64 `yaml:"particle_speed"`
	FogIntensity      float64 `yaml:"fog_intensity"`
	VignetteIntensity float64 `yaml:"vignette_intensity"`
	LightRays         bool    `yaml:"light_rays"`
	SoundEnabled      bool    `yaml:"sound_enabled"`
	SoundVolume       float64 `yaml:"sound_volume"`
	// ColorTint is a hex color ("#ffc896") drawn over everything at TintAlpha.
	ColorTint string  `yaml:"color_tint"`
	TintAlpha float64 `yaml:"tint_alpha"`

	WrapMargin     float64       `yaml:"wrap_margin"`
	VelocityScale  float64       `yaml:"velocity_scale"`
	MaxBoost       float64       `yaml:"max_boost"`
	BurstThreshold float64       `yaml:"burst_threshold"`
	DecayInterval  time.Duration `yaml:"decay_interval"`
	Seed           uint64        `yaml:"seed"`
}

// Window configures the live ebiten host.
type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// JourneyScreens is the scrollable document height in viewport heights.
	JourneyScreens    float64       `yaml:"journey_screens"`
	WheelStep         float64       `yaml:"wheel_step"`
	PageTween         time.Duration `yaml:"page_tween"`
	SoundPath         string        `yaml:"sound_path"`
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
}

// Export configures headless rendering of a scripted journey.
type Export struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FPS            int     `yaml:"fps"`
	Duration       float64 `yaml:"duration"`
	JourneyScreens float64 `yaml:"journey_screens"`
	Quality        int     `yaml:"quality"`
	VideoEncoder   string  `yaml:"video_encoder"`
}

// App is the root of a configuration file.
type App struct {
	Player  Player  `yaml:"player"`
	Ambient Ambient `yaml:"ambient"`
	Window  Window  `yaml:"window"`
	Export  Export  `yaml:"export"`
}

func DefaultPlayer() Player {
	return Player{
		CanvasID:          "forest-canvas",
		ImagePath:         "assets/images/forest-sequence/",
		ImagePrefix:       "frame-",
		ImageFormat:       "webp",
		TotalFrames:       120,
		Smoothing:         0.08,
		FastSmoothing:     0.15,
		VelocityThreshold: 50,
		Damping:           0.75,
		SnapThreshold:     0.01,
		BlendThreshold:    0.01,
		PreloadCount:      10,
		MobileFrameCount:  60,
		MobileBreakpoint:  768,
		ResizeDebounce:    250 * time.Millisecond,
		Workers:           8,
		DPI:               150,
	}
}

func DefaultAmbient() Ambient {
	return Ambient{
		LayerID:           "forest-ambient",
		LayerZ:            10,
		ParticleCount:     50,
		SparkleCount:      30,
		ParticleSpeed:     0.5,
		FogIntensity:      0.3,
		VignetteIntensity: 0.4,
		LightRays:         true,
		SoundEnabled:      false,
		SoundVolume:       0.3,
		ColorTint:         "#ffc896",
		TintAlpha:         0.05,
		WrapMargin:        20,
		VelocityScale:     50,
		MaxBoost:          4,
		BurstThreshold:    2,
		DecayInterval:     50 * time.Millisecond,
	}
}

func DefaultWindow() Window {
	return Window{
		Title:             "Forest Journey",
		Width:             1280,
		Height:            720,
		JourneyScreens:    6,
		WheelStep:         60,
		PageTween:         400 * time.Millisecond,
		TelemetryInterval: 5 * time.Second,
	}
}

func DefaultExport() Export {
	return Export{
		Width:          1280,
		Height:         720,
		FPS:            30,
		Duration:       12,
		JourneyScreens: 6,
	}
}

func Default() App {
	return App{
		Player:  DefaultPlayer(),
		Ambient: DefaultAmbient(),
		Window:  DefaultWindow(),
		Export:  DefaultExport(),
	}
}

func (p Player) Validate() error {
	switch {
	case p.CanvasID == "":
		return fmt.Errorf("player.canvas_id is empty")
	case p.TotalFrames < 1:
		return fmt.Errorf("player.total_frames must be positive, got %d", p.TotalFrames)
	case p.MobileFrameCount < 1:
		return fmt.Errorf("player.mobile_frame_count must be positive, got %d", p.MobileFrameCount)
	case p.Smoothing <= 0 || p.Smoothing > 1:
		return fmt.Errorf("player.smoothing must be in (0,1], got %v", p.Smoothing)
	case p.FastSmoothing <= 0 || p.FastSmoothing > 1:
		return fmt.Errorf("player.fast_smoothing must be in (0,1], got %v", p.FastSmoothing)
	case p.Damping <= 0 || p.Damping >= 1:
		return fmt.Errorf("player.damping must be in (0,1), got %v", p.Damping)
	case p.SnapThreshold <= 0:
		return fmt.Errorf("player.snap_threshold must be positive, got %v", p.SnapThreshold)
	case p.PreloadCount < 0:
		return fmt.Errorf("player.preload_count must not be negative, got %d", p.PreloadCount)
	case p.ResizeDebounce < 0:
		return fmt.Errorf("player.resize_debounce must not be negative")
	}
	return nil
}

func (a Ambient) Validate() error {
	switch {
	case a.LayerID == "":
		return fmt.Errorf("ambient.layer_id is empty")
	case a.ParticleCount < 0 || a.SparkleCount < 0:
		return fmt.Errorf("ambient particle and sparkle counts must not be negative")
	case a.DecayInterval <= 0:
		return fmt.Errorf("ambient.decay_interval must be positive")
	case a.VelocityScale <= 0:
		return fmt.Errorf("ambient.velocity_scale must be positive")
	}
	if _, err := ParseTint(a.ColorTint, a.TintAlpha); err != nil {
		return err
	}
	return nil
}

func (w Window) Validate() error {
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", w.Width, w.Height)
	}
	if w.JourneyScreens < 1 {
		return fmt.Errorf("window.journey_screens must be at least 1, got %v", w.JourneyScreens)
	}
	return nil
}

func (e Export) Validate() error {
	if e.Width <= 0 || e.Height <= 0 || e.Width%2 != 0 || e.Height%2 != 0 {
		return fmt.Errorf("export size must be positive and even, got %dx%d", e.Width, e.Height)
	}
	if e.FPS <= 0 {
		return fmt.Errorf("export.fps must be positive, got %d", e.FPS)
	}
	if e.Duration <= 0 {
		return fmt.Errorf("export.duration must be positive, got %v", e.Duration)
	}
	if e.JourneyScreens < 1 {
		return fmt.Errorf("export.journey_screens must be at least 1, got %v", e.JourneyScreens)
	}
	return nil
}

func (a App) Validate() error {
	if err := a.Player.Validate(); err != nil {
		return err
	}
	if err := a.Ambient.Validate(); err != nil {
		return err
	}
	if err := a.Window.Validate(); err != nil {
		return err
	}
	return a.Export.Validate()
}

// ParseTint turns a hex color and an alpha into a non-premultiplied color.
func ParseTint(hex string, alpha float64) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("ambient.color_tint %q: %w", hex, err)
	}
	if alpha < 0 || alpha > 1 {
		return color.NRGBA{}, fmt.Errorf("ambient.tint_alpha must be in [0,1], got %v", alpha)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}, nil
}
