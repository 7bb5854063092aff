// Package segclock draws a clock on an addressable LED strip. Hours, tens and
// units of minutes and tens and units of seconds each get their own circular
// segment of LEDs, and the renderer marks the current value of each digit on
// every frame.
package segclock

import (
	"go.uber.org/zap"
)

const (
	Name    = "Analog Segments Clock"
	Version = "1.0.0"

	refreshRate  = 50 // frames per second
	refreshDelay = 1000 / refreshRate
)

// Progress holds the digit values of a time of day.
type Progress struct {
	SecondsUnits int
	SecondsTens  int
	MinutesUnits int
	MinutesTens  int
	Hours        int // 0..11, 0 means twelve o'clock
}

// Decompose splits a wall-clock time into per-segment digit values.
func Decompose(t WallTime) Progress {
	hours := t.Hour % 12
	if t.Hour > 12 {
		hours = t.Hour - 12
	}
	return Progress{
		SecondsUnits: t.Second % 10,
		SecondsTens:  t.Second / 10,
		MinutesUnits: t.Minute % 10,
		MinutesTens:  t.Minute / 10,
		Hours:        hours,
	}
}

// Renderer is the clock overlay. It is not safe for concurrent use; the host
// calls it from its render goroutine and serializes configuration changes
// with rendering.
type Renderer struct {
	buf PixelBuffer
	ts  TimeSource
	log *zap.SugaredLogger

	cfg      Config
	initDone bool

	// lastOverlayDraw is the monotonic time of the last drawn frame. Loop uses
	// it to ask the host for the next one.
	lastOverlayDraw uint32
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used to report configuration corrections.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.cfg = cfg
	}
}

// New creates a renderer drawing into buf with time from ts.
func New(buf PixelBuffer, ts TimeSource, opts ...Option) *Renderer {
	r := &Renderer{
		buf: buf,
		ts:  ts,
		log: zap.NewNop().Sugar(),
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name and Version identify the overlay in settings forms.
func (r *Renderer) Name() string    { return Name }
func (r *Renderer) Version() string { return Version }

// Config returns the current configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// SetConfig replaces the configuration, validating it once Setup has run.
func (r *Renderer) SetConfig(cfg Config) {
	r.cfg = cfg
	if r.initDone {
		r.validate()
	}
}

// Setup validates the configuration against the strip length.
func (r *Renderer) Setup() {
	r.initDone = true
	r.validate()
}

func (r *Renderer) validate() {
	before := r.cfg
	r.cfg = r.cfg.Validate(r.buf.Len())
	logReset := func(name string, was, now Segment) {
		if was.FirstLed != now.FirstLed || was.LastLed != now.LastLed {
			r.log.Warnw("segment outside strip, reset to default",
				"segment", name, "firstLed", was.FirstLed, "lastLed", was.LastLed, "stripLength", r.buf.Len())
		} else if was.Offset != now.Offset {
			r.log.Warnw("segment offset exceeds size, reset to 0",
				"segment", name, "offset", was.Offset, "size", was.Size())
		}
	}
	logReset("seconds units", before.SecondsUnits, r.cfg.SecondsUnits)
	logReset("seconds tens", before.SecondsTens, r.cfg.SecondsTens)
	logReset("minutes units", before.MinutesUnits, r.cfg.MinutesUnits)
	logReset("minutes tens", before.MinutesTens, r.cfg.MinutesTens)
	logReset("hours", before.Hours, r.cfg.Hours)
}

// Loop asks the host for a new frame once the refresh delay has passed.
func (r *Renderer) Loop() {
	if !r.cfg.Enabled {
		return
	}
	if r.ts.MonotonicMillis()-r.lastOverlayDraw > refreshDelay {
		r.buf.RequestRedraw()
	}
}

// HandleOverlayDraw marks the current time on the strip. The host calls it
// after the active effect has filled the buffer and before the frame is shown.
// Minute and second segments stay untouched while their digit is 0; the hours
// segment is always drawn.
func (r *Renderer) HandleOverlayDraw() {
	if !r.cfg.Enabled {
		return
	}
	r.lastOverlayDraw = r.ts.MonotonicMillis()
	now := r.ts.WallClock()
	p := Decompose(now)
	cfg := r.cfg

	if p.SecondsUnits > 0 {
		r.draw(cfg.SecondsUnits, p.SecondsUnits, cfg.SecondUnitColor, now)
	}
	if p.SecondsTens > 0 {
		r.draw(cfg.SecondsTens, p.SecondsTens, cfg.SecondTensColor, now)
	}
	if p.MinutesUnits > 0 {
		r.draw(cfg.MinutesUnits, p.MinutesUnits, cfg.MinuteUnitColor, now)
	}
	if p.MinutesTens > 0 {
		r.draw(cfg.MinutesTens, p.MinutesTens, cfg.MinuteTensColor, now)
	}
	r.draw(cfg.Hours, p.Hours, cfg.HourColor, now)
}

// AddToConfig validates the configuration and writes it to w.
func (r *Renderer) AddToConfig(w ConfigWriter) {
	r.validate()
	WriteConfig(w, r.cfg)
}

// ReadFromConfig loads the configuration from src. It reports whether every
// field was present and well formed; missing fields take their defaults.
func (r *Renderer) ReadFromConfig(src ConfigReader) bool {
	res := ParseConfig(src)
	r.cfg = res.Config
	if r.initDone {
		r.validate()
	}
	return res.Complete
}
