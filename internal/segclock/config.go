package segclock

import (
	"encoding/json"
	"math"
)

// MovingEffect selects how the marked LED changes between ticks.
type MovingEffect int

const (
	EffectSolid MovingEffect = iota
	EffectFade
)

// MarkingMode selects whether a single LED or a bar marks a digit.
type MarkingMode int

const (
	MarkSingle MarkingMode = iota
	MarkCumulative
)

// Config keys as they appear in the persisted flat key/value set.
const (
	KeyEnabled      = "Overlay Enabled"
	KeyHourColor    = "H Color"
	KeyMinUnitColor = "M Unit Color"
	KeyMinTensColor = "M Tens Color"
	KeySecUnitColor = "S Unit Color"
	KeySecTensColor = "S Tens Color"
	KeyMovingEffect = "Moving Effect"
	KeyMarkingMode  = "Marking Mode"
	KeyBlendColors  = "Blend Colors"
)

// segmentKeys holds the key prefix of each segment, e.g. "Unit sec" + " FL".
type segmentKeys struct {
	prefix string
	def    Segment
}

var (
	secondsUnitsKeys = segmentKeys{"Unit sec", Segment{FirstLed: 0, LastLed: 8}}
	secondsTensKeys  = segmentKeys{"Tens sec", Segment{FirstLed: 9, LastLed: 13}}
	minutesUnitsKeys = segmentKeys{"Unit min", Segment{FirstLed: 14, LastLed: 22}}
	minutesTensKeys  = segmentKeys{"Tens min", Segment{FirstLed: 23, LastLed: 27}}
	hoursKeys        = segmentKeys{"Hours", Segment{FirstLed: 28, LastLed: 39, IsHours: true}}
)

func (k segmentKeys) first() string  { return k.prefix + " FL" }
func (k segmentKeys) last() string   { return k.prefix + " LL" }
func (k segmentKeys) offset() string { return k.prefix + " Offset" }

const (
	defaultHourColor   Color = 0x0000FF
	defaultMinuteColor Color = 0x00FF00
	defaultSecondColor Color = 0xFF0000
)

// Config is the complete clock configuration.
type Config struct {
	Enabled         bool         `json:"enabled"`
	HourColor       Color        `json:"hourColor"`
	MinuteUnitColor Color        `json:"minuteUnitColor"`
	MinuteTensColor Color        `json:"minuteTensColor"`
	SecondUnitColor Color        `json:"secondUnitColor"`
	SecondTensColor Color        `json:"secondTensColor"`
	BlendColors     bool         `json:"blendColors"`
	MovingEffect    MovingEffect `json:"movingEffect"`
	MarkingMode     MarkingMode  `json:"markingMode"`

	SecondsUnits Segment `json:"secondsUnits"`
	SecondsTens  Segment `json:"secondsTens"`
	MinutesUnits Segment `json:"minutesUnits"`
	MinutesTens  Segment `json:"minutesTens"`
	Hours        Segment `json:"hours"`
}

// DefaultConfig is the configuration used for any key missing from storage.
func DefaultConfig() Config {
	return Config{
		HourColor:       defaultHourColor,
		MinuteUnitColor: defaultMinuteColor,
		MinuteTensColor: defaultMinuteColor,
		SecondUnitColor: defaultSecondColor,
		SecondTensColor: defaultSecondColor,
		BlendColors:     true,
		SecondsUnits:    secondsUnitsKeys.def,
		SecondsTens:     secondsTensKeys.def,
		MinutesUnits:    minutesUnitsKeys.def,
		MinutesTens:     minutesTensKeys.def,
		Hours:           hoursKeys.def,
	}
}

// Validate checks every segment against the strip length and clamps the mode
// flags to their two-valued domain.
func (c Config) Validate(stripLength int) Config {
	c.SecondsUnits = Validate(c.SecondsUnits, stripLength)
	c.SecondsTens = Validate(c.SecondsTens, stripLength)
	c.MinutesUnits = Validate(c.MinutesUnits, stripLength)
	c.MinutesTens = Validate(c.MinutesTens, stripLength)
	c.Hours = Validate(c.Hours, stripLength)
	c.Hours.IsHours = true
	if c.MovingEffect != EffectSolid && c.MovingEffect != EffectFade {
		c.MovingEffect = EffectSolid
	}
	if c.MarkingMode != MarkSingle && c.MarkingMode != MarkCumulative {
		c.MarkingMode = MarkSingle
	}
	return c
}

// ConfigResult is the outcome of reading a configuration. Complete is false
// when at least one field was missing or malformed and fell back to its default.
type ConfigResult struct {
	Config   Config
	Complete bool
}

// configParser folds each field's parse-or-default outcome into complete.
type configParser struct {
	r        ConfigReader
	complete bool
}

func (p *configParser) intField(key string, def int) int {
	v, ok := p.r.Int(key)
	if !ok {
		p.complete = false
		return def
	}
	return v
}

func (p *configParser) boolField(key string, def bool) bool {
	v, ok := p.r.Bool(key)
	if !ok {
		p.complete = false
		return def
	}
	return v
}

func (p *configParser) colorField(key string, def Color) Color {
	s, ok := p.r.String(key)
	if !ok {
		p.complete = false
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		p.complete = false
		return def
	}
	return c
}

func (p *configParser) segmentField(k segmentKeys) Segment {
	return Segment{
		FirstLed: p.intField(k.first(), k.def.FirstLed),
		LastLed:  p.intField(k.last(), k.def.LastLed),
		Offset:   p.intField(k.offset(), k.def.Offset),
		IsHours:  k.def.IsHours,
	}
}

// ParseConfig reads every field from r, substituting defaults for missing or
// malformed values. A nil reader yields the defaults and an incomplete result.
// Segment bounds are not validated here.
func ParseConfig(r ConfigReader) ConfigResult {
	if r == nil {
		return ConfigResult{Config: DefaultConfig()}
	}
	p := &configParser{r: r, complete: true}
	cfg := Config{
		Enabled:      p.boolField(KeyEnabled, false),
		SecondsUnits: p.segmentField(secondsUnitsKeys),
		SecondsTens:  p.segmentField(secondsTensKeys),
		MinutesUnits: p.segmentField(minutesUnitsKeys),
		MinutesTens:  p.segmentField(minutesTensKeys),
		Hours:        p.segmentField(hoursKeys),

		HourColor:       p.colorField(KeyHourColor, defaultHourColor),
		MinuteUnitColor: p.colorField(KeyMinUnitColor, defaultMinuteColor),
		MinuteTensColor: p.colorField(KeyMinTensColor, defaultMinuteColor),
		SecondUnitColor: p.colorField(KeySecUnitColor, defaultSecondColor),
		SecondTensColor: p.colorField(KeySecTensColor, defaultSecondColor),
		MovingEffect:    MovingEffect(p.intField(KeyMovingEffect, int(EffectSolid))),
		MarkingMode:     MarkingMode(p.intField(KeyMarkingMode, int(MarkSingle))),
		BlendColors:     p.boolField(KeyBlendColors, true),
	}
	return ConfigResult{Config: cfg, Complete: p.complete}
}

func writeSegment(w ConfigWriter, k segmentKeys, s Segment) {
	w.SetInt(k.first(), s.FirstLed)
	w.SetInt(k.last(), s.LastLed)
	w.SetInt(k.offset(), s.Offset)
}

// WriteConfig emits cfg as the flat key/value set read by ParseConfig.
func WriteConfig(w ConfigWriter, cfg Config) {
	w.SetBool(KeyEnabled, cfg.Enabled)

	writeSegment(w, secondsUnitsKeys, cfg.SecondsUnits)
	writeSegment(w, secondsTensKeys, cfg.SecondsTens)
	writeSegment(w, minutesUnitsKeys, cfg.MinutesUnits)
	writeSegment(w, minutesTensKeys, cfg.MinutesTens)
	writeSegment(w, hoursKeys, cfg.Hours)

	w.SetString(KeyHourColor, FormatColor(cfg.HourColor))
	w.SetString(KeyMinUnitColor, FormatColor(cfg.MinuteUnitColor))
	w.SetString(KeyMinTensColor, FormatColor(cfg.MinuteTensColor))
	w.SetString(KeySecUnitColor, FormatColor(cfg.SecondUnitColor))
	w.SetString(KeySecTensColor, FormatColor(cfg.SecondTensColor))
	w.SetInt(KeyMovingEffect, int(cfg.MovingEffect))
	w.SetInt(KeyMarkingMode, int(cfg.MarkingMode))
	w.SetBool(KeyBlendColors, cfg.BlendColors)
}

// Values is an in-memory flat key/value set. It accepts the number types
// produced by encoding/json as well as native Go integers.
type Values map[string]any

func (v Values) Int(key string) (int, bool) {
	switch n := v[key].(type) {
	case int:
		return n, true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

func (v Values) Bool(key string) (bool, bool) {
	b, ok := v[key].(bool)
	return b, ok
}

func (v Values) SetInt(key string, n int)       { v[key] = n }
func (v Values) SetString(key string, s string) { v[key] = s }
func (v Values) SetBool(key string, b bool)     { v[key] = b }
