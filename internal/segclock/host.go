package segclock

// PixelBuffer is the host's LED strip. Indices outside [0, Len()) must be ignored.
type PixelBuffer interface {
	Pixel(i int) Color
	SetPixel(i int, c Color)
	Len() int
	// RequestRedraw asks the host to render a frame soon. It may be coalesced.
	RequestRedraw()
}

// WallTime is a local time of day with millisecond resolution.
type WallTime struct {
	Hour   int
	Minute int
	Second int
	Millis int
}

// TimeSource supplies monotonic and wall-clock time.
type TimeSource interface {
	MonotonicMillis() uint32
	WallClock() WallTime
}

// ConfigReader is a flat key/value settings source. The second result is false
// when the key is absent or holds a value of another type.
type ConfigReader interface {
	Int(key string) (int, bool)
	String(key string) (string, bool)
	Bool(key string) (bool, bool)
}

// ConfigWriter receives flat key/value settings.
type ConfigWriter interface {
	SetInt(key string, v int)
	SetString(key string, v string)
	SetBool(key string, v bool)
}
