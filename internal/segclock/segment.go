package segclock

// Segment is a circular run of LEDs on the strip that shows one digit of the time.
// FirstLed and LastLed are inclusive indices into the whole strip. Offset rotates
// the position that progress 1 lands on.
type Segment struct {
	FirstLed int  `json:"firstLed"`
	LastLed  int  `json:"lastLed"`
	Offset   int  `json:"offset"`
	IsHours  bool `json:"isHours"`
}

// Size returns the number of LEDs in the segment.
func (s Segment) Size() int {
	return s.LastLed - s.FirstLed + 1
}

// Validate returns seg unchanged when it fits a strip of stripLength LEDs.
// Bounds outside the strip (or reversed) yield the zero segment at the origin;
// an offset outside [0, size] is reset to 0.
func Validate(seg Segment, stripLength int) Segment {
	if seg.FirstLed < 0 || seg.FirstLed >= stripLength ||
		seg.LastLed < seg.FirstLed || seg.LastLed >= stripLength {
		return Segment{IsHours: seg.IsHours}
	}
	if seg.Offset < 0 || seg.Offset > seg.Size() {
		seg.Offset = 0
	}
	return seg
}

// MapProgress converts a digit value into the LED index that marks it.
// Progress 1 lands on FirstLed+Offset and each further step walks forward,
// wrapping past LastLed back to FirstLed. Progress 0 lands on the slot just
// before the anchor, which is where progress == Size also lands.
func (s Segment) MapProgress(progress int) int {
	return s.FirstLed + mod(s.Offset+progress-1, s.Size())
}

// LastPosition is the LED marking the largest value the segment can show.
func (s Segment) LastPosition() int {
	return s.MapProgress(s.Size())
}

// anchor is the LED where a cumulative bar starts.
func (s Segment) anchor() int {
	return s.MapProgress(1)
}

// Inc moves n forward by i positions, wrapping at LastLed. i must not exceed Size.
func (s Segment) Inc(n, i int) int {
	r := n + i
	if r > s.LastLed {
		return r - s.Size()
	}
	return r
}

// Dec moves n backward by i positions, wrapping at FirstLed. i must not exceed Size.
func (s Segment) Dec(n, i int) int {
	if n-s.FirstLed >= i {
		return n - i
	}
	return n - i + s.Size()
}

// Contains reports whether led is one of the segment's indices.
func (s Segment) Contains(led int) bool {
	return led >= s.FirstLed && led <= s.LastLed
}

func mod(a, n int) int {
	if n <= 0 {
		return 0
	}
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
