package segclock

import "sort"

type fakeStrip struct {
	pixels  []Color
	writes  map[int]int
	redraws int
}

func newFakeStrip(n int) *fakeStrip {
	return &fakeStrip{pixels: make([]Color, n), writes: map[int]int{}}
}

func (f *fakeStrip) Pixel(i int) Color {
	if i < 0 || i >= len(f.pixels) {
		return 0
	}
	return f.pixels[i]
}

func (f *fakeStrip) SetPixel(i int, c Color) {
	if i < 0 || i >= len(f.pixels) {
		panic("pixel index out of range")
	}
	f.pixels[i] = c
	f.writes[i]++
}

func (f *fakeStrip) Len() int       { return len(f.pixels) }
func (f *fakeStrip) RequestRedraw() { f.redraws++ }

// written returns the sorted indices that received at least one write.
func (f *fakeStrip) written() []int {
	out := make([]int, 0, len(f.writes))
	for i := range f.writes {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

type fakeTime struct {
	mono uint32
	now  WallTime
}

func (f *fakeTime) MonotonicMillis() uint32 { return f.mono }
func (f *fakeTime) WallClock() WallTime     { return f.now }

func at(h, m, s, ms int) WallTime {
	return WallTime{Hour: h, Minute: m, Second: s, Millis: ms}
}

func rangeInts(from, to int) []int {
	out := []int{}
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
