package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"led-segment-clock/internal/segclock"
	"led-segment-clock/internal/store"
)

type fakeSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSink) SendColors(colors []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), colors...))
	return nil
}

func (f *fakeSink) Close() {}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSink) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

var testStart = time.Date(2024, 3, 1, 11, 5, 30, 0, time.UTC)

func newTestPipeline(t *testing.T, leds int) (*PipelineManager, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	p := NewPipelineManager(sink, zap.NewNop().Sugar(), PipelineOptions{
		LEDCount: leds,
		FPS:      60,
		Location: time.UTC,
	})
	p.startTime = testStart
	p.now = func() time.Time { return testStart }
	return p, sink
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func enableClock(t *testing.T, clock *ClockService, extra segclock.Values) {
	t.Helper()
	in := segclock.Values{segclock.KeyEnabled: true, segclock.KeyBlendColors: false}
	for k, v := range extra {
		in[k] = v
	}
	_, _, err := clock.Apply(context.Background(), in)
	require.NoError(t, err)
}

func TestRenderFrameBaseLayerOnly(t *testing.T) {
	p, sink := newTestPipeline(t, 10)

	p.renderFrame()

	require.Equal(t, 1, sink.count())
	assert.Equal(t, make([]byte, 30), sink.last())
}

func TestLayersRenderInPriorityOrder(t *testing.T) {
	p, sink := newTestPipeline(t, 4)
	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "red", Type: "TEMPORARY", Priority: 2,
		Code: "set_pixel(0, 1.0, 0.0, 0.0)",
	}))
	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "green", Type: "TEMPORARY", Priority: 1,
		Code: "set_pixel(0, 0.0, 1.0, 0.0) set_pixel(1, 0.0, 1.0, 0.0)",
	}))

	p.renderFrame()

	frame, seq := p.Snapshot()
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, segclock.Color(0xFF0000), frame[0])
	assert.Equal(t, segclock.Color(0x00FF00), frame[1])
	assert.Equal(t, []byte{255, 0, 0, 0, 255, 0, 0, 0, 0, 0, 0, 0}, sink.last())
}

func TestColorCorrectionAppliedOnOutput(t *testing.T) {
	p, sink := newTestPipeline(t, 1)
	p.opts.ColorCorrection = true
	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "white", Type: "BASE", Code: "set_pixel(0, 1.0, 1.0, 1.0)",
	}))

	p.renderFrame()

	assert.Equal(t, []byte{255, 0x88, 0x66}, sink.last())
	frame, _ := p.Snapshot()
	assert.Equal(t, segclock.Color(0xFFFFFF), frame[0], "snapshot is taken before correction")
}

func TestTemporaryLayerTimesOut(t *testing.T) {
	p, _ := newTestPipeline(t, 2)
	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "flash", Type: "TEMPORARY", TimeoutSeconds: 1, Code: "set_pixel(0, 1, 1, 1)",
	}))

	p.renderFrame()
	frame, _ := p.Snapshot()
	assert.Equal(t, segclock.Color(0xFFFFFF), frame[0])

	p.now = func() time.Time { return testStart.Add(2 * time.Second) }
	p.renderFrame()
	frame, _ = p.Snapshot()
	assert.Equal(t, segclock.Color(0), frame[0])
	assert.NotContains(t, p.Layers(), "flash")
}

func TestOnlyOneBaseLayer(t *testing.T) {
	p, _ := newTestPipeline(t, 2)
	require.NoError(t, p.AddLayer(RenderLayer{Name: "rainbow", Type: "BASE", Code: "x = 1"}))

	layers := p.Layers()
	assert.Contains(t, layers, "rainbow")
	assert.NotContains(t, layers, "base_black")
}

func TestAddLayerRejectsBadInput(t *testing.T) {
	p, _ := newTestPipeline(t, 2)
	assert.Error(t, p.AddLayer(RenderLayer{Name: "x", Type: "PERSISTENT", Code: "x = 1"}))
	assert.Error(t, p.AddLayer(RenderLayer{Name: "x", Type: "BASE", Code: "for i=0 do"}))
	assert.Error(t, p.AddLayer(RenderLayer{Name: "", Type: "BASE", Code: "x = 1"}))
	assert.Error(t, p.RemoveLayer("missing"))
}

func TestClockOverlayDrawsOverEffect(t *testing.T) {
	p, _ := newTestPipeline(t, 40)
	clock := NewClockService(p, newTestStore(t), zap.NewNop().Sugar())
	enableClock(t, clock, nil)

	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "dim", Type: "BASE",
		Code: "for i=0, LEDCount-1 do set_pixel(i, 0.0, 0.0, 0.0) end set_pixel(0, 0.5, 0.5, 0.5)",
	}))

	p.renderFrame()

	frame, _ := p.Snapshot()
	// 11:05:30 → tens of seconds at 11, unit minutes at 18, hours at 38
	assert.Equal(t, segclock.Color(0xFF0000), frame[11])
	assert.Equal(t, segclock.Color(0x00FF00), frame[18])
	assert.Equal(t, segclock.Color(0x0000FF), frame[38])
	assert.Equal(t, segclock.Color(0x808080), frame[0], "unit seconds are 0 and leave the effect alone")
}

func TestClockOverlayBlendsWithEffect(t *testing.T) {
	p, _ := newTestPipeline(t, 40)
	clock := NewClockService(p, newTestStore(t), zap.NewNop().Sugar())
	enableClock(t, clock, segclock.Values{segclock.KeyBlendColors: true})
	require.NoError(t, p.AddLayer(RenderLayer{
		Name: "blue", Type: "BASE",
		Code: "for i=0, LEDCount-1 do set_pixel(i, 0.0, 0.0, 0.5) end",
	}))

	p.renderFrame()

	frame, _ := p.Snapshot()
	assert.Equal(t, segclock.Color(0xFF0080), frame[11])
	assert.Equal(t, segclock.Color(0x0000FF), frame[38])
}

func TestWallClockUsesLocation(t *testing.T) {
	p, _ := newTestPipeline(t, 1)
	loc := time.FixedZone("UTC+2", 2*60*60)
	p.opts.Location = loc
	p.now = func() time.Time { return testStart.Add(250 * time.Millisecond) }

	now := p.WallClock()
	assert.Equal(t, segclock.WallTime{Hour: 13, Minute: 5, Second: 30, Millis: 250}, now)
	assert.Equal(t, uint32(250), p.MonotonicMillis())
}

func TestPixelBufferIgnoresOutOfRange(t *testing.T) {
	p, _ := newTestPipeline(t, 3)
	p.SetPixel(-1, 0xFFFFFF)
	p.SetPixel(3, 0xFFFFFF)
	p.SetPixel(2, 0x010203)
	assert.Equal(t, segclock.Color(0), p.Pixel(-1))
	assert.Equal(t, segclock.Color(0), p.Pixel(3))
	assert.Equal(t, segclock.Color(0x010203), p.Pixel(2))
}

func TestRequestRedrawCoalesces(t *testing.T) {
	p, _ := newTestPipeline(t, 1)
	p.RequestRedraw()
	p.RequestRedraw()
	assert.Len(t, p.redraw, 1)
}

func TestLoopRendersAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	sink := &fakeSink{}
	p := NewPipelineManager(sink, zap.NewNop().Sugar(), PipelineOptions{LEDCount: 40, FPS: 100})
	clock := NewClockService(p, newTestStore(t), zap.NewNop().Sugar())
	enableClock(t, clock, nil)

	p.StartLoop(context.Background())
	p.StartLoop(context.Background())
	assert.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	n := sink.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, sink.count(), "no frames after Stop")
}
