package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"led-segment-clock/internal/segclock"
)

// overlayLoopInterval is how often overlays get their Loop() hook.
const overlayLoopInterval = 5 * time.Millisecond

// Overlay draws over the composed layers right before a frame is sent.
type Overlay interface {
	Setup()
	Loop()
	HandleOverlayDraw()
}

// PipelineOptions tunes a PipelineManager.
type PipelineOptions struct {
	LEDCount        int
	FPS             int
	Location        *time.Location
	ColorCorrection bool
}

// PipelineManager manages the collection of rendering layers and the main render loop.
// It also acts as the pixel buffer and time source for overlays.
type PipelineManager struct {
	// layers stores active RenderLayer objects, keyed by their Name.
	layers sync.Map
	// mutex serializes rendering with layer and overlay changes.
	mutex sync.Mutex

	// sink receives the final pixel data.
	sink FrameSink
	log  *zap.SugaredLogger
	opts PipelineOptions

	// startTime records when the pipeline began running to calculate elapsed time for Lua scripts.
	startTime time.Time
	now       func() time.Time

	// pixelBuffer holds the composed strip before color correction.
	pixelBuffer []segclock.Color
	// lastFrame is a copy of the last composed strip, frameSeq counts frames.
	lastFrame []segclock.Color
	frameSeq  uint64

	overlays []Overlay
	redraw   chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// fixColor applies a non-linear brightness correction and color bias to an RGB value.
// Green and blue are scaled down to balance the strip's white point.
func fixColor(colorR, colorG, colorB uint8) (uint8, uint8, uint8) {
	const MaxValU8 float64 = 255.0
	colorROut := math.Pow(float64(colorR)/MaxValU8, 2.0) * MaxValU8
	colorGOut := math.Pow(float64(colorG)/MaxValU8, 2.0) * 0x88
	colorBOut := math.Pow(float64(colorB)/MaxValU8, 2.0) * 0x66
	return uint8(math.Min(255, colorROut)),
		uint8(math.Min(255, colorGOut)),
		uint8(math.Min(255, colorBOut))
}

// NewPipelineManager creates and initializes a new PipelineManager.
func NewPipelineManager(sink FrameSink, log *zap.SugaredLogger, opts PipelineOptions) *PipelineManager {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	p := &PipelineManager{
		sink:        sink,
		log:         log,
		opts:        opts,
		startTime:   time.Now(),
		now:         time.Now,
		pixelBuffer: make([]segclock.Color, opts.LEDCount),
		lastFrame:   make([]segclock.Color, opts.LEDCount),
		redraw:      make(chan struct{}, 1),
	}
	// Add a default black base layer.
	p.AddLayer(RenderLayer{
		Name:     "base_black",
		Type:     "BASE",
		Code:     "for i=0, LEDCount-1 do set_pixel(i, 0.0, 0.0, 0.0) end",
		Priority: 0,
	})
	return p
}

// AddLayer adds a new layer to the pipeline or updates an existing one.
func (p *PipelineManager) AddLayer(layer RenderLayer) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch layer.Type {
	case "BASE":
	case "TEMPORARY":
		layer.AddedAt = p.now()
	default:
		return fmt.Errorf("未知 Layer Type: %s", layer.Type)
	}

	if err := layer.compile(); err != nil {
		return err
	}

	// Ensure only one BASE layer exists at a time.
	if layer.Type == "BASE" {
		p.layers.Range(func(key, value any) bool {
			l := value.(RenderLayer)
			if l.Type == "BASE" && l.Name != layer.Name {
				p.layers.Delete(key)
			}
			return true
		})
	}

	// An existing BASE layer keeps its original AddedAt; TEMPORARY layers restart their timeout.
	if existing, ok := p.layers.Load(layer.Name); ok {
		existingLayer := existing.(RenderLayer)
		if layer.Type != "TEMPORARY" {
			layer.AddedAt = existingLayer.AddedAt
		}
	} else if layer.AddedAt.IsZero() {
		layer.AddedAt = p.now()
	}

	p.layers.Store(layer.Name, layer)
	p.log.Infof("管线: 添加/更新层 '%s' (%s)", layer.Name, layer.Type)
	return nil
}

// RemoveLayer removes a layer from the pipeline by its name.
func (p *PipelineManager) RemoveLayer(name string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, ok := p.layers.Load(name); !ok {
		return fmt.Errorf("层 '%s' 不存在", name)
	}
	p.layers.Delete(name)
	p.log.Infof("管线: 删除层 '%s'", name)
	return nil
}

// Layers returns a copy of the active layers keyed by name.
func (p *PipelineManager) Layers() map[string]RenderLayer {
	layers := make(map[string]RenderLayer)
	p.layers.Range(func(key, value any) bool {
		layers[key.(string)] = value.(RenderLayer)
		return true
	})
	return layers
}

// AddOverlay runs the overlay's Setup and draws it on every following frame.
func (p *PipelineManager) AddOverlay(o Overlay) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	o.Setup()
	p.overlays = append(p.overlays, o)
}

// UpdateOverlay runs fn between frames, never while one is being rendered.
func (p *PipelineManager) UpdateOverlay(fn func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	fn()
}

// StartLoop starts the render loop. Frames are drawn at the configured FPS and
// whenever an overlay requests a redraw.
func (p *PipelineManager) StartLoop(ctx context.Context) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop stops the render loop and waits for it to exit.
func (p *PipelineManager) Stop() {
	p.mutex.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *PipelineManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	frameTicker := time.NewTicker(time.Second / time.Duration(p.opts.FPS))
	defer frameTicker.Stop()
	loopTicker := time.NewTicker(overlayLoopInterval)
	defer loopTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frameTicker.C:
			p.renderFrame()
		case <-p.redraw:
			p.renderFrame()
		case <-loopTicker.C:
			p.loopOverlays()
		}
	}
}

func (p *PipelineManager) loopOverlays() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, o := range p.overlays {
		o.Loop()
	}
}

// renderFrame executes all active layers and overlays, composites the result, and sends it to the sink.
func (p *PipelineManager) renderFrame() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// currentTime is the total elapsed time of the pipeline in seconds
	currentTime := p.now().Sub(p.startTime).Seconds()

	var activeLayers []RenderLayer

	// 1. Check for timeouts and collect active layers
	p.layers.Range(func(key, value any) bool {
		layer := value.(RenderLayer)

		if layer.Type == "TEMPORARY" {
			timeElapsed := currentTime - layer.AddedAt.Sub(p.startTime).Seconds()
			if timeElapsed > layer.TimeoutSeconds && layer.TimeoutSeconds > 0 {
				p.log.Infof("管线: 临时层 '%s' 超时，自动删除。", layer.Name)
				p.layers.Delete(key)
				return true
			}
		}
		activeLayers = append(activeLayers, layer)
		return true
	})

	// 2. Sort layers by execution order: BASE first, then by Priority.
	sort.SliceStable(activeLayers, func(i, j int) bool {
		if (activeLayers[i].Type == "BASE") != (activeLayers[j].Type == "BASE") {
			return activeLayers[i].Type == "BASE"
		}
		if activeLayers[i].Priority != activeLayers[j].Priority {
			return activeLayers[i].Priority < activeLayers[j].Priority
		}
		return activeLayers[i].Name < activeLayers[j].Name
	})

	// 3. Clear the pixel buffer
	for i := range p.pixelBuffer {
		p.pixelBuffer[i] = 0
	}

	// 4. Execute layers in sorted order
	for _, layer := range activeLayers {
		layerElapsedTime := currentTime - layer.AddedAt.Sub(p.startTime).Seconds()
		if err := layer.execute(p, currentTime, layerElapsedTime); err != nil {
			// If a layer fails, log the error but continue rendering with other layers.
			p.log.Warnf("渲染错误 (%s): %v", layer.Name, err)
		}
	}

	// 5. Overlays draw on top of the effect
	for _, o := range p.overlays {
		o.HandleOverlayDraw()
	}

	copy(p.lastFrame, p.pixelBuffer)
	p.frameSeq++

	// 6. Send the final composite frame to the hardware
	if err := p.sink.SendColors(p.encodeFrame()); err != nil {
		p.log.Errorf("硬件提交错误: %v", err)
	}
}

func (p *PipelineManager) encodeFrame() []byte {
	out := make([]byte, len(p.pixelBuffer)*3)
	for i, c := range p.pixelBuffer {
		r, g, b := c.R(), c.G(), c.B()
		if p.opts.ColorCorrection {
			r, g, b = fixColor(r, g, b)
		}
		out[i*3], out[i*3+1], out[i*3+2] = r, g, b
	}
	return out
}

// Snapshot returns a copy of the last composed frame and its sequence number.
func (p *PipelineManager) Snapshot() ([]segclock.Color, uint64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	frame := make([]segclock.Color, len(p.lastFrame))
	copy(frame, p.lastFrame)
	return frame, p.frameSeq
}

// Pixel implements segclock.PixelBuffer. Callers hold the render lock.
func (p *PipelineManager) Pixel(i int) segclock.Color {
	if i < 0 || i >= len(p.pixelBuffer) {
		return 0
	}
	return p.pixelBuffer[i]
}

// SetPixel implements segclock.PixelBuffer. Out of range indices are ignored.
func (p *PipelineManager) SetPixel(i int, c segclock.Color) {
	if i < 0 || i >= len(p.pixelBuffer) {
		return
	}
	p.pixelBuffer[i] = c
}

func (p *PipelineManager) Len() int {
	return len(p.pixelBuffer)
}

// RequestRedraw schedules a frame. Requests made while one is pending are merged.
func (p *PipelineManager) RequestRedraw() {
	select {
	case p.redraw <- struct{}{}:
	default:
	}
}

// MonotonicMillis implements segclock.TimeSource.
func (p *PipelineManager) MonotonicMillis() uint32 {
	return uint32(p.now().Sub(p.startTime).Milliseconds())
}

// WallClock implements segclock.TimeSource using the configured timezone.
func (p *PipelineManager) WallClock() segclock.WallTime {
	t := p.now().In(p.opts.Location)
	return segclock.WallTime{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Millis: t.Nanosecond() / int(time.Millisecond),
	}
}
