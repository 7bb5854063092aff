package segclock

// fadePhase maps the sub-second part of the clock onto a quarter sine period.
func fadePhase(millis int) uint8 {
	ms := millis % 1000
	if ms < 0 {
		ms += 1000
	}
	return uint8(ms * 64 / 1000)
}

// fadeIn and fadeOut are the incoming and outgoing intensities for a phase.
func fadeIn(phase uint8) uint8  { return uint8((int(sin8(phase)) - 128) * 2) }
func fadeOut(phase uint8) uint8 { return uint8((int(cos8(phase)) - 128) * 2) }

func (r *Renderer) setPixel(i int, c Color) {
	if r.cfg.BlendColors {
		c = Add(r.buf.Pixel(i), c)
	}
	r.buf.SetPixel(i, c)
}

func (r *Renderer) setFaded(i int, c Color, intensity uint8) {
	r.setPixel(i, Gamma(Scale(c, intensity)))
}

// drawSingle lights only the mapped LED.
func (r *Renderer) drawSingle(led int, c Color) {
	r.setPixel(led, c)
}

// drawSingleFade cross-fades the mapped LED into its forward neighbour over
// one second. The neighbour is skipped at the end of a digit segment.
func (r *Renderer) drawSingleFade(led int, seg Segment, c Color, now WallTime) {
	phase := fadePhase(now.Millis)
	r.setFaded(led, c, fadeOut(phase))
	if seg.IsHours || seg.LastPosition() != led {
		r.setFaded(seg.Inc(led, 1), c, fadeIn(phase))
	}
}

// fillBar lights every LED from the segment anchor up to and including last,
// wrapping through LastLed when last precedes the anchor.
func (r *Renderer) fillBar(last int, seg Segment, c Color) {
	start := seg.anchor()
	if last >= start {
		for i := start; i <= last; i++ {
			r.setPixel(i, c)
		}
		return
	}
	for i := start; i <= seg.LastLed; i++ {
		r.setPixel(i, c)
	}
	for i := seg.FirstLed; i <= last; i++ {
		r.setPixel(i, c)
	}
}

// drawCumulative lights a solid bar ending on the mapped LED.
func (r *Renderer) drawCumulative(led int, seg Segment, c Color) {
	r.fillBar(led, seg, c)
}

// drawCumulativeFade lights a solid bar that stops one short of the mapped LED,
// which fades in instead.
func (r *Renderer) drawCumulativeFade(led int, seg Segment, c Color, now WallTime) {
	if led != seg.anchor() {
		r.fillBar(led-1, seg, c)
	}
	r.setFaded(led, c, fadeIn(fadePhase(now.Millis)))
}

// draw dispatches one segment to the strategy picked by the marking mode and
// moving effect.
func (r *Renderer) draw(seg Segment, progress int, c Color, now WallTime) {
	led := seg.MapProgress(progress)
	switch {
	case r.cfg.MarkingMode == MarkSingle && r.cfg.MovingEffect == EffectSolid:
		r.drawSingle(led, c)
	case r.cfg.MarkingMode == MarkSingle:
		r.drawSingleFade(led, seg, c, now)
	case r.cfg.MovingEffect == EffectSolid:
		r.drawCumulative(led, seg, c)
	default:
		r.drawCumulativeFade(led, seg, c, now)
	}
}
