package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"led-segment-clock/internal/segclock"
	"led-segment-clock/internal/store"
)

// ClockService ties the clock overlay to the pipeline and the settings store.
type ClockService struct {
	pipeline *PipelineManager
	renderer *segclock.Renderer
	store    *store.Store
	log      *zap.SugaredLogger
}

// NewClockService creates the clock overlay and attaches it to the pipeline.
func NewClockService(p *PipelineManager, s *store.Store, log *zap.SugaredLogger) *ClockService {
	r := segclock.New(p, p, segclock.WithLogger(log.Named("segclock")))
	p.AddOverlay(r)
	return &ClockService{pipeline: p, renderer: r, store: s, log: log}
}

// Load reads the clock section from the store. Missing or malformed fields are
// replaced by defaults and the corrected set is written back.
func (s *ClockService) Load(ctx context.Context) error {
	values, err := s.store.Load(ctx, segclock.Name)
	if err != nil {
		return fmt.Errorf("无法加载时钟配置: %w", err)
	}

	var complete bool
	s.pipeline.UpdateOverlay(func() {
		complete = s.renderer.ReadFromConfig(segclock.Values(values))
	})
	if complete {
		return nil
	}

	s.log.Infow("时钟配置不完整, 写回默认值", "section", segclock.Name, "keys", len(values))
	return s.store.Save(ctx, segclock.Name, s.Values())
}

// Values returns the validated configuration as a flat key/value set.
func (s *ClockService) Values() segclock.Values {
	out := segclock.Values{}
	s.pipeline.UpdateOverlay(func() {
		s.renderer.AddToConfig(out)
	})
	return out
}

// Apply merges in over the current configuration, applies it between frames and
// persists the validated result. It reports whether every supplied field was
// well formed.
func (s *ClockService) Apply(ctx context.Context, in segclock.Values) (bool, segclock.Values, error) {
	out := segclock.Values{}
	var complete bool
	s.pipeline.UpdateOverlay(func() {
		merged := segclock.Values{}
		s.renderer.AddToConfig(merged)
		for k, v := range in {
			merged[k] = v
		}
		complete = s.renderer.ReadFromConfig(merged)
		s.renderer.AddToConfig(out)
	})

	if err := s.store.Save(ctx, segclock.Name, out); err != nil {
		return complete, out, fmt.Errorf("无法保存时钟配置: %w", err)
	}
	s.log.Infow("时钟配置已更新", "complete", complete, "keys", len(in))
	return complete, out, nil
}

// Name is the settings section and display name of the clock.
func (s *ClockService) Name() string { return s.renderer.Name() }

// Version is the clock overlay version.
func (s *ClockService) Version() string { return s.renderer.Version() }

// Fields describes the configuration keys for a settings form.
func (s *ClockService) Fields() []segclock.Field {
	return s.renderer.Fields()
}
