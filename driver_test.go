package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNopSinkCountsFrames(t *testing.T) {
	sink := &nopSink{log: zap.NewNop().Sugar()}
	for i := 0; i < 601; i++ {
		assert.NoError(t, sink.SendColors(make([]byte, 9)))
	}
	assert.Equal(t, uint64(601), sink.frames)
	sink.Close()
}

func TestControllerRejectsWrongFrameLength(t *testing.T) {
	c := &Controller{ledCount: 2}
	assert.Error(t, c.SendColors(make([]byte, 3)))
}
