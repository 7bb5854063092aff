package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"led-segment-clock/internal/segclock"
)

func unitToChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v*255.0))))
}

// setupLuaState initializes a Lua environment with custom global functions.
// It exposes 'get_time', 'get_layer_elapsed_time', 'set_pixel', and 'get_pixel' to the Lua script.
func setupLuaState(L *lua.LState, buf segclock.PixelBuffer, pipelineTime, layerElapsedTime float64) {
	L.SetGlobal("LEDCount", lua.LNumber(buf.Len()))

	// get_time() returns the current time in seconds since the pipeline started.
	L.SetGlobal("get_time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(pipelineTime))
		return 1
	}))

	// get_layer_elapsed_time() returns the time elapsed in seconds since this layer was added.
	L.SetGlobal("get_layer_elapsed_time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(layerElapsedTime))
		return 1
	}))

	// get_pixel(index) returns the current R, G, B values of a pixel as 0.0-1.0 floats.
	// Out of range indices read as black.
	L.SetGlobal("get_pixel", L.NewFunction(func(L *lua.LState) int {
		c := buf.Pixel(int(L.CheckNumber(1)))
		L.Push(lua.LNumber(float64(c.R()) / 255.0))
		L.Push(lua.LNumber(float64(c.G()) / 255.0))
		L.Push(lua.LNumber(float64(c.B()) / 255.0))
		return 3
	}))

	// set_pixel(index, r, g, b) sets the R, G, B values of a pixel.
	// R, G, B are 0.0-1.0 floats and are clamped.
	L.SetGlobal("set_pixel", L.NewFunction(func(L *lua.LState) int {
		index := int(L.CheckNumber(1))
		r := unitToChannel(float64(L.CheckNumber(2)))
		g := unitToChannel(float64(L.CheckNumber(3)))
		b := unitToChannel(float64(L.CheckNumber(4)))
		buf.SetPixel(index, segclock.RGBW(r, g, b, 0))
		return 0
	}))
}

// RenderLayer defines a single script layer in the rendering pipeline.
type RenderLayer struct {
	// Name is the unique identifier for the layer.
	Name string `json:"name"`
	// Code is the Lua script to be executed for this layer.
	Code string `json:"code"`
	// Type determines the layer's role ("BASE", "TEMPORARY").
	Type string `json:"type"`
	// Priority dictates the rendering order (lower value draws first).
	Priority int `json:"priority"`

	// TimeoutSeconds specifies how long a "TEMPORARY" layer should last before removal.
	TimeoutSeconds float64 `json:"timeout"`
	// AddedAt records the time the layer was added for timeout tracking and layer elapsed time calculation.
	AddedAt time.Time `json:"-"`

	proto *lua.FunctionProto
}

// compile parses the layer's script once so syntax errors surface when the
// layer is added rather than on every frame.
func (l *RenderLayer) compile() error {
	if l.Name == "" {
		return fmt.Errorf("层名称不能为空")
	}
	chunk, err := parse.Parse(strings.NewReader(l.Code), l.Name)
	if err != nil {
		return fmt.Errorf("解析 Lua 脚本 '%s' 失败: %w", l.Name, err)
	}
	proto, err := lua.Compile(chunk, l.Name)
	if err != nil {
		return fmt.Errorf("编译 Lua 脚本 '%s' 失败: %w", l.Name, err)
	}
	l.proto = proto
	return nil
}

// execute runs the layer's Lua code against buf.
// pipelineTime is the total runtime, layerElapsedTime the layer-specific runtime.
func (l *RenderLayer) execute(buf segclock.PixelBuffer, pipelineTime, layerElapsedTime float64) error {
	L := lua.NewState()
	defer L.Close()

	setupLuaState(L, buf, pipelineTime, layerElapsedTime)

	if l.proto == nil {
		if err := l.compile(); err != nil {
			return err
		}
	}
	L.Push(L.NewFunctionFromProto(l.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("执行 Lua 脚本 '%s' 失败: %w", l.Name, err)
	}
	return nil
}
