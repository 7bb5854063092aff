package main

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// FrameSink receives finished frames as packed RGB bytes, 3 per LED.
type FrameSink interface {
	SendColors(colors []byte) error
	Close()
}

// Controller drives a WS2812 strip through an SPI port.
type Controller struct {
	port     spi.PortCloser
	dev      *nrzled.Dev
	ledCount int
}

func NewController(device string, ledCount int) (*Controller, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("无法初始化 periph host: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("无法打开 SPI 设备 %s: %w", device, err)
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: ledCount,
		Channels:  3,
		Freq:      800 * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("无法初始化 SPI 设备: %w", err)
	}

	return &Controller{port: port, dev: dev, ledCount: ledCount}, nil
}

func (c *Controller) SendColors(colors []byte) error {
	if len(colors) != c.ledCount*3 {
		return fmt.Errorf("颜色数组长度错误: 期望 %d 字节, 实际 %d 字节", c.ledCount*3, len(colors))
	}

	if _, err := c.dev.Write(colors); err != nil {
		return fmt.Errorf("SPI 发送失败: %w", err)
	}

	return nil
}

func (c *Controller) Close() {
	c.dev.Halt()
	c.port.Close()
}

// nopSink discards frames. It backs -spi none for running without hardware.
type nopSink struct {
	log    *zap.SugaredLogger
	frames uint64
}

func (n *nopSink) SendColors(colors []byte) error {
	n.frames++
	if n.frames%600 == 0 {
		n.log.Debugw("dry run frames discarded", "frames", n.frames, "bytes", len(colors))
	}
	return nil
}

func (n *nopSink) Close() {}
