package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"led-segment-clock/internal/store"
)

func main() {
	cfgFile := flag.String("config", "", "YAML 配置文件路径")
	spiDevice := flag.String("spi", "", "SPI 设备路径 (none 表示不输出到硬件)")
	apiPort := flag.Int("port", 0, "Web API 监听端口")
	ledCount := flag.Int("leds", 0, "LED 数量")
	dbPath := flag.String("db", "", "配置数据库路径")
	debug := flag.Bool("debug", false, "输出调试日志")
	flag.Parse()

	cfg, err := LoadDaemonConfig(*cfgFile)
	if err != nil {
		fmt.Printf("配置错误: %v\n", err)
		os.Exit(1)
	}
	if *spiDevice != "" {
		cfg.SPIDevice = *spiDevice
	}
	if *apiPort != 0 {
		cfg.Port = *apiPort
	}
	if *ledCount != 0 {
		cfg.LEDCount = *ledCount
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	cfg.Debug = cfg.Debug || *debug

	var zapLogger *zap.Logger
	if cfg.Debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		zapLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg DaemonConfig, log *zap.SugaredLogger) error {
	log.Infow("启动 LED 时钟服务", "leds", cfg.LEDCount, "spi", cfg.SPIDevice, "timezone", cfg.Timezone)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var sink FrameSink
	if cfg.SPIDevice == "none" {
		sink = &nopSink{log: log}
	} else {
		controller, err := NewController(cfg.SPIDevice, cfg.LEDCount)
		if err != nil {
			return fmt.Errorf("无法初始化 SPI 控制器: %w", err)
		}
		sink = controller
	}
	defer sink.Close()

	settings, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer settings.Close()

	pipeline := NewPipelineManager(sink, log.Named("pipeline"), PipelineOptions{
		LEDCount:        cfg.LEDCount,
		FPS:             cfg.FPS,
		Location:        loc,
		ColorCorrection: cfg.ColorCorrection,
	})

	clock := NewClockService(pipeline, settings, log.Named("clock"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := clock.Load(ctx); err != nil {
		return err
	}

	pipeline.StartLoop(ctx)
	defer pipeline.Stop()
	log.Infof("渲染循环已启动 (%d FPS)", cfg.FPS)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: setupRouter(pipeline, clock, log.Named("api")),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Web API 监听在 :%d...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("收到退出信号, 正在关闭")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("Web API 错误: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return server.Shutdown(shutdownCtx)
}
