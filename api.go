package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"led-segment-clock/internal/segclock"
)

// frameHex renders a frame as RRGGBB strings.
func frameHex(frame []segclock.Color) []string {
	out := make([]string, len(frame))
	for i, c := range frame {
		out[i] = segclock.FormatColor(c)
	}
	return out
}

// setupRouter initializes and configures the Gin router with layer, clock and frame endpoints.
func setupRouter(p *PipelineManager, clock *ClockService, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	api := r.Group("/api/layers")
	{
		// GET /api/layers - Lists all active layers in the pipeline.
		api.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, p.Layers())
		})

		// POST /api/layers - Adds a new layer or updates an existing one.
		api.POST("/", func(c *gin.Context) {
			var layer RenderLayer
			if err := c.ShouldBindJSON(&layer); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if err := p.AddLayer(layer); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "success", "name": layer.Name})
		})

		// DELETE /api/layers/:name - Removes a layer by its unique name.
		api.DELETE("/:name", func(c *gin.Context) {
			name := c.Param("name")
			if err := p.RemoveLayer(name); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "deleted", "name": name})
		})
	}

	cl := r.Group("/api/clock")
	{
		// GET /api/clock/config - Current clock settings as a flat key/value set.
		cl.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, clock.Values())
		})

		// POST /api/clock/config - Merges the given keys into the clock settings.
		cl.POST("/config", func(c *gin.Context) {
			in := segclock.Values{}
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			complete, out, err := clock.Apply(c.Request.Context(), in)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"complete": complete, "config": out})
		})

		// GET /api/clock/fields - Labels and dropdown options for a settings form.
		cl.GET("/fields", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"name":    clock.Name(),
				"version": clock.Version(),
				"fields":  clock.Fields(),
			})
		})
	}

	// GET /api/frame - The last composed frame.
	r.GET("/api/frame", func(c *gin.Context) {
		frame, seq := p.Snapshot()
		c.JSON(http.StatusOK, gin.H{"seq": seq, "pixels": frameHex(frame)})
	})

	// GET /api/frame/stream - Frames pushed over a websocket.
	r.GET("/api/frame/stream", func(c *gin.Context) {
		streamFrames(c.Writer, c.Request, p, log)
	})

	return r
}

// requestLogger logs each request through zap.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
