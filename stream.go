package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	streamInterval = 50 * time.Millisecond
)

type frameMessage struct {
	Seq    uint64   `json:"seq"`
	Pixels []string `json:"pixels"`
}

// streamFrames upgrades the request and pushes every new frame to the client
// until it disconnects.
func streamFrames(w http.ResponseWriter, r *http.Request, p *PipelineManager, log *zap.SugaredLogger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket 升级失败: %v", err)
		return
	}

	closed := make(chan struct{})
	go readPump(conn, closed, log)
	writePump(conn, closed, p)
}

// readPump discards client messages and watches for the connection closing.
func readPump(conn *websocket.Conn, closed chan struct{}, log *zap.SugaredLogger) {
	defer close(closed)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debugf("WebSocket 读取错误: %v", err)
			}
			return
		}
	}
}

// writePump sends frames whose sequence number changed since the last send.
func writePump(conn *websocket.Conn, closed chan struct{}, p *PipelineManager) {
	frames := time.NewTicker(streamInterval)
	pings := time.NewTicker(pingPeriod)
	defer func() {
		frames.Stop()
		pings.Stop()
		conn.Close()
	}()

	var lastSeq uint64
	for {
		select {
		case <-closed:
			return
		case <-frames.C:
			frame, seq := p.Snapshot()
			if seq == lastSeq {
				continue
			}
			lastSeq = seq
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frameMessage{Seq: seq, Pixels: frameHex(frame)}); err != nil {
				return
			}
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
