// Package wsproxy feeds the recorder from live traffic: it accepts
// websocket clients, dials the upstream target and relays frames in both
// directions, handing every data frame to the recorder on the way through.
package wsproxy

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/logging"
	"github.com/tracewire-systems/wsrecorder/internal/models"
	"github.com/tracewire-systems/wsrecorder/internal/recorder"
)

// Relay is an http.Handler that upgrades the request and bridges it to the
// upstream websocket endpoint.
type Relay struct {
	recorder      *recorder.Recorder
	reporter      *diag.Reporter
	logger        *logging.Logger
	target        string
	allowOverride bool

	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
}

// New creates a relay. target is the default upstream URL; when
// allowOverride is set, clients may redirect a single connection with the
// target query parameter.
func New(rec *recorder.Recorder, reporter *diag.Reporter, logger *logging.Logger, target string, allowOverride bool) *Relay {
	return &Relay{
		recorder:      rec,
		reporter:      reporter,
		logger:        logger,
		target:        target,
		allowOverride: allowOverride,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The relay is an interception tool; origin policy is the
			// upstream's concern.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := rl.target
	if rl.allowOverride {
		if t := r.URL.Query().Get("target"); t != "" {
			target = t
		}
	}
	if target == "" {
		http.Error(w, "no upstream target configured", http.StatusBadRequest)
		return
	}

	upstream, _, err := rl.dialer.Dial(target, nil)
	if err != nil {
		rl.reporter.Report("failed to dial upstream websocket", err, logging.URL(target))
		http.Error(w, "upstream dial failed", http.StatusBadGateway)
		return
	}

	client, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		upstream.Close()
		rl.reporter.Report("failed to upgrade client connection", err, logging.URL(target))
		return
	}

	connID := rl.recorder.OnConnected(target)
	rl.logger.Info("relay connection established",
		logging.ConnectionID(connID),
		logging.URL(target),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rl.pump(connID, client, upstream, models.ClientToServer)
	}()
	go func() {
		defer wg.Done()
		rl.pump(connID, upstream, client, models.ServerToClient)
	}()
	wg.Wait()

	client.Close()
	upstream.Close()
	rl.logger.Info("relay connection closed", logging.ConnectionID(connID))
}

// pump copies frames from src to dst until either side goes away,
// recording every data frame. A recording failure never breaks the relay.
func (rl *Relay) pump(connID int64, src, dst *websocket.Conn, dir models.Direction) {
	for {
		msgType, data, err := src.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				dst.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(closeErr.Code, closeErr.Text),
					time.Now().Add(time.Second))
			} else {
				dst.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseAbnormalClosure, ""),
					time.Now().Add(time.Second))
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			rl.recorder.OnTextMessage(connID, string(data), dir)
		case websocket.BinaryMessage:
			rl.recorder.OnBinaryMessage(connID, data, dir)
		}

		if err := dst.WriteMessage(msgType, data); err != nil {
			rl.reporter.Report("failed to forward websocket frame", err,
				logging.ConnectionID(connID),
				logging.Direction(dir.String()),
			)
			return
		}
	}
}
