// Package nats feeds the recorder from out-of-process capture taps that
// publish intercepted frames to a NATS subject.
package nats

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/logging"
	"github.com/tracewire-systems/wsrecorder/internal/models"
	"github.com/tracewire-systems/wsrecorder/internal/recorder"
)

// CaptureEnvelope is the wire format taps publish. Conn is the tap's own
// connection key; the source maps it to a recorder connection ID on first
// sight. Binary payloads are base64-encoded in Data.
type CaptureEnvelope struct {
	Conn      string `json:"conn"`
	URL       string `json:"url"`
	Direction string `json:"direction"` // "c2s" or "s2c"
	Kind      string `json:"kind"`      // "text" or "binary"
	Data      string `json:"data"`
}

// Source subscribes to a capture subject and replays the frames into the
// recorder.
type Source struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	recorder *recorder.Recorder
	reporter *diag.Reporter
	logger   *logging.Logger
	subject  string

	mu    sync.Mutex
	conns map[string]int64
}

// New connects to the NATS server. Reconnects are unbounded: a capture tap
// outliving a broker restart should keep recording.
func New(url, subject string, rec *recorder.Recorder, reporter *diag.Reporter, logger *logging.Logger) (*Source, error) {
	conn, err := nats.Connect(url,
		nats.Name("wsrecorder"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Source{
		conn:     conn,
		recorder: rec,
		reporter: reporter,
		logger:   logger,
		subject:  subject,
		conns:    make(map[string]int64),
	}, nil
}

// Start subscribes to the capture subject.
func (s *Source) Start() error {
	sub, err := s.conn.Subscribe(s.subject, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("NATS capture source started", logging.Subject(s.subject))
	return nil
}

func (s *Source) handle(msg *nats.Msg) {
	var env CaptureEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		s.reporter.Report("failed to decode capture envelope", err)
		return
	}
	if env.Conn == "" {
		s.reporter.Report("capture envelope missing connection key", nil)
		return
	}

	connID := s.connectionID(env.Conn, env.URL)

	dir := models.ClientToServer
	if env.Direction == "s2c" {
		dir = models.ServerToClient
	}

	switch env.Kind {
	case "binary":
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			s.reporter.Report("failed to decode binary capture payload", err,
				logging.ConnectionID(connID))
			return
		}
		s.recorder.OnBinaryMessage(connID, data, dir)
	default:
		s.recorder.OnTextMessage(connID, env.Data, dir)
	}
}

// connectionID maps the tap's connection key to a recorder ID, registering
// the connection on first sight.
func (s *Source) connectionID(key, url string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.conns[key]; ok {
		return id
	}
	id := s.recorder.OnConnected(url)
	s.conns[key] = id
	return id
}

// Close drains the subscription and closes the connection.
func (s *Source) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.conn.Close()
}
