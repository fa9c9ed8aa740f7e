// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is the connection manager's lifecycle state.
type State int

const (
	// StateDisabled means no encoder URL is configured; immutable.
	StateDisabled State = iota
	StateDisconnected
	StateConnecting
	StateConnected
	StateStreaming
	StateError
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Config for one encoder connection.
type Config struct {
	URL          string // ws:// control socket address; empty disables the manager
	Password     string
	DefaultScene string // applied after every successful connect, if set

	ConnectRetries int           // bounded attempts for auth-classified failures (default 3)
	RetryDelay     time.Duration // fixed inter-attempt delay (default 2s)
	CallTimeout    time.Duration // per-request deadline (default 5s)
}

// StateHandler observes state changes, including asynchronous ones pushed
// by connection loss.
type StateHandler func(old, new State)

// Manager owns the single logical connection to the streaming encoder for
// one kiosk process. All operations are safe to call redundantly and from
// concurrent goroutines; callers never see partial connection state.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	state    State
	scene    string // cached current scene; "" means unknown
	conn     *websocket.Conn
	pending  map[string]chan responseData
	inflight chan struct{} // non-nil while a connect attempt is running
	handlers []StateHandler

	writeMu sync.Mutex // gorilla/websocket allows one concurrent writer
}

// New creates a manager. An empty URL yields a permanently disabled
// manager whose operations all fail with ErrDisabled.
func New(cfg Config) *Manager {
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}

	m := &Manager{
		cfg:     cfg,
		pending: make(map[string]chan responseData),
		state:   StateDisconnected,
	}
	if cfg.URL == "" {
		m.state = StateDisabled
	}
	return m
}

// State returns the current manager state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentScene returns the cached active scene, or "" when unknown.
func (m *Manager) CurrentScene() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scene
}

// OnStateChange registers a handler for state transitions, including the
// asynchronous ones caused by connection loss.
func (m *Manager) OnStateChange(fn StateHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s || m.state == StateDisabled {
		return
	}
	old := m.state
	m.state = s

	handlers := append([]StateHandler(nil), m.handlers...)
	go func() {
		for _, fn := range handlers {
			fn(old, s)
		}
	}()
}

// Connect establishes the control connection. Idempotent: an established
// connection returns immediately, and concurrent callers share a single
// in-flight attempt instead of opening duplicate sockets.
//
// Failures classified as identification/authentication are retried up to
// the bounded attempt count with a fixed delay; everything else surfaces
// immediately.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateDisabled {
		m.mu.Unlock()
		return ErrDisabled
	}
	if m.conn != nil {
		m.mu.Unlock()
		return nil
	}
	if m.inflight != nil {
		// Another caller is already connecting; wait for its outcome.
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.conn != nil {
			return nil
		}
		return ErrNotConnected
	}

	done := make(chan struct{})
	m.inflight = done
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	err := m.connectWithRetry(ctx)

	m.mu.Lock()
	m.inflight = nil
	close(done)
	if err != nil {
		m.setStateLocked(StateError)
		m.mu.Unlock()
		return err
	}
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	m.seed(ctx)
	return nil
}

func (m *Manager) connectWithRetry(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= m.cfg.ConnectRetries; attempt++ {
		err = m.dialAndIdentify(ctx)
		if err == nil {
			return nil
		}
		if Classify(err) != CategoryAuth {
			return err
		}
		slog.Warn("encoder identification failed, retrying",
			"attempt", attempt,
			"max_attempts", m.cfg.ConnectRetries,
			"error", err,
		)
		select {
		case <-time.After(m.cfg.RetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *Manager) dialAndIdentify(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("encoder: dial %s: %w", m.cfg.URL, err)
	}

	conn.SetReadDeadline(time.Now().Add(m.cfg.CallTimeout))

	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		conn.Close()
		return fmt.Errorf("encoder: read hello: %w", err)
	}
	if env.Op != opHello {
		conn.Close()
		return fmt.Errorf("encoder: expected hello, got op %d", env.Op)
	}
	var hello helloData
	if err := json.Unmarshal(env.D, &hello); err != nil {
		conn.Close()
		return fmt.Errorf("encoder: decode hello: %w", err)
	}

	ident := identifyData{RPCVersion: rpcVersion}
	if hello.Authentication != nil {
		if m.cfg.Password == "" {
			conn.Close()
			return fmt.Errorf("%w: encoder requires a password", ErrConfig)
		}
		ident.Authentication = authResponse(m.cfg.Password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}

	msg, err := marshalEnvelope(opIdentify, ident)
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		conn.Close()
		return fmt.Errorf("encoder: write identify: %w", err)
	}

	// An auth rejection surfaces as a close before Identified arrives.
	if err := conn.ReadJSON(&env); err != nil {
		conn.Close()
		return fmt.Errorf("encoder: identification rejected: %w", err)
	}
	if env.Op != opIdentified {
		conn.Close()
		return fmt.Errorf("encoder: identification rejected (op %d)", env.Op)
	}

	conn.SetReadDeadline(time.Time{})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	go m.readLoop(conn)

	slog.Info("encoder connected", "url", m.cfg.URL)
	return nil
}

// seed queries stream and scene status so the idempotency short-circuits
// start from truth, then applies the configured default scene.
func (m *Manager) seed(ctx context.Context) {
	var status getStreamStatusResponse
	if err := m.call(ctx, "GetStreamStatus", nil, &status); err != nil {
		slog.Warn("encoder stream status query failed", "error", err)
	} else if status.OutputActive {
		m.mu.Lock()
		m.setStateLocked(StateStreaming)
		m.mu.Unlock()
	}

	var scene getCurrentSceneResponse
	if err := m.call(ctx, "GetCurrentProgramScene", nil, &scene); err != nil {
		slog.Warn("encoder scene query failed", "error", err)
	} else {
		m.mu.Lock()
		m.scene = scene.SceneName
		m.mu.Unlock()
	}

	if m.cfg.DefaultScene != "" {
		if err := m.SetScene(ctx, m.cfg.DefaultScene); err != nil {
			slog.Warn("encoder default scene failed", "scene", m.cfg.DefaultScene, "error", err)
		}
	}
}

// SetScene switches the program scene. No-op when the cached current
// scene already matches, so rapid polling doesn't spam the encoder.
func (m *Manager) SetScene(ctx context.Context, name string) error {
	m.mu.Lock()
	if m.state == StateDisabled {
		m.mu.Unlock()
		return ErrDisabled
	}
	if name != "" && m.scene == name {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.call(ctx, "SetCurrentProgramScene", setSceneRequest{SceneName: name}, nil); err != nil {
		return err
	}

	m.mu.Lock()
	m.scene = name
	m.mu.Unlock()
	return nil
}

// StartStream starts the encoder output. A rejection saying the output is
// already active means a prior call won the race; that counts as success.
func (m *Manager) StartStream(ctx context.Context) error {
	if m.State() == StateDisabled {
		return ErrDisabled
	}
	err := m.call(ctx, "StartStream", nil, nil)
	if err != nil && !isOutputAlreadyActive(err) {
		return err
	}
	m.mu.Lock()
	m.setStateLocked(StateStreaming)
	m.mu.Unlock()
	return nil
}

// StopStream stops the encoder output; symmetric with StartStream, a
// "not active" rejection counts as success.
func (m *Manager) StopStream(ctx context.Context) error {
	if m.State() == StateDisabled {
		return ErrDisabled
	}
	err := m.call(ctx, "StopStream", nil, nil)
	if err != nil && !isOutputNotActive(err) {
		return err
	}
	m.mu.Lock()
	m.setStateLocked(StateConnected)
	m.mu.Unlock()
	return nil
}

// ApplyStreamSettings pushes the ingest destination configuration.
func (m *Manager) ApplyStreamSettings(ctx context.Context, server, key, serviceType string) error {
	if m.State() == StateDisabled {
		return ErrDisabled
	}
	if server == "" || key == "" {
		return fmt.Errorf("%w: server and key are required", ErrConfig)
	}
	if serviceType == "" {
		serviceType = "rtmp_custom"
	}
	return m.call(ctx, "SetStreamServiceSettings", setStreamServiceRequest{
		StreamServiceType: serviceType,
		StreamServiceSettings: streamServiceSettings{
			Server: server,
			Key:    key,
		},
	}, nil)
}

// Disconnect closes the control connection. Safe to call at any time.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.scene = ""
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// call sends one request and waits for its correlated response.
func (m *Manager) call(ctx context.Context, requestType string, payload any, out any) error {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	id := uuid.NewString()
	ch := make(chan responseData, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	msg, err := marshalEnvelope(opRequest, requestData{
		RequestType: requestType,
		RequestID:   id,
		RequestData: payload,
	})
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, msg)
	m.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("encoder: write %s: %w", requestType, err)
	}

	timer := time.NewTimer(m.cfg.CallTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if !resp.RequestStatus.Result {
			return &OpError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}
		}
		if out != nil && len(resp.ResponseData) > 0 {
			return json.Unmarshal(resp.ResponseData, out)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("encoder: %s timed out", requestType)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop dispatches responses and push events until the connection drops.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(conn, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("encoder sent malformed message", "error", err)
			continue
		}

		switch env.Op {
		case opRequestResponse:
			var resp responseData
			if err := json.Unmarshal(env.D, &resp); err != nil {
				continue
			}
			m.mu.Lock()
			ch := m.pending[resp.RequestID]
			m.mu.Unlock()
			if ch != nil {
				ch <- resp
			}
		case opEvent:
			var ev eventData
			if err := json.Unmarshal(env.D, &ev); err != nil {
				continue
			}
			m.handleEvent(ev)
		}
	}
}

func (m *Manager) handleEvent(ev eventData) {
	switch ev.EventType {
	case "StreamStateChanged":
		var p streamStateChangedEvent
		if json.Unmarshal(ev.EventData, &p) != nil {
			return
		}
		m.mu.Lock()
		if p.OutputActive {
			m.setStateLocked(StateStreaming)
		} else if m.state == StateStreaming {
			m.setStateLocked(StateConnected)
		}
		m.mu.Unlock()
	case "CurrentProgramSceneChanged":
		var p sceneChangedEvent
		if json.Unmarshal(ev.EventData, &p) != nil {
			return
		}
		m.mu.Lock()
		m.scene = p.SceneName
		m.mu.Unlock()
	}
}

// handleDisconnect resets state after a server-initiated close or
// transport error. The scene cache is cleared so the next SetScene after
// reconnecting is not skipped against stale knowledge.
func (m *Manager) handleDisconnect(conn *websocket.Conn, err error) {
	conn.Close()

	m.mu.Lock()
	if m.conn != conn {
		// A newer connection already replaced this one.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.scene = ""
	for id, ch := range m.pending {
		delete(m.pending, id)
		close(ch)
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.setStateLocked(StateDisconnected)
	} else {
		m.setStateLocked(StateError)
	}
	m.mu.Unlock()

	slog.Warn("encoder connection lost", "error", err)
}
