package electrumx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/electrum-core/business/electrum/app"
	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/logger"
)

const (
	tracerName = "github.com/fd1az/electrum-core/business/electrum/infra/electrumx"
	meterName  = "github.com/fd1az/electrum-core/business/electrum/infra/electrumx"
)

const pollInterval = 100 * time.Millisecond

// managerMetrics holds OTEL metric instruments.
type managerMetrics struct {
	requests        metric.Int64Counter
	requestErrors   metric.Int64Counter
	requestLatency  metric.Float64Histogram
	batchSize       metric.Int64Histogram
	connectAttempts metric.Int64Counter
	reconnects      metric.Int64Counter
	connectionState metric.Int64Gauge
	tipHeight       metric.Int64Gauge
}

// Manager owns the single connection to an Electrum server. It implements
// app.RPC and domain.AlertActions.
type Manager struct {
	config   Config
	dialer   *Dialer
	selector *PeerSelector
	prefs    app.PreferenceStore
	alerter  app.Alerter
	logger   logger.LoggerInterface

	// life bounds background work: reconnects and keep-alive
	life     context.Context
	stopLife context.CancelFunc

	mu            sync.RWMutex
	client        *rpc.Client
	conn          *watchedConn
	peer          domain.Peer
	state         domain.ConnectionState
	gen           uint64 // bumped for every connection so stale errors are ignored
	everConnected bool
	serverName    string
	quirks        domain.ServerQuirks
	batchOverride *bool
	tip           domain.LatestBlockTip
	attempts      int
	exhausted     bool
	closed        bool
	reconnect     *time.Timer

	reconnects  atomic.Int64
	lastRequest atomic.Int64 // unix nanos
	connecting  singleflight.Group

	tracer  trace.Tracer
	metrics *managerMetrics
}

// NewManager creates a new connection manager. Nothing is dialed until
// EnsureConnected is called.
func NewManager(cfg Config, prefs app.PreferenceStore, alerter app.Alerter, log logger.LoggerInterface) (*Manager, error) {
	if len(cfg.Peers) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("no electrum peers configured"))
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	life, stop := context.WithCancel(context.Background())
	m := &Manager{
		config:   cfg,
		dialer:   &Dialer{Timeout: cfg.DialTimeout, TLSVerify: cfg.TLSVerify},
		selector: NewPeerSelector(cfg.Peers, prefs, log),
		prefs:    prefs,
		alerter:  alerter,
		logger:   log,
		life:     life,
		stopLife: stop,
		state:    domain.StateDisconnected,
		tracer:   otel.Tracer(tracerName),
	}

	if err := m.initMetrics(); err != nil {
		stop()
		return nil, err
	}
	return m, nil
}

// initMetrics initializes OTEL metric instruments.
func (m *Manager) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &managerMetrics{}

	if m.metrics.requests, err = meter.Int64Counter(
		"electrum_requests_total",
		metric.WithDescription("Total Electrum requests sent"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.metrics.requestErrors, err = meter.Int64Counter(
		"electrum_request_errors_total",
		metric.WithDescription("Total failed Electrum requests"),
		metric.WithUnit("{error}"),
	); err != nil {
		return err
	}

	if m.metrics.requestLatency, err = meter.Float64Histogram(
		"electrum_request_duration_ms",
		metric.WithDescription("Electrum request round-trip time"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	if m.metrics.batchSize, err = meter.Int64Histogram(
		"electrum_batch_size",
		metric.WithDescription("Requests per batch"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.metrics.connectAttempts, err = meter.Int64Counter(
		"electrum_connect_attempts_total",
		metric.WithDescription("Connection attempts, by outcome"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return err
	}

	if m.metrics.reconnects, err = meter.Int64Counter(
		"electrum_reconnects_total",
		metric.WithDescription("Reconnects scheduled after transport errors"),
		metric.WithUnit("{reconnect}"),
	); err != nil {
		return err
	}

	if m.metrics.connectionState, err = meter.Int64Gauge(
		"electrum_connection_state",
		metric.WithDescription("Connection state (0=disconnected, 1=connecting, 2=connected, 3=degraded)"),
		metric.WithUnit("{state}"),
	); err != nil {
		return err
	}

	m.metrics.tipHeight, err = meter.Int64Gauge(
		"electrum_tip_height",
		metric.WithDescription("Latest block height reported by the server"),
		metric.WithUnit("{block}"),
	)
	return err
}

// EnsureConnected connects if needed, retrying up to MaxAttempts times.
// When the budget is spent the alert fires once and further calls fail
// fast until Retry, ResetToDefault or Cancel.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	ch := m.connecting.DoChan("connect", func() (any, error) {
		return nil, m.connectLoop(m.life)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) connectLoop(ctx context.Context) error {
	for {
		m.mu.RLock()
		state, exhausted, closed := m.state, m.exhausted, m.closed
		m.mu.RUnlock()

		switch {
		case closed:
			return apperror.New(apperror.CodeElectrumNotConnected, apperror.WithContext("manager closed"))
		case state == domain.StateConnected:
			return nil
		case exhausted:
			return apperror.New(apperror.CodeElectrumConnectionExhausted)
		}

		peer, err := m.connectOnce(ctx)
		if err == nil {
			return nil
		}
		if apperror.GetCode(err) == apperror.CodeElectrumConnectionDisabled || ctx.Err() != nil {
			return err
		}

		m.mu.Lock()
		m.attempts++
		attempts := m.attempts
		if attempts >= m.config.MaxAttempts {
			m.exhausted = true
		}
		m.mu.Unlock()

		if attempts >= m.config.MaxAttempts {
			exhaustedErr := apperror.New(apperror.CodeElectrumConnectionExhausted,
				apperror.WithContext(peer.String()),
				apperror.WithCause(err))
			m.logger.Error(ctx, "giving up on electrum connection", exhaustedErr.LogAttrs()...)
			m.raiseAlert(ctx, peer, exhaustedErr)
			return exhaustedErr
		}

		m.logger.Warn(ctx, "electrum connection attempt failed",
			"peer", peer.String(), "attempt", attempts, "error", err)

		select {
		case <-time.After(m.config.RetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// connectOnce dials one peer and performs the handshake.
func (m *Manager) connectOnce(ctx context.Context) (domain.Peer, error) {
	if m.disabled(ctx) {
		m.logger.Info(ctx, "electrum connection disabled by user, skipping connect")
		return domain.Peer{}, apperror.New(apperror.CodeElectrumConnectionDisabled)
	}

	peer, ok := m.selector.Next(ctx)
	if !ok {
		return domain.Peer{}, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("no electrum peers configured"))
	}

	ctx, span := m.tracer.Start(ctx, "electrum.connect",
		trace.WithAttributes(attribute.String("peer", peer.String())),
	)
	defer span.End()

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.peer = peer
	// a degraded connection is replaced, not leaked
	stale, staleConn := m.client, m.conn
	m.client, m.conn = nil, nil
	m.mu.Unlock()
	closeClient(stale, staleConn)
	m.setState(ctx, domain.StateConnecting)

	fail := func(code apperror.Code, err error) (domain.Peer, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		m.metrics.connectAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
		m.setState(ctx, domain.StateDisconnected)
		return peer, apperror.New(code, apperror.WithContext(peer.String()), apperror.WithCause(err))
	}

	m.logger.Info(ctx, "connecting to electrum server", "peer", peer.String())

	raw, err := m.dialer.Dial(ctx, peer)
	if err != nil {
		return fail(apperror.CodeElectrumConnectionFailed, err)
	}

	conn := newWatchedConn(raw, func(err error) { m.onTransportError(gen, err) })
	client, err := rpc.DialIO(m.life, conn, conn)
	if err != nil {
		conn.Close()
		return fail(apperror.CodeElectrumConnectionFailed, err)
	}

	hctx, cancel := context.WithTimeout(ctx, m.config.RequestTimeout)
	defer cancel()

	var version []string
	if err := client.CallContext(hctx, &version, domain.MethodServerVersion, m.config.ClientName, m.config.ProtocolVersion); err != nil {
		closeClient(client, conn)
		return fail(apperror.CodeElectrumHandshakeFailed, err)
	}
	if len(version) == 0 || version[0] == "" {
		closeClient(client, conn)
		return fail(apperror.CodeElectrumHandshakeFailed, errors.New("empty server.version reply"))
	}

	banner := version[0]
	quirks := domain.ParseQuirks(banner)

	var header headerNotification
	if err := client.CallContext(hctx, &header, domain.MethodHeadersSubscribe); err != nil {
		closeClient(client, conn)
		return fail(apperror.CodeElectrumHandshakeFailed, err)
	}

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		closeClient(client, conn)
		return fail(apperror.CodeElectrumConnectionFailed, errors.New("connection superseded"))
	}
	m.client = client
	m.conn = conn
	m.serverName = banner
	m.quirks = quirks
	m.everConnected = true
	m.attempts = 0
	m.exhausted = false
	if header.Height > 0 {
		m.tip = domain.LatestBlockTip{Height: header.Height, ObservedAt: time.Now()}
	}
	m.mu.Unlock()

	m.setState(ctx, domain.StateConnected)
	m.metrics.connectAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	if header.Height > 0 {
		m.metrics.tipHeight.Record(ctx, header.Height)
	}

	m.logger.Info(ctx, "connected to electrum server",
		"peer", peer.String(),
		"server", banner,
		"batching", !quirks.BatchingDisabled,
		"height", header.Height)

	if m.config.KeepAliveInterval > 0 {
		go m.keepAlive(gen)
	}

	span.SetStatus(codes.Ok, "connected")
	return peer, nil
}

type headerNotification struct {
	Height int64  `json:"height"`
	Hex    string `json:"hex"`
}

// onTransportError handles the first failure of connection gen. Only a
// connection that completed its handshake schedules a reconnect, and the
// state is cleared before closing so overlapping errors reconnect once.
func (m *Manager) onTransportError(gen uint64, err error) {
	ctx := m.life

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	wasConnected := m.state == domain.StateConnected
	client, conn, peer := m.client, m.conn, m.peer
	m.client, m.conn = nil, nil
	m.mu.Unlock()

	m.setState(ctx, domain.StateDisconnected)
	closeClient(client, conn)

	if !wasConnected {
		return
	}

	delay := m.config.reconnectDelay(peer)

	m.reconnects.Add(1)
	m.metrics.reconnects.Add(ctx, 1)
	m.logger.Warn(ctx, "electrum transport error, reconnecting",
		"peer", peer.String(), "error", err, "delay", delay)

	m.mu.Lock()
	if !m.closed {
		m.reconnect = time.AfterFunc(delay, func() {
			if err := m.EnsureConnected(m.life); err != nil {
				m.logger.Warn(m.life, "electrum reconnect failed", "error", err)
			}
		})
	}
	m.mu.Unlock()
}

// keepAlive re-subscribes to headers periodically, refreshing the tip.
func (m *Manager) keepAlive(gen uint64) {
	ticker := time.NewTicker(m.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.life.Done():
			return
		case <-ticker.C:
		}

		m.mu.RLock()
		current := m.gen == gen && m.client != nil
		m.mu.RUnlock()
		if !current {
			return
		}

		var header headerNotification
		if err := m.Call(m.life, &header, domain.MethodHeadersSubscribe); err != nil {
			m.logger.Debug(m.life, "keep-alive failed", "error", err)
			continue
		}
		m.updateTip(m.life, header.Height)
	}
}

func (m *Manager) updateTip(ctx context.Context, height int64) {
	if height <= 0 {
		return
	}
	m.mu.Lock()
	m.tip = domain.LatestBlockTip{Height: height, ObservedAt: time.Now()}
	m.mu.Unlock()
	m.metrics.tipHeight.Record(ctx, height)
}

// WaitUntilConnected polls until the connection is usable or WaitTimeout
// passes. A transport that is still open after an earlier handshake counts
// as connected.
func (m *Manager) WaitUntilConnected(ctx context.Context) error {
	if m.disabled(ctx) {
		return apperror.New(apperror.CodeElectrumConnectionDisabled)
	}

	if m.ready(ctx) {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, m.config.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wctx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := apperror.New(apperror.CodeElectrumWaitTimeout)
			m.mu.RLock()
			ever := m.everConnected
			m.mu.RUnlock()
			if ever {
				m.raiseAlert(ctx, domain.Peer{}, err)
			}
			return err
		case <-ticker.C:
			if m.ready(ctx) {
				return nil
			}
		}
	}
}

func (m *Manager) ready(ctx context.Context) bool {
	m.mu.RLock()
	state, ever, open := m.state, m.everConnected, m.conn != nil
	m.mu.RUnlock()

	if state == domain.StateConnected {
		return true
	}
	if ever && state == domain.StateDegraded && open {
		m.setState(ctx, domain.StateConnected)
		return true
	}
	return false
}

// Ping checks liveness. A failure clears the connected flag without
// reconnecting.
func (m *Manager) Ping(ctx context.Context) error {
	var res any
	err := m.Call(ctx, &res, domain.MethodServerPing)
	if err != nil {
		m.mu.RLock()
		state := m.state
		m.mu.RUnlock()
		if state == domain.StateConnected {
			m.setState(ctx, domain.StateDegraded)
		}
	}
	return err
}

// Call issues one request on the active connection.
func (m *Manager) Call(ctx context.Context, result any, method string, args ...any) error {
	client := m.activeClient()
	if client == nil {
		return apperror.New(apperror.CodeElectrumNotConnected, apperror.WithContext(method))
	}

	ctx, span := m.tracer.Start(ctx, "electrum.call",
		trace.WithAttributes(attribute.String("method", method)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, m.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	m.lastRequest.Store(start.UnixNano())
	err := client.CallContext(ctx, result, method, args...)
	m.record(ctx, method, start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return wrapCallError(method, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// BatchCall sends elems as one batch. Per-element server errors are
// converted to *domain.RPCError.
func (m *Manager) BatchCall(ctx context.Context, elems []domain.BatchElem) error {
	if len(elems) == 0 {
		return nil
	}

	client := m.activeClient()
	if client == nil {
		return apperror.New(apperror.CodeElectrumNotConnected, apperror.WithContext(elems[0].Method))
	}

	method := elems[0].Method
	ctx, span := m.tracer.Start(ctx, "electrum.batch",
		trace.WithAttributes(
			attribute.String("method", method),
			attribute.Int("size", len(elems)),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, m.config.RequestTimeout)
	defer cancel()

	batch := make([]rpc.BatchElem, len(elems))
	for i, e := range elems {
		batch[i] = rpc.BatchElem{Method: e.Method, Args: e.Args, Result: e.Result}
	}

	start := time.Now()
	m.lastRequest.Store(start.UnixNano())
	err := client.BatchCallContext(ctx, batch)
	m.record(ctx, method, start, err)
	m.metrics.batchSize.Record(ctx, int64(len(elems)), metric.WithAttributes(attribute.String("method", method)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return wrapCallError(method, err)
	}

	failed := 0
	for i := range batch {
		if batch[i].Error != nil {
			elems[i].Error = toRPCError(batch[i].Error)
			failed++
		}
	}
	span.SetAttributes(attribute.Int("failed", failed))
	span.SetStatus(codes.Ok, "")
	return nil
}

func (m *Manager) record(ctx context.Context, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	m.metrics.requests.Add(ctx, 1, attrs)
	m.metrics.requestLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		m.metrics.requestErrors.Add(ctx, 1, attrs)
	}
}

func (m *Manager) activeClient() *rpc.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != domain.StateConnected && m.state != domain.StateDegraded {
		return nil
	}
	return m.client
}

// BatchingDisabled reports whether requests must be sent one at a time.
func (m *Manager) BatchingDisabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.batchOverride != nil {
		return *m.batchOverride
	}
	return m.quirks.BatchingDisabled
}

// SetBatchingDisabled overrides the banner-derived batching decision.
func (m *Manager) SetBatchingDisabled(disabled bool) {
	m.mu.Lock()
	m.batchOverride = &disabled
	m.mu.Unlock()
}

// Tip returns the latest observed block tip.
func (m *Manager) Tip() domain.LatestBlockTip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tip
}

// Retry clears the failure budget and connects again.
func (m *Manager) Retry(ctx context.Context) error {
	m.resetAttempts()
	return m.EnsureConnected(ctx)
}

// ResetToDefault forgets the saved server override and connects again.
func (m *Manager) ResetToDefault(ctx context.Context) error {
	if m.prefs != nil {
		if err := m.prefs.ClearPeer(ctx); err != nil {
			return err
		}
	}
	return m.Retry(ctx)
}

// Cancel clears the failure budget without connecting.
func (m *Manager) Cancel() {
	m.resetAttempts()
}

func (m *Manager) resetAttempts() {
	m.mu.Lock()
	m.attempts = 0
	m.exhausted = false
	m.mu.Unlock()
}

// Disconnect closes the active connection without reconnecting.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	client, conn := m.client, m.conn
	m.client, m.conn = nil, nil
	if m.reconnect != nil {
		m.reconnect.Stop()
	}
	m.mu.Unlock()

	m.setState(m.life, domain.StateDisconnected)
	closeClient(client, conn)
}

// Close disconnects and stops all background work.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info(context.Background(), "closing electrum connection manager")
	m.Disconnect()
	m.stopLife()
	return nil
}

// Status returns a snapshot of the connection.
func (m *Manager) Status() domain.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last time.Time
	if ns := m.lastRequest.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return domain.Status{
		State:         m.state,
		Peer:          m.peer,
		ServerName:    m.serverName,
		Quirks:        m.quirks,
		Tip:           m.tip,
		Attempts:      m.attempts,
		Exhausted:     m.exhausted,
		Reconnects:    m.reconnects.Load(),
		LastRequestAt: last,
	}
}

// State returns the current connection state.
func (m *Manager) State() domain.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Config describes the active server.
func (m *Manager) Config() domain.ServerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.ServerConfig{
		Host:       m.peer.Host,
		Port:       m.peer.Port,
		ServerName: m.serverName,
		Connected:  m.lastRequest.Load() != 0 && m.state == domain.StateConnected,
	}
}

// SecondsSinceLastRequest returns the idle time, or -1 before any request.
func (m *Manager) SecondsSinceLastRequest() float64 {
	ns := m.lastRequest.Load()
	if ns == 0 {
		return -1
	}
	return time.Since(time.Unix(0, ns)).Seconds()
}

func (m *Manager) disabled(ctx context.Context) bool {
	if m.prefs == nil {
		return false
	}
	disabled, err := m.prefs.IsDisabled(ctx)
	if err != nil {
		m.logger.Warn(ctx, "failed to read disabled flag", "error", err)
	}
	return disabled
}

func (m *Manager) raiseAlert(ctx context.Context, peer domain.Peer, reason error) {
	if m.alerter == nil || m.disabled(ctx) {
		return
	}
	alert := domain.ConnectionAlert{Peer: peer, Reason: reason, Actions: m}
	// The alerter may call back into Retry, which must not wait on the
	// connect loop that raised the alert.
	go m.alerter.ConnectionLost(context.WithoutCancel(ctx), alert)
}

// setState updates the connection state and records metrics.
func (m *Manager) setState(ctx context.Context, state domain.ConnectionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	var v int64
	switch state {
	case domain.StateConnecting:
		v = 1
	case domain.StateConnected:
		v = 2
	case domain.StateDegraded:
		v = 3
	}
	m.metrics.connectionState.Record(ctx, v)
}

func closeClient(client *rpc.Client, conn *watchedConn) {
	// rpc.Client does not own an IO stream, so the connection is closed
	// separately to unblock its reader.
	if conn != nil {
		conn.Close()
	}
	if client != nil {
		client.Close()
	}
}

func wrapCallError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return apperror.New(apperror.CodeElectrumRPCError,
			apperror.WithContext(method),
			apperror.WithCause(toRPCError(err)))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.New(apperror.CodeServiceTimeout, apperror.WithContext(method), apperror.WithCause(err))
	}
	return apperror.New(apperror.CodeElectrumRPCError,
		apperror.WithContext(method),
		apperror.WithCause(err),
		apperror.WithKind(apperror.KindConnectivity))
}

func toRPCError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &domain.RPCError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}
	return err
}
