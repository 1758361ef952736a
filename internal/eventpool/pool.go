package eventpool

import (
	"sync"
	"time"

	"mpm/internal/merrors"
	"mpm/pkg/logger"
)

// Pool is a bounded connection pool of persistent event-stream clients with
// a circuit breaker and a micro-batch window (spec component C8). It is a
// process-wide singleton: callers use GetPool/StopPool rather than
// constructing one directly, per spec §3's PoolState ownership rule and
// DESIGN.md's "global singletons modeled as explicit init/teardown" note.
type Pool struct {
	cfg     Config
	breaker *CircuitBreaker
	dial    dialer

	serverURL string

	mu        sync.Mutex
	available []*pooledClient
	active    map[string]*pooledClient
	stats     map[string]*ConnStats
	queue     []BatchEvent

	stop    chan struct{}
	wg      sync.WaitGroup
	running bool

	droppedLogged bool
}

var (
	singletonMu sync.Mutex
	singleton   *Pool
)

// GetPool returns the process-wide Pool, starting it on first use with cfg.
// Subsequent calls ignore cfg and return the already-running pool.
func GetPool(cfg Config) *Pool {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		return singleton
	}
	p := newPool(cfg)
	p.Start()
	singleton = p
	return singleton
}

// StopPool stops and discards the process-wide Pool, if one exists.
func StopPool() {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		singleton.Stop()
		singleton = nil
	}
}

func newPool(cfg Config) *Pool {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 5
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = 50 * time.Millisecond
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 10
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 10000
	}
	return &Pool{
		cfg:     cfg,
		breaker: NewCircuitBreaker(),
		dial:    dialGorilla,
		active:  map[string]*pooledClient{},
		stats:   map[string]*ConnStats{},
	}
}

// Start resolves the server endpoint and launches the batcher goroutine.
// Idempotent.
func (p *Pool) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.mu.Unlock()

	url, _ := detectServer(p.cfg)
	p.serverURL = url

	p.wg.Add(1)
	go p.batchLoop()

	logger.Infof("event pool started (max_connections=%d, batch_window=%s)", p.cfg.MaxConnections, p.cfg.BatchWindow)
}

// Stop halts the batcher and disconnects every pooled connection.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for _, c := range p.available {
		c.conn.Close()
	}
	p.available = nil
	for _, c := range p.active {
		c.conn.Close()
	}
	p.active = map[string]*pooledClient{}
	p.stats = map[string]*ConnStats{}
	p.mu.Unlock()

	logger.Infof("event pool stopped")
}

// Emit enqueues an event for the next batch flush and returns immediately;
// the orchestrator's main path must never block on the network here. The
// circuit breaker is checked at enqueue time too (DESIGN.md decision 1,
// matching original_source/core/socketio_pool.py's emit_event): while OPEN,
// events are dropped rather than queued, bounding queue growth during an
// outage.
func (p *Pool) Emit(namespace, event string, data map[string]interface{}) {
	if !p.breaker.CanExecute() {
		logger.Debugf("circuit breaker OPEN - dropping event %s/%s", namespace, event)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) >= p.cfg.QueueCapacity {
		p.queue = p.queue[1:]
		logger.Warnf("event pool queue at capacity, dropping oldest event")
	}
	p.queue = append(p.queue, BatchEvent{Namespace: namespace, Event: event, Data: data, Timestamp: time.Now()})
}

// Stats returns a point-in-time snapshot for observability/tests.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sent, errs int
	for _, s := range p.stats {
		sent += s.EventsSent
		errs += s.Errors
	}

	return Stats{
		MaxConnections:       p.cfg.MaxConnections,
		AvailableConnections: len(p.available),
		ActiveConnections:    len(p.active),
		TotalEventsSent:      sent,
		TotalErrors:          errs,
		CircuitState:         p.breaker.State(),
		CircuitFailures:      p.breaker.FailureCount(),
		BatchQueueSize:       len(p.queue),
		ServerURL:            p.serverURL,
	}
}

// batchLoop wakes every BatchWindow, drains up to MaxBatchSize events,
// groups them by namespace, and flushes each group. This is the only place
// in Pool that suspends on the network, per spec §5.
func (p *Pool) batchLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.BatchWindow)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.flushOnce()
		}
	}
}

func (p *Pool) flushOnce() {
	batch := p.drainBatch()
	if len(batch) == 0 {
		return
	}

	groups := map[string][]BatchEvent{}
	var order []string
	for _, ev := range batch {
		if _, ok := groups[ev.Namespace]; !ok {
			order = append(order, ev.Namespace)
		}
		groups[ev.Namespace] = append(groups[ev.Namespace], ev)
	}

	for _, ns := range order {
		if !p.breaker.CanExecute() {
			logger.Debugf("circuit breaker OPEN at flush time - dropping %d events for %s", len(groups[ns]), ns)
			continue
		}
		if p.emitToNamespace(ns, groups[ns]) {
			p.breaker.RecordSuccess()
		} else {
			p.breaker.RecordFailure()
		}
	}
}

func (p *Pool) drainBatch() []BatchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	if n > p.cfg.MaxBatchSize {
		n = p.cfg.MaxBatchSize
	}
	batch := p.queue[:n]
	p.queue = p.queue[n:]
	return batch
}

// emitToNamespace gets a pooled client, emits every event in order, and
// returns the connection to the pool.
func (p *Pool) emitToNamespace(namespace string, events []BatchEvent) bool {
	client, err := p.getConnection()
	if err != nil {
		logger.Errorf("failed to get pool connection for %s: %v", namespace, err)
		return false
	}
	defer p.returnConnection(client)

	log := logger.ForConn(client.id)

	if err := client.emit(namespace, events); err != nil {
		p.mu.Lock()
		if s, ok := p.stats[client.id]; ok {
			s.Errors++
			s.ConsecutiveErrors++
		}
		p.mu.Unlock()
		log.Error().Err(err).Str("namespace", namespace).Msg("failed to emit batch")
		return false
	}

	p.mu.Lock()
	if s, ok := p.stats[client.id]; ok {
		s.EventsSent += len(events)
		s.ConsecutiveErrors = 0
		s.LastUsed = time.Now()
	}
	p.mu.Unlock()

	log.Debug().Int("count", len(events)).Str("namespace", namespace).Msg("emitted batch")
	return true
}

// getConnection pops an available client or dials a new one up to
// MaxConnections, per §4.8's pool lifecycle. Returns merrors.ErrPoolExhausted
// when the cap is hit and nothing is available.
func (p *Pool) getConnection() (*pooledClient, error) {
	p.mu.Lock()
	if len(p.available) > 0 {
		c := p.available[len(p.available)-1]
		p.available = p.available[:len(p.available)-1]
		p.active[c.id] = c
		p.mu.Unlock()
		return c, nil
	}
	activeCount := len(p.active)
	p.mu.Unlock()

	if activeCount >= p.cfg.MaxConnections {
		logger.Warnf("event pool exhausted (max_connections=%d)", p.cfg.MaxConnections)
		return nil, merrors.ErrPoolExhausted
	}

	conn, err := p.dial(p.serverURL, p.cfg.AuthToken)
	if err != nil {
		return nil, err
	}
	c := &pooledClient{id: newConnID(), conn: conn}

	p.mu.Lock()
	p.active[c.id] = c
	p.stats[c.id] = &ConnStats{CreatedAt: time.Now(), LastUsed: time.Now(), IsConnected: true}
	p.mu.Unlock()

	return c, nil
}

// returnConnection puts client back in the available deque, or schedules a
// background disconnect if the pool is already full, per §4.8.
func (p *Pool) returnConnection(c *pooledClient) {
	p.mu.Lock()
	delete(p.active, c.id)
	if len(p.available) < p.cfg.MaxConnections {
		p.available = append(p.available, c)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	go func() {
		if err := c.conn.Close(); err != nil {
			logger.ForConn(c.id).Debug().Err(err).Msg("error closing excess connection")
		}
	}()
}
