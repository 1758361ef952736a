// Package hijacker implements the TODO hijacker (spec component C6): a
// filesystem watcher over a directory of JSON TODO files that turns new
// entries into delegations, each TODO id delegated at most once.
package hijacker

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"

	"mpm/internal/delegation"
	"mpm/pkg/logger"
)

// Hijacker monitors a TODO inbox directory and emits delegations.
type Hijacker struct {
	TodoDir     string
	OnDelegation func(delegation.Delegation)

	transformer *delegation.Transformer

	mu        sync.Mutex
	processed map[string]struct{}
	active    bool

	watcher *fsWatcher
	cron    *cron.Cron
}

// RescanSchedule is the safety-net rescan cadence: fsnotify can miss events
// under heavy filesystem activity, so a periodic full rescan backstops it.
const RescanSchedule = "@every 30s"

// New creates a Hijacker rooted at todoDir, creating the directory if it
// does not exist (matching todo_hijacker.py's constructor, which creates
// its monitored directory eagerly to simplify testing).
func New(todoDir string, onDelegation func(delegation.Delegation)) (*Hijacker, error) {
	if err := os.MkdirAll(todoDir, 0755); err != nil {
		return nil, err
	}
	return &Hijacker{
		TodoDir:      todoDir,
		OnDelegation: onDelegation,
		transformer:  delegation.NewTransformer(),
		processed:    map[string]struct{}{},
	}, nil
}

// StartMonitoring scans existing files once, then subscribes to
// create/modify events. Idempotent: a second call is a no-op.
func (h *Hijacker) StartMonitoring() error {
	h.mu.Lock()
	if h.active {
		h.mu.Unlock()
		logger.Warn().Msg("monitoring already active")
		return nil
	}
	h.mu.Unlock()

	h.scanExisting()

	w, err := newFSWatcher(h.TodoDir, h.processPath)
	if err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(RescanSchedule, h.rescanSafetyNet); err != nil {
		w.close()
		return err
	}
	c.Start()

	h.mu.Lock()
	h.watcher = w
	h.cron = c
	h.active = true
	h.mu.Unlock()

	logger.Info().Msg("started monitoring TODO directory")
	return nil
}

// rescanSafetyNet re-scans every TODO file and fires OnDelegation for
// anything fsnotify missed; transformAndMark's processed-set guard makes
// this safe to call at any cadence without duplicate delegations.
func (h *Hijacker) rescanSafetyNet() {
	for _, d := range h.GetPendingDelegations() {
		if h.OnDelegation != nil {
			h.OnDelegation(d)
		}
	}
}

// StopMonitoring unsubscribes and joins the watcher goroutine.
func (h *Hijacker) StopMonitoring() error {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return nil
	}
	w := h.watcher
	c := h.cron
	h.watcher = nil
	h.cron = nil
	h.active = false
	h.mu.Unlock()

	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
	}
	if w != nil {
		return w.close()
	}
	return nil
}

func (h *Hijacker) scanExisting() {
	matches, _ := filepath.Glob(filepath.Join(h.TodoDir, "*.json"))
	logger.Infof("found %d existing TODO files", len(matches))
	for _, path := range matches {
		h.processPath(path)
	}
}

// processPath reads one TODO file and delegates every not-yet-processed
// item, firing OnDelegation for each.
func (h *Hijacker) processPath(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("error processing TODO file %s: %v", path, err)
		return
	}

	todos, err := parseTodoFile(path, data)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}
	if len(todos) == 0 {
		logger.Debugf("no actionable TODOs found in %s", path)
		return
	}

	for _, todo := range todos {
		d := h.transformAndMark(todo)
		if d != nil && h.OnDelegation != nil {
			h.OnDelegation(*d)
		}
	}
}

// transformAndMark transforms todo if its id has not been seen, atomically
// marking it processed so no id is ever delegated twice.
func (h *Hijacker) transformAndMark(todo delegation.TodoItem) *delegation.Delegation {
	d := h.transformer.Transform(todo)
	if d == nil {
		return nil
	}

	h.mu.Lock()
	_, seen := h.processed[d.TodoID]
	if !seen {
		h.processed[d.TodoID] = struct{}{}
	}
	h.mu.Unlock()

	if seen {
		return nil
	}
	logger.Infof("created delegation: %s - %.50s", d.Agent, d.Task)
	return d
}

// GetPendingDelegations re-scans every TODO file and returns delegations
// for ids not yet in the processed set, marking them processed as it goes
// so a repeated call returns nothing new for the same ids.
func (h *Hijacker) GetPendingDelegations() []delegation.Delegation {
	matches, _ := filepath.Glob(filepath.Join(h.TodoDir, "*.json"))

	var out []delegation.Delegation
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Errorf("error getting pending delegations: %v", err)
			continue
		}
		todos, err := parseTodoFile(path, data)
		if err != nil {
			logger.Errorf("error getting pending delegations: %v", err)
			continue
		}
		for _, todo := range todos {
			if d := h.transformAndMark(todo); d != nil {
				out = append(out, *d)
			}
		}
	}
	return out
}

// MarkDelegationCompleted inserts delegation.TodoID into the processed set.
func (h *Hijacker) MarkDelegationCompleted(d delegation.Delegation) {
	if d.TodoID == "" {
		return
	}
	h.mu.Lock()
	h.processed[d.TodoID] = struct{}{}
	h.mu.Unlock()
}
