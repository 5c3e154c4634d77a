// Package session implements the per-visitor report generation state machine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/tahlil-portal/internal/client"
	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/models"
)

const (
	// ValidationMessage is shown when generation is requested without a symbol.
	ValidationMessage = "الرجاء إدخال رمز السهم."
	// FallbackMessage is shown when a request fails without a server-supplied message.
	FallbackMessage = "حدث خطأ أثناء إنشاء التقرير. الرجاء المحاولة مرة أخرى."
)

var (
	// ErrValidation is returned by Submit for an empty or whitespace-only symbol.
	ErrValidation = errors.New("symbol is required")
	// ErrBusy is returned by Submit while a request is outstanding.
	ErrBusy = errors.New("report generation already in progress")
)

// Analyzer performs the backend analysis call.
type Analyzer interface {
	Analyze(ctx context.Context, symbol models.Symbol) (string, error)
}

// Machine drives one ReportSession through Idle -> Loading -> Success|Failure.
// It is the only writer of its session; readers take snapshots.
//
// Submissions while Loading are ignored (ErrBusy), so at most one request is
// outstanding per machine.
type Machine struct {
	mu         sync.Mutex
	input      Input
	state      models.ReportSession
	generation uint64
	done       chan struct{}

	analyzer Analyzer
	logger   *common.Logger
	now      func() time.Time
}

// NewMachine creates an Idle machine.
func NewMachine(analyzer Analyzer, logger *common.Logger) *Machine {
	m := &Machine{
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
	}
	m.state = models.ReportSession{Status: models.StatusIdle, UpdatedAt: m.now()}
	return m
}

// Submit starts report generation for raw. It returns once the request has
// been issued; the outcome is applied when the backend answers.
//
// An empty symbol sets the validation message without contacting the backend
// and returns ErrValidation.
func (m *Machine) Submit(ctx context.Context, raw string) error {
	m.mu.Lock()

	if m.state.Status == models.StatusLoading {
		m.mu.Unlock()
		return ErrBusy
	}

	symbol := m.input.Set(raw).Trimmed()
	if symbol == "" {
		m.state = models.ReportSession{
			Symbol:       m.input.Value(),
			Status:       models.StatusIdle,
			ErrorMessage: ValidationMessage,
			ErrorKind:    models.ErrorKindValidation,
			UpdatedAt:    m.now(),
		}
		m.mu.Unlock()
		return ErrValidation
	}

	m.generation++
	gen := m.generation
	done := make(chan struct{})
	m.done = done
	m.state = models.ReportSession{
		Symbol:    symbol,
		Status:    models.StatusLoading,
		UpdatedAt: m.now(),
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info().Str("symbol", symbol.String()).Msg("report generation started")
	}

	// The request outlives the HTTP request that triggered it.
	reqCtx := context.WithoutCancel(ctx)
	go m.run(reqCtx, gen, symbol)

	return nil
}

func (m *Machine) run(ctx context.Context, gen uint64, symbol models.Symbol) {
	text, err := m.analyzer.Analyze(ctx, symbol)
	m.complete(gen, symbol, text, err)
}

func (m *Machine) complete(gen uint64, symbol models.Symbol, text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		// Reset while the request was in flight.
		return
	}

	next := models.ReportSession{Symbol: symbol, UpdatedAt: m.now()}
	if err != nil {
		next.Status = models.StatusFailure
		next.ErrorMessage, next.ErrorKind = FailureMessage(err)
		if m.logger != nil {
			m.logger.Warn().Str("symbol", symbol.String()).Str("kind", string(next.ErrorKind)).Str("error", err.Error()).Msg("report generation failed")
		}
	} else {
		next.Status = models.StatusSuccess
		next.ReportText = text
		if m.logger != nil {
			m.logger.Info().Str("symbol", symbol.String()).Int("report_len", len(text)).Msg("report generation complete")
		}
	}
	m.state = next
	m.finishLocked()
}

// FailureMessage prefers the backend's message and falls back to FallbackMessage.
func FailureMessage(err error) (string, models.ErrorKind) {
	if msg, ok := client.ServerMessage(err); ok {
		return msg, models.ErrorKindRequest
	}
	if client.IsTransport(err) {
		return FallbackMessage, models.ErrorKindTransport
	}
	return FallbackMessage, models.ErrorKindRequest
}

// finishLocked releases Wait callers. Must be called with mu held.
func (m *Machine) finishLocked() {
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

// Reset returns the session to Idle, discarding any report, error or
// in-flight result. The typed symbol is kept.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.state = models.ReportSession{
		Symbol:    m.input.Value(),
		Status:    models.StatusIdle,
		UpdatedAt: m.now(),
	}
	m.finishLocked()
}

// Snapshot returns a copy of the current session.
func (m *Machine) Snapshot() models.ReportSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// InputValue returns the symbol as last entered, for redisplay in the form.
func (m *Machine) InputValue() models.Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input.Value()
}

// Wait blocks until the session is not Loading or ctx is done, and returns
// the snapshot at that point.
func (m *Machine) Wait(ctx context.Context) (models.ReportSession, error) {
	m.mu.Lock()
	done := m.done
	state := m.state
	m.mu.Unlock()

	if done == nil {
		return state, nil
	}

	select {
	case <-done:
		return m.Snapshot(), nil
	case <-ctx.Done():
		return m.Snapshot(), ctx.Err()
	}
}
