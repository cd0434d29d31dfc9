package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-openagenda/internal/agendas"
	agendascmd "github.com/goliatone/go-openagenda/internal/commands/agendas"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"
)

const defaultConcurrency = 4

var (
	ErrCronExpressionRequired = errors.New("scheduler: cron expression is required")
	ErrAlreadyStarted         = errors.New("scheduler: warmer already started")
)

// AgendaLister lists the stored agendas.
type AgendaLister interface {
	List(ctx context.Context) ([]*agendas.Agenda, error)
}

// WarmExecutor runs one agenda warm-up.
type WarmExecutor interface {
	Execute(ctx context.Context, msg agendascmd.WarmAgendaCommand) error
}

// Option customises a Warmer.
type Option func(*Warmer)

// WithLogger sets the warmer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Warmer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithConcurrency bounds the number of agendas warmed in parallel.
func WithConcurrency(n int) Option {
	return func(w *Warmer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// Warmer periodically builds the first page of every stored agenda.
type Warmer struct {
	agendas     AgendaLister
	warm        WarmExecutor
	logger      interfaces.Logger
	concurrency int

	mu   sync.Mutex
	cron *cron.Cron
}

// NewWarmer constructs a warmer.
func NewWarmer(agendas AgendaLister, warm WarmExecutor, opts ...Option) *Warmer {
	w := &Warmer{
		agendas:     agendas,
		warm:        warm,
		logger:      logging.NoOp(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// WarmAll warms every stored agenda. Failures of individual agendas are
// joined into the returned error; the others still run.
func (w *Warmer) WarmAll(ctx context.Context) error {
	list, err := w.agendas.List(ctx)
	if err != nil {
		w.logger.Error("scheduler.warm.list_failed", "error", err)
		return err
	}

	p := pool.New().WithErrors().WithMaxGoroutines(w.concurrency)
	for _, agenda := range list {
		key := agenda.Key
		p.Go(func() error {
			if err := w.warm.Execute(ctx, agendascmd.WarmAgendaCommand{AgendaKey: key}); err != nil {
				logging.WithAgenda(w.logger, key, "").Warn("scheduler.warm.agenda_failed", "error", err)
				return err
			}
			return nil
		})
	}
	err = p.Wait()
	w.logger.Info("scheduler.warm.completed", "agendas", len(list), "failed", err != nil)
	return err
}

// Start registers WarmAll on the cron expression and starts the cron runner.
func (w *Warmer) Start(expression string) error {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return ErrCronExpressionRequired
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return ErrAlreadyStarted
	}

	runner := cron.New()
	if _, err := runner.AddFunc(expression, func() {
		_ = w.WarmAll(context.Background())
	}); err != nil {
		return err
	}
	runner.Start()
	w.cron = runner
	w.logger.Info("scheduler.warm.scheduled", "expression", expression)
	return nil
}

// Stop halts the cron runner and waits for a running warm-up to finish.
func (w *Warmer) Stop(ctx context.Context) {
	w.mu.Lock()
	runner := w.cron
	w.cron = nil
	w.mu.Unlock()
	if runner == nil {
		return
	}
	select {
	case <-runner.Stop().Done():
	case <-ctx.Done():
	}
}
