package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
	"github.com/Additional-Code/procurement/internal/messaging"
)

const maxConsumeBackoff = 30 * time.Second

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a pool of consumers that dispatch bus messages to the
// registered handlers.
type Engine struct {
	client messaging.Client
	logger *zap.Logger
	cfg    config.Worker
	active bool
	routes router

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	return &Engine{
		client: p.Client,
		logger: p.Logger,
		cfg:    p.Config.Messaging.Workers,
		active: p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		routes: newRouter(p.Registrations, p.Logger),
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fxHook(engine))
	}),
)

func fxHook(engine *Engine) fx.Hook {
	return fx.Hook{OnStart: engine.start, OnStop: engine.stop}
}

// Dispatch routes one message to its handler. Unrouted messages are
// acknowledged so they do not block the partition.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	handler, ok := e.routes.lookup(msg)
	if !ok {
		e.logger.Warn("no handler for message",
			zap.String("topic", msg.Topic), zap.String("event_type", msg.EventType()))
		return nil
	}
	return handler(ctx, msg)
}

func (e *Engine) start(context.Context) error {
	switch {
	case !e.active:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.routes) == 0:
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	workers := max(e.cfg.Concurrency, 1)
	// Consumers outlive the start context; stop cancels them.
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	for id := range workers {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consume(ctx, e.logger.With(zap.Int("worker", id)))
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", workers), zap.String("topic", e.client.Topic()))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consume restarts the client's consume loop with a doubling backoff until
// ctx is cancelled.
func (e *Engine) consume(ctx context.Context, logger *zap.Logger) {
	backoff := e.cfg.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}
	handle := func(ctx context.Context, msg messaging.Message) error {
		logger.Debug("processing message",
			zap.String("topic", msg.Topic), zap.String("event_type", msg.EventType()))
		return e.Dispatch(ctx, msg)
	}

	for ctx.Err() == nil {
		err := e.client.Consume(ctx, handle)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		logger.Error("consume loop error", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxConsumeBackoff)
	}
}
