package service

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// BackgroundRunner ejecuta el analisis post-respuesta (detectores, memorias,
// relacion) fuera del camino critico del stream. Pool acotado: bajo presion
// se descartan tareas antes que bloquear el chat.
type BackgroundRunner struct {
	pool        *ants.Pool
	taskTimeout time.Duration
	logger      *zap.Logger
}

func NewBackgroundRunner(workers int, taskTimeout time.Duration, logger *zap.Logger) (*BackgroundRunner, error) {
	if workers <= 0 {
		workers = 16
	}
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Second
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &BackgroundRunner{
		pool:        pool,
		taskTimeout: taskTimeout,
		logger:      logger,
	}, nil
}

// Submit encola una tarea con deadline propio, desacoplada del contexto del
// request que la origino.
func (r *BackgroundRunner) Submit(name string, task func(ctx context.Context)) {
	err := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil && r.logger != nil {
				r.logger.Error("background task panic",
					zap.String("task", name),
					zap.Any("panic", rec),
				)
			}
		}()
		task(ctx)
	})
	if err != nil && r.logger != nil {
		r.logger.Warn("background task dropped",
			zap.String("task", name),
			zap.Error(err),
		)
	}
}

// Shutdown drena el pool con timeout; las tareas que no terminan se abandonan.
func (r *BackgroundRunner) Shutdown(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := r.pool.ReleaseTimeout(timeout); err != nil && r.logger != nil {
		r.logger.Warn("worker pool drain timed out", zap.Error(err))
	}
}
