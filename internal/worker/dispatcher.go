package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/kikitori/internal/logger"
)

// Dispatcher fans submitted jobs out to the pipeline, one goroutine per job.
// Jobs are held in memory only; a restart drops in-flight work and the
// affected records stay in their last persisted state.
type Dispatcher struct {
	worker *Worker
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher around the given worker.
func NewDispatcher(w *Worker, log *logger.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		worker: w,
		log:    log.WithComponent("dispatcher"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue starts pipeline processing for the job in the background.
func (d *Dispatcher) Enqueue(id uuid.UUID) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.worker.Process(d.ctx, id); err != nil {
			d.log.Error("Job processing gave up", map[string]interface{}{
				logger.FieldJobID: id.String(),
				logger.FieldError: err.Error(),
			})
		}
	}()
}

// Shutdown cancels in-flight jobs and waits for their goroutines to exit,
// bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
