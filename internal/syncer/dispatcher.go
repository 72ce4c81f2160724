package syncer

import (
	"context"
	"log"
	"sync"
)

// GoDispatcher executes each run on its own goroutine. It is used when the
// persistent task queue is disabled.
type GoDispatcher struct {
	service *Service
	wg      sync.WaitGroup
}

// NewGoDispatcher creates a goroutine dispatcher for service.
func NewGoDispatcher(service *Service) *GoDispatcher {
	return &GoDispatcher{service: service}
}

// Dispatch starts the run in the background and returns immediately. The run
// does not inherit ctx, so it outlives the triggering request.
func (d *GoDispatcher) Dispatch(_ context.Context, job Job) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.service.ExecuteSync(context.Background(), job.RunID, job.CreateSnapshot); err != nil {
			log.Printf("University sync: background run #%d failed: %v", job.RunID, err)
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has finished.
func (d *GoDispatcher) Wait() {
	d.wg.Wait()
}
