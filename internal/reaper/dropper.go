package reaper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// Workers returns the admission limit for count sequences under limit:
// max(1, min(limit, count)).
func Workers(limit, count int) int {
	w := min(limit, count)
	if w < 1 {
		return 1
	}
	return w
}

// Dropper runs terminate-then-drop sequences behind a weighted semaphore.
type Dropper struct {
	client      pgreap.DatabaseClient
	limit       int
	callTimeout time.Duration
	out         *console
}

// Run drops every name and returns the success and failure counts. It
// returns once every sequence has finished. Cancelling ctx fails the
// sequences still waiting for admission.
func (d *Dropper) Run(ctx context.Context, names []string) (succeeded, failed int) {
	sem := semaphore.NewWeighted(int64(Workers(d.limit, len(names))))

	var ok, bad atomic.Int64
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				d.out.Errorf("Error while dropping %s: %v", name, err)
				bad.Add(1)
				return
			}
			defer sem.Release(1)

			if err := d.dropOne(ctx, name); err != nil {
				var cmdErr *pgreap.CommandError
				if errors.As(err, &cmdErr) {
					d.out.Errorf("Failed to drop %s: %v", name, err)
				} else {
					d.out.Errorf("Error while dropping %s: %v", name, err)
				}
				bad.Add(1)
				return
			}
			d.out.Printf("Dropped %s", name)
			ok.Add(1)
		}()
	}

	wg.Wait()
	return int(ok.Load()), int(bad.Load())
}

// dropOne is the terminate-then-drop sequence. The terminate outcome never
// influences the drop.
func (d *Dropper) dropOne(ctx context.Context, name string) error {
	termCtx, cancel := d.callContext(ctx)
	d.client.TerminateConnections(termCtx, name).Discard()
	cancel()

	dropCtx, cancel := d.callContext(ctx)
	defer cancel()
	return d.client.DropDatabase(dropCtx, name)
}

func (d *Dropper) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout > 0 {
		return context.WithTimeout(ctx, d.callTimeout)
	}
	return context.WithCancel(ctx)
}
