package reaper

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// fakeClient is a DatabaseClient built from func fields. Unset funcs succeed.
type fakeClient struct {
	listFunc      func(ctx context.Context, pattern string) ([]string, error)
	terminateFunc func(ctx context.Context, name string) pgreap.BestEffort
	dropFunc      func(ctx context.Context, name string) error
	createFunc    func(ctx context.Context, name string) error

	mu         sync.Mutex
	terminated []string
	dropped    []string
	created    []string
	calls      atomic.Int64
}

func (f *fakeClient) ListDatabases(ctx context.Context, pattern string) ([]string, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, pattern)
	}
	return nil, nil
}

func (f *fakeClient) TerminateConnections(ctx context.Context, name string) pgreap.BestEffort {
	f.calls.Add(1)
	f.mu.Lock()
	f.terminated = append(f.terminated, name)
	f.mu.Unlock()
	if f.terminateFunc != nil {
		return f.terminateFunc(ctx, name)
	}
	return pgreap.BestEffort{}
}

func (f *fakeClient) DropDatabase(ctx context.Context, name string) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.dropped = append(f.dropped, name)
	f.mu.Unlock()
	if f.dropFunc != nil {
		return f.dropFunc(ctx, name)
	}
	return nil
}

func (f *fakeClient) CreateDatabase(ctx context.Context, name string) error {
	f.calls.Add(1)
	if f.createFunc != nil {
		if err := f.createFunc(ctx, name); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.created = append(f.created, name)
	f.mu.Unlock()
	return nil
}

// fakeApprover answers with approved/err and records whether it was asked.
type fakeApprover struct {
	approved bool
	err      error
	asked    []string
	calls    int
}

func (a *fakeApprover) RequestApproval(ctx context.Context, databases []string) (bool, error) {
	a.calls++
	a.asked = databases
	return a.approved, a.err
}
