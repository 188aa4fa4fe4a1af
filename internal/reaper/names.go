package reaper

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// NewDatabaseName returns prefix followed by a random UUID in its 32-digit
// hex form, the shape the default pattern matches.
func NewDatabaseName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Seed creates count databases named by NewDatabaseName, at most limit at a
// time. It returns the names that were created and the first error seen.
func Seed(ctx context.Context, client pgreap.DatabaseClient, prefix string, count, limit int) ([]string, error) {
	names := make([]string, count)
	for i := range names {
		names[i] = NewDatabaseName(prefix)
	}

	sem := semaphore.NewWeighted(int64(Workers(limit, count)))
	created := make([]bool, count)
	var firstErr error
	var errOnce sync.Once
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			defer sem.Release(1)

			if err := client.CreateDatabase(ctx, name); err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			created[i] = true
		}()
	}
	wg.Wait()

	var out []string
	for i, ok := range created {
		if ok {
			out = append(out, names[i])
		}
	}
	return out, firstErr
}
