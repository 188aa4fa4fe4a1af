package reaper

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// CompileFullMatch anchors pattern at both ends.
func CompileFullMatch(pattern string) (*regexp.Regexp, error) {
	rx, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %v: %w", pattern, err, pgreap.ErrInvalidConfig)
	}
	return rx, nil
}

// Discover returns the candidate set: the server's matches for pattern,
// in server order, minus any name that does not fully match pattern.
func Discover(ctx context.Context, client pgreap.DatabaseClient, pattern string) ([]string, error) {
	rx, err := CompileFullMatch(pattern)
	if err != nil {
		return nil, err
	}

	listed, err := client.ListDatabases(ctx, pattern)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(listed))
	for _, name := range listed {
		if rx.MatchString(name) {
			candidates = append(candidates, name)
		}
	}
	return candidates, nil
}
