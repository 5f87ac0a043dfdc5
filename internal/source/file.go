package source

import (
	"context"
	"fmt"
	"os"
	"time"
)

type fileSource struct {
	path string
	now  func() time.Time
}

func (s *fileSource) Fetch(ctx context.Context) (*Payload, error) {
	if s.path == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("source: read %q: %w", s.path, err)
	}
	return &Payload{
		Body:      string(data),
		Origin:    s.path,
		FetchedAt: s.now(),
	}, nil
}
