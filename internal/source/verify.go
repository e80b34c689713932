package source

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Report lists the frames a sequence is missing or cannot decode.
type Report struct {
	Total   int
	Missing []int
	Broken  []int
}

func (r Report) OK() bool { return len(r.Missing) == 0 && len(r.Broken) == 0 }

// Verify decodes frames 0..total-1 of src with up to workers at a time.
// Done is called once per frame from the worker goroutines.
func Verify(ctx context.Context, src Source, total, workers int, done func()) (Report, error) {
	r := Report{Total: total}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i := 0; i < total; i++ {
		g.Go(func() error {
			_, err := src.Load(gctx, i)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				mu.Lock()
				if errors.Is(err, fs.ErrNotExist) {
					r.Missing = append(r.Missing, i)
				} else {
					r.Broken = append(r.Broken, i)
				}
				mu.Unlock()
			}
			if done != nil {
				done()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r, err
	}
	sort.Ints(r.Missing)
	sort.Ints(r.Broken)
	return r, nil
}
