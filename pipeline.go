package steganos

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type job func(path, output string) (string, error)

func feedPaths(ctx context.Context, paths []string) <-chan int {
	out := make(chan int)
	go func() {
		defer close(out)
		for i := range paths {
			select {
			case out <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Steganos) worker(ctx context.Context, fn job, paths, results []string, in <-chan int) error {
	for i := range in {
		select {
		case <-ctx.Done():
			return errors.New("batch cancelled")
		default:
		}

		out, err := fn(paths[i], "")
		if err != nil {
			return err
		}
		results[i] = out
	}
	return nil
}

func (s *Steganos) runAll(fn job, paths []string, workers int) ([]string, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]string, len(paths))

	g, ctx := errgroup.WithContext(context.Background())
	in := feedPaths(ctx, paths)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return s.worker(ctx, fn, paths, results, in)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EncodeAll encodes every path using up to workers goroutines, or one per
// CPU if workers is less than one. Outputs use the default naming and are
// returned in the same order as paths. The first failure stops the batch.
func (s *Steganos) EncodeAll(paths []string, workers int) ([]string, error) {
	return s.runAll(s.Encode, paths, workers)
}

// DecodeAll is the decoding counterpart of EncodeAll.
func (s *Steganos) DecodeAll(paths []string, workers int) ([]string, error) {
	return s.runAll(s.Decode, paths, workers)
}
