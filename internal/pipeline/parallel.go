package pipeline

import (
	"context"
	"sync"
)

// defaultMaxWorkers bounds concurrent recognitions. Each worker may hold
// a Tesseract client and a decoded page, so the cap stays low.
const defaultMaxWorkers = 4

// ParallelConfig holds configuration for parallel batch processing.
type ParallelConfig struct {
	MaxWorkers       int              // number of parallel workers (0 = defaultMaxWorkers)
	ProgressCallback ProgressCallback // optional progress reporting
}

// DefaultParallelConfig returns defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: defaultMaxWorkers}
}

type groupJob struct {
	index int
	paths []string
}

type groupResult struct {
	index  int
	result *Result
}

// ProcessFilesParallel processes independent files through the worker
// pool, one document per file, and returns results in input order.
func (p *Pipeline) ProcessFilesParallel(ctx context.Context, paths []string, config ParallelConfig) ([]*Result, error) {
	groups := make([][]string, len(paths))
	for i, path := range paths {
		groups[i] = []string{path}
	}
	return p.ProcessGroupsParallel(ctx, groups, config)
}

// ProcessGroupsParallel processes document groups through a worker pool
// and returns results in input order. A single-path group goes through
// ProcessFile, a multi-path group through ProcessGroup. Per-document
// failures live inside each record; only context cancellation returns
// an error.
func (p *Pipeline) ProcessGroupsParallel(ctx context.Context, groups [][]string, config ParallelConfig) ([]*Result, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaultMaxWorkers
	}
	if config.MaxWorkers > len(groups) {
		config.MaxWorkers = len(groups)
	}
	if config.ProgressCallback == nil {
		config.ProgressCallback = NoOpProgressCallback{}
	}

	config.ProgressCallback.OnStart(len(groups))
	defer config.ProgressCallback.OnComplete()

	jobs := make(chan groupJob, len(groups))
	results := make(chan groupResult, len(groups))

	var wg sync.WaitGroup
	for range config.MaxWorkers {
		wg.Add(1)
		go p.groupWorker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, g := range groups {
			select {
			case jobs <- groupJob{index: i, paths: g}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int]*Result)
	processed := 0
	for r := range results {
		resultMap[r.index] = r.result
		processed++
		config.ProgressCallback.OnProgress(processed, len(groups))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*Result, len(groups))
	for i := range groups {
		ordered[i] = resultMap[i]
	}
	return ordered, nil
}

func (p *Pipeline) groupWorker(ctx context.Context, jobs <-chan groupJob, results chan<- groupResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			var res *Result
			if len(job.paths) == 1 {
				res = p.ProcessFile(ctx, job.paths[0])
			} else {
				res = p.ProcessGroup(ctx, job.paths)
			}
			select {
			case results <- groupResult{index: job.index, result: res}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
