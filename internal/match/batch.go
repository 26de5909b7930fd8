package match

import (
	"context"
	"sync"

	"github.com/desertthunder/spoteemix/internal/models"
)

const (
	DefaultWorkers = 8
	MaxWorkers     = 32
)

// Report is the outcome of a batch, in input order.
type Report struct {
	Results  []Result
	Matches  []Result
	NotFound []models.ReferenceTrack
}

// Total is the number of reference tracks in the batch.
func (r *Report) Total() int { return len(r.Results) }

// BatchOpts configures a [Batch].
type BatchOpts struct {
	Workers int
	// OnResult is called from a single goroutine after each track resolves.
	OnResult func(done, total int, r Result)
}

// Batch resolves many reference tracks concurrently with one [Ladder].
type Batch struct {
	ladder   *Ladder
	workers  int
	onResult func(done, total int, r Result)
}

func NewBatch(l *Ladder, opts BatchOpts) *Batch {
	workers := opts.Workers
	switch {
	case workers <= 0:
		workers = DefaultWorkers
	case workers > MaxWorkers:
		workers = MaxWorkers
	}
	return &Batch{ladder: l, workers: workers, onResult: opts.OnResult}
}

type batchJob struct {
	index int
	ref   models.ReferenceTrack
}

type batchResult struct {
	index int
	res   Result
}

// Resolve runs the ladder for every reference track.
//
// The report always has one result per input. When ctx is cancelled, tracks that were not
// processed are reported as not found and ctx.Err() is returned alongside the partial report.
func (b *Batch) Resolve(ctx context.Context, refs []models.ReferenceTrack, pref models.Format) (*Report, error) {
	results := make([]Result, len(refs))
	for i, ref := range refs {
		results[i] = Result{Reference: ref}
	}

	jobs := make(chan batchJob)
	out := make(chan batchResult)

	workers := min(b.workers, max(len(refs), 1))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				out <- batchResult{index: job.index, res: b.ladder.Resolve(ctx, job.ref, pref)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, ref := range refs {
			select {
			case <-ctx.Done():
				return
			case jobs <- batchJob{index: i, ref: ref}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	done := 0
	for r := range out {
		results[r.index] = r.res
		done++
		if b.onResult != nil {
			b.onResult(done, len(refs), r.res)
		}
	}

	report := &Report{Results: results}
	for _, r := range results {
		if r.Found() {
			report.Matches = append(report.Matches, r)
		} else {
			report.NotFound = append(report.NotFound, r.Reference)
		}
	}
	return report, ctx.Err()
}
