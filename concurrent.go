package thailint

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Job represents a file queued for analysis
type Job struct {
	Path string
}

// Result carries the violations found in a single file
type Result struct {
	Path       string
	Violations []Violation
}

// LintStats tracks performance metrics for a lint run
type LintStats struct {
	filesProcessed atomic.Uint64
	totalFiles     atomic.Uint64
	startTime      time.Time
	endTime        time.Time
}

func (s *LintStats) begin() {
	s.filesProcessed.Store(0)
	s.totalFiles.Store(0)
	s.startTime = time.Now()
	s.endTime = time.Time{}
}

func (s *LintStats) setTotal(n int) {
	s.totalFiles.Store(uint64(n))
}

func (s *LintStats) end() {
	s.endTime = time.Now()
}

// FilesProcessed returns the number of files analyzed so far
func (s *LintStats) FilesProcessed() int {
	return int(s.filesProcessed.Load())
}

// TotalFiles returns the number of files selected for the run
func (s *LintStats) TotalFiles() int {
	return int(s.totalFiles.Load())
}

// Duration returns the time taken for the last lint operation
func (s *LintStats) Duration() time.Duration {
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}

// FilesPerSecond returns the processing rate
func (s *LintStats) FilesPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.filesProcessed.Load()) / duration
}

// ProgressReporter interface for progress updates
type ProgressReporter interface {
	StartFile(path string)
	CompleteFile(path string, violations int)
	UpdateProgress(current, total int)
	Complete(stats *LintStats)
}

// NoOpProgressReporter is a no-op implementation
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) StartFile(path string)                    {}
func (n *NoOpProgressReporter) CompleteFile(path string, violations int) {}
func (n *NoOpProgressReporter) UpdateProgress(current, total int)        {}
func (n *NoOpProgressReporter) Complete(stats *LintStats)                {}

// Option is a functional option for Linter construction
type Option func(*Linter) error

// WithWorkerCount sets the number of worker goroutines
func WithWorkerCount(count int) Option {
	return func(l *Linter) error {
		if count < 1 {
			return fmt.Errorf("worker count must be at least 1, got %d", count)
		}
		l.workerCount = count
		return nil
	}
}

// WithBufferSize sets the job buffer size
func WithBufferSize(size int) Option {
	return func(l *Linter) error {
		if size < 1 {
			return fmt.Errorf("buffer size must be at least 1, got %d", size)
		}
		l.bufferSize = size
		return nil
	}
}

// WithProgressReporter sets a progress reporter
func WithProgressReporter(reporter ProgressReporter) Option {
	return func(l *Linter) error {
		l.progress = reporter
		return nil
	}
}

// Stats returns the metrics of the most recent lint run.
func (l *Linter) Stats() *LintStats {
	return l.stats
}

// runParallel dispatches the check phase across a worker pool. Workers
// only read shared state except for the stateful-rule accumulators,
// which guard their own entries. Results are merged by a single
// collector goroutine.
func (l *Linter) runParallel(ctx context.Context, files []string, requested map[string]bool) (*LintViolations, error) {
	jobs := make(chan Job, l.bufferSize)
	results := make(chan Result, l.bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < l.workerCount; i++ {
		wg.Add(1)
		go l.worker(ctx, &wg, jobs, results, requested)
	}

	violations := NewLintViolations()
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for result := range results {
			violations.AddAll(result.Violations)
		}
	}()

	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- Job{Path: file}:
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return violations, nil
}

// worker processes jobs from the job channel
func (l *Linter) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result, requested map[string]bool) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.progress.StartFile(job.Path)
		violations := l.lintFile(ctx, job.Path, requested)

		l.progress.CompleteFile(job.Path, len(violations))
		l.stats.filesProcessed.Add(1)
		l.progress.UpdateProgress(int(l.stats.filesProcessed.Load()), int(l.stats.totalFiles.Load()))

		results <- Result{Path: job.Path, Violations: violations}
	}
}
