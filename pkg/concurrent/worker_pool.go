package concurrent

import (
	"sync"
)

type WorkerPool[T JobI, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

func NewWorkerPool[T JobI, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if jobQueueSize < 0 {
		jobQueueSize = 0
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[JobI, G]) worker(id int, jobFunc JobFunc[JobI, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		res := jobFunc(job)
		wp.results <- res
	}
}

func (wp *WorkerPool[JobI, G]) Start(jobFunc JobFunc[JobI, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i, jobFunc)
	}
}

// Wait blocks until every worker has drained the queue, then closes the results channel.
// Close must have been called first.
func (wp *WorkerPool[JobI, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[JobI, G]) AddJob(job JobI) {
	wp.jobQueue <- job
}

// TryAddJob enqueue tanpa blocking. false kalau queue penuh.
func (wp *WorkerPool[JobI, G]) TryAddJob(job JobI) bool {
	select {
	case wp.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (wp *WorkerPool[JobI, G]) Close() {
	wp.closeOnce.Do(func() {
		close(wp.jobQueue)
	})
}

func (wp *WorkerPool[JobI, G]) CollectResults() chan G {
	return wp.results
}
