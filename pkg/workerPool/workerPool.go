// Package workerpool is a small shared pool of goroutines with per-call
// result collection. Callers open a Room, submit tasks into the global queue
// and collect the results of their own room without seeing anyone else's.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
)

type WorkerPool struct {
	config    Config
	taskQueue chan task
}

type Config struct {
	WorkerCount  int
	GlobalBuffer int
}

// Room collects the results of one batch of tasks.
type Room struct {
	resultChan chan interface{}
	wg         sync.WaitGroup
	wp         *WorkerPool
}

type task struct {
	run  func() interface{}
	room *Room
}

func NewWorkerPool(config Config) *WorkerPool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU()
	}
	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = 10000
	}

	wp := &WorkerPool{
		config:    config,
		taskQueue: make(chan task, config.GlobalBuffer),
	}

	for i := 0; i < config.WorkerCount; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	for t := range wp.taskQueue {
		t.room.resultChan <- t.run()
		t.room.wg.Done()
	}
}

// Close stops the workers once all queued tasks have drained.
func (wp *WorkerPool) Close() {
	close(wp.taskQueue)
}

func (wp *WorkerPool) CreateRoom(size int) *Room {
	if size < 1 {
		size = 1
	}
	return &Room{
		resultChan: make(chan interface{}, size),
		wp:         wp,
	}
}

// NewTaskWaitForFreeSlot submits job, blocking while the global queue is full.
func (ro *Room) NewTaskWaitForFreeSlot(job func() interface{}) {
	ro.wg.Add(1)
	ro.wp.taskQueue <- task{run: job, room: ro}
}

// NewTask submits job without blocking; it fails when the global queue has no
// free slot.
func (ro *Room) NewTask(job func() interface{}) error {
	if len(ro.wp.taskQueue) == cap(ro.wp.taskQueue) {
		return fmt.Errorf("global task buffer is full")
	}
	ro.NewTaskWaitForFreeSlot(job)
	return nil
}

// Collect waits for every submitted task of this room and returns their
// results. The room cannot be reused afterwards.
func (ro *Room) Collect() []interface{} {
	go func() {
		ro.wg.Wait()
		close(ro.resultChan)
	}()

	results := make([]interface{}, 0)
	for result := range ro.resultChan {
		results = append(results, result)
	}
	return results
}
