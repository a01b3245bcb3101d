package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/dokibot/club-assistant/app/notify"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler fires a CheckUpdatesTask on a fixed interval. A single worker
// drains the queue, so cycles are serialized by construction; when a cycle
// outlasts the interval the next tick is dropped rather than queued up.
type Scheduler struct {
	pipeline  *notify.Pipeline
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(pipeline *notify.Pipeline, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		pipeline:  pipeline,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueCycle()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueCycle() {
	task := NewCheckUpdatesTask(s.pipeline)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Skipping check tick", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
