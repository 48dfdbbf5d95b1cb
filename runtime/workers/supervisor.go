// Package workers contains the supervised background units of the gateway:
// the moderation stage, the fan-out notifier, and the health reporter.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sup-gateway/contract"
	"sup-gateway/errors"
)

const waitTimeBeforeRestart = 200 * time.Millisecond

// Supervisor runs each worker in its own goroutine, recovers panics,
// restarts crashed workers, and shuts everything down when the parent
// context is canceled. A failure in one worker never stops the others.
type Supervisor struct {
	Cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	workers []contract.Worker
}

var _ contract.ISupervisor = (*Supervisor)(nil)

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts every registered worker and blocks until all of them finish.
// A local cancellation trigger is tied to the parent context: if the parent
// cancels, children cancel; if Stop is called, only children cancel.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start runs one worker under supervision. If its Run method panics, the
// supervisor recovers and restarts it after a short delay; a clean return
// ends supervision of that worker for good.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				// Terminated properly, never restart.
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(waitTimeBeforeRestart):
			}
		}
	}()
}

// Stop cancels all supervised workers; Run returns once they finish.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
