// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"context"
	"log/slog"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Handler processes one job, returning true on success. A false return
// sends the job to the dead-letter queue without retry - the handler is
// telling us this exact job can never succeed (e.g. the repo doesn't
// exist). A returned error instead requeues the job for another attempt,
// since errors here are assumed transient (network blip, disk full).
type Handler func(ctx context.Context, job entity.IndexingJob) (bool, error)

// Worker pulls jobs off a Queue one at a time and dispatches them to a
// Handler, mirroring the publish/ack/reject-with-or-without-requeue
// contract an AMQP consumer would use against a durable, priority,
// dead-letter-backed queue.
type Worker struct {
	queue   *Queue
	handler Handler
	logger  *slog.Logger
}

// NewWorker constructs a Worker over queue, dispatching to handler.
func NewWorker(q *Queue, handler Handler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: q, handler: handler, logger: logger}
}

// Run consumes jobs until ctx is canceled or the queue is closed and
// drained.
func (w *Worker) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		w.queue.Close()
		close(done)
	}()

	for {
		delivery, ok := w.queue.Pop()
		if !ok {
			select {
			case <-done:
			default:
			}
			return
		}
		w.process(ctx, delivery)
	}
}

// RunOnce processes a single queued job and returns true, or returns
// false immediately if the queue is empty.
func (w *Worker) RunOnce(ctx context.Context) bool {
	delivery, ok := w.queue.TryPop()
	if !ok {
		return false
	}
	w.process(ctx, delivery)
	return true
}

func (w *Worker) process(ctx context.Context, d Delivery) {
	w.logger.Info("queue.job_started", "job_id", d.Job.ID, "repo", d.Job.RepoName)

	success, err := w.handler(ctx, d.Job)
	switch {
	case err != nil:
		w.logger.Warn("queue.job_error_requeue", "job_id", d.Job.ID, "err", err)
		d.Nack(true)
	case !success:
		w.logger.Warn("queue.job_failed_dead_letter", "job_id", d.Job.ID)
		d.Nack(false)
	default:
		w.logger.Info("queue.job_completed", "job_id", d.Job.ID)
		d.Ack()
	}
}
