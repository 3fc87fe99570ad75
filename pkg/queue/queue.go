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

// Package queue implements an in-process priority job queue for indexing
// jobs: at-least-once delivery, ack/nack semantics, and a dead-letter
// queue for jobs a handler rejects outright or that a malformed payload
// can never satisfy.
package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Delivery wraps a Job with the handle needed to ack or nack it.
type Delivery struct {
	Job entity.IndexingJob

	queue *Queue
	id    uint64
}

// Ack confirms the job was processed successfully; it will not be
// redelivered.
func (d Delivery) Ack() {
	d.queue.ack(d.id)
}

// Nack rejects the job. requeue=true puts it back on the queue for
// another attempt (transient failure); requeue=false sends it straight
// to the dead-letter queue (the job itself can never succeed).
func (d Delivery) Nack(requeue bool) {
	d.queue.nack(d.id, requeue)
}

// entry is one queued job plus its priority-queue bookkeeping.
type entry struct {
	id       uint64
	job      entity.IndexingJob
	priority int
	index    int // heap.Interface bookkeeping
}

// priorityHeap orders entries highest-priority-first, ties broken by
// insertion order (lower id first) for FIFO-within-priority delivery.
type priorityHeap []*entry

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].id < h[j].id
}
func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *priorityHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is an in-process, priority-ordered job queue with at-least-once
// delivery: a job popped via Pop stays "in flight" until Ack'd or
// Nack'd. Jobs Nack'd without requeue, or whose payload can never be
// processed, land in DeadLetters.
type Queue struct {
	mu         sync.Mutex
	cond       *sync.Cond
	heap       priorityHeap
	inFlight   map[uint64]*entry
	deadLetter []entity.IndexingJob
	nextID     uint64
	closed     bool
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{inFlight: make(map[uint64]*entry)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Publish enqueues a job. Higher Priority values are delivered first.
func (q *Queue) Publish(job entity.IndexingJob) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	e := &entry{id: q.nextID, job: job, priority: job.Priority}
	heap.Push(&q.heap, e)
	q.cond.Signal()
}

// Pop blocks until a job is available (or the queue is closed), then
// returns it as a Delivery awaiting Ack/Nack. Returns ok=false once the
// queue is closed and drained.
func (q *Queue) Pop() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return Delivery{}, false
	}

	e := heap.Pop(&q.heap).(*entry)
	q.inFlight[e.id] = e
	return Delivery{Job: e.job, queue: q, id: e.id}, true
}

// TryPop returns immediately with ok=false if nothing is queued, rather
// than blocking, used by run-to-completion/batch-drain callers.
func (q *Queue) TryPop() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return Delivery{}, false
	}
	e := heap.Pop(&q.heap).(*entry)
	q.inFlight[e.id] = e
	return Delivery{Job: e.job, queue: q, id: e.id}, true
}

func (q *Queue) ack(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, id)
}

func (q *Queue) nack(id uint64, requeue bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.inFlight[id]
	delete(q.inFlight, id)
	if !ok {
		return
	}

	if requeue {
		heap.Push(&q.heap, e)
		q.cond.Signal()
		return
	}
	q.deadLetter = append(q.deadLetter, e.job)
}

// DeadLetters returns a snapshot of every job sent to the dead-letter
// queue so far.
func (q *Queue) DeadLetters() []entity.IndexingJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.IndexingJob, len(q.deadLetter))
	copy(out, q.deadLetter)
	return out
}

// Len reports the number of jobs currently queued (not counting
// in-flight deliveries awaiting ack/nack).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// InFlight reports the number of deliveries awaiting Ack/Nack.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Close marks the queue closed and wakes every goroutine parked in Pop.
// Pop keeps delivering queued jobs and returns ok=false once the queue is
// empty. Publish does not check the closed flag, so a job published after
// Close is still queued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// NewJob builds an IndexingJob with a fresh ID and CreatedAt timestamp.
func NewJob(repoURL, repoName, branch string, priority int) entity.IndexingJob {
	return entity.IndexingJob{
		ID:        entity.NewJobID(),
		RepoURL:   repoURL,
		RepoName:  repoName,
		Branch:    branch,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
}
