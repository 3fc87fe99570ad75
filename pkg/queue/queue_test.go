// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func TestQueue_PopReturnsHighestPriorityFirst(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "low", "main", 1))
	q.Publish(NewJob("", "high", "main", 9))
	q.Publish(NewJob("", "mid", "main", 5))

	d1, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "high", d1.Job.RepoName)

	d2, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "mid", d2.Job.RepoName)

	d3, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "low", d3.Job.RepoName)
}

func TestQueue_SamePriorityIsFIFO(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "first", "main", 5))
	q.Publish(NewJob("", "second", "main", 5))

	d1, _ := q.TryPop()
	d2, _ := q.TryPop()
	assert.Equal(t, "first", d1.Job.RepoName)
	assert.Equal(t, "second", d2.Job.RepoName)
}

func TestQueue_AckRemovesFromInFlight(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	d, _ := q.TryPop()
	assert.Equal(t, 1, q.InFlight())
	d.Ack()
	assert.Equal(t, 0, q.InFlight())
	assert.Empty(t, q.DeadLetters())
}

func TestQueue_NackWithRequeuePutsJobBack(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	d, _ := q.TryPop()
	d.Nack(true)

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, q.InFlight())

	requeued, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "repo", requeued.Job.RepoName)
}

func TestQueue_NackWithoutRequeueDeadLetters(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	d, _ := q.TryPop()
	d.Nack(false)

	assert.Equal(t, 0, q.Len())
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "repo", dead[0].RepoName)
}

func TestQueue_TryPopOnEmptyQueueReturnsFalse(t *testing.T) {
	q := New()
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_PopBlocksUntilPublish(t *testing.T) {
	q := New()

	result := make(chan entity.IndexingJob, 1)
	go func() {
		d, ok := q.Pop()
		if ok {
			result <- d.Job
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Publish(NewJob("", "late-arrival", "main", 0))

	select {
	case job := <-result:
		assert.Equal(t, "late-arrival", job.RepoName)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Publish")
	}
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := New()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Close")
	}
}
