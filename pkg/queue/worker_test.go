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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func TestWorker_RunOnce_SuccessAcks(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	w := NewWorker(q, func(ctx context.Context, job entity.IndexingJob) (bool, error) {
		return true, nil
	}, nil)

	processed := w.RunOnce(context.Background())
	require.True(t, processed)
	assert.Equal(t, 0, q.InFlight())
	assert.Empty(t, q.DeadLetters())
}

func TestWorker_RunOnce_HandlerFalseDeadLetters(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	w := NewWorker(q, func(ctx context.Context, job entity.IndexingJob) (bool, error) {
		return false, nil
	}, nil)

	w.RunOnce(context.Background())
	assert.Len(t, q.DeadLetters(), 1)
}

func TestWorker_RunOnce_HandlerErrorRequeues(t *testing.T) {
	q := New()
	q.Publish(NewJob("", "repo", "main", 0))

	attempts := 0
	w := NewWorker(q, func(ctx context.Context, job entity.IndexingJob) (bool, error) {
		attempts++
		if attempts == 1 {
			return false, errors.New("transient failure")
		}
		return true, nil
	}, nil)

	w.RunOnce(context.Background())
	assert.Equal(t, 1, q.Len())
	assert.Empty(t, q.DeadLetters())

	w.RunOnce(context.Background())
	assert.Equal(t, 2, attempts)
	assert.Empty(t, q.DeadLetters())
}

func TestWorker_RunOnce_EmptyQueueReturnsFalse(t *testing.T) {
	q := New()
	w := NewWorker(q, func(ctx context.Context, job entity.IndexingJob) (bool, error) {
		return true, nil
	}, nil)

	assert.False(t, w.RunOnce(context.Background()))
}
