// Copyright 2025 Poiesic Systems
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


package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/folio/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails the first n calls.
func flaky(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return errors.New("badger: conflict")
		}
		return nil
	}
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		maxAttempts int
		wantErr     bool
		wantCalls   int
	}{
		{name: "first try", failures: 0, maxAttempts: 3, wantCalls: 1},
		{name: "eventual success", failures: 2, maxAttempts: 3, wantCalls: 3},
		{name: "all attempts fail", failures: 5, maxAttempts: 3, wantErr: true, wantCalls: 3},
		{name: "zero attempts", failures: 0, maxAttempts: 0, wantErr: true, wantCalls: 0},
		{name: "negative attempts", failures: 0, maxAttempts: -1, wantErr: true, wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), flaky(tt.failures, &calls), tt.maxAttempts, time.Millisecond)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoff_InvalidAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_ReturnsLastError(t *testing.T) {
	last := errors.New("disk full")
	err := RetryWithBackoff(context.Background(), func() error { return last }, 2, time.Millisecond)
	assert.Equal(t, last, err)
}

func TestRetryWithBackoff_PermanentErrors(t *testing.T) {
	for _, perm := range []error{storage.ErrStorageClosed, storage.ErrInvalidID, storage.ErrSerializationFailed} {
		t.Run(perm.Error(), func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), func() error {
				calls++
				return fmt.Errorf("save session: %w", perm)
			}, 5, time.Millisecond)
			assert.ErrorIs(t, err, perm)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetryWithBackoff_Cancellation(t *testing.T) {
	t.Run("cancelled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errors.New("error")
		}, 10, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})

	t.Run("deadline during backoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := RetryWithBackoff(ctx, func() error { return errors.New("error") }, 10, 50*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRetryWithBackoff_DelaysGrow(t *testing.T) {
	var stamps []time.Time
	err := RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 5*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	for i := 2; i < len(stamps); i++ {
		assert.Greater(t, stamps[i].Sub(stamps[i-1]), stamps[i-1].Sub(stamps[i-2]))
	}
}
