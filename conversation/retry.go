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
	"log/slog"
	"time"

	"github.com/poiesic/folio/storage"
)

// RetryWithBackoff runs operation up to maxAttempts times, doubling the pause
// after each failure starting from baseDelay. Errors that cannot clear on
// their own (a closed store, an invalid record) stop the loop at once.
// The last error is returned when every attempt fails.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	for attempt, delay := 1, baseDelay; ; attempt, delay = attempt+1, delay*2 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = operation(); err == nil {
			if attempt > 1 {
				slog.Debug("save succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if permanent(err) || attempt == maxAttempts {
			return err
		}
		slog.Debug("save failed, retrying", "attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func permanent(err error) bool {
	return errors.Is(err, storage.ErrStorageClosed) ||
		errors.Is(err, storage.ErrInvalidID) ||
		errors.Is(err, storage.ErrSerializationFailed)
}
