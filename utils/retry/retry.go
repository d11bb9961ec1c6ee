/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package retry

import (
	"context"
	"time"
)

const (
	DefaultRetryDelay    = 300 * time.Millisecond
	DefaultRetryMaxDelay = 5 * time.Second
	DefaultMultiplier    = 2.0
)

// Policy decides, after the attempt-th failure (1-based), whether to try again and how long to wait
type Policy interface {
	Next(attempt int, err error) (time.Duration, bool)
}

type ShouldRetry func(error) bool

// None never retries, a failed call is final
type None struct{}

func (None) Next(int, error) (time.Duration, bool) {
	return 0, false
}

// Backoff retries up to MaxRetries times with exponential delay capped at MaxDelay
type Backoff struct {
	MaxRetries  int           // Maximum number of retries
	Delay       time.Duration // The delay before the first retry
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry ShouldRetry // nil retries every error
}

func (b *Backoff) Next(attempt int, err error) (time.Duration, bool) {
	if attempt > b.MaxRetries {
		return 0, false
	}
	if b.ShouldRetry != nil && !b.ShouldRetry(err) {
		return 0, false
	}
	delay := b.Delay
	mul := b.Multiplier
	if mul < 1 {
		mul = 1
	}
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * mul)
		if b.MaxDelay > 0 && delay >= b.MaxDelay {
			return b.MaxDelay, true
		}
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	return delay, true
}

// NewPolicy returns None when maxRetries is not positive
func NewPolicy(maxRetries int, delay, maxDelay time.Duration, shouldRetry ShouldRetry) Policy {
	if maxRetries <= 0 {
		return None{}
	}
	return &Backoff{
		MaxRetries:  maxRetries,
		Delay:       delay,
		MaxDelay:    maxDelay,
		Multiplier:  DefaultMultiplier,
		ShouldRetry: shouldRetry,
	}
}

// Do calls fn until it succeeds, the policy gives up or ctx is done.
// It returns the number of retries performed and the last error.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) (int, error) {
	if policy == nil {
		policy = None{}
	}
	var attempts int
	for {
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		delay, ok := policy.Next(attempts+1, err)
		if !ok {
			return attempts, err
		}
		attempts++
		if delay <= 0 {
			if ctx.Err() != nil {
				return attempts, err
			}
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, err
		case <-timer.C:
		}
	}
}
