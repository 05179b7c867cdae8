package worker

import (
	"math/rand"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// ExponentialBackoff doubles the delay per attempt (2s, 4s, 8s, ...)
// up to a cap, plus up to 250ms of jitter so retries spread out.
func ExponentialBackoff(attempt int) time.Duration {
	delay := backoffCap

	// shifting past ~27 would blow through the cap anyway
	if attempt >= 0 && attempt < 27 {
		delay = backoffBase << uint(attempt)

		if delay > backoffCap {
			delay = backoffCap
		}
	}

	return delay + time.Duration(rand.Intn(250))*time.Millisecond
}
