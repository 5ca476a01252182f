package syncjob

import "time"

// NextRetry decides whether a job that just failed should be rearmed, and
// when. retryCount is the count before the rearm; the delay doubles with
// each consumed retry: 2, 4, 8 minutes for a default budget of three.
//
// Pure function of its inputs so the backoff schedule is testable without
// persistence.
func NextRetry(status Status, retryCount, maxRetries int, now time.Time) (time.Time, bool) {
	if status != StatusFailed {
		return time.Time{}, false
	}
	if retryCount >= maxRetries {
		return time.Time{}, false
	}
	delay := time.Duration(1<<(retryCount+1)) * time.Minute
	return now.Add(delay), true
}
