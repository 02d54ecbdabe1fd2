package engine

import "time"

// Poll intervals by remaining time. Polling concentrates near the auction
// close, when price and bid changes are frequent, while bounding request
// volume over long-lived listings.
const (
	intervalClosing = 2 * time.Minute  // under an hour left
	intervalNear    = 5 * time.Minute  // under eight hours
	intervalMid     = 15 * time.Minute // under three days
	intervalFar     = 30 * time.Minute // everything else, and unknown deadlines
)

// NextInterval maps a listing deadline to a poll interval. The boolean is
// false when the deadline has already passed, signaling that the listing
// needs exactly one final check before transitioning to ended.
//
// Buckets are half-open on the remaining duration: [0,1h) polls every
// 2 minutes, [1h,8h) every 5, [8h,3d) every 15, [3d,inf) every 30. A nil
// deadline is treated conservatively and polls every 30 minutes.
func NextInterval(endTime *int64, now time.Time) (time.Duration, bool) {
	if endTime == nil {
		return intervalFar, true
	}

	remaining := time.UnixMilli(*endTime).Sub(now)
	if remaining <= 0 {
		return 0, false
	}

	switch {
	case remaining < time.Hour:
		return intervalClosing, true
	case remaining < 8*time.Hour:
		return intervalNear, true
	case remaining < 72*time.Hour:
		return intervalMid, true
	default:
		return intervalFar, true
	}
}
