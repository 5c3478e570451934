package publish

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RatePacer keeps a full interval between the end of one post and the start
// of the next. Mark restarts the interval.
type RatePacer struct {
	limit   rate.Limit
	limiter *rate.Limiter
}

func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	r := &RatePacer{limit: limit}
	r.Mark()
	return r
}

func (r *RatePacer) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Mark drains the token so the next Wait blocks a whole interval from now.
func (r *RatePacer) Mark() {
	r.limiter = rate.NewLimiter(r.limit, 1)
	r.limiter.Allow()
}
