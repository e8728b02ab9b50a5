package network

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitMiddleware limits requests per client ip with the in-memory
// limiter store.
type RateLimitMiddleware struct {
	rate  limiter.Rate
	store limiter.Store
}

func NewRateLimitMiddleware(rate limiter.Rate, store limiter.Store) *RateLimitMiddleware {
	if store == nil {
		store = limitermemory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          "agora:limiter",
			CleanUpInterval: time.Hour,
		})
	}

	return &RateLimitMiddleware{rate: rate, store: store}
}

func (mw *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request) bool {
	if mw.rate.Limit < 0 { // NOTE nolimit
		w.Header().Add("X-RateLimit-Limit", "unlimited")

		return false
	} else if mw.rate.Limit < 1 || mw.rate.Period < 1 { // NOTE block all requests
		HTTPError(w, http.StatusTooManyRequests)

		return true
	}

	ip := limiter.GetIP(r, limiter.Options{TrustForwardHeader: true})

	rctx, err := mw.store.Get(r.Context(), ip.String(), mw.rate)
	if err != nil {
		return false
	}

	w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(rctx.Limit, 10))
	w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(rctx.Remaining, 10))
	w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(rctx.Reset, 10))

	if rctx.Reached {
		stdlib.DefaultLimitReachedHandler(w, r)

		return true
	}

	return false
}

func (mw *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.limit(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}
