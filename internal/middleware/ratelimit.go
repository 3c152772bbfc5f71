package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
)

const (
	// DefaultAuthRate limits login and registration attempts per client IP
	DefaultAuthRate = "10-M"

	rateLimitPrefix = "boozedel_limiter"
)

// RateLimit returns ulule/limiter middleware keyed on the client IP without its port.
// Forwarded headers are only used for the key when trustProxy is set.
// Counters live in Redis when redisClient is set, otherwise in process memory.
// rateStr uses the limiter format, e.g. "10-M" or "5-S".
func RateLimit(rateStr string, trustProxy bool, redisClient *redis.Client, errh *ErrorHandler) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultAuthRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rateStr, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(trustProxy))
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(instance.GetIPKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			errh.Write(w, r, apperror.New(http.StatusTooManyRequests, "Too many requests, please try again later"))
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			errh.Write(w, r, apperror.Internal(fmt.Errorf("rate limiter: %w", err)))
		}),
	)
	return mw.Handler, nil
}
