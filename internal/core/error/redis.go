package errx

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// RedisTimeoutMessage describes a Redis call that ran out of time.
const RedisTimeoutMessage = "redis operation timed out"

// WrapRedis maps a Redis failure to a status: a missing key is a 404, a
// timeout a 504 and anything else a 502.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return New(err, http.StatusGatewayTimeout, RedisTimeoutMessage)
	}

	return New(err, http.StatusBadGateway, RedisErrorMessage)
}
