package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/metrics"
)

// LLMClient is the completion oracle.
type LLMClient interface {
	Chat(ctx context.Context, in domain.CompletionRequest) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// complete sends one request to the oracle and records its outcome under
// operation.
func complete(ctx context.Context, llm LLMClient, operation string, req domain.CompletionRequest) (string, error) {
	start := time.Now()
	out, err := llm.Chat(ctx, req)
	metrics.OracleDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			outcome = "rate_limited"
		}
	}
	metrics.OracleRequests.WithLabelValues(operation, outcome).Inc()
	return out, err
}

func oracleError(reason string, err error) *Error {
	if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
		return newError(ErrorRateLimited, reason+"_rate_limited", err)
	}
	return newError(ErrorUpstream, reason, err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
