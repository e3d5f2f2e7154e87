package mailer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsThrottleError(t *testing.T) {
	throttled := []string{
		"450 rate limit exceeded",
		"too many messages in a short time",
		"server is throttling connections",
		"421 service not available",
		"4.7.0 temporary deferral",
		"daily quota exceeded",
		"Rate-Limit reached",
	}
	for _, msg := range throttled {
		assert.True(t, IsThrottleError(errors.New(msg)), msg)
	}

	clean := []string{
		"connection refused",
		"550 mailbox unavailable",
		"tls handshake failure",
	}
	for _, msg := range clean {
		assert.False(t, IsThrottleError(errors.New(msg)), msg)
	}

	assert.False(t, IsThrottleError(nil))
}
