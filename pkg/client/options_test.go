package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 3 * time.Second}
	c, err := NewClient("http://registry.example.com", WithHTTPClient(custom))
	require.NoError(t, err)
	assert.Equal(t, custom, c.httpClient)

	c, err = NewClient("http://registry.example.com", WithHTTPClient(nil))
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
}

func TestWithLogger(t *testing.T) {
	logger := &testLogger{}
	c, err := NewClient("http://registry.example.com", WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, logger, c.logger)

	c, err = NewClient("http://registry.example.com", WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, c.logger)
}

func TestWithRetryMax(t *testing.T) {
	c, err := NewClient("http://registry.example.com", WithRetryMax(0))
	require.NoError(t, err)
	assert.Equal(t, 0, c.retryMax)

	c, err = NewClient("http://registry.example.com", WithRetryMax(-1))
	require.NoError(t, err)
	assert.Equal(t, 3, c.retryMax)
}

func TestWithRetryWait(t *testing.T) {
	c, err := NewClient("http://registry.example.com",
		WithRetryWait(250*time.Millisecond, 2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 2*time.Second, c.retryWaitMax)

	// A max below the min is ignored, the min still applies.
	c, err = NewClient("http://registry.example.com",
		WithRetryWait(250*time.Millisecond, 100*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)

	c, err = NewClient("http://registry.example.com",
		WithRetryWait(0, time.Second))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, c.retryWaitMin)
}

func TestWithUserAgent(t *testing.T) {
	c, err := NewClient("http://registry.example.com", WithUserAgent("conformance-suite/2.1"))
	require.NoError(t, err)
	assert.Equal(t, "conformance-suite/2.1", c.userAgent)

	c, err = NewClient("http://registry.example.com", WithUserAgent(""))
	require.NoError(t, err)
	assert.Contains(t, c.userAgent, "fcmreg-go-sdk/")
}
