package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultJetStreamConfig(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	assert.Equal(t, "GEOPACKAGE_EXPORTS", cfg.StreamName)
	assert.Equal(t, "exports.geopackage.trigger", cfg.Subject)
	assert.Equal(t, -1, cfg.MaxReconnects)
}

func TestIsStreamConfigEqual(t *testing.T) {
	a := DefaultJetStreamConfig()
	b := DefaultJetStreamConfig()

	sa := streamConfigFor(a)
	sb := streamConfigFor(b)
	assert.True(t, isStreamConfigEqual(sa, sb))

	sb.MaxAge = time.Hour
	assert.False(t, isStreamConfigEqual(sa, sb))
}
