package logx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deckforge/server/internal/core"
)

func TestInitLevels(t *testing.T) {
	var buf bytes.Buffer

	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	Debug().Msg("hidden")
	Info().Str("deck_id", "d1").Msg("deck generated")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"deck_id":"d1"`)

	buf.Reset()
	Init(LoggerOpts{Environment: core.Testing, Output: &buf})
	Info().Msg("quiet")
	Warn().Msg("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	Init(LoggerOpts{Environment: core.Testing})
}
