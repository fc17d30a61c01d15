package observers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/deckforge/server/internal/core"
	logx "github.com/deckforge/server/pkg/logger"
)

func TestModelHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { logx.Init(logx.LoggerOpts{Environment: core.Testing}) })

	h := newModelHandler()
	info := &einocb.RunInfo{Name: "SlideWriter"}
	ctx := context.Background()

	h.OnStart(ctx, info, &model.CallbackInput{Messages: []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("make a slide"),
	}})
	h.OnError(ctx, info, errors.New("boom"))

	// debug lines are filtered in production, warnings are not
	assert.NotContains(t, buf.String(), "make a slide")
	assert.Contains(t, buf.String(), `"name":"SlideWriter"`)
	assert.Contains(t, buf.String(), "boom")
}

func TestShorten(t *testing.T) {
	long := bytes.Repeat([]byte("x"), maxLoggedContent+10)
	assert.Len(t, shorten(string(long)), maxLoggedContent+3)
	assert.Equal(t, "ok", shorten("  ok "))
}

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{schema.UserMessage("first"), nil, schema.AssistantMessage("a", nil), schema.UserMessage(" last ")}
	assert.Equal(t, "last", lastUserContent(msgs))
	assert.Empty(t, lastUserContent(nil))
}

func TestNewAllCallbacks(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks())
}
