package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/deckforge/server/internal/core"
	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline/nodes"
	logx "github.com/deckforge/server/pkg/logger"
)

func TestMain(m *testing.M) {
	logx.Init(logx.LoggerOpts{Environment: core.Testing})
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stage int

const (
	stageOutline stage = iota
	stageSlide
	stageVisuals
)

// fakeChatModel answers by stage, recognised from the system prompt.
type fakeChatModel struct {
	mu      sync.Mutex
	calls   map[stage]int
	respond func(ctx context.Context, st stage, user string) (string, error)
}

var _ einomodel.BaseChatModel = (*fakeChatModel)(nil)

func newFake(respond func(ctx context.Context, st stage, user string) (string, error)) *fakeChatModel {
	return &fakeChatModel{calls: map[stage]int{}, respond: respond}
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	st := stageOf(input)
	f.mu.Lock()
	f.calls[st]++
	f.mu.Unlock()

	content, err := f.respond(ctx, st, input[len(input)-1].Content)
	if err != nil {
		return nil, err
	}
	msg := schema.AssistantMessage(content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}}
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) count(st stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[st]
}

func stageOf(msgs []*schema.Message) stage {
	sys := msgs[0].Content
	switch {
	case strings.Contains(sys, "presentation architect"):
		return stageOutline
	case strings.Contains(sys, "art director"):
		return stageVisuals
	default:
		return stageSlide
	}
}

var slideLineRe = regexp.MustCompile(`Slide (\d+) of \d+: (.+)`)

func outlineJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title": "Section %d", "key_points": ["point %d"], "layout": "bullets"}`, i+1, i+1)
	}
	return fmt.Sprintf(`{"title": "Solar Deck", "subtitle": "Sunny", "slides": [%s]}`, strings.Join(items, ","))
}

func slideJSON(user string) string {
	m := slideLineRe.FindStringSubmatch(user)
	return fmt.Sprintf("```json\n{\"title\": %q, \"bullets\": [\"first about %s\", \"second\"], \"speaker_notes\": \"say it\"}\n```", m[2], m[1])
}

func visualsJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"index": %d, "prompt": "picture %d"}`, i+1, i+1)
	}
	return "[" + strings.Join(items, ",") + "]"
}

// happy answers every stage well for a deck of n slides.
func happy(n int) func(context.Context, stage, string) (string, error) {
	return func(_ context.Context, st stage, user string) (string, error) {
		switch st {
		case stageOutline:
			return outlineJSON(n), nil
		case stageSlide:
			return slideJSON(user), nil
		default:
			return visualsJSON(n), nil
		}
	}
}

func testConfig() model.PipelineConfig {
	cfg := model.DefaultPipelineConfig()
	cfg.OutlineTimeout = time.Second
	cfg.SlideTimeout = time.Second
	cfg.VisualTimeout = time.Second
	cfg.MaxAttempts = 1
	return cfg
}

func newRunner(t *testing.T, fake *fakeChatModel, cfg model.PipelineConfig) Runner {
	t.Helper()
	r, err := BuildPipeline(context.Background(), Config{
		Pipeline:  cfg,
		ChatModel: &nodes.ChatModel{Model: fake, ModelName: "gemini-2.5-flash", Provider: model.ProviderGemini},
	})
	require.NoError(t, err)
	return r
}

func assertDeckShape(t *testing.T, deck *model.Deck, n int, visuals bool) {
	t.Helper()
	require.Len(t, deck.Slides, n)
	for i, s := range deck.Slides {
		assert.Equal(t, i+1, s.Index)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Bullets)
		assert.LessOrEqual(t, len(s.Bullets), testConfig().MaxBullets)
		if visuals {
			assert.NotEmpty(t, s.VisualPrompt, "slide %d", s.Index)
		} else {
			assert.Empty(t, s.VisualPrompt, "slide %d", s.Index)
		}
	}
}

func TestGenerateHappyPath(t *testing.T) {
	fake := newFake(happy(3))
	r := newRunner(t, fake, testConfig())

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar power", SlideCount: 3, Theme: "Midnight"})
	require.NoError(t, err)

	assertDeckShape(t, deck, 3, true)
	assert.NotEmpty(t, deck.ID)
	assert.Equal(t, "Solar Deck", deck.Title)
	assert.Equal(t, "Sunny", deck.Subtitle)
	assert.Equal(t, "midnight", deck.Theme)
	assert.Equal(t, "Section 2", deck.Slides[1].Title)
	assert.Equal(t, []string{"first about 2", "second"}, deck.Slides[1].Bullets)
	assert.Equal(t, "say it", deck.Slides[1].SpeakerNotes)
	assert.Equal(t, "picture 3", deck.Slides[2].VisualPrompt)
	assert.Equal(t, model.SourceModel, deck.Slides[0].Source)

	assert.Empty(t, deck.Meta.Fallbacks)
	assert.Equal(t, 3, deck.Meta.RequestedSlides)
	assert.Equal(t, model.Usage{Calls: 5, PromptTokens: 500, CompletionTokens: 250, TotalTokens: 750}, deck.Meta.Usage)
	assert.Greater(t, deck.Meta.CostUSD, 0.0)
	assert.Equal(t, "gemini-2.5-flash", deck.Meta.Model)

	assert.Equal(t, 1, fake.count(stageOutline))
	assert.Equal(t, 3, fake.count(stageSlide))
	assert.Equal(t, 1, fake.count(stageVisuals))
}

func TestGenerateReconcilesCounts(t *testing.T) {
	fake := newFake(func(_ context.Context, st stage, user string) (string, error) {
		switch st {
		case stageOutline:
			return outlineJSON(6), nil
		case stageSlide:
			return slideJSON(user), nil
		default:
			return `[{"index": 2, "prompt": "only two"}, {"index": 2, "prompt": "again"}, {"index": 40, "prompt": "nope"}]`, nil
		}
	})
	r := newRunner(t, fake, testConfig())

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar", SlideCount: 4})
	require.NoError(t, err)

	assertDeckShape(t, deck, 4, true)
	assert.Equal(t, "only two", deck.Slides[1].VisualPrompt)
	assert.Equal(t, []string{"visual:1", "visual:3", "visual:4"}, deck.Meta.Fallbacks)
	assert.Equal(t, 4, fake.count(stageSlide))
}

func TestGenerateSlideTimeoutFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.SlideTimeout = 50 * time.Millisecond
	cfg.MaxAttempts = 2

	base := happy(3)
	fake := newFake(func(ctx context.Context, st stage, user string) (string, error) {
		if st == stageSlide && strings.Contains(user, "Slide 2 of") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return base(ctx, st, user)
	})
	r := newRunner(t, fake, cfg)

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar", SlideCount: 3})
	require.NoError(t, err)

	assertDeckShape(t, deck, 3, true)
	assert.Equal(t, []string{"slide:2"}, deck.Meta.Fallbacks)
	assert.Equal(t, model.SourceFallback, deck.Slides[1].Source)
	assert.Equal(t, "Section 2", deck.Slides[1].Title)
	assert.Equal(t, []string{"point 2"}, deck.Slides[1].Bullets)
	assert.Equal(t, 4, fake.count(stageSlide), "two attempts for the slow slide")
}

func TestGenerateUnparseableOutlineFallsBack(t *testing.T) {
	base := happy(0)
	fake := newFake(func(ctx context.Context, st stage, user string) (string, error) {
		switch st {
		case stageOutline:
			return "Sorry, I can't produce JSON today.", nil
		case stageVisuals:
			return "", errors.New("upstream 500")
		}
		return base(ctx, st, user)
	})
	r := newRunner(t, fake, testConfig())

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar power", SlideCount: 4})
	require.NoError(t, err)

	assertDeckShape(t, deck, 4, true)
	assert.Equal(t, []string{"outline", "visuals"}, deck.Meta.Fallbacks)
	assert.Equal(t, "Solar power", deck.Title)
	assert.Equal(t, "Solar power", deck.Slides[0].Title)
	assert.Equal(t, "Summary", deck.Slides[3].Title)
}

func TestGenerateSkipVisuals(t *testing.T) {
	fake := newFake(happy(2))
	r := newRunner(t, fake, testConfig())

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar", SlideCount: 2, SkipVisuals: true})
	require.NoError(t, err)

	assertDeckShape(t, deck, 2, false)
	assert.Zero(t, fake.count(stageVisuals))
}

func TestGenerateWithUserOutline(t *testing.T) {
	fake := newFake(happy(0))
	r := newRunner(t, fake, testConfig())

	deck, err := r.Generate(context.Background(), model.GenerateRequest{
		Topic:      "Onboarding",
		SlideCount: 3,
		Outline:    []model.OutlineItem{{Title: "Welcome"}, {Title: "Tools"}, {Title: "Team"}, {Title: "Dropped"}},
	})
	require.NoError(t, err)

	assertDeckShape(t, deck, 3, true)
	assert.Zero(t, fake.count(stageOutline))
	assert.Equal(t, []string{"Welcome", "Tools", "Team"}, []string{deck.Slides[0].Title, deck.Slides[1].Title, deck.Slides[2].Title})
	assert.Equal(t, "Onboarding", deck.Title)
}

func TestGenerateConcurrentSlides(t *testing.T) {
	cfg := testConfig()
	cfg.SlideConcurrency = 4

	var inFlight, peak atomic.Int32
	base := happy(8)
	fake := newFake(func(ctx context.Context, st stage, user string) (string, error) {
		if st == stageSlide {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
		return base(ctx, st, user)
	})
	r := newRunner(t, fake, cfg)

	deck, err := r.Generate(context.Background(), model.GenerateRequest{Topic: "Solar", SlideCount: 8})
	require.NoError(t, err)

	assertDeckShape(t, deck, 8, true)
	for i, s := range deck.Slides {
		assert.Equal(t, fmt.Sprintf("Section %d", i+1), s.Title)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Empty(t, deck.Meta.Fallbacks)
}

func TestGenerateCancellationFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := newFake(func(callCtx context.Context, st stage, user string) (string, error) {
		cancel()
		<-callCtx.Done()
		return "", callCtx.Err()
	})
	r := newRunner(t, fake, testConfig())

	_, err := r.Generate(ctx, model.GenerateRequest{Topic: "Solar", SlideCount: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fake.count(stageOutline))
	assert.Zero(t, fake.count(stageSlide))
}

func TestGenerateInvalidRequest(t *testing.T) {
	fake := newFake(happy(3))
	r := newRunner(t, fake, testConfig())

	_, err := r.Generate(context.Background(), model.GenerateRequest{SlideCount: 3})
	assert.ErrorIs(t, err, errx.ErrInvalidRequest)

	_, err = r.Generate(context.Background(), model.GenerateRequest{Topic: "x", SlideCount: 500})
	assert.ErrorIs(t, err, errx.ErrInvalidRequest)
	assert.Zero(t, fake.count(stageOutline))
}

func TestOutlineOnly(t *testing.T) {
	fake := newFake(happy(5))
	r := newRunner(t, fake, testConfig())

	out, err := r.Outline(context.Background(), model.GenerateRequest{Topic: "Solar", SlideCount: 3})
	require.NoError(t, err)

	require.Len(t, out.Items, 3)
	assert.Equal(t, "Solar Deck", out.Title)
	assert.Zero(t, fake.count(stageSlide))
	assert.Zero(t, fake.count(stageVisuals))
}

func TestBuildPipelineRequiresModel(t *testing.T) {
	_, err := BuildDeckGraph(context.Background(), &GraphConfig{})
	assert.Error(t, err)

	_, err = BuildPipeline(context.Background(), Config{LLM: model.LLMConfig{Provider: "carrier-pigeon", Model: "x"}})
	assert.ErrorContains(t, err, "unknown llm provider")
}
