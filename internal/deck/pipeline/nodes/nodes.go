package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline/parsers"
	"github.com/deckforge/server/internal/deck/pipeline/prompts"
	"github.com/deckforge/server/internal/deck/pipeline/sources"
	"github.com/deckforge/server/internal/deck/reconcile"
	"github.com/deckforge/server/internal/themes"
	logx "github.com/deckforge/server/pkg/logger"
)

// Fallback stage labels recorded in DeckMeta.Fallbacks.
const (
	StageOutline = "outline"
	StageSlide   = "slide"
	StageVisuals = "visuals"
	StageVisual  = "visual"
)

// NewRequestPreparerPreHandler seeds the graph state for a new request.
func NewRequestPreparerPreHandler() func(context.Context, model.GenerateRequest, *model.DeckState) (model.GenerateRequest, error) {
	return func(ctx context.Context, in model.GenerateRequest, s *model.DeckState) (model.GenerateRequest, error) {
		s.Reset(in, time.Now())
		return in, nil
	}
}

// NewRequestPreparerNode passes the normalised request on to outline planning.
func NewRequestPreparerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.GenerateRequest) (model.GenerateRequest, error) {
		logx.Debug().
			Str("topic", in.Topic).
			Int("slide_count", in.SlideCount).
			Bool("has_document", in.Document != "").
			Bool("has_outline", len(in.Outline) > 0).
			Msg("Deck request accepted")
		return in, nil
	})
}

// NewOutlineSourceCondition routes to the loader when the caller brought an outline.
func NewOutlineSourceCondition() func(context.Context, model.GenerateRequest) (string, error) {
	return func(ctx context.Context, in model.GenerateRequest) (string, error) {
		if len(in.Outline) > 0 {
			logx.Debug().Int("items", len(in.Outline)).Msg("Routing to OutlineLoader - outline supplied")
			return NodeOutlineLoader, nil
		}
		return NodeOutlineGenerator, nil
	}
}

// NewOutlineLoaderNode turns a caller supplied outline into the graph's outline.
func NewOutlineLoaderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.GenerateRequest) (model.Outline, error) {
		items := make([]model.OutlineItem, len(in.Outline))
		copy(items, in.Outline)
		return model.Outline{Title: in.Topic, Items: items}, nil
	})
}

// NewOutlineGeneratorNode asks the model for an outline and falls back to a
// deterministic one when every attempt fails.
func NewOutlineGeneratorNode(cm *ChatModel, sm *sources.SourceManager, cfg model.PipelineConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.GenerateRequest) (model.Outline, error) {
		msgs, err := prompts.RenderOutline(ctx, prompts.OutlineInput{
			Request:    in,
			MaxBullets: cfg.MaxBullets,
			Source:     sm.BuildSourceContext(in),
		})
		if err != nil {
			return model.Outline{}, err
		}

		outline, err := generate(ctx, cm, callSpec{
			Stage:    StageOutline,
			Messages: msgs,
			Timeout:  cfg.OutlineTimeout,
			Attempts: cfg.MaxAttempts,
		}, parsers.ParseOutline)
		if err == nil {
			return *outline, nil
		}
		if ctx.Err() != nil {
			return model.Outline{}, ctx.Err()
		}

		logx.Warn().Err(err).Str("topic", in.Topic).Msg("Outline generation failed - using fallback outline")
		if err := addFallback(ctx, StageOutline); err != nil {
			return model.Outline{}, err
		}
		return reconcile.FallbackOutline(in), nil
	})
}

// NewOutlinePostHandler reconciles the outline to the requested slide count
// and stores it in state. Shared by the generator and the loader.
func NewOutlinePostHandler() func(context.Context, model.Outline, *model.DeckState) (model.Outline, error) {
	return func(ctx context.Context, out model.Outline, s *model.DeckState) (model.Outline, error) {
		req := s.Request
		before := len(out.Items)
		out.Items = reconcile.Outline(out.Items, req.SlideCount, req.Topic)
		if out.Title == "" {
			out.Title = req.Topic
		}
		if before != len(out.Items) {
			logx.Debug().
				Int("planned", before).
				Int("requested", req.SlideCount).
				Msg("Outline reconciled to requested slide count")
		}
		s.Outline = out
		return out, nil
	}
}

// NewSlideWriterNode expands every outline item into a slide, one model call
// per item with at most cfg.SlideConcurrency calls in flight.
func NewSlideWriterNode(cm *ChatModel, sm *sources.SourceManager, cfg model.PipelineConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, outline model.Outline) ([]model.Slide, error) {
		var req model.GenerateRequest
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.DeckState) error {
			req = s.Request
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		items := outline.Items
		titles := make([]string, len(items))
		for i, it := range items {
			titles[i] = it.Title
		}

		slides := make([]model.Slide, len(items))
		failed := make([]bool, len(items))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(cfg.SlideConcurrency, 1))
		for i := range items {
			g.Go(func() error {
				s, err := writeSlide(gctx, cm, sm, cfg, req, outline.Title, items, titles, i)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logx.Warn().Err(err).Int("slide_index", i+1).Msg("Slide generation failed - using fallback slide")
					s = reconcile.FallbackSlide(items[i], i+1, req.Topic)
					failed[i] = true
				}
				slides[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, f := range failed {
			if !f {
				continue
			}
			if err := addFallback(ctx, fmt.Sprintf("%s:%d", StageSlide, i+1)); err != nil {
				return nil, err
			}
		}
		return reconcile.Slides(slides, items, req.SlideCount, cfg.MaxBullets, req.Topic), nil
	})
}

func writeSlide(
	ctx context.Context,
	cm *ChatModel,
	sm *sources.SourceManager,
	cfg model.PipelineConfig,
	req model.GenerateRequest,
	deckTitle string,
	items []model.OutlineItem,
	titles []string,
	i int,
) (model.Slide, error) {
	neighbours := make([]string, 0, len(titles)-1)
	neighbours = append(neighbours, titles[:i]...)
	neighbours = append(neighbours, titles[i+1:]...)

	msgs, err := prompts.RenderSlide(ctx, prompts.SlideInput{
		Request:    req,
		DeckTitle:  deckTitle,
		Item:       items[i],
		Index:      i + 1,
		Total:      len(items),
		MaxBullets: cfg.MaxBullets,
		Neighbours: neighbours,
		Source:     sm.RelevantExcerpt(req, items[i]),
	})
	if err != nil {
		return model.Slide{}, err
	}

	slide, err := generate(ctx, cm, callSpec{
		Stage:    fmt.Sprintf("%s:%d", StageSlide, i+1),
		Messages: msgs,
		Timeout:  cfg.SlideTimeout,
		Attempts: cfg.MaxAttempts,
	}, parsers.ParseSlide)
	if err != nil {
		return model.Slide{}, err
	}
	if slide.Layout == "" {
		slide.Layout = items[i].Layout
	}
	return *slide, nil
}

// NewVisualsCondition skips the visual designer when the request opted out.
func NewVisualsCondition() func(context.Context, []model.Slide) (string, error) {
	return func(ctx context.Context, _ []model.Slide) (string, error) {
		var skip bool
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.DeckState) error {
			skip = s.Request.SkipVisuals
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		if skip {
			logx.Debug().Msg("Visuals disabled - routing to DeckAssembler")
			return NodeDeckAssembler, nil
		}
		return NodeVisualDesigner, nil
	}
}

// NewVisualDesignerNode asks the model for one image prompt per slide in a
// single call. Slides the model skipped get deterministic prompts.
func NewVisualDesignerNode(cm *ChatModel, cfg model.PipelineConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, slides []model.Slide) ([]model.Slide, error) {
		var req model.GenerateRequest
		var deckTitle string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.DeckState) error {
			req = s.Request
			deckTitle = s.Outline.Title
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		style := themes.Get(req.Theme).ImageStyle

		msgs, err := prompts.RenderVisuals(ctx, prompts.VisualsInput{
			DeckTitle: deckTitle,
			Style:     style,
			Slides:    slides,
		})
		if err != nil {
			return nil, err
		}

		visuals, err := generate(ctx, cm, callSpec{
			Stage:    StageVisuals,
			Messages: msgs,
			Timeout:  cfg.VisualTimeout,
			Attempts: cfg.MaxAttempts,
		}, parsers.ParseVisuals)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Warn().Err(err).Msg("Visual prompt generation failed - using fallback prompts")
			out, _ := reconcile.Visuals(nil, slides, style)
			return out, addFallback(ctx, StageVisuals)
		}

		out, missing := reconcile.Visuals(visuals, slides, style)
		for _, idx := range missing {
			if err := addFallback(ctx, fmt.Sprintf("%s:%d", StageVisual, idx)); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
}

// NewDeckAssemblerNode performs the final reconciliation and builds the deck.
func NewDeckAssemblerNode(cm *ChatModel, cfg model.PipelineConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, slides []model.Slide) (*model.Deck, error) {
		var state model.DeckState
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.DeckState) error {
			state = *s
			state.Fallbacks = append([]string(nil), s.Fallbacks...)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		req := state.Request
		theme := themes.Get(req.Theme)

		slides = reconcile.Slides(slides, state.Outline.Items, req.SlideCount, cfg.MaxBullets, req.Topic)
		if !req.SkipVisuals {
			existing := make([]model.VisualPrompt, 0, len(slides))
			for _, s := range slides {
				existing = append(existing, model.VisualPrompt{Index: s.Index, Prompt: s.VisualPrompt})
			}
			slides, _ = reconcile.Visuals(existing, slides, theme.ImageStyle)
		}

		title := state.Outline.Title
		if title == "" {
			title = req.Topic
		}
		now := time.Now()
		deck := &model.Deck{
			ID:        uuid.NewString(),
			Title:     title,
			Subtitle:  state.Outline.Subtitle,
			Topic:     req.Topic,
			Tone:      req.Tone,
			Audience:  req.Audience,
			Language:  req.Language,
			Theme:     theme.Name,
			Slides:    slides,
			CreatedAt: now.UTC(),
			Meta: model.DeckMeta{
				RequestedSlides: req.SlideCount,
				Provider:        cm.Provider,
				Model:           cm.ModelName,
				Fallbacks:       state.Fallbacks,
				Usage:           state.Usage,
				CostUSD:         state.CostUSD,
				DurationMS:      now.Sub(state.StartedAt).Milliseconds(),
			},
		}
		if deck.Meta.Fallbacks == nil {
			deck.Meta.Fallbacks = []string{}
		}

		logx.Info().
			Str("deck_id", deck.ID).
			Int("slides", len(deck.Slides)).
			Int("fallbacks", len(deck.Meta.Fallbacks)).
			Int("total_tokens", deck.Meta.Usage.TotalTokens).
			Float64("total_cost_usd", deck.Meta.CostUSD).
			Int64("duration_ms", deck.Meta.DurationMS).
			Msg("Deck assembled")
		return deck, nil
	})
}

func addFallback(ctx context.Context, stage string) error {
	return compose.ProcessState(ctx, func(_ context.Context, s *model.DeckState) error {
		s.AddFallback(stage)
		return nil
	})
}
