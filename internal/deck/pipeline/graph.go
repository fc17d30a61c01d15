package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline/nodes"
	"github.com/deckforge/server/internal/deck/pipeline/observers"
	"github.com/deckforge/server/internal/deck/pipeline/sources"
	logx "github.com/deckforge/server/pkg/logger"
)

// maxRunSteps bounds a run; the deck graph visits at most six nodes.
const maxRunSteps = 20

// Runner executes the compiled graphs for a public GenerateRequest.
type Runner interface {
	// Generate builds a full deck.
	Generate(ctx context.Context, req model.GenerateRequest) (*model.Deck, error)
	// Outline only plans the deck.
	Outline(ctx context.Context, req model.GenerateRequest) (*model.Outline, error)
}

// Config holds everything needed to compose the pipeline end-to-end.
// ChatModel, when set, replaces the model built from LLM.
type Config struct {
	LLM       model.LLMConfig
	Pipeline  model.PipelineConfig
	ChatModel *nodes.ChatModel
}

// GraphConfig holds all configuration needed to build the graphs.
type GraphConfig struct {
	ChatModel     *nodes.ChatModel
	SourceManager *sources.SourceManager
	Pipeline      model.PipelineConfig
}

// GraphBuilder handles the construction of one generation graph.
type GraphBuilder[O any] struct {
	config *GraphConfig
	graph  *compose.Graph[model.GenerateRequest, O]
}

type graphRunner struct {
	cfg     model.PipelineConfig
	deck    compose.Runnable[model.GenerateRequest, *model.Deck]
	outline compose.Runnable[model.GenerateRequest, model.Outline]
}

func (r *graphRunner) Generate(ctx context.Context, req model.GenerateRequest) (*model.Deck, error) {
	req, err := req.Normalize(r.cfg)
	if err != nil {
		return nil, err
	}
	deck, err := r.deck.Invoke(ctx, req, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, runError(ctx, err)
	}
	if deck == nil {
		return nil, fmt.Errorf("pipeline returned no deck")
	}
	return deck, nil
}

func (r *graphRunner) Outline(ctx context.Context, req model.GenerateRequest) (*model.Outline, error) {
	req, err := req.Normalize(r.cfg)
	if err != nil {
		return nil, err
	}
	out, err := r.outline.Invoke(ctx, req, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, runError(ctx, err)
	}
	return &out, nil
}

// runError keeps the caller's cancellation visible to errors.Is even when the
// graph wrapped it.
func runError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("pipeline aborted: %w", ctxErr)
	}
	return fmt.Errorf("pipeline failed: %w", err)
}

// BuildPipeline creates the chat model and source manager, builds both graphs
// and returns a Runner.
func BuildPipeline(ctx context.Context, cfg Config) (Runner, error) {
	pcfg := cfg.Pipeline.WithDefaults()

	cm := cfg.ChatModel
	if cm == nil {
		var err error
		cm, err = nodes.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
	}

	gc := &GraphConfig{
		ChatModel:     cm,
		SourceManager: sources.NewSourceManager(pcfg),
		Pipeline:      pcfg,
	}

	deck, err := BuildDeckGraph(ctx, gc)
	if err != nil {
		return nil, err
	}
	outline, err := BuildOutlineGraph(ctx, gc)
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("model", cm.ModelName).Msg("Deck pipeline built successfully")
	return &graphRunner{cfg: pcfg, deck: deck, outline: outline}, nil
}

func validate(config *GraphConfig) error {
	if config == nil {
		return fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil || config.ChatModel.Model == nil {
		return fmt.Errorf("chat model is not properly initialized")
	}
	if config.SourceManager == nil {
		return fmt.Errorf("source manager is nil")
	}
	return nil
}

func newBuilder[O any](config *GraphConfig) *GraphBuilder[O] {
	return &GraphBuilder[O]{
		config: config,
		graph: compose.NewGraph[model.GenerateRequest, O](
			compose.WithGenLocalState(func(ctx context.Context) *model.DeckState {
				return &model.DeckState{}
			}),
		),
	}
}

// BuildDeckGraph constructs the full generation graph:
//
//	START -> RequestPreparer -> (OutlineLoader | OutlineGenerator) -> SlideWriter
//	      -> (VisualDesigner ->) DeckAssembler -> END
func BuildDeckGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.GenerateRequest, *model.Deck], error) {
	if err := validate(config); err != nil {
		return nil, err
	}
	b := newBuilder[*model.Deck](config)
	cfg := config.Pipeline

	if err := b.addOutlineNodes(); err != nil {
		return nil, err
	}
	nodesToAdd := []struct {
		key  string
		node *compose.Lambda
	}{
		{nodes.NodeSlideWriter, nodes.NewSlideWriterNode(config.ChatModel, config.SourceManager, cfg)},
		{nodes.NodeVisualDesigner, nodes.NewVisualDesignerNode(config.ChatModel, cfg)},
		{nodes.NodeDeckAssembler, nodes.NewDeckAssemblerNode(config.ChatModel, cfg)},
	}
	for _, n := range nodesToAdd {
		if err := b.graph.AddLambdaNode(n.key, n.node, compose.WithNodeName(n.key)); err != nil {
			return nil, fmt.Errorf("error adding %s node: %w", n.key, err)
		}
	}

	if err := b.addEdges([][2]string{
		{compose.START, nodes.NodeRequestPreparer},
		{nodes.NodeOutlineGenerator, nodes.NodeSlideWriter},
		{nodes.NodeOutlineLoader, nodes.NodeSlideWriter},
		{nodes.NodeVisualDesigner, nodes.NodeDeckAssembler},
		{nodes.NodeDeckAssembler, compose.END},
	}); err != nil {
		return nil, err
	}

	if err := b.addOutlineBranch(); err != nil {
		return nil, err
	}
	visualsBranch := compose.NewGraphBranch(
		nodes.NewVisualsCondition(),
		map[string]bool{
			nodes.NodeVisualDesigner: true,
			nodes.NodeDeckAssembler:  true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSlideWriter, visualsBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding visuals branch")
		return nil, fmt.Errorf("error adding visuals branch: %w", err)
	}

	return b.compile(ctx)
}

// BuildOutlineGraph constructs the outline-only graph:
//
//	START -> RequestPreparer -> (OutlineLoader | OutlineGenerator) -> END
func BuildOutlineGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.GenerateRequest, model.Outline], error) {
	if err := validate(config); err != nil {
		return nil, err
	}
	b := newBuilder[model.Outline](config)

	if err := b.addOutlineNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges([][2]string{
		{compose.START, nodes.NodeRequestPreparer},
		{nodes.NodeOutlineGenerator, compose.END},
		{nodes.NodeOutlineLoader, compose.END},
	}); err != nil {
		return nil, err
	}
	if err := b.addOutlineBranch(); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

// addOutlineNodes adds the nodes shared by both graphs.
func (b *GraphBuilder[O]) addOutlineNodes() error {
	cfg := b.config.Pipeline

	if err := b.graph.AddLambdaNode(nodes.NodeRequestPreparer,
		nodes.NewRequestPreparerNode(),
		compose.WithNodeName(nodes.NodeRequestPreparer),
		compose.WithStatePreHandler(nodes.NewRequestPreparerPreHandler()),
	); err != nil {
		return fmt.Errorf("error adding %s node: %w", nodes.NodeRequestPreparer, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeOutlineGenerator,
		nodes.NewOutlineGeneratorNode(b.config.ChatModel, b.config.SourceManager, cfg),
		compose.WithNodeName(nodes.NodeOutlineGenerator),
		compose.WithStatePostHandler(nodes.NewOutlinePostHandler()),
	); err != nil {
		return fmt.Errorf("error adding %s node: %w", nodes.NodeOutlineGenerator, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeOutlineLoader,
		nodes.NewOutlineLoaderNode(),
		compose.WithNodeName(nodes.NodeOutlineLoader),
		compose.WithStatePostHandler(nodes.NewOutlinePostHandler()),
	); err != nil {
		return fmt.Errorf("error adding %s node: %w", nodes.NodeOutlineLoader, err)
	}
	return nil
}

func (b *GraphBuilder[O]) addEdges(edges [][2]string) error {
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder[O]) addOutlineBranch() error {
	outlineBranch := compose.NewGraphBranch(
		nodes.NewOutlineSourceCondition(),
		map[string]bool{
			nodes.NodeOutlineLoader:    true,
			nodes.NodeOutlineGenerator: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRequestPreparer, outlineBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding outline branch")
		return fmt.Errorf("error adding outline branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder[O]) compile(ctx context.Context) (compose.Runnable[model.GenerateRequest, O], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
