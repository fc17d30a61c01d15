package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/deckforge/server/internal/deck/model"
	logx "github.com/deckforge/server/pkg/logger"
)

// openAIClientTimeout bounds the HTTP client; each call is additionally
// bounded by the stage timeout through its context.
const openAIClientTimeout = 5 * time.Minute

// ChatModel is the single model every pipeline stage talks to.
type ChatModel struct {
	Model     einomodel.BaseChatModel
	ModelName string
	Provider  string
}

// NewChatModel creates the chat model selected by config.Provider.
func NewChatModel(ctx context.Context, config model.LLMConfig) (*ChatModel, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Model == "" {
		return nil, fmt.Errorf("llm model name is empty")
	}

	var (
		cm  einomodel.BaseChatModel
		err error
	)
	switch provider {
	case model.ProviderGemini, "":
		provider = model.ProviderGemini
		cm, err = newGeminiModel(ctx, config)
	case model.ProviderOpenAI:
		cm, err = newOpenAIModel(ctx, config)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("provider", provider).Str("model", config.Model).Msg("Chat model ready")
	return &ChatModel{Model: cm, ModelName: config.Model, Provider: provider}, nil
}

func newGeminiModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini requires LLM_API_KEY")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := config.Temperature
	maxTokens := config.MaxTokens
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		// thoughts would end up in the content the parsers have to clean
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini model")
		return nil, fmt.Errorf("error creating Gemini model: %w", err)
	}
	return cm, nil
}

// newOpenAIModel also serves OpenAI compatible local servers (Ollama, vLLM,
// LM Studio) through BaseURL.
func newOpenAIModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	temperature := config.Temperature
	maxTokens := config.MaxTokens
	apiKey := config.APIKey
	if apiKey == "" && config.BaseURL != "" {
		// local servers ignore the key but the client insists on one
		apiKey = "local"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai requires LLM_API_KEY or LLM_BASE_URL")
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     config.BaseURL,
		Model:       config.Model,
		Timeout:     openAIClientTimeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating OpenAI model")
		return nil, fmt.Errorf("error creating OpenAI model: %w", err)
	}
	return cm, nil
}
