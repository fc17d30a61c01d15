package model

import "time"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ================ Config ================
type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"gemini"`
	APIKey      string  `envconfig:"LLM_API_KEY"`
	BaseURL     string  `envconfig:"LLM_BASE_URL"`
	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
}

type PipelineConfig struct {
	OutlineTimeout   time.Duration `envconfig:"PIPELINE_OUTLINE_TIMEOUT" default:"60s"`
	SlideTimeout     time.Duration `envconfig:"PIPELINE_SLIDE_TIMEOUT" default:"45s"`
	VisualTimeout    time.Duration `envconfig:"PIPELINE_VISUAL_TIMEOUT" default:"45s"`
	MaxAttempts      int           `envconfig:"PIPELINE_MAX_ATTEMPTS" default:"2"`
	SlideConcurrency int           `envconfig:"PIPELINE_SLIDE_CONCURRENCY" default:"1"`
	DefaultSlides    int           `envconfig:"PIPELINE_DEFAULT_SLIDES" default:"8"`
	MinSlides        int           `envconfig:"PIPELINE_MIN_SLIDES" default:"1"`
	MaxSlides        int           `envconfig:"PIPELINE_MAX_SLIDES" default:"30"`
	MaxBullets       int           `envconfig:"PIPELINE_MAX_BULLETS" default:"6"`
	MaxSourceChars   int           `envconfig:"PIPELINE_MAX_SOURCE_CHARS" default:"12000"`
}

// DefaultPipelineConfig mirrors the envconfig defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OutlineTimeout:   60 * time.Second,
		SlideTimeout:     45 * time.Second,
		VisualTimeout:    45 * time.Second,
		MaxAttempts:      2,
		SlideConcurrency: 1,
		DefaultSlides:    8,
		MinSlides:        1,
		MaxSlides:        30,
		MaxBullets:       6,
		MaxSourceChars:   12000,
	}
}

// WithDefaults replaces zero or invalid values with their defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	d := DefaultPipelineConfig()
	if c.OutlineTimeout <= 0 {
		c.OutlineTimeout = d.OutlineTimeout
	}
	if c.SlideTimeout <= 0 {
		c.SlideTimeout = d.SlideTimeout
	}
	if c.VisualTimeout <= 0 {
		c.VisualTimeout = d.VisualTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.SlideConcurrency <= 0 {
		c.SlideConcurrency = d.SlideConcurrency
	}
	if c.MinSlides <= 0 {
		c.MinSlides = d.MinSlides
	}
	if c.MaxSlides < c.MinSlides {
		c.MaxSlides = max(d.MaxSlides, c.MinSlides)
	}
	if c.DefaultSlides < c.MinSlides || c.DefaultSlides > c.MaxSlides {
		c.DefaultSlides = min(max(d.DefaultSlides, c.MinSlides), c.MaxSlides)
	}
	if c.MaxBullets <= 0 {
		c.MaxBullets = d.MaxBullets
	}
	if c.MaxSourceChars <= 0 {
		c.MaxSourceChars = d.MaxSourceChars
	}
	return c
}
