package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// DeckState stores per-invocation state for the generation graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - Reads and writes happen only inside state handlers or compose.ProcessState,
//     which serialise access, including from the slide writer's worker goroutines.
type DeckState struct {
	Request   GenerateRequest
	StartedAt time.Time
	Outline   Outline  // set by the outline post-handler
	Fallbacks []string // stages that were recovered without model output
	Usage     Usage    // accumulated across every model call
	CostUSD   float64  // accumulated total LLM cost
}

// Reset prepares the state for a new request.
func (s *DeckState) Reset(req GenerateRequest, now time.Time) {
	*s = DeckState{Request: req, StartedAt: now}
}

// AddFallback records that stage was recovered without usable model output.
func (s *DeckState) AddFallback(stage string) {
	s.Fallbacks = append(s.Fallbacks, stage)
}

// AddUsage accumulates token usage and cost of one model call.
func (s *DeckState) AddUsage(u *schema.TokenUsage, cost float64) {
	s.Usage.Calls++
	if u != nil {
		s.Usage.PromptTokens += u.PromptTokens
		s.Usage.CompletionTokens += u.CompletionTokens
		s.Usage.TotalTokens += u.TotalTokens
	}
	s.CostUSD += cost
}
