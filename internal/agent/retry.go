package agent

import (
	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

// Retry runs invoke up to limit times and returns the first successful result
// or the last failing one. Attempts are numbered from 1. Each attempt
// receives the previous attempt's failure text so the caller can rebuild the
// agent context with that feedback threaded in.
func Retry(limit int, invoke func(attempt int, lastFailure string) model.AgentResult) model.AgentResult {
	if limit < 1 {
		limit = 1
	}
	var result model.AgentResult
	lastFailure := ""
	for attempt := 1; attempt <= limit; attempt++ {
		result = invoke(attempt, lastFailure)
		if result.Success {
			return result
		}
		lastFailure = result.ErrorDetail
		if lastFailure == "" {
			lastFailure = result.Message
		}
		log.Debug().
			Str("role", string(result.Role)).
			Int("attempt", attempt).
			Int("limit", limit).
			Str("failure", lastFailure).
			Msg("agent attempt failed")
	}
	return result
}
