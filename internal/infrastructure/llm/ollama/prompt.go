package ollama

import (
	"fmt"
	"strings"

	"github.com/beedev/recommender/internal/core/domain"
)

func buildScoringPrompt(query string, candidates []domain.Candidate) string {
	const maxDescription = 400

	var listing strings.Builder
	for _, cand := range candidates {
		listing.WriteString(fmt.Sprintf("key=%s name=%s category=%s\n%s\n\n",
			cand.Key, cand.Name, cand.Category, truncateRunes(cand.Description, maxDescription)))
	}

	return fmt.Sprintf(`You grade welding equipment candidates against a buyer request.
Return a strict JSON object mapping each candidate key to a relevance score
between 0 and 1. Use every key exactly as given. No markdown, no extra keys.

Request:
%s

Candidates:
%s`, query, listing.String())
}

// truncateRunes cuts on a rune boundary so multi-byte text never ends in a
// broken sequence.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
