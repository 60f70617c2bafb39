package usecase

import (
	"fmt"

	"github.com/beedev/recommender/internal/core/domain"
)

// Zero-result explanations are advisory text for the conversational layer,
// but which message is chosen is a defined contract: an empty page caused by
// compatibility filtering reads differently from one where nothing was ever
// found or where the caller paged past the end.

func explainNoStrategies() string {
	return "No retrieval strategies are enabled; nothing was searched."
}

func explainAllFailed() string {
	return "All retrieval strategies failed; no candidates could be retrieved. Please try again."
}

// explainEmptyPage selects the message for an empty page after successful
// consolidation.
func explainEmptyPage(req domain.SearchRequest, consolidated ConsolidationResult) string {
	if consolidated.FoundCount == 0 {
		if len(req.CompatibilityContext) > 0 {
			return fmt.Sprintf(
				"No %s candidates are compatible with the current selections.",
				req.ComponentType)
		}
		// First component in the flow: nothing has been selected yet, so
		// compatibility filtering does not apply.
		return fmt.Sprintf("No candidates were found for %s.", req.ComponentType)
	}
	if consolidated.TotalCount > 0 {
		return fmt.Sprintf(
			"Matching %s candidates exist, but the requested page is past the end of the results.",
			req.ComponentType)
	}
	// Candidates were found but the relative threshold removed them all.
	// Unreachable with the current filter (the top candidate always stays),
	// kept so a future filter change cannot produce an unexplained empty page.
	return fmt.Sprintf(
		"Candidates were found for %s, but none scored close enough to the best match.",
		req.ComponentType)
}
