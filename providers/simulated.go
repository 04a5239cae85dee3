package providers

import (
	"context"
	"fmt"

	"github.com/ai-visibility/backend/visibility"
)

// Answer templates take the prompt and the company name.
var simulatedAnswers = map[visibility.Platform]string{
	visibility.ChatGPT:    "Simulated ChatGPT response for: %s. ChatGPT would provide general knowledge about %s from its training data.",
	visibility.Claude:     "Simulated Claude response for: %s. Claude would provide detailed analysis about %s with focus on accuracy and helpfulness.",
	visibility.Perplexity: "Simulated Perplexity response for: %s. Perplexity would provide search-grounded information about %s with citations.",
	visibility.ArcSearch:  "Simulated Arc Search response for: %s. Arc Search would provide browser-integrated search results about %s.",
	visibility.SearchGPT:  "Simulated SearchGPT response for: %s. SearchGPT would provide web search results about %s.",
}

// Simulated returns a deterministic canned answer per platform.
type Simulated struct{}

func (Simulated) Query(ctx context.Context, prompt string, platform visibility.Platform, company string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, ok := simulatedAnswers[platform]
	if !ok {
		return "", fmt.Errorf("%w: %q", visibility.ErrUnknownPlatform, platform)
	}
	return fmt.Sprintf(tmpl, prompt, company), nil
}
