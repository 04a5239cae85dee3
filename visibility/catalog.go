package visibility

type PlatformInfo struct {
	ID       Platform `json:"id"`
	Name     string   `json:"name"`
	Provider string   `json:"provider"`
}

type MethodologyInfo struct {
	ID          Methodology `json:"id"`
	Name        string      `json:"name"`
	FullName    string      `json:"full_name"`
	Description string      `json:"description"`
}

// PlatformCatalog describes the supported platforms.
func PlatformCatalog() []PlatformInfo {
	return []PlatformInfo{
		{ID: ChatGPT, Name: "ChatGPT", Provider: "OpenAI"},
		{ID: Claude, Name: "Claude", Provider: "Anthropic"},
		{ID: Perplexity, Name: "Perplexity AI", Provider: "Perplexity"},
		{ID: ArcSearch, Name: "Arc Search", Provider: "The Browser Company"},
		{ID: SearchGPT, Name: "SearchGPT", Provider: "OpenAI"},
	}
}

// MethodologyCatalog describes the scoring methodologies.
func MethodologyCatalog() []MethodologyInfo {
	return []MethodologyInfo{
		{
			ID:          CIDR,
			Name:        CIDR.Label(),
			FullName:    "Contextual Intent-Driven Ranking",
			Description: "How well do LLMs understand the intent behind queries related to this company?",
		},
		{
			ID:          SCVS,
			Name:        SCVS.Label(),
			FullName:    "Source Credibility & Verifiability Score",
			Description: "How well is the company represented in verifiable, reputable, and cited sources?",
		},
		{
			ID:          ACSO,
			Name:        ACSO.Label(),
			FullName:    "Adaptive Content Structure Optimization",
			Description: "Is the company's online content structured in a way that's easy for AI to parse and summarize?",
		},
		{
			ID:          UIFL,
			Name:        UIFL.Label(),
			FullName:    "User Interaction & Feedback Loop",
			Description: "How often is this company positively engaged with through AI tools (clicks, follow-ups, thumbs up)?",
		},
	}
}
