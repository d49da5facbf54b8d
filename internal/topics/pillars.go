package topics

import "github.com/rotisserie/eris"

// Pillar describes a content category the blog publishes into.
type Pillar struct {
	Name           string
	CategorySlug   string
	Templates      []string
	Tone           string
	TargetKeywords []string
}

// Pillars maps category slugs to their pillar configuration.
var Pillars = map[string]Pillar{
	"ai-automation": {
		Name:         "AI & Automation",
		CategorySlug: "ai-automation",
		Templates:    []string{"how-to-guide", "tutorial", "explainer"},
		Tone:         "Practical and results-focused. Show readers how to implement AI tools for business automation.",
		TargetKeywords: []string{
			"AI automation tools",
			"workflow automation",
			"business automation",
			"AI productivity",
			"Claude API",
			"GPT integration",
			"automation workflows",
			"no-code automation",
			"enterprise AI tools",
			"AI for business",
		},
	},
	"consulting": {
		Name:         "Consulting Insights",
		CategorySlug: "consulting",
		Templates:    []string{"thought-leadership", "framework", "how-to-guide"},
		Tone:         "Strategic and executive-level. Speak to decision-makers about AI transformation.",
		TargetKeywords: []string{
			"digital transformation",
			"AI consulting",
			"technology strategy",
			"enterprise modernization",
			"AI ROI",
			"scaling operations",
			"technology roadmap",
			"innovation strategy",
			"competitive advantage",
			"business transformation",
		},
	},
	"industry-news": {
		Name:         "Industry News",
		CategorySlug: "industry-news",
		Templates:    []string{"news-analysis", "market-analysis", "prediction"},
		Tone:         "Timely and analytical. Provide expert commentary on AI and automation trends.",
		TargetKeywords: []string{
			"AI trends",
			"automation trends",
			"industry analysis",
			"market insights",
			"AI market",
			"business technology trends",
			"future of work",
			"AI predictions",
			"enterprise technology",
			"SaaS trends",
		},
	},
	"digital-assets": {
		Name:         "Digital Assets",
		CategorySlug: "digital-assets",
		Templates:    []string{"explainer", "market-analysis", "news-analysis"},
		Tone:         "Analytical and data-driven. Explain complex digital asset concepts clearly.",
		TargetKeywords: []string{
			"digital assets",
			"tokenization",
			"blockchain",
			"NFT utility",
			"real world assets",
			"DeFi",
			"crypto regulation",
			"asset tokenization",
		},
	},
}

// GetPillar returns the pillar configuration for a category slug.
func GetPillar(slug string) (Pillar, bool) {
	pillar, ok := Pillars[slug]
	return pillar, ok
}

// DefaultTemplate returns the first template configured for the pillar.
func DefaultTemplate(slug string) (string, error) {
	pillar, ok := Pillars[slug]
	if !ok {
		return "", eris.Errorf("unknown pillar: %s", slug)
	}
	return pillar.Templates[0], nil
}

// ValidTemplate reports whether a template belongs to the pillar.
func ValidTemplate(slug, template string) bool {
	pillar, ok := Pillars[slug]
	if !ok {
		return false
	}
	for _, candidate := range pillar.Templates {
		if candidate == template {
			return true
		}
	}
	return false
}

// Rotation is the Monday-indexed pillar order for deterministic daily selection.
// It emphasises ai-automation, the core business focus.
var Rotation = []string{
	"ai-automation", // Monday
	"consulting",    // Tuesday
	"ai-automation", // Wednesday
	"industry-news", // Thursday
	"consulting",    // Friday
	"ai-automation", // Saturday
	"consulting",    // Sunday
}
