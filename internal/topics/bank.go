package topics

import (
	"regexp"
	"strings"
)

// Topic is a pre-defined, SEO-oriented article subject.
type Topic struct {
	Text     string
	Pillar   string
	Template string
	Keywords []string
	Priority string
}

// Priority levels used for weighted topic selection.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

var keyPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Key derives the stable identifier used for recency tracking.
func (t Topic) Key() string {
	return KeyFor(t.Text)
}

// KeyFor normalises arbitrary topic text into a recency-tracking key.
func KeyFor(text string) string {
	return strings.Trim(keyPattern.ReplaceAllString(strings.ToLower(text), "-"), "-")
}

// Bank holds the rotating topic inventory, grouped by pillar.
var Bank = []Topic{
	// AI & Automation: how-to guides and tutorials.
	{
		Text:     "How to Automate Your Business Workflows with AI in 2026",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"workflow automation", "AI automation", "business efficiency"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Building Your First AI-Powered Chatbot: A Step-by-Step Guide",
		Pillar:   "ai-automation",
		Template: "tutorial",
		Keywords: []string{"AI chatbot", "chatbot development", "customer service AI"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Integrating Claude API into Your Enterprise Applications",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"Claude API", "enterprise AI", "LLM integration"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Automating Document Processing with AI: Complete Guide",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"document automation", "AI document processing", "OCR AI"},
		Priority: PriorityMedium,
	},
	{
		Text:     "How to Use AI for Email Marketing Automation",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"email automation", "AI marketing", "marketing automation"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Prompt Engineering Best Practices for Business Applications",
		Pillar:   "ai-automation",
		Template: "tutorial",
		Keywords: []string{"prompt engineering", "AI prompts", "LLM optimization"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Building AI-Powered Sales Pipelines That Convert",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"AI sales", "sales automation", "lead scoring AI"},
		Priority: PriorityHigh,
	},
	{
		Text:     "How to Automate Customer Support with AI Agents",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"AI customer support", "support automation", "AI agents"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Creating Automated Content Workflows with AI",
		Pillar:   "ai-automation",
		Template: "tutorial",
		Keywords: []string{"content automation", "AI content", "automated writing"},
		Priority: PriorityMedium,
	},
	{
		Text:     "AI-Powered Data Entry Automation: Eliminate Manual Work",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"data entry automation", "AI data processing", "RPA AI"},
		Priority: PriorityMedium,
	},
	{
		Text:     "No-Code AI Automation Tools for Small Businesses",
		Pillar:   "ai-automation",
		Template: "explainer",
		Keywords: []string{"no-code automation", "small business AI", "AI tools"},
		Priority: PriorityHigh,
	},
	{
		Text:     "GPT Integration Patterns for Enterprise Applications",
		Pillar:   "ai-automation",
		Template: "tutorial",
		Keywords: []string{"GPT integration", "enterprise AI", "OpenAI API"},
		Priority: PriorityMedium,
	},

	// Consulting: frameworks, thought leadership and process optimisation.
	{
		Text:     "Achieving 73% Reduction in Manual Operations with AI",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"operational efficiency", "reduce manual work", "AI productivity"},
		Priority: PriorityHigh,
	},
	{
		Text:     "The Complete Guide to Process Optimization with AI",
		Pillar:   "consulting",
		Template: "how-to-guide",
		Keywords: []string{"process optimization", "workflow optimization", "business operations"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Measuring ROI on AI Automation Investments",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"AI ROI", "automation ROI", "technology investment"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Building a Business Case for AI Automation",
		Pillar:   "consulting",
		Template: "thought-leadership",
		Keywords: []string{"AI business case", "automation justification", "technology adoption"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Team Productivity Gains Through Intelligent Automation",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"team productivity", "productivity gains", "automation benefits"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Streamlining Operations: An AI-First Approach",
		Pillar:   "consulting",
		Template: "thought-leadership",
		Keywords: []string{"streamline operations", "AI-first", "operational excellence"},
		Priority: PriorityMedium,
	},
	{
		Text:     "How to Identify Automation Opportunities in Your Business",
		Pillar:   "consulting",
		Template: "how-to-guide",
		Keywords: []string{"automation opportunities", "process analysis", "business automation"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Reducing Response Times by 2.5x with AI Automation",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"response time", "customer service efficiency", "AI speed"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Digital Transformation in 2026: What CTOs Need to Know",
		Pillar:   "consulting",
		Template: "thought-leadership",
		Keywords: []string{"digital transformation", "CTO insights", "enterprise technology"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Building an AI-First Organization: A Strategic Framework",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"AI strategy", "organizational change", "AI adoption"},
		Priority: PriorityHigh,
	},
	{
		Text:     "AI Adoption Roadmap for Mid-Market Companies",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"AI implementation", "mid-market AI", "technology strategy"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Managing Change When Implementing AI in Your Organization",
		Pillar:   "consulting",
		Template: "thought-leadership",
		Keywords: []string{"change management", "AI adoption", "organizational change"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Scaling Operations with AI: A Strategic Guide",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"scaling operations", "AI scale", "business growth"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Creating Your Technology Roadmap for AI Integration",
		Pillar:   "consulting",
		Template: "framework",
		Keywords: []string{"technology roadmap", "AI integration", "digital strategy"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Gaining Competitive Advantage Through AI Automation",
		Pillar:   "consulting",
		Template: "thought-leadership",
		Keywords: []string{"competitive advantage", "AI differentiation", "market leadership"},
		Priority: PriorityHigh,
	},
	{
		Text:     "Enterprise Modernization: From Legacy to AI-Powered",
		Pillar:   "consulting",
		Template: "market-analysis",
		Keywords: []string{"enterprise modernization", "legacy systems", "digital upgrade"},
		Priority: PriorityMedium,
	},

	// Industry news: analysis and predictions.
	{
		Text:     "Top AI Trends Shaping Business in 2026",
		Pillar:   "industry-news",
		Template: "news-analysis",
		Keywords: []string{"AI trends", "business AI", "technology trends"},
		Priority: PriorityHigh,
	},
	{
		Text:     "The Future of Work: AI and Human Collaboration",
		Pillar:   "industry-news",
		Template: "prediction",
		Keywords: []string{"future of work", "AI workplace", "human-AI collaboration"},
		Priority: PriorityHigh,
	},
	{
		Text:     "AI Market Analysis: Where Businesses Are Investing",
		Pillar:   "industry-news",
		Template: "market-analysis",
		Keywords: []string{"AI market", "AI investment", "enterprise spending"},
		Priority: PriorityMedium,
	},
	{
		Text:     "SaaS and AI: The Convergence Reshaping Business Software",
		Pillar:   "industry-news",
		Template: "market-analysis",
		Keywords: []string{"SaaS trends", "AI software", "business technology"},
		Priority: PriorityMedium,
	},
	{
		Text:     "Enterprise Technology Predictions for 2026",
		Pillar:   "industry-news",
		Template: "prediction",
		Keywords: []string{"enterprise technology", "tech predictions", "business tech"},
		Priority: PriorityHigh,
	},
	{
		Text:     "How AI Is Changing Business Operations Across Industries",
		Pillar:   "industry-news",
		Template: "news-analysis",
		Keywords: []string{"AI business impact", "industry transformation", "AI applications"},
		Priority: PriorityMedium,
	},
}

// ByPillar returns the bank entries belonging to a pillar.
func ByPillar(pillar string) []Topic {
	var matches []Topic
	for _, topic := range Bank {
		if topic.Pillar == pillar {
			matches = append(matches, topic)
		}
	}
	return matches
}
