package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/internal/pkg/assistant"
)

// Content is the campaign text that gets classified.
type Content struct {
	Title   string
	Summary string
	Story   string
}

func (c Content) text() string {
	return strings.Join([]string{c.Title, c.Summary, c.Story}, "\n")
}

// Result is a classifier verdict.
type Result struct {
	Score      int      `json:"score"`
	Categories []string `json:"categories"`
	Reasons    []string `json:"reasons,omitempty"`
	Source     string   `json:"source"`
}

type Classifier interface {
	Classify(ctx context.Context, content Content) (*Result, error)
}

var (
	scamPhrases = []string{
		"guaranteed return", "double your money", "risk free investment", "risk-free investment",
		"send bitcoin", "crypto giveaway", "wire transfer only", "gift cards only",
		"100% profit", "investment opportunity", "pay to claim", "western union",
	}
	prohibitedPhrases = []string{
		"firearm", "ammunition", "explosives", "counterfeit", "illegal drugs",
		"narcotics", "stolen goods", "online casino", "hacked accounts",
	}
	inappropriatePhrases = []string{
		"nsfw", "explicit content", "adult content", "hate group", "self-harm",
	}

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	urlPattern   = regexp.MustCompile(`https?://\S+`)
)

// HeuristicClassifier scores text with keyword lists and spam patterns. It is
// deterministic and never fails.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (h *HeuristicClassifier) Classify(ctx context.Context, content Content) (*Result, error) {
	text := content.text()
	lower := strings.ToLower(text)
	scores := map[string]int{}
	var reasons []string

	add := func(category string, points int, reason string) {
		scores[category] += points
		reasons = append(reasons, reason)
	}

	for _, p := range scamPhrases {
		if strings.Contains(lower, p) {
			add(CategoryScam, 35, fmt.Sprintf("scam phrase %q", p))
		}
	}
	for _, p := range prohibitedPhrases {
		if strings.Contains(lower, p) {
			add(CategoryProhibited, 50, fmt.Sprintf("prohibited item %q", p))
		}
	}
	for _, p := range inappropriatePhrases {
		if strings.Contains(lower, p) {
			add(CategoryInappropriate, 45, fmt.Sprintf("inappropriate phrase %q", p))
		}
	}

	if n := len(urlPattern.FindAllString(text, -1)); n > 3 {
		add(CategorySpam, 30, fmt.Sprintf("%d links", n))
	}
	if word, ok := dominantWord(lower); ok {
		add(CategorySpam, 40, fmt.Sprintf("word %q repeated excessively", word))
	}
	if emailPattern.MatchString(content.Story) || phonePattern.MatchString(content.Story) {
		add(CategorySpam, 10, "contact details in story")
	}

	res := &Result{Reasons: reasons, Source: "heuristic"}
	for category, points := range scores {
		res.Score += points
		res.Categories = append(res.Categories, category)
	}
	sort.Strings(res.Categories)
	res.Score = clamp(res.Score)
	return res, nil
}

// dominantWord finds a word making up more than half of a text of more
// than five words.
func dominantWord(lower string) (string, bool) {
	words := strings.Fields(lower)
	if len(words) <= 5 {
		return "", false
	}
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
		if counts[w] > len(words)/2 {
			return w, true
		}
	}
	return "", false
}

// AIClassifier asks the assistant generator for a score and falls back to
// another classifier when the provider fails or answers nonsense.
type AIClassifier struct {
	gen      assistant.Generator
	fallback Classifier
}

func NewAIClassifier(gen assistant.Generator, fallback Classifier) *AIClassifier {
	if fallback == nil {
		fallback = NewHeuristicClassifier()
	}
	return &AIClassifier{gen: gen, fallback: fallback}
}

func (a *AIClassifier) Classify(ctx context.Context, content Content) (*Result, error) {
	if a.gen == nil {
		return a.fallback.Classify(ctx, content)
	}

	prompt := fmt.Sprintf(`You review crowdfunding campaigns before they go live.
Score the risk from 0 (clearly fine) to 100 (clearly abusive) across these categories: spam, scam, inappropriate, prohibited.
Title: %s
Summary: %s
Story: %s
Answer with JSON {"score": <0-100>, "categories": ["<category>", ...], "reasons": ["..."]}.`,
		content.Title, content.Summary, content.Story)

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		log.Warnf("[Moderation] AI classifier failed, using heuristics: %v", err)
		return a.fallback.Classify(ctx, content)
	}
	raw, ok := assistant.ExtractJSON(text)
	if !ok {
		log.Warn("[Moderation] AI classifier answer had no JSON, using heuristics")
		return a.fallback.Classify(ctx, content)
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil || res.Score < 0 || res.Score > 100 {
		log.Warnf("[Moderation] AI classifier answer unusable, using heuristics: %v", err)
		return a.fallback.Classify(ctx, content)
	}
	res.Categories = knownCategories(res.Categories)
	res.Source = "ai"
	return &res, nil
}

func knownCategories(in []string) []string {
	var out []string
	for _, c := range in {
		switch c = strings.ToLower(strings.TrimSpace(c)); c {
		case CategorySpam, CategoryScam, CategoryInappropriate, CategoryProhibited:
			out = append(out, c)
		}
	}
	return out
}
