package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/money"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

type DraftInput struct {
	Title      string `json:"title" validate:"required,min=5,max=200"`
	Category   string `json:"category" validate:"max=50"`
	GoalAmount int64  `json:"goal_amount" validate:"gt=0"`
	Currency   string `json:"currency"`
	Notes      string `json:"notes" validate:"max=2000"`
}

type StoryDraft struct {
	Summary string `json:"summary"`
	Story   string `json:"story"`
	Source  string `json:"source"`
}

type Milestone struct {
	Percent     int    `json:"percent"`
	Amount      int64  `json:"amount"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type MilestonePlan struct {
	Milestones []Milestone `json:"milestones"`
	Source     string      `json:"source"`
}

type Quality struct {
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
}

// WeeklyStats is what the weekly summary knows about a creator's week.
type WeeklyStats struct {
	CreatorName    string
	Currency       string
	RaisedThisWeek int64
	PaymentsCount  int64
	LiveCampaigns  int
	BestCampaign   string
}

type Tips struct {
	Tips   []string `json:"tips"`
	Source string   `json:"source"`
}

// Service wraps a Generator with prompts, parsing and fallbacks. A nil
// generator or a disabled switch always yields the fallback.
type Service struct {
	gen     Generator
	enabled func() bool
}

func NewService(gen Generator) *Service {
	return &Service{
		gen:     gen,
		enabled: func() bool { return models.GetAppSettings().IsAIAssistEnabled() },
	}
}

func (s *Service) available() bool {
	return s != nil && s.gen != nil && s.enabled()
}

// ask sends the prompt and decodes the JSON answer into out.
func (s *Service) ask(ctx context.Context, op, prompt string, out interface{}) bool {
	if !s.available() {
		return false
	}
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		log.Warnf("[Assistant] %s: provider error, using fallback: %v", op, err)
		return false
	}
	raw, ok := ExtractJSON(text)
	if !ok {
		log.Warnf("[Assistant] %s: no JSON in answer, using fallback", op)
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warnf("[Assistant] %s: malformed JSON, using fallback: %v", op, err)
		return false
	}
	return true
}

func (s *Service) DraftStory(ctx context.Context, in DraftInput) *StoryDraft {
	prompt := fmt.Sprintf(`Write a crowdfunding campaign pitch.
Title: %s
Category: %s
Goal: %s
Creator notes: %s
Answer with JSON {"summary": "<one sentence, max 300 chars>", "story": "<3-5 short paragraphs>"}.`,
		in.Title, in.Category, money.Format(in.GoalAmount, in.Currency), in.Notes)

	var out StoryDraft
	if s.ask(ctx, "draft", prompt, &out) && strings.TrimSpace(out.Story) != "" {
		out.Summary = truncate(strings.TrimSpace(out.Summary), 500)
		out.Story = strings.TrimSpace(out.Story)
		out.Source = SourceAI
		return &out
	}
	return fallbackDraft(in)
}

func fallbackDraft(in DraftInput) *StoryDraft {
	goal := money.Format(in.GoalAmount, in.Currency)
	summary := fmt.Sprintf("Help us reach %s for %s.", goal, in.Title)
	var b strings.Builder
	fmt.Fprintf(&b, "We are raising %s for %s.\n\n", goal, in.Title)
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	b.WriteString("Every contribution brings us closer to the goal. We will post updates as we hit each milestone, and we will show exactly where the money goes.\n\n")
	b.WriteString("If you cannot contribute right now, sharing this page helps just as much. Thank you for your support!")
	return &StoryDraft{Summary: truncate(summary, 500), Story: b.String(), Source: SourceFallback}
}

// Milestones proposes funding checkpoints for a campaign. Amounts are always
// recomputed from the percent so the plan is consistent with the goal.
func (s *Service) Milestones(ctx context.Context, c *models.Campaign) *MilestonePlan {
	prompt := fmt.Sprintf(`Plan 3 to 5 funding milestones for this campaign.
Title: %s
Goal: %s
Story: %s
Answer with JSON {"milestones": [{"percent": <1-100>, "title": "...", "description": "..."}]} ordered by percent.`,
		c.Title, money.Format(c.GoalAmount, c.Currency), truncate(c.Story, 2000))

	var out MilestonePlan
	if s.ask(ctx, "milestones", prompt, &out) {
		valid := make([]Milestone, 0, len(out.Milestones))
		last := 0
		for _, m := range out.Milestones {
			if m.Percent <= last || m.Percent > 100 || strings.TrimSpace(m.Title) == "" {
				continue
			}
			m.Amount = c.GoalAmount * int64(m.Percent) / 100
			valid = append(valid, m)
			last = m.Percent
		}
		if len(valid) > 0 {
			return &MilestonePlan{Milestones: valid, Source: SourceAI}
		}
	}
	return fallbackMilestones(c)
}

func fallbackMilestones(c *models.Campaign) *MilestonePlan {
	steps := []struct {
		percent int
		title   string
		desc    string
	}{
		{25, "First quarter", "Momentum is building. Thank early supporters publicly."},
		{50, "Halfway there", "Post an update showing progress so far."},
		{75, "Final stretch", "Ask supporters to share with one friend each."},
		{100, "Goal reached", "Celebrate and explain what happens next."},
	}
	plan := &MilestonePlan{Source: SourceFallback}
	for _, st := range steps {
		plan.Milestones = append(plan.Milestones, Milestone{
			Percent:     st.percent,
			Amount:      c.GoalAmount * int64(st.percent) / 100,
			Title:       st.title,
			Description: st.desc,
		})
	}
	return plan
}

// ScoreQuality rates how complete and convincing a campaign page is.
func (s *Service) ScoreQuality(ctx context.Context, c *models.Campaign) *Quality {
	prompt := fmt.Sprintf(`Rate this crowdfunding page from 0 to 100 for clarity and completeness.
Title: %s
Summary: %s
Story: %s
Answer with JSON {"score": <0-100>, "suggestions": ["..."]}.`, c.Title, c.Summary, truncate(c.Story, 4000))

	var out Quality
	if s.ask(ctx, "quality", prompt, &out) && out.Score >= 0 && out.Score <= 100 {
		out.Source = SourceAI
		return &out
	}
	return fallbackQuality(c)
}

func fallbackQuality(c *models.Campaign) *Quality {
	q := &Quality{Source: SourceFallback}
	score := 40
	if len(c.Summary) >= 40 {
		score += 15
	} else {
		q.Suggestions = append(q.Suggestions, "Add a one-sentence summary that explains the goal.")
	}
	if words := len(strings.Fields(c.Story)); words >= 150 {
		score += 25
	} else {
		q.Suggestions = append(q.Suggestions, "Expand the story to at least 150 words.")
	}
	if c.CoverImageKey != "" {
		score += 10
	} else {
		q.Suggestions = append(q.Suggestions, "Upload a cover image.")
	}
	if len(c.RewardTiers) > 0 {
		score += 10
	} else {
		q.Suggestions = append(q.Suggestions, "Offer at least one reward tier.")
	}
	q.Score = score
	return q
}

// WeeklyTips suggests next steps for a creator based on their week.
func (s *Service) WeeklyTips(ctx context.Context, st WeeklyStats) *Tips {
	prompt := fmt.Sprintf(`A crowdfunding creator had this week:
Raised: %s from %d payments
Live campaigns: %d
Best campaign: %s
Give 3 short, concrete tips for next week. Answer with JSON {"tips": ["...", "...", "..."]}.`,
		money.Format(st.RaisedThisWeek, st.Currency), st.PaymentsCount, st.LiveCampaigns, st.BestCampaign)

	var out Tips
	if s.ask(ctx, "tips", prompt, &out) {
		var tips []string
		for _, t := range out.Tips {
			if t = strings.TrimSpace(t); t != "" {
				tips = append(tips, t)
			}
		}
		if len(tips) > 0 {
			return &Tips{Tips: tips, Source: SourceAI}
		}
	}
	return fallbackTips(st)
}

func fallbackTips(st WeeklyStats) *Tips {
	tips := []string{}
	if st.PaymentsCount == 0 {
		tips = append(tips, "Share your campaign with three people who already know your project.")
	} else {
		tips = append(tips, "Thank this week's supporters in a public update.")
	}
	if st.LiveCampaigns == 0 {
		tips = append(tips, "You have no live campaign. Publish a draft to start raising.")
	} else {
		tips = append(tips, "Post a progress update; campaigns with regular updates raise more.")
	}
	tips = append(tips, "Add a reward tier just above your most common contribution amount.")
	return &Tips{Tips: tips, Source: SourceFallback}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
