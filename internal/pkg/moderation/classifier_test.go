package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	answer string
	err    error
}

func (s stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, s.err
}

func TestHeuristicClassifier(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	clean, err := h.Classify(ctx, Content{
		Title: "Community garden",
		Story: "We want to turn the empty lot into a garden for the neighbourhood school.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, clean.Score)
	assert.Empty(t, clean.Categories)

	spam, err := h.Classify(ctx, Content{Story: strings.Repeat("buy ", 12) + "now"})
	require.NoError(t, err)
	assert.Equal(t, []string{CategorySpam}, spam.Categories)
	assert.Equal(t, 40, spam.Score)

	links, err := h.Classify(ctx, Content{Story: "see http://a.io http://b.io http://c.io http://d.io for details"})
	require.NoError(t, err)
	assert.Equal(t, 30, links.Score)

	scam, err := h.Classify(ctx, Content{
		Title: "Guaranteed return in a week",
		Story: "Double your money! Send bitcoin to the address below. This is an investment opportunity.",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{CategoryScam}, scam.Categories)
	assert.GreaterOrEqual(t, scam.Score, RejectThreshold)
	assert.Equal(t, OutcomeRejected, Decide(scam.Score).Outcome)

	prohibited, err := h.Classify(ctx, Content{Story: "Funding a workshop for counterfeit watches."})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFlagged, Decide(prohibited.Score).Outcome)
}

func TestAIClassifier(t *testing.T) {
	ctx := context.Background()
	content := Content{Story: "Funding a workshop for counterfeit watches."}

	ai := NewAIClassifier(stubGenerator{answer: `{"score": 72, "categories": ["Scam", "weird"]}`}, nil)
	res, err := ai.Classify(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, "ai", res.Source)
	assert.Equal(t, 72, res.Score)
	assert.Equal(t, []string{CategoryScam}, res.Categories)

	for name, gen := range map[string]stubGenerator{
		"provider error": {err: errors.New("timeout")},
		"no json":        {answer: "looks fine to me"},
		"out of range":   {answer: `{"score": 400}`},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := NewAIClassifier(gen, nil).Classify(ctx, content)
			require.NoError(t, err)
			assert.Equal(t, "heuristic", res.Source)
			assert.Equal(t, 50, res.Score)
		})
	}

	res, err = NewAIClassifier(nil, nil).Classify(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", res.Source)
}
