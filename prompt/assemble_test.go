package prompt

import (
	"fmt"
	"strings"
	"testing"

	"floorchat-backend/intent"
	"floorchat-backend/livedata"
	"floorchat-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveContext() *livedata.Context {
	return &livedata.Context{
		AsOfDate: "2026-03-09",
		Results: []livedata.Result{
			{Category: intent.SewingOutput, Label: "Sewing Output", Data: []any{1}, Summary: "Total good output: 4,200 pcs"},
			{Category: intent.Blockers, Label: "Active Blockers", Data: []any{}, Error: "timeout", Summary: "Active Blockers data is unavailable right now."},
			{Category: intent.Cutting, Label: "Cutting", Data: []any{}, Summary: "No cutting data has been submitted for 2026-03-09 yet."},
		},
	}
}

func TestUserTurn_SectionOrder(t *testing.T) {
	page := 4
	sources := []models.SourceChunk{
		{Title: "Needle Policy", Type: "policy", PageNumber: &page, Content: "Broken needles must be logged.", SimilarityScore: 0.82},
	}

	got := UserTurn(liveContext(), sources, "  What is today's output?  ")

	live := strings.Index(got, "## Live production data (as of 2026-03-09)")
	knowledge := strings.Index(got, "## Knowledge base sources")
	question := strings.Index(got, "## Question\nWhat is today's output?")
	require.NotEqual(t, -1, live)
	require.NotEqual(t, -1, knowledge)
	require.NotEqual(t, -1, question)
	assert.Less(t, live, knowledge)
	assert.Less(t, knowledge, question)
	assert.True(t, strings.HasSuffix(got, "What is today's output?"))
}

func TestUserTurn_LiveStates(t *testing.T) {
	got := UserTurn(liveContext(), nil, "q")

	assert.Contains(t, got, "### Sewing Output\nTotal good output: 4,200 pcs")
	assert.Contains(t, got, "Data unavailable: Active Blockers could not be loaded right now.")
	assert.NotContains(t, got, "timeout")
	assert.Contains(t, got, "Nothing has been submitted yet for Cutting.")
}

func TestUserTurn_Sources(t *testing.T) {
	page := 4
	got := UserTurn(nil, []models.SourceChunk{
		{Title: "Needle Policy", Type: "policy", PageNumber: &page, Content: "Broken needles must be logged.", SimilarityScore: 0.82},
		{Title: "Line Balancing", Type: "sop", SectionLabel: "3.2", Content: "Balance by SMV.", SimilarityScore: 0.456},
	}, "q")

	assert.Contains(t, got, "[Source 1] Needle Policy (policy, page 4, 82% match)\nBroken needles must be logged.")
	assert.Contains(t, got, "[Source 2] Line Balancing (sop, section 3.2, 46% match)")
	assert.NotContains(t, got, "## Live production data")
}

func TestUserTurn_NoSources(t *testing.T) {
	got := UserTurn(nil, nil, "q")
	assert.Contains(t, got, "No relevant knowledge base sources were found")
}

func TestSystemPrompt(t *testing.T) {
	p := Profile{Role: "line_supervisor", Features: []string{"sewing", "blockers"}, Language: "bn", FactoryName: "Dhaka Knit"}

	withLive := SystemPrompt(p, liveContext())
	assert.Contains(t, withLive, "Dhaka Knit")
	assert.Contains(t, withLive, "line supervisor")
	assert.Contains(t, withLive, "sewing, blockers")
	assert.Contains(t, withLive, "Respond in Bengali (Bangla).")
	assert.Contains(t, withLive, "Live data rules:")
	assert.Contains(t, withLive, SuggestionDelimiter)

	withoutLive := SystemPrompt(Profile{}, nil)
	assert.NotContains(t, withoutLive, "Live data rules:")
	assert.Contains(t, withoutLive, "Respond in English.")
	assert.Contains(t, withoutLive, SuggestionDelimiter)
}

func TestWindow(t *testing.T) {
	var history []models.ChatMessage
	for i := 0; i < 14; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, models.ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i)})
	}

	got := Window(history)
	require.Len(t, got, HistoryWindow)
	assert.Equal(t, "m4", got[0].Content)
	assert.Equal(t, "m13", got[len(got)-1].Content)
}

func TestWindow_RepairsRoles(t *testing.T) {
	got := Window([]models.ChatMessage{
		{Role: models.RoleAssistant, Content: "orphan answer"},
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleUser, Content: "retry"},
		{Role: models.RoleAssistant, Content: "answer"},
		{Role: models.RoleUser, Content: "unanswered"},
	})

	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleUser, Content: "first\n\nretry"},
		{Role: models.RoleAssistant, Content: "answer"},
	}, got)
}

func TestAssemble_LastMessageIsUserTurn(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	system, msgs := Assemble(history, liveContext(), nil, "output?", Profile{})

	assert.NotEmpty(t, system)
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[2].Role)
	assert.True(t, strings.HasSuffix(msgs[2].Content, "output?"))
	assert.Len(t, history, 2)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage("", "What is the output?"))
	assert.Equal(t, "bn", DetectLanguage("", "আজকের আউটপুট কত?"))
	assert.Equal(t, "en", DetectLanguage(" EN ", "আজকের আউটপুট কত?"))
	assert.Equal(t, "bn", DetectLanguage("bn", "output"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "আজ...", truncate("আজকের", 2))
}
