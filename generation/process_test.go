package generation

import (
	"strings"
	"testing"

	"floorchat-backend/intent"
	"floorchat-backend/livedata"
	"floorchat-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSuggestions_ThreeLines(t *testing.T) {
	raw := "Line 3 produced 820 pcs today.\n\n---SUGGESTED_QUESTIONS---\nWhich line is behind target?\nAny blockers on line 3?\nHow is PO-123 progressing?\n"

	body, suggestions := SplitSuggestions(raw)

	assert.Equal(t, "Line 3 produced 820 pcs today.", body)
	assert.Len(t, suggestions, 3)
	assert.NotContains(t, body, "---SUGGESTED_QUESTIONS---")
	assert.NotContains(t, body, "Which line")
}

func TestSplitSuggestions_NoDelimiter(t *testing.T) {
	body, suggestions := SplitSuggestions("Output is 4,200 pcs.  \n")
	assert.Equal(t, "Output is 4,200 pcs.", body)
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}

func TestSplitSuggestions_FiltersAndCaps(t *testing.T) {
	long := strings.Repeat("x", MaxSuggestionLength)
	raw := "Body\n---SUGGESTED_QUESTIONS---\n\n1. First?\n- Second?\n* Third?\n" + long + "\n2) Fourth?\n• Fifth?\n"

	_, suggestions := SplitSuggestions(raw)

	assert.Equal(t, []string{"First?", "Second?", "Third?", "Fourth?"}, suggestions)
}

func liveWithData(hasData bool) *livedata.Context {
	r := livedata.Result{Category: intent.SewingOutput, Label: "Sewing Output", Data: []any{}}
	if hasData {
		r.Data = []any{"row"}
	}
	return &livedata.Context{AsOfDate: "2026-03-09", Results: []livedata.Result{r}}
}

func TestDetectNoEvidence(t *testing.T) {
	body := "I don't have information about that in the knowledge base."

	assert.True(t, DetectNoEvidence(body, nil))
	assert.True(t, DetectNoEvidence(body, liveWithData(false)))
	assert.True(t, DetectNoEvidence("I don’t have information on that.", nil))
	assert.False(t, DetectNoEvidence("Line 3 made 820 pcs.", nil))
}

func TestDetectNoEvidence_LiveDataOverridesPhrases(t *testing.T) {
	body := "I don't have information in the manuals, but today's output is 4,200 pcs."
	assert.False(t, DetectNoEvidence(body, liveWithData(true)))

	errored := liveWithData(true)
	errored.Results[0].Error = "timeout"
	assert.True(t, DetectNoEvidence(body, errored))
}

func TestExtractCitations(t *testing.T) {
	page := 12
	sources := []models.SourceChunk{
		{ID: uuid.New(), Title: "Needle Policy", Type: "policy", PageNumber: &page, Content: "Broken needles must be logged."},
		{ID: uuid.New(), Title: "Line Balancing SOP", Type: "sop", Content: "Balance by SMV."},
		{ID: uuid.New(), Title: "Fire Safety", Type: "manual", Content: "Keep exits clear."},
	}
	body := "Per the needle policy, log every broken needle. See also Source 2."

	got := ExtractCitations(body, sources)

	require.Len(t, got, 2)
	assert.Equal(t, sources[0].ID, got[0].SourceID)
	assert.Equal(t, &page, got[0].PageNumber)
	assert.Equal(t, "Broken needles must be logged.", got[0].Snippet)
	assert.Equal(t, "Line Balancing SOP", got[1].Title)
}

func TestExtractCitations_NoneReferenced(t *testing.T) {
	got := ExtractCitations("Output is fine.", []models.SourceChunk{{Title: "Needle Policy"}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSnippet(t *testing.T) {
	short := "Keep   exits\nclear."
	assert.Equal(t, "Keep exits clear.", Snippet(short))

	long := strings.Repeat("সেলাই ", 100)
	s := Snippet(long)
	assert.LessOrEqual(t, len([]rune(s)), MaxSnippetRunes)
	assert.True(t, strings.HasSuffix(s, "..."))
}

func TestProcess(t *testing.T) {
	sources := []models.SourceChunk{{ID: uuid.New(), Title: "Needle Policy", Content: "Log needles."}}
	raw := "Follow the Needle Policy.\n---SUGGESTED_QUESTIONS---\nWhat about line 4?"

	resp := Process(raw, sources, liveWithData(true))

	assert.Equal(t, "Follow the Needle Policy.", resp.Content)
	assert.Equal(t, []string{"What about line 4?"}, resp.SuggestedQuestions)
	assert.Len(t, resp.Citations, 1)
	assert.False(t, resp.NoEvidence)
}
