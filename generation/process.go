package generation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"floorchat-backend/livedata"
	"floorchat-backend/models"
	"floorchat-backend/prompt"
)

const (
	MaxSuggestionLength = 150
	MaxSuggestions      = 4
	MaxSnippetRunes     = 200
)

// noEvidencePhrases mark an answer in which the model found nothing relevant.
var noEvidencePhrases = []string{
	"i don't have information",
	"i do not have information",
	"i don't have any information",
	"i don't have enough information",
	"i don't have data",
	"i do not have data",
	"no information available",
	"no relevant information",
	"not found in the provided",
	"couldn't find any information",
	"could not find any information",
	"i couldn't find",
	"i could not find",
	"no data available",
	"not available in the",
	"i'm unable to find",
	"i am unable to find",
	"there is no information",
}

var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d{1,2}[.)])\s*`)

// Process splits the raw model text into body and suggestions, then derives
// the no-evidence flag and citations from the body.
func Process(raw string, sources []models.SourceChunk, live *livedata.Context) *models.ChatResponse {
	body, suggestions := SplitSuggestions(raw)
	citations := ExtractCitations(body, sources)
	return &models.ChatResponse{
		Content:            body,
		Citations:          citations,
		NoEvidence:         DetectNoEvidence(body, live),
		SuggestedQuestions: suggestions,
	}
}

// SplitSuggestions separates the answer from the follow-up questions that
// follow prompt.SuggestionDelimiter. Without the delimiter the whole text is
// the body and there are no suggestions.
func SplitSuggestions(raw string) (string, []string) {
	idx := strings.Index(raw, prompt.SuggestionDelimiter)
	if idx < 0 {
		return strings.TrimRight(raw, " \t\r\n"), []string{}
	}

	body := strings.TrimRight(raw[:idx], " \t\r\n")
	rest := raw[idx+len(prompt.SuggestionDelimiter):]

	suggestions := []string{}
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" || utf8.RuneCountInString(line) >= MaxSuggestionLength {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	return body, suggestions
}

// DetectNoEvidence reports whether body admits to having no information.
// It is always false when live carries any usable data.
func DetectNoEvidence(body string, live *livedata.Context) bool {
	if live.HasEvidence() {
		return false
	}
	lower := strings.ToLower(strings.ReplaceAll(body, "’", "'"))
	for _, phrase := range noEvidencePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ExtractCitations returns a citation for every source whose title appears
// in body (case-insensitive) or that body refers to as "Source N", in source
// order. Unreferenced sources are dropped.
func ExtractCitations(body string, sources []models.SourceChunk) []models.Citation {
	citations := []models.Citation{}
	lower := strings.ToLower(body)
	for i, s := range sources {
		titled := s.Title != "" && strings.Contains(lower, strings.ToLower(s.Title))
		numbered := strings.Contains(body, fmt.Sprintf("Source %d", i+1))
		if !titled && !numbered {
			continue
		}
		citations = append(citations, models.Citation{
			SourceID:     s.ID,
			Title:        s.Title,
			Type:         s.Type,
			SectionLabel: s.SectionLabel,
			PageNumber:   s.PageNumber,
			SourceURL:    s.SourceURL,
			Snippet:      Snippet(s.Content),
		})
	}
	return citations
}

// Snippet returns content collapsed to single spaces and cut to at most
// MaxSnippetRunes runes.
func Snippet(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	r := []rune(s)
	if len(r) <= MaxSnippetRunes {
		return s
	}
	return string(r[:MaxSnippetRunes-3]) + "..."
}
