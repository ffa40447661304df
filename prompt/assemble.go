// Package prompt assembles the instruction header and the layered user turn
// sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"floorchat-backend/livedata"
	"floorchat-backend/models"
)

const (
	// HistoryWindow is the number of past messages carried into a turn.
	HistoryWindow = 10
	// SuggestionDelimiter separates the answer from follow-up questions.
	SuggestionDelimiter = "---SUGGESTED_QUESTIONS---"
	// MaxSourceRunes caps each knowledge passage in the payload.
	MaxSourceRunes = 1500
)

// Profile describes who is asking.
type Profile struct {
	Role        string
	Features    []string
	Language    string
	FactoryName string
}

// Assemble returns the system prompt and the message list for one turn.
// The final message is the user turn: live data first, then knowledge
// sources, then the question.
func Assemble(history []models.ChatMessage, live *livedata.Context, sources []models.SourceChunk, question string, p Profile) (string, []models.ChatMessage) {
	system := SystemPrompt(p, live)

	messages := Window(history)
	messages = append(messages, models.ChatMessage{
		Role:    models.RoleUser,
		Content: UserTurn(live, sources, question),
	})
	return system, messages
}

// Window returns the last HistoryWindow messages in chronological order,
// merging consecutive turns from the same role and dropping a leading
// assistant turn or a trailing unanswered user turn.
func Window(history []models.ChatMessage) []models.ChatMessage {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	out := make([]models.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if len(out) == 0 && m.Role != models.RoleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	if n := len(out); n > 0 && out[n-1].Role == models.RoleUser {
		out = out[:n-1]
	}
	return out
}

// SystemPrompt builds the role-aware instruction header.
func SystemPrompt(p Profile, live *livedata.Context) string {
	var b strings.Builder

	factory := p.FactoryName
	if factory == "" {
		factory = "the factory"
	}
	fmt.Fprintf(&b, "You are the production assistant for %s, a garment manufacturing factory.\n", factory)
	fmt.Fprintf(&b, "You are answering a %s.\n", roleDescription(p.Role))
	if len(p.Features) > 0 {
		fmt.Fprintf(&b, "The user has access to these features: %s. Do not offer actions outside them.\n", strings.Join(p.Features, ", "))
	}
	fmt.Fprintf(&b, "Respond in %s.\n", LanguageName(p.Language))

	b.WriteString(`
Rules:
- Answer only from the live production data and knowledge base sources in the user's message.
- If neither contains the answer, say you don't have that information. Never invent numbers, names or dates.
- When you use a knowledge base source, mention its title or refer to it as "Source N".
- Keep answers short and practical for a busy factory floor. Use bullet points for lists.
`)

	if live != nil && len(live.Results) > 0 {
		fmt.Fprintf(&b, `
Live data rules:
- The live production data is real-time data for %s and takes priority over knowledge base sources.
- Quote figures exactly as given. Percentages are already computed.
- When a section says nothing has been submitted yet, say so plainly instead of guessing.
- When a section says data is unavailable, tell the user that part could not be loaded right now.
`, live.AsOfDate)
	}

	fmt.Fprintf(&b, `
Always finish your reply with the line %s followed by up to 3 short follow-up questions the user might ask next, one per line, with no numbering.`, SuggestionDelimiter)

	return b.String()
}

// UserTurn renders the layered payload for the current question.
func UserTurn(live *livedata.Context, sources []models.SourceChunk, question string) string {
	var b strings.Builder

	if live != nil && len(live.Results) > 0 {
		writeLiveData(&b, live)
		b.WriteString("\n")
	}
	writeSources(&b, sources)
	b.WriteString("\n## Question\n")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

func writeLiveData(b *strings.Builder, live *livedata.Context) {
	fmt.Fprintf(b, "## Live production data (as of %s)\n", live.AsOfDate)
	for _, r := range live.Results {
		fmt.Fprintf(b, "\n### %s\n", r.Label)
		switch {
		case r.Failed():
			fmt.Fprintf(b, "Data unavailable: %s could not be loaded right now.\n", r.Label)
		case r.Empty():
			fmt.Fprintf(b, "Nothing has been submitted yet for %s.", r.Label)
			if r.Summary != "" {
				fmt.Fprintf(b, " %s", r.Summary)
			}
			b.WriteString("\n")
		default:
			b.WriteString(r.Summary)
			b.WriteString("\n")
		}
	}
}

func writeSources(b *strings.Builder, sources []models.SourceChunk) {
	b.WriteString("## Knowledge base sources\n")
	if len(sources) == 0 {
		b.WriteString("No relevant knowledge base sources were found for this question.\n")
		return
	}
	for i, s := range sources {
		fmt.Fprintf(b, "\n[Source %d] %s (%s", i+1, s.Title, orUnknown(s.Type))
		if loc := location(s); loc != "" {
			fmt.Fprintf(b, ", %s", loc)
		}
		fmt.Fprintf(b, ", %d%% match)\n", int(s.SimilarityScore*100+0.5))
		b.WriteString(truncate(strings.TrimSpace(s.Content), MaxSourceRunes))
		b.WriteString("\n")
	}
}

func location(s models.SourceChunk) string {
	if s.PageNumber != nil {
		return fmt.Sprintf("page %d", *s.PageNumber)
	}
	if s.SectionLabel != "" {
		return "section " + s.SectionLabel
	}
	return ""
}

func roleDescription(role string) string {
	switch strings.ToLower(role) {
	case "admin", "owner":
		return "factory owner or administrator with full visibility"
	case "manager", "production_manager":
		return "production manager responsible for the whole floor"
	case "supervisor", "line_supervisor":
		return "line supervisor focused on their lines and operators"
	case "":
		return "factory team member"
	}
	return strings.ReplaceAll(role, "_", " ")
}

func orUnknown(s string) string {
	if s == "" {
		return "document"
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
