package livedata

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// MaxDataRows caps the structured records attached to a result.
	MaxDataRows = 50
	// MaxDetailLines caps the per-record lines rendered in a summary.
	MaxDetailLines = 10
	// QueryRowLimit caps the rows read per store call.
	QueryRowLimit = 500
)

func qty(n int) string {
	return humanize.Comma(int64(n))
}

// summary builds the fixed-format text attached to a result.
type summary struct {
	b      strings.Builder
	detail int
	hidden int
}

func (s *summary) line(format string, args ...any) {
	if s.b.Len() > 0 {
		s.b.WriteByte('\n')
	}
	fmt.Fprintf(&s.b, format, args...)
}

// item adds a per-record line, counting the ones past MaxDetailLines.
func (s *summary) item(format string, args ...any) {
	if s.detail >= MaxDetailLines {
		s.hidden++
		return
	}
	s.detail++
	s.line("- "+format, args...)
}

func (s *summary) String() string {
	if s.hidden > 0 {
		s.line("- ...and %d more", s.hidden)
		s.hidden = 0
	}
	return s.b.String()
}

func capRows[T any](rows []T) []any {
	n := len(rows)
	if n > MaxDataRows {
		n = MaxDataRows
	}
	out := make([]any, 0, n)
	for _, r := range rows[:n] {
		out = append(out, r)
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
