package intent

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// PONumberWidth is the minimum digit width of a normalized PO hint.
	PONumberWidth = 3
	// MaxBuyerTokens caps the words of a buyer hint. Longer residue is a
	// sentence, not a name.
	MaxBuyerTokens = 3
)

// Classification is the result of classifying a single message.
// Empty hint strings mean no hint was found.
type Classification struct {
	Categories   []Category `json:"categories"`
	PONumberHint string     `json:"po_number_hint,omitempty"`
	BuyerHint    string     `json:"buyer_hint,omitempty"`
	LineHint     string     `json:"line_hint,omitempty"`
	WantsSummary bool       `json:"wants_summary"`
}

// Has reports whether the classification contains c.
func (c Classification) Has(cat Category) bool {
	for _, existing := range c.Categories {
		if existing == cat {
			return true
		}
	}
	return false
}

type rule struct {
	pattern    *regexp.Regexp
	categories []Category
}

var (
	outputPattern  = regexp.MustCompile(`\b(output|produced|production|pieces|pcs|efficiency|rejects?|rework|dhu|sewn|made)\b`)
	targetPattern  = regexp.MustCompile(`\b(targets?|goals?|planned|plan|achievement|achieved|achieve|behind|ahead|on track|shortfall)\b`)
	sewingPattern  = regexp.MustCompile(`\bsew(ing|ers?)?\b`)
	summaryPattern = regexp.MustCompile(`\b(summary|summari[sz]e|overview|overall|factory|dashboard|report|how are we doing)\b`)

	// Evaluated in order; each match adds its categories to the set.
	rules = []rule{
		{regexp.MustCompile(`\b(blockers?|blocked|issues?|problems?|delays?|delayed|stoppages?|downtime|breakdowns?|shortages?|stuck|bottlenecks?)\b`), []Category{Blockers}},
		{regexp.MustCompile(`\b(purchase orders?|work orders?|orders?|pos|styles?|buyers?|shipments?|ex-factory|ex factory|how far|progress|completion)\b`), []Category{WorkOrders}},
		{regexp.MustCompile(`\b(cut|cuts|cutting|cutter|lay|input)\b`), []Category{Cutting}},
		{regexp.MustCompile(`\b(finish|finishing|finished|poly|carton|cartons|packing|packed|iron|ironing)\b`), []Category{Finishing}},
		{regexp.MustCompile(`\b(storage|store|warehouse|inventory|stock|fabric|bin card|received|issued|trims)\b`), []Category{Storage}},
		{regexp.MustCompile(`\b(lines?|manpower|operators?|workers?|headcount|not submitted|submitted)\b`), []Category{Lines}},
	}

	catchAllPattern = regexp.MustCompile(`\b(today|yesterday|now|currently|latest|updates?|happening|going on|how are|how is|status|anything)\b`)

	poPattern   = regexp.MustCompile(`(?i)(?:\bp\.?o\.?|\border)\s*(?:no\.?|number|num)?\s*[-#:]?\s*(\d{1,6})\b`)
	linePattern = regexp.MustCompile(`(?i)\b(?:line\s*(?:no\.?|number|#)?\s*[-:]?\s*([a-z]?\d{1,2}[a-z]?)|l-?(\d{1,2}))\b`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	tokenRegexp = regexp.MustCompile(`[\p{L}\p{M}\p{N}&.']+`)

	asciiReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‛", "'", "′", "'", "`", "'",
		"“", `"`, "”", `"`, "„", `"`, "″", `"`,
		"–", "-", "—", "-", "−", "-",
		"\u00a0", " ",
	)
)

// Classify derives the data categories and entity hints for a message.
// It depends only on the text: identical input yields identical output.
func Classify(message string) Classification {
	normalized := Normalize(message)
	lower := strings.ToLower(normalized)

	set := newCategorySet()

	outputHit := outputPattern.MatchString(lower)
	targetHit := targetPattern.MatchString(lower)
	if outputHit {
		set.add(SewingOutput)
	}
	if targetHit {
		set.add(SewingTargets)
	}
	if sewingPattern.MatchString(lower) && !outputHit && !targetHit {
		set.add(SewingOutput, SewingTargets)
	}

	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			set.add(r.categories...)
		}
	}

	wantsSummary := false
	if summaryPattern.MatchString(lower) {
		set.add(FactorySummary)
		wantsSummary = true
	}

	if set.empty() && catchAllPattern.MatchString(lower) {
		set.add(SewingOutput, SewingTargets, Blockers)
		wantsSummary = true
	}

	c := Classification{WantsSummary: wantsSummary}

	c.PONumberHint = extractPONumber(normalized)
	c.LineHint = extractLineCode(normalized)
	c.BuyerHint = extractBuyer(normalized)

	if c.PONumberHint != "" {
		set.add(WorkOrders)
	} else if c.BuyerHint != "" {
		set.add(WorkOrders)
	}

	c.Categories = set.items
	return c
}

// Normalize maps typographic punctuation to plain ASCII equivalents.
func Normalize(s string) string {
	return strings.TrimSpace(asciiReplacer.Replace(s))
}

func extractPONumber(text string) string {
	m := poPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizePONumber(m[1])
}

// NormalizePONumber renders digits as a PO identifier, left-padding with
// zeros to PONumberWidth.
func NormalizePONumber(digits string) string {
	digits = strings.TrimSpace(digits)
	if !digitsOnly.MatchString(digits) {
		return ""
	}
	if pad := PONumberWidth - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return "PO-" + digits
}

func extractLineCode(text string) string {
	m := linePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	code := m[1]
	if code == "" {
		code = m[2]
	}
	return strings.ToUpper(code)
}

// extractBuyer keeps the name-like Latin-script words left after removing
// PO and line references and stop words.
func extractBuyer(text string) string {
	residual := poPattern.ReplaceAllString(text, " ")
	residual = linePattern.ReplaceAllString(residual, " ")

	var kept []string
	for i, tok := range tokenRegexp.FindAllString(residual, -1) {
		tok = strings.Trim(tok, ".'")
		tok = strings.TrimSuffix(tok, "'s")
		tok = strings.TrimSuffix(tok, "'S")
		if tok == "" || hasDigit(tok) || !isLatin(tok) {
			continue
		}
		if _, stop := stopWords[strings.ToLower(tok)]; stop {
			continue
		}
		if !looksLikeName(tok, i == 0) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > MaxBuyerTokens {
		return ""
	}

	hint := strings.Join(kept, " ")
	if letterCount(hint) < 2 {
		return ""
	}
	return hint
}

// looksLikeName accepts "&" joiners, words with an inner capital ("H&M",
// "NEXT", "McKinsey") and capitalized words that do not open the sentence.
func looksLikeName(tok string, first bool) bool {
	if strings.Contains(tok, "&") {
		return true
	}
	for i, r := range tok {
		if !unicode.IsUpper(r) {
			continue
		}
		if i > 0 || !first {
			return true
		}
	}
	return false
}

func isLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// categorySet keeps insertion order and rejects duplicates.
type categorySet struct {
	items []Category
	seen  map[Category]struct{}
}

func newCategorySet() *categorySet {
	return &categorySet{seen: make(map[Category]struct{})}
}

func (s *categorySet) add(cats ...Category) {
	for _, c := range cats {
		if _, ok := s.seen[c]; ok {
			continue
		}
		s.seen[c] = struct{}{}
		s.items = append(s.items, c)
	}
}

func (s *categorySet) empty() bool {
	return len(s.items) == 0
}
