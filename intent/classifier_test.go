package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_POAndBuyerScenario(t *testing.T) {
	c := Classify("How far is PO-123 from C&A?")

	assert.True(t, c.Has(WorkOrders))
	assert.Equal(t, "PO-123", c.PONumberHint)
	assert.Equal(t, "C&A", c.BuyerHint)
	assert.Empty(t, c.LineHint)
}

func TestClassify_PONumberForcesWorkOrders(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"short number is padded", "status of po 7", "PO-007"},
		{"two digits padded", "PO#45 please", "PO-045"},
		{"dotted prefix", "p.o. 123 cutting", "PO-123"},
		{"order number phrasing", "order no. 5566 cutting", "PO-5566"},
		{"already wide", "PO-000912 finishing", "PO-000912"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.message)
			assert.Equal(t, tt.want, c.PONumberHint)
			assert.True(t, c.Has(WorkOrders), "categories: %v", c.Categories)
			assert.GreaterOrEqual(t, len(c.PONumberHint)-len("PO-"), PONumberWidth)
		})
	}
}

func TestClassify_PONumberIsBounded(t *testing.T) {
	c := Classify("po 1234567 output")
	assert.Empty(t, c.PONumberHint)
}

func TestClassify_Idempotent(t *testing.T) {
	messages := []string{
		"How far is PO-123 from C&A?",
		"what’s happening on line 4 today",
		"cutting and finishing for H&M",
		"",
	}
	for _, m := range messages {
		assert.Equal(t, Classify(m), Classify(m), m)
	}
}

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []Category
		summary bool
	}{
		{
			"generic sewing activates output and targets",
			"how is sewing going",
			[]Category{SewingOutput, SewingTargets},
			false,
		},
		{
			"specific output does not add targets",
			"sewing output for line 3",
			[]Category{SewingOutput, Lines},
			false,
		},
		{
			"multiple categories keep detection order",
			"any blockers in cutting or finishing?",
			[]Category{Blockers, Cutting, Finishing},
			false,
		},
		{
			"catch-all activates default bundle",
			"what's happening today?",
			[]Category{SewingOutput, SewingTargets, Blockers},
			true,
		},
		{
			"summary request",
			"give me the factory overview",
			[]Category{FactorySummary},
			true,
		},
		{
			"storage terms",
			"how much fabric was received in the warehouse",
			[]Category{Storage},
			false,
		},
		{
			"nothing recognised",
			"hello",
			nil,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.message)
			assert.Equal(t, tt.want, c.Categories)
			assert.Equal(t, tt.summary, c.WantsSummary)
		})
	}
}

func TestClassify_CategoriesAreUnique(t *testing.T) {
	c := Classify("output output targets blockers blocked issues PO 12 order 12")
	seen := map[Category]bool{}
	for _, cat := range c.Categories {
		require.False(t, seen[cat], "duplicate category %s", cat)
		seen[cat] = true
	}
}

func TestClassify_BuyerHint(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"brand with ampersand", "How is H&M doing?", "H&M"},
		{"possessive stripped", "Show Primark's progress", "Primark"},
		{"stop words only", "show me the output for today", ""},
		{"numbers are not buyers", "output 1200 pcs", ""},
		{"single letter residue", "x", ""},
		{"empty message", "", ""},
		{"two word brand", "progress for Marks & Spencer", "Marks & Spencer"},
		{"inner capital opens sentence", "NEXT output today", "NEXT"},
		{"capitalized first word is not a name", "Primark progress", ""},
		{"ordinary verb", "Did we hit our target?", ""},
		{"ordinary adjective", "Why is line 5 so slow?", ""},
		{"ordinary verb after line", "How many pieces did line 2 make?", ""},
		{"lowercase residue", "what about quilted jackets", ""},
		{"bengali question", "আজকের উৎপাদন কত?", ""},
		{"sentence in title case", "Show Me Big Red Quilted Jackets", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message).BuyerHint)
		})
	}
}

func TestClassify_BuyerHintForcesWorkOrders(t *testing.T) {
	c := Classify("How is H&M doing?")
	assert.Equal(t, []Category{SewingOutput, SewingTargets, Blockers, WorkOrders}, c.Categories)
}

func TestClassify_NoBuyerLeavesWorkOrdersOut(t *testing.T) {
	c := Classify("Did we hit our target?")
	assert.Empty(t, c.BuyerHint)
	assert.False(t, c.Has(WorkOrders), "categories: %v", c.Categories)
}

func TestTokenRegexp_KeepsCombiningMarks(t *testing.T) {
	assert.Equal(t, []string{"আজকের", "উৎপাদন", "কত"}, tokenRegexp.FindAllString("আজকের উৎপাদন কত?", -1))
}

func TestClassify_LineHintDoesNotForceCategory(t *testing.T) {
	c := Classify("L-4 rejects")

	assert.Equal(t, "4", c.LineHint)
	assert.Equal(t, []Category{SewingOutput}, c.Categories)
}

func TestClassify_LineHintFormats(t *testing.T) {
	assert.Equal(t, "3", Classify("line 3 output").LineHint)
	assert.Equal(t, "A2", Classify("Line a2 output").LineHint)
	assert.Equal(t, "12", Classify("line no. 12 output").LineHint)
	assert.Equal(t, "1", Classify("L1 output").LineHint)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, `what's "up" - now`, Normalize("  what’s “up” — now "))
}

func TestNormalizePONumber(t *testing.T) {
	assert.Equal(t, "PO-001", NormalizePONumber("1"))
	assert.Equal(t, "PO-1234", NormalizePONumber("1234"))
	assert.Empty(t, NormalizePONumber("12a"))
}

func TestCategoryLabels(t *testing.T) {
	for _, c := range All() {
		assert.True(t, c.Valid())
		assert.NotEqual(t, string(c), c.Label(), "missing label for %s", c)
	}
	assert.False(t, Category("payroll").Valid())
}
