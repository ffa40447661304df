package livedata

import (
	"fmt"
	"time"

	"floorchat-backend/intent"
)

// Result is the outcome of fetching one category.
// A failed result carries an Error, empty Data and a placeholder Summary.
type Result struct {
	Category  intent.Category `json:"category"`
	Label     string          `json:"label"`
	Data      []any           `json:"data"`
	Summary   string          `json:"summary"`
	FetchedAt time.Time       `json:"fetched_at"`
	Error     string          `json:"error,omitempty"`
}

// Failed reports whether the fetch for this category failed.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Empty reports whether the fetch succeeded but nothing has been submitted.
func (r Result) Empty() bool {
	return !r.Failed() && len(r.Data) == 0
}

// HasData reports whether the result is usable evidence.
func (r Result) HasData() bool {
	return !r.Failed() && len(r.Data) > 0
}

// Context holds every category result for one request.
type Context struct {
	Results  []Result `json:"results"`
	AsOfDate string   `json:"as_of_date"`
}

// HasEvidence reports whether any result carries data without an error.
// Safe to call on a nil Context.
func (c *Context) HasEvidence() bool {
	if c == nil {
		return false
	}
	for _, r := range c.Results {
		if r.HasData() {
			return true
		}
	}
	return false
}

// Result returns the result for a category, if present.
func (c *Context) Result(cat intent.Category) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	for _, r := range c.Results {
		if r.Category == cat {
			return r, true
		}
	}
	return Result{}, false
}

// Categories returns the categories fetched, in result order.
func (c *Context) Categories() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Results))
	for _, r := range c.Results {
		out = append(out, string(r.Category))
	}
	return out
}

func failedResult(cat intent.Category, err error, at time.Time) Result {
	return Result{
		Category:  cat,
		Label:     cat.Label(),
		Data:      []any{},
		Summary:   fmt.Sprintf("%s data is unavailable right now.", cat.Label()),
		FetchedAt: at,
		Error:     err.Error(),
	}
}
