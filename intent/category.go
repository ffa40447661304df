// Package intent classifies free-text production questions into the live data
// categories the assistant should fetch.
package intent

// Category is a production data domain the assistant can query live
type Category string

const (
	SewingOutput   Category = "sewing-output"
	SewingTargets  Category = "sewing-targets"
	Blockers       Category = "blockers"
	WorkOrders     Category = "work-orders"
	Cutting        Category = "cutting"
	Finishing      Category = "finishing"
	Storage        Category = "storage"
	Lines          Category = "lines"
	FactorySummary Category = "factory-summary"
)

// All returns every category in canonical order.
func All() []Category {
	return []Category{
		SewingOutput,
		SewingTargets,
		Blockers,
		WorkOrders,
		Cutting,
		Finishing,
		Storage,
		Lines,
		FactorySummary,
	}
}

// Label returns the human-readable name used in summaries and prompts.
func (c Category) Label() string {
	switch c {
	case SewingOutput:
		return "Sewing Output"
	case SewingTargets:
		return "Sewing Targets"
	case Blockers:
		return "Active Blockers"
	case WorkOrders:
		return "Work Orders"
	case Cutting:
		return "Cutting"
	case Finishing:
		return "Finishing"
	case Storage:
		return "Storage"
	case Lines:
		return "Production Lines"
	case FactorySummary:
		return "Factory Summary"
	}
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range All() {
		if c == known {
			return true
		}
	}
	return false
}
