package livedata

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"floorchat-backend/models"

	"github.com/google/uuid"
)

// Achievement returns output as a whole percentage of target.
// A zero or negative target yields 0.
func Achievement(output, target int) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(float64(output) / float64(target) * 100))
}

// CumulativeObservation is one running-total report for a work order on a line.
type CumulativeObservation struct {
	WorkOrderID uuid.UUID
	LineID      uuid.UUID
	Cumulative  int
}

// CumulativeProgress returns the progress per work order.
// Lines report running totals, so only the highest value per (work order, line)
// counts; the per-line maxima are then summed across lines.
func CumulativeProgress(obs []CumulativeObservation) map[uuid.UUID]int {
	type key struct{ wo, line uuid.UUID }

	maxima := make(map[key]int)
	for _, o := range obs {
		k := key{o.WorkOrderID, o.LineID}
		if cur, ok := maxima[k]; !ok || o.Cumulative > cur {
			maxima[k] = o.Cumulative
		}
	}

	progress := make(map[uuid.UUID]int)
	for k, v := range maxima {
		progress[k.wo] += v
	}
	return progress
}

func sewingObservations(actuals []models.SewingActual) []CumulativeObservation {
	obs := make([]CumulativeObservation, 0, len(actuals))
	for _, a := range actuals {
		if a.WorkOrderID == nil {
			continue
		}
		obs = append(obs, CumulativeObservation{
			WorkOrderID: *a.WorkOrderID,
			LineID:      a.LineID,
			Cumulative:  a.CumulativeGoodTotal,
		})
	}
	return obs
}

func finishingObservations(logs []models.FinishingLog) []CumulativeObservation {
	obs := make([]CumulativeObservation, 0, len(logs))
	for _, l := range logs {
		if l.WorkOrderID == nil {
			continue
		}
		obs = append(obs, CumulativeObservation{
			WorkOrderID: *l.WorkOrderID,
			LineID:      l.LineID,
			Cumulative:  l.CumulativeOutput,
		})
	}
	return obs
}

// lineTotals is the day's sewing output rolled up for one line.
type lineTotals struct {
	LineID   uuid.UUID
	Name     string
	Good     int
	Rejects  int
	Rework   int
	Manpower int
	Blocker  bool
	POs      []string
}

// totalsByLine groups actuals by line, ordered by good output descending
// with ties broken by line name.
func totalsByLine(actuals []models.SewingActual) []lineTotals {
	index := make(map[uuid.UUID]int)
	var out []lineTotals
	for _, a := range actuals {
		i, ok := index[a.LineID]
		if !ok {
			i = len(out)
			index[a.LineID] = i
			out = append(out, lineTotals{LineID: a.LineID, Name: a.LineName})
		}
		t := &out[i]
		t.Good += a.GoodOutput
		t.Rejects += a.RejectQty
		t.Rework += a.ReworkQty
		t.Manpower += a.Manpower
		t.Blocker = t.Blocker || a.HasBlocker
		if a.PONumber != "" && !contains(t.POs, a.PONumber) {
			t.POs = append(t.POs, a.PONumber)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Good != out[j].Good {
			return out[i].Good > out[j].Good
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func outputByLine(actuals []models.SewingActual) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, a := range actuals {
		out[a.LineID] += a.GoodOutput
	}
	return out
}

// matchesLine reports whether a line name refers to the short code from a
// line hint, e.g. "Line 03" matches "3", "L1" matches "1" and "L-A2" matches "A2".
func matchesLine(name, hint string) bool {
	if hint == "" {
		return false
	}
	return lineCode(name) == lineCode(hint)
}

func lineCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "LINE")
	s = strings.TrimLeft(s, " -#:")
	switch {
	case strings.HasPrefix(s, "L-"):
		s = s[2:]
	case len(s) > 1 && s[0] == 'L' && unicode.IsDigit(rune(s[1])):
		s = s[1:]
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimLeft(s, "0")
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
