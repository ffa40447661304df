package livedata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type sewingOutputFetcher struct{ store ProductionStore }

func (f sewingOutputFetcher) fetch(ctx context.Context, req request) (payload, error) {
	actuals, err := f.store.SewingActuals(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing actuals: %w", err)
	}
	if len(actuals) == 0 {
		return payload{summary: fmt.Sprintf("No sewing output has been submitted for %s yet.", req.date())}, nil
	}

	lines := totalsByLine(actuals)
	var good, rejects, rework, manpower, blocked int
	for _, l := range lines {
		good += l.Good
		rejects += l.Rejects
		rework += l.Rework
		manpower += l.Manpower
		if l.Blocker {
			blocked++
		}
	}

	var s summary
	s.line("Sewing output for %s: %d submissions from %d lines.", req.date(), len(actuals), len(lines))
	s.line("Total good output: %s pcs | Rejects: %s | Rework: %s | Manpower: %s",
		qty(good), qty(rejects), qty(rework), qty(manpower))
	s.line("Lines reporting a blocker: %d", blocked)
	if len(lines) > 1 {
		top, bottom := lines[0], lines[len(lines)-1]
		s.line("Top line: %s (%s pcs) | Bottom line: %s (%s pcs)",
			top.Name, qty(top.Good), bottom.Name, qty(bottom.Good))
	}
	if hint := req.classification.LineHint; hint != "" {
		focus := false
		for _, l := range lines {
			if matchesLine(l.Name, hint) {
				s.line("Focus %s: %s good, %s rejects, %s rework, %s manpower",
					l.Name, qty(l.Good), qty(l.Rejects), qty(l.Rework), qty(l.Manpower))
				focus = true
			}
		}
		if !focus {
			s.line("Line %s has not submitted sewing output for %s.", hint, req.date())
		}
	}
	s.line("Per line:")
	for _, l := range lines {
		s.item("%s: %s good, %s rejects, %s rework, %s manpower (%s)",
			l.Name, qty(l.Good), qty(l.Rejects), qty(l.Rework), qty(l.Manpower), orDash(strings.Join(l.POs, ", ")))
	}

	return payload{data: capRows(actuals), summary: s.String()}, nil
}

type sewingTargetsFetcher struct{ store ProductionStore }

func (f sewingTargetsFetcher) fetch(ctx context.Context, req request) (payload, error) {
	targets, err := f.store.SewingTargets(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing targets: %w", err)
	}
	if len(targets) == 0 {
		return payload{summary: fmt.Sprintf("No sewing targets have been set for %s yet.", req.date())}, nil
	}
	actuals, err := f.store.SewingActuals(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing actuals: %w", err)
	}
	output := outputByLine(actuals)

	type lineTarget struct {
		id      uuid.UUID
		name    string
		target  int
		perHour int
	}
	index := make(map[uuid.UUID]int)
	var lines []lineTarget
	for _, t := range targets {
		i, ok := index[t.LineID]
		if !ok {
			i = len(lines)
			index[t.LineID] = i
			lines = append(lines, lineTarget{id: t.LineID, name: t.LineName})
		}
		lines[i].target += t.DayTarget
		lines[i].perHour += t.PerHourTarget
	}

	var totalTarget, totalOutput, perHour, behind int
	for _, l := range lines {
		totalTarget += l.target
		totalOutput += output[l.id]
		perHour += l.perHour
		if output[l.id] < l.target {
			behind++
		}
	}

	var s summary
	s.line("Sewing targets for %s: %d lines with targets.", req.date(), len(lines))
	s.line("Total day target: %s pcs | Output so far: %s pcs | Achievement: %d%%",
		qty(totalTarget), qty(totalOutput), Achievement(totalOutput, totalTarget))
	s.line("Combined per-hour target: %s pcs", qty(perHour))
	s.line("Lines behind target: %d of %d", behind, len(lines))
	s.line("Per line:")
	for _, l := range lines {
		s.item("%s: target %s, output %s (%d%%)",
			l.name, qty(l.target), qty(output[l.id]), Achievement(output[l.id], l.target))
	}

	return payload{data: capRows(targets), summary: s.String()}, nil
}

type blockersFetcher struct{ store ProductionStore }

var impactOrder = []string{"critical", "high", "medium", "low"}

func (f blockersFetcher) fetch(ctx context.Context, req request) (payload, error) {
	blockers, err := f.store.ActiveBlockers(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read blockers: %w", err)
	}
	if len(blockers) == 0 {
		return payload{summary: fmt.Sprintf("No active blockers reported for %s.", req.date())}, nil
	}

	byImpact := make(map[string]int)
	for _, b := range blockers {
		byImpact[strings.ToLower(b.Impact)]++
	}
	counts := make([]string, 0, len(impactOrder))
	for _, impact := range impactOrder {
		counts = append(counts, fmt.Sprintf("%s: %d", impact, byImpact[impact]))
	}

	var s summary
	s.line("Active blockers for %s: %d (%s)", req.date(), len(blockers), strings.Join(counts, ", "))
	for _, b := range blockers {
		s.item("%s [%s] %s (PO %s)", b.LineName, orDash(b.Impact), b.Description, orDash(b.PONumber))
	}

	return payload{data: capRows(blockers), summary: s.String()}, nil
}

type linesFetcher struct{ store ProductionStore }

func (f linesFetcher) fetch(ctx context.Context, req request) (payload, error) {
	lines, err := f.store.ActiveLines(ctx, req.factoryID, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read lines: %w", err)
	}
	if len(lines) == 0 {
		return payload{summary: "No active production lines are configured."}, nil
	}
	actuals, err := f.store.SewingActuals(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing actuals: %w", err)
	}
	output := outputByLine(actuals)

	var missing []string
	for _, l := range lines {
		if _, ok := output[l.ID]; !ok {
			missing = append(missing, l.Name)
		}
	}

	var s summary
	s.line("Active lines: %d | Reported sewing output for %s: %d | Not yet reported: %d",
		len(lines), req.date(), len(lines)-len(missing), len(missing))
	if hint := req.classification.LineHint; hint != "" {
		found := false
		for _, l := range lines {
			if !matchesLine(l.Name, hint) {
				continue
			}
			found = true
			if out, ok := output[l.ID]; ok {
				s.line("Focus %s: reported %s good pcs", l.Name, qty(out))
			} else {
				s.line("Focus %s: no sewing output submitted yet", l.Name)
			}
		}
		if !found {
			s.line("No active line matches %q.", hint)
		}
	}
	if len(missing) > 0 {
		s.line("Lines not yet reported:")
		for _, name := range missing {
			s.item("%s", name)
		}
	}

	return payload{data: capRows(lines), summary: s.String()}, nil
}

// FactorySnapshot is the single record behind the factory summary.
type FactorySnapshot struct {
	Date           string `json:"date"`
	GoodOutput     int    `json:"good_output"`
	DayTarget      int    `json:"day_target"`
	Achievement    int    `json:"achievement_percent"`
	Rejects        int    `json:"rejects"`
	Manpower       int    `json:"manpower"`
	ActiveLines    int    `json:"active_lines"`
	LinesReporting int    `json:"lines_reporting"`
	ActiveBlockers int    `json:"active_blockers"`
}

type factorySummaryFetcher struct{ store ProductionStore }

func (f factorySummaryFetcher) fetch(ctx context.Context, req request) (payload, error) {
	actuals, err := f.store.SewingActuals(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing actuals: %w", err)
	}
	targets, err := f.store.SewingTargets(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing targets: %w", err)
	}
	blockers, err := f.store.ActiveBlockers(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read blockers: %w", err)
	}
	lines, err := f.store.ActiveLines(ctx, req.factoryID, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read lines: %w", err)
	}

	if len(actuals) == 0 && len(targets) == 0 && len(blockers) == 0 {
		return payload{summary: fmt.Sprintf("No production data has been submitted for %s yet.", req.date())}, nil
	}

	snap := FactorySnapshot{
		Date:           req.date(),
		ActiveLines:    len(lines),
		ActiveBlockers: len(blockers),
	}
	for _, a := range actuals {
		snap.GoodOutput += a.GoodOutput
		snap.Rejects += a.RejectQty
		snap.Manpower += a.Manpower
	}
	for _, t := range targets {
		snap.DayTarget += t.DayTarget
	}
	snap.Achievement = Achievement(snap.GoodOutput, snap.DayTarget)
	perLine := totalsByLine(actuals)
	snap.LinesReporting = len(perLine)

	var s summary
	s.line("Factory summary for %s", snap.Date)
	s.line("Output: %s pcs of %s target (%d%%)", qty(snap.GoodOutput), qty(snap.DayTarget), snap.Achievement)
	s.line("Rejects: %s | Manpower: %s", qty(snap.Rejects), qty(snap.Manpower))
	s.line("Lines reporting: %d of %d active", snap.LinesReporting, snap.ActiveLines)
	s.line("Active blockers: %d", snap.ActiveBlockers)
	if len(perLine) > 0 {
		s.line("Top line: %s (%s pcs)", perLine[0].Name, qty(perLine[0].Good))
	}

	return payload{data: []any{snap}, summary: s.String()}, nil
}
