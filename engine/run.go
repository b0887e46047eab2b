/*
run.go - The one-shot analysis pipeline

PURPOSE:
  Wires the stages together: register merging, metric derivation,
  contract aggregation, grand totals. One call, one complete result.

CONCURRENCY:
  A run is single-threaded and owns all of its state. Callers wanting
  concurrent analyses construct one Input per request - nothing here is
  shared or retained between runs, so two uploads in flight can never
  leak data into each other.

FAILURE SEMANTICS:
  Nothing is fatal. Malformed rows are skipped, malformed numbers become
  zero, zero-working-day months zero their metrics. The warnings that
  describe all of this come back inside the Result.
*/
package engine

import (
	"github.com/warp/workforce-engine/calendar"
)

// Input is everything one analysis run consumes.
type Input struct {
	Calendar    *calendar.Calendar
	Leave       []LeaveRow
	Assignments []AssignmentRow
	Options     Options
}

// Run executes the full pipeline and always returns a complete Result.
func Run(in Input) *Result {
	warns := &warningList{}

	var workingDays [12]int
	if in.Calendar != nil {
		workingDays = in.Calendar.WorkingDaysByMonth()
	}

	b := newBuilder(warns)
	b.loadLeave(in.Leave)
	b.loadAssignments(in.Assignments)
	b.placeLeaveOnly()

	calc := NewCalculator(in.Options)
	records, contractOrder := b.build(calc, workingDays)

	months := monthsIn(records)
	groups := aggregateContracts(records, contractOrder, months)
	grandTotal := aggregateGrandTotal(groups, months)

	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, MonthLabel(m))
	}

	warnings := warns.warnings
	if warnings == nil {
		warnings = []Warning{}
	}

	return &Result{
		Months:     labels,
		Contracts:  groups,
		GrandTotal: grandTotal,
		Warnings:   warnings,
	}
}
