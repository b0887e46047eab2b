/*
Package export flattens the hierarchical analysis result into flat rows
for grid display and CSV download.

PURPOSE:
  The engine produces contract -> associate -> month structure; grids and
  CSV files want rows. This package does the flattening and the numeric
  formatting, nothing else - it never recomputes a metric.

LAYOUT:
  One header row:
    Contract/Associate, Associate Name/ID, then per month:
    <Mon> Revenue, <Mon> Leave FTE, <Mon> Total FTE, <Mon> Billed FTE,
    <Mon> Non-Billable FTE
  Then, per contract: one summary row (contract-level sums) followed by
  one row per associate.

FORMATTING:
  Revenue and FTE render to 2 decimals, non-billable FTE to 3. The
  safe-numeric policy applies at export time too: a cell that cannot be
  rendered becomes "0", never blank or malformed.
*/
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/workforce-engine/engine"
)

const (
	revenuePrecision     = 2
	ftePrecision         = 2
	nonBillablePrecision = 3
)

// metricsPerMonth is the number of columns each month contributes.
const metricsPerMonth = 5

// Table flattens a result into rows. The first row is the header; each
// contract contributes a summary row followed by its associate rows.
func Table(result *engine.Result) [][]string {
	months := resultMonths(result)

	rows := [][]string{headerRow(months)}
	for _, group := range result.Contracts {
		rows = append(rows, contractRow(group, months))
		for _, assoc := range associatesOf(group) {
			rows = append(rows, associateRow(group, assoc, months))
		}
	}
	return rows
}

func headerRow(months []time.Month) []string {
	row := []string{"Contract/Associate", "Associate Name/ID"}
	for _, m := range months {
		label := engine.MonthLabel(m)
		row = append(row,
			label+" Revenue",
			label+" Leave FTE",
			label+" Total FTE",
			label+" Billed FTE",
			label+" Non-Billable FTE",
		)
	}
	return row
}

// contractRow is the contract-level summary line.
func contractRow(group engine.ContractGroup, months []time.Month) []string {
	row := []string{group.Contract, ""}
	for _, m := range months {
		sum, ok := summaryFor(group, m)
		if !ok {
			row = append(row, zeroCells()...)
			continue
		}
		row = append(row,
			fixed(sum.TotalRevenueLocal, revenuePrecision),
			fixed(sum.TotalLeaveFTE, ftePrecision),
			fixed(sum.TotalFTE, ftePrecision),
			fixed(sum.TotalBilledFTE, ftePrecision),
			fixed(sum.TotalNonBillableFTE, nonBillablePrecision),
		)
	}
	return row
}

// associateRow is one associate's line beneath its contract, with that
// associate's per-month metrics (blank months render as zeros).
func associateRow(group engine.ContractGroup, assoc associateKey, months []time.Month) []string {
	label := assoc.name
	if label == "" {
		label = assoc.empID
	} else {
		label = assoc.name + " (" + assoc.empID + ")"
	}
	row := []string{"", label}
	for _, m := range months {
		rec, ok := recordFor(group, assoc.empID, m)
		if !ok {
			row = append(row, zeroCells()...)
			continue
		}
		row = append(row,
			fixed(rec.RevenueLocal, revenuePrecision),
			fixed(rec.LeaveFTE, ftePrecision),
			fixed(rec.TotalFTE, ftePrecision),
			fixed(rec.BilledFTE, ftePrecision),
			fixed(rec.NonBillableFTE, nonBillablePrecision),
		)
	}
	return row
}

// associateKey is one distinct associate within a contract, in original
// relative order.
type associateKey struct {
	empID string
	name  string
}

func associatesOf(group engine.ContractGroup) []associateKey {
	seen := make(map[string]bool)
	var out []associateKey
	for _, rec := range group.Associates {
		if seen[rec.EmpID] {
			continue
		}
		seen[rec.EmpID] = true
		out = append(out, associateKey{empID: rec.EmpID, name: rec.Name})
	}
	return out
}

func summaryFor(group engine.ContractGroup, m time.Month) (engine.MonthSummary, bool) {
	for _, sum := range group.Months {
		if sum.Month == m {
			return sum, true
		}
	}
	return engine.MonthSummary{}, false
}

func recordFor(group engine.ContractGroup, empID string, m time.Month) (engine.AssociateMonthRecord, bool) {
	for _, rec := range group.Associates {
		if rec.EmpID == empID && rec.Month == m {
			return rec, true
		}
	}
	return engine.AssociateMonthRecord{}, false
}

func zeroCells() []string {
	cells := make([]string, metricsPerMonth)
	for i := range cells {
		cells[i] = "0"
	}
	return cells
}

// fixed renders a decimal with a fixed number of places. Export is the last
// line of defense for the safe-numeric policy, so anything unrenderable
// comes out as "0".
func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// resultMonths maps the result's month labels back to time.Month values.
// Labels the engine did not produce are skipped.
func resultMonths(result *engine.Result) []time.Month {
	var months []time.Month
	for _, label := range result.Months {
		for m := time.January; m <= time.December; m++ {
			if engine.MonthLabel(m) == label {
				months = append(months, m)
				break
			}
		}
	}
	return months
}
