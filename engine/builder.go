/*
builder.go - Register merging

PURPOSE:
  Merges the leave register and the assignment register into normalized
  per-(associate, contract, month) inputs for the metric calculator,
  preserving the ordering rules the reporting layer depends on:

    - contracts appear in first-seen input order
    - associates keep their original relative order within a contract
    - the same associate on two contracts in one month yields two
      records (never deduplicated across contracts)
    - duplicate rows for the same associate/contract/month merge into
      one record: allocations sum, revenue accrues per row at that
      row's own rate, leave counts once

  Rows lacking an employee id or a parsable month are skipped with a
  warning. Rows with a blank contract land under "Unassigned", as do
  leave rows with no matching assignment (zero allocation, so they
  surface in the output without inventing revenue).
*/
package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// recordKey identifies one associate on one contract in one month.
type recordKey struct {
	empID    string
	contract string
	month    time.Month
}

// pendingRecord is a record under construction plus its merged metric input.
type pendingRecord struct {
	rec AssociateMonthRecord
	in  metricInput
}

// builder walks the two registers and produces calculator-ready records.
type builder struct {
	warns *warningList

	leave map[string]map[time.Month]decimal.Decimal // empID -> month -> days

	order   []recordKey
	pending map[recordKey]*pendingRecord

	contractOrder []string
	contractSeen  map[string]bool
}

func newBuilder(warns *warningList) *builder {
	return &builder{
		warns:        warns,
		leave:        make(map[string]map[time.Month]decimal.Decimal),
		pending:      make(map[recordKey]*pendingRecord),
		contractSeen: make(map[string]bool),
	}
}

// loadLeave indexes the leave register by (empID, month). Duplicate leave
// rows for the same associate-month sum their days.
func (b *builder) loadLeave(rows []LeaveRow) {
	for _, row := range rows {
		empID := strings.TrimSpace(row.EmpID)
		if empID == "" {
			b.warns.addf(WarnMissingField, "", "emp_id", "leave row missing employee id, skipped")
			continue
		}
		month, ok := ParseMonth(row.Month)
		if !ok {
			b.warns.addf(WarnMissingField, empID, "month",
				"leave row has unparsable month %q, skipped", row.Month)
			continue
		}
		days := safeDecimal(row.LeaveDaysTaken, empID, "leave_days_taken", b.warns)
		if days.IsNegative() {
			days = decimal.Zero
		}
		byMonth, ok := b.leave[empID]
		if !ok {
			byMonth = make(map[time.Month]decimal.Decimal)
			b.leave[empID] = byMonth
		}
		byMonth[month] = byMonth[month].Add(days)
	}
}

// loadAssignments walks the assignment register in input order, merging
// duplicate (empID, contract, month) rows into one pending record.
func (b *builder) loadAssignments(rows []AssignmentRow) {
	for _, row := range rows {
		empID := strings.TrimSpace(row.EmpID)
		if empID == "" {
			b.warns.addf(WarnMissingField, "", "emp_id", "assignment row missing employee id, skipped")
			continue
		}
		month, ok := ParseMonth(row.Month)
		if !ok {
			b.warns.addf(WarnMissingField, empID, "month",
				"assignment row has unparsable month %q, skipped", row.Month)
			continue
		}

		contract := strings.TrimSpace(row.Contract)
		if contract == "" {
			contract = UnassignedContract
			b.warns.addf(WarnUnknownContract, empID, "contract",
				"assignment row has no contract, grouped under %q", UnassignedContract)
		}

		p := b.pendingFor(recordKey{empID: empID, contract: contract, month: month})
		if name := strings.TrimSpace(row.Name); name != "" && p.rec.Name == "" {
			p.rec.Name = name
		}

		alloc := safeDecimal(row.BillableAllocationPct, empID, "billable_allocation_pct", b.warns)
		if alloc.IsNegative() {
			alloc = decimal.Zero
		}
		rate := safeDecimal(row.DailyRateLocal, empID, "daily_rate_local", b.warns)
		fx := safeDecimal(row.FXRateToTarget, empID, "fx_rate_to_target", b.warns)
		p.in.rateSlices = append(p.in.rateSlices, rateSlice{
			allocationPct: alloc,
			dailyRate:     rate,
			fxRate:        fx,
		})

		// Non-billable ratio applies to the merged record; the largest seen
		// ratio wins when duplicate rows disagree.
		nb := safeDecimal(row.NonBillableRatio, empID, "non_billable_ratio", b.warns)
		if nb.GreaterThan(p.in.nonBillableRatio) {
			p.in.nonBillableRatio = nb
		}
	}
}

// placeLeaveOnly creates zero-allocation records under "Unassigned" for
// associates that appear in the leave register but nowhere in the assignment
// register for that month. They carry leave FTE but no revenue.
func (b *builder) placeLeaveOnly() {
	// The leave index is a map, so collect and sort for deterministic output.
	type leaveOnly struct {
		empID string
		month time.Month
	}
	var missing []leaveOnly
	for empID, byMonth := range b.leave {
		for month := range byMonth {
			if !b.hasAssignment(empID, month) {
				missing = append(missing, leaveOnly{empID: empID, month: month})
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].empID != missing[j].empID {
			return missing[i].empID < missing[j].empID
		}
		return missing[i].month < missing[j].month
	})
	for _, m := range missing {
		p := b.pendingFor(recordKey{empID: m.empID, contract: UnassignedContract, month: m.month})
		// Zero allocation slice keeps the record visible without revenue.
		if len(p.in.rateSlices) == 0 {
			p.in.rateSlices = append(p.in.rateSlices, rateSlice{
				allocationPct: decimal.Zero,
				dailyRate:     decimal.Zero,
				fxRate:        decimal.Zero,
			})
		}
	}
}

func (b *builder) hasAssignment(empID string, month time.Month) bool {
	for _, key := range b.order {
		if key.empID == empID && key.month == month {
			return true
		}
	}
	return false
}

func (b *builder) pendingFor(key recordKey) *pendingRecord {
	if p, ok := b.pending[key]; ok {
		return p
	}
	p := &pendingRecord{
		rec: AssociateMonthRecord{
			EmpID:    key.empID,
			Contract: key.contract,
			Month:    key.month,
		},
	}
	b.pending[key] = p
	b.order = append(b.order, key)
	if !b.contractSeen[key.contract] {
		b.contractSeen[key.contract] = true
		b.contractOrder = append(b.contractOrder, key.contract)
	}
	return p
}

// build derives metrics for every pending record and returns them in input
// order alongside the first-seen contract order.
func (b *builder) build(calc *Calculator, workingDays [12]int) ([]AssociateMonthRecord, []string) {
	records := make([]AssociateMonthRecord, 0, len(b.order))
	for _, key := range b.order {
		p := b.pending[key]
		p.in.leaveDays = b.leaveDaysFor(key.empID, key.month)
		p.in.workingDays = workingDays[key.month-1]
		// Leave cannot exceed the month's working days.
		wd := decimal.NewFromInt(int64(p.in.workingDays))
		if p.in.leaveDays.GreaterThan(wd) {
			p.in.leaveDays = wd
		}
		calc.derive(&p.rec, p.in, b.warns)
		records = append(records, p.rec)
	}
	return records, b.contractOrder
}

func (b *builder) leaveDaysFor(empID string, month time.Month) decimal.Decimal {
	if byMonth, ok := b.leave[empID]; ok {
		return byMonth[month]
	}
	return decimal.Zero
}
