/*
Package engine derives per-associate, per-month workforce and revenue
metrics from two monthly registers.

PURPOSE:
  Takes a leave/attendance register and a people/assignment register,
  merges them into normalized associate-month records, derives FTE and
  revenue metrics, and rolls them up per contract and across the whole
  organization. The pipeline is pure and stateless: every run rebuilds
  the full hierarchy from the raw rows it is handed.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveRow / AssignmentRow: raw register rows, numerics as strings
  - AssociateMonthRecord: the normalized, derived per-associate record
  - MonthSummary: per-month sums (used for contracts and grand totals)
  - Warning: recovered input problems, accumulated rather than raised

DESIGN PRINCIPLES:
  1. Precision: all arithmetic uses decimal.Decimal - a NaN can never
     enter the pipeline.
  2. Safe numerics: blank or malformed numeric fields become zero,
     never an error; malformed rows are skipped with a warning.
  3. Months are statically known: metrics are keyed by time.Month,
     never by runtime-built field names.
  4. Nothing in this package is fatal: a run always returns a complete,
     possibly partially zeroed, result.

SEE ALSO:
  - builder.go: register merging
  - calculator.go: metric derivation
  - aggregate.go: contract and grand-total sums
  - run.go: the one-shot pipeline
*/
package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW REGISTER ROWS
// =============================================================================
// Numeric fields arrive as strings: the upstream collaborator hands the
// engine normalized tabular data, and cells in real registers are routinely
// blank or junk. Parsing happens exactly once, under the safe-numeric policy.

// LeaveRow is one leave-register row: leave days taken by one associate in
// one month.
type LeaveRow struct {
	EmpID          string `json:"emp_id"`
	Month          string `json:"month"`
	LeaveDaysTaken string `json:"leave_days_taken"`
}

// AssignmentRow is one assignment-register row: one associate's allocation to
// one contract in one month. NonBillableRatio is optional (blank means fully
// billable) and expresses the fraction 0-1 of the assigned time that is
// bench/admin/training.
type AssignmentRow struct {
	EmpID                 string `json:"emp_id"`
	Name                  string `json:"name"`
	Contract              string `json:"contract"`
	Month                 string `json:"month"`
	BillableAllocationPct string `json:"billable_allocation_pct"`
	DailyRateLocal        string `json:"daily_rate_local"`
	FXRateToTarget        string `json:"fx_rate_to_target"`
	NonBillableRatio      string `json:"non_billable_ratio,omitempty"`
}

// UnassignedContract is the synthetic contract that collects assignment rows
// with a blank contract and leave-only associates.
const UnassignedContract = "Unassigned"

// =============================================================================
// DERIVED RECORDS
// =============================================================================

// AssociateMonthRecord is the normalized, fully derived record for one
// associate on one contract in one month.
type AssociateMonthRecord struct {
	EmpID    string     `json:"emp_id"`
	Name     string     `json:"name"`
	Contract string     `json:"contract"`
	Month    time.Month `json:"month"`

	WorkingDays int             `json:"working_days"`
	LeaveDays   decimal.Decimal `json:"leave_days"`

	LeaveFTE       decimal.Decimal `json:"leave_fte"`
	TotalFTE       decimal.Decimal `json:"total_fte"`
	BilledFTE      decimal.Decimal `json:"billed_fte"`
	NonBillableFTE decimal.Decimal `json:"non_billable_fte"`

	RevenueLocal  decimal.Decimal `json:"revenue_local"`
	RevenueTarget decimal.Decimal `json:"revenue_target"`
}

// MonthSummary is the per-month sum of associate records sharing a grouping:
// one per (contract, month) for contract summaries, one per month for grand
// totals. The two levels are the same shape on purpose - grand totals are
// sums of contract summaries, never recomputed from records.
type MonthSummary struct {
	Contract string     `json:"contract,omitempty"`
	Month    time.Month `json:"month"`

	TotalLeaveFTE       decimal.Decimal `json:"total_leave_fte"`
	TotalFTE            decimal.Decimal `json:"total_fte"`
	TotalBilledFTE      decimal.Decimal `json:"total_billed_fte"`
	TotalNonBillableFTE decimal.Decimal `json:"total_non_billable_fte"`
	TotalRevenueLocal   decimal.Decimal `json:"total_revenue_local"`
	TotalRevenueTarget  decimal.Decimal `json:"total_revenue_target"`
}

func (s *MonthSummary) add(r AssociateMonthRecord) {
	s.TotalLeaveFTE = s.TotalLeaveFTE.Add(r.LeaveFTE)
	s.TotalFTE = s.TotalFTE.Add(r.TotalFTE)
	s.TotalBilledFTE = s.TotalBilledFTE.Add(r.BilledFTE)
	s.TotalNonBillableFTE = s.TotalNonBillableFTE.Add(r.NonBillableFTE)
	s.TotalRevenueLocal = s.TotalRevenueLocal.Add(r.RevenueLocal)
	s.TotalRevenueTarget = s.TotalRevenueTarget.Add(r.RevenueTarget)
}

func (s *MonthSummary) addSummary(o MonthSummary) {
	s.TotalLeaveFTE = s.TotalLeaveFTE.Add(o.TotalLeaveFTE)
	s.TotalFTE = s.TotalFTE.Add(o.TotalFTE)
	s.TotalBilledFTE = s.TotalBilledFTE.Add(o.TotalBilledFTE)
	s.TotalNonBillableFTE = s.TotalNonBillableFTE.Add(o.TotalNonBillableFTE)
	s.TotalRevenueLocal = s.TotalRevenueLocal.Add(o.TotalRevenueLocal)
	s.TotalRevenueTarget = s.TotalRevenueTarget.Add(o.TotalRevenueTarget)
}

// ContractGroup is one contract with its associate detail and monthly sums.
// Contracts appear in first-seen input order; associates keep their original
// relative order within the contract.
type ContractGroup struct {
	Contract   string                 `json:"contract"`
	Associates []AssociateMonthRecord `json:"associates"`
	Months     []MonthSummary         `json:"months"`
}

// Result is the complete output of one analysis run. It is always fully
// populated - the consuming UI must always have a renderable structure.
type Result struct {
	Months     []string        `json:"months"`
	Contracts  []ContractGroup `json:"contractGroupedSummary"`
	GrandTotal []MonthSummary  `json:"grandTotal"`
	Warnings   []Warning       `json:"warnings"`
}

// =============================================================================
// WARNINGS - Recovered input problems
// =============================================================================
// The error taxonomy of this engine is entirely recoverable: rows are
// skipped or zeroed, never fatal. Warnings are plain values accumulated
// alongside the result, not errors to be thrown.

type WarningCode string

const (
	WarnMissingField    WarningCode = "missing_field"
	WarnNonNumericInput WarningCode = "non_numeric_input"
	WarnZeroWorkingDays WarningCode = "zero_working_days"
	WarnUnknownContract WarningCode = "unknown_contract"
)

// Warning records one recovered input problem with enough context to point
// an operator at the offending register row.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	EmpID   string      `json:"emp_id,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func (w Warning) String() string {
	if w.EmpID == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s (emp %s)", w.Code, w.Message, w.EmpID)
}

// warningList accumulates warnings during a run.
type warningList struct {
	warnings []Warning
}

func (l *warningList) addf(code WarningCode, empID, field, format string, args ...any) {
	l.warnings = append(l.warnings, Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		EmpID:   empID,
		Field:   field,
	})
}

// =============================================================================
// SAFE NUMERICS
// =============================================================================

// safeDecimal parses a numeric cell under the safe-numeric policy: blank is
// silently zero, junk is zero plus a warning. Downstream sums can therefore
// never see a NaN or a parse error.
func safeDecimal(s, empID, field string, warns *warningList) decimal.Decimal {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		if warns != nil {
			warns.addf(WarnNonNumericInput, empID, field, "non-numeric value %q, using 0", s)
		}
		return decimal.Zero
	}
	return d
}

// =============================================================================
// MONTH PARSING
// =============================================================================

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseMonth accepts "1".."12", full English month names, and 3-letter
// abbreviations, case-insensitively. It reports ok=false for anything else;
// the caller decides whether that skips the row.
func ParseMonth(s string) (time.Month, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	if len(trimmed) >= 3 {
		if m, ok := monthNames[trimmed[:3]]; ok {
			// Reject things like "janx"; allow "jan" and "january".
			if trimmed == trimmed[:3] || strings.HasPrefix(strings.ToLower(m.String()), trimmed) {
				return m, true
			}
		}
	}
	return 0, false
}

// MonthLabel returns the fixed 3-letter label used throughout the result
// structure and the CSV export.
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}
