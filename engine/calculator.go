/*
calculator.go - Per-associate-month metric derivation

PURPOSE:
  Turns one normalized associate-month input (working days, leave days,
  allocation, rates) into the derived FTE and revenue metrics.

ALGORITHM:
  leaveFte     = leaveDays / workingDays          (0 when workingDays = 0)
  availableFte = max(0, 1 - leaveFte)
  totalFte     = availableFte * allocationPct/100
  nonBillable  = round3(totalFte * nonBillableRatio), clipped >= 0
  billedFte    = totalFte - nonBillable, clipped >= 0
  revenueLocal = billedFte * workingDays * dailyRate
  revenueTarget= revenueLocal * fxRate

  The 3-decimal rounding lands on the non-billable side and billed is the
  exact remainder, so billed + nonBillable == total always holds exactly.
  Non-billable values carry an extra decimal because they are typically
  small and feed bench-cost tracking.

SEE ALSO:
  - builder.go: produces the inputs
  - types.go: safe-numeric parsing
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// BillableComposition selects how an assignment's non-billable ratio combines
// with its allocation. The source registers are ambiguous on this, so the
// rule is an option rather than hard-coded.
type BillableComposition string

const (
	// CompositionMultiplicative scales billed FTE by (1 - nonBillableRatio).
	CompositionMultiplicative BillableComposition = "multiplicative"
	// CompositionExclusive treats any non-zero non-billable ratio as marking
	// the whole assignment non-billable.
	CompositionExclusive BillableComposition = "exclusive"
)

// Options tunes a run. The zero value is valid: multiplicative composition.
type Options struct {
	BillableComposition BillableComposition `json:"billable_composition,omitempty"`
}

func (o Options) composition() BillableComposition {
	if o.BillableComposition == CompositionExclusive {
		return CompositionExclusive
	}
	return CompositionMultiplicative
}

// Calculator derives metrics for associate-month inputs. A fresh value is
// built per run; it holds no state beyond the options.
type Calculator struct {
	opts Options
}

func NewCalculator(opts Options) *Calculator {
	return &Calculator{opts: opts}
}

// nonBillablePrecision is higher than the 2 decimals used elsewhere because
// non-billable fractions are small and feed bench-cost tracking.
const nonBillablePrecision = 3

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// metricInput is one merged associate-month before derivation.
type metricInput struct {
	workingDays      int
	leaveDays        decimal.Decimal
	nonBillableRatio decimal.Decimal
	// revenue accrues per source row at that row's own rate, so rate and fx
	// arrive as (rate, fx, rowAllocationPct) triples.
	rateSlices []rateSlice
}

// rateSlice is the allocation share of one source row with its own rate.
type rateSlice struct {
	allocationPct decimal.Decimal
	dailyRate     decimal.Decimal
	fxRate        decimal.Decimal
}

// derive fills the metric fields of a record from the merged input.
func (c *Calculator) derive(rec *AssociateMonthRecord, in metricInput, warns *warningList) {
	rec.WorkingDays = in.workingDays
	rec.LeaveDays = in.leaveDays

	if in.workingDays <= 0 {
		// Malformed calendar month: everything zeroes rather than dividing.
		warns.addf(WarnZeroWorkingDays, rec.EmpID, "",
			"month %s has zero working days, metrics zeroed", MonthLabel(rec.Month))
		rec.LeaveFTE = decimal.Zero
		rec.TotalFTE = decimal.Zero
		rec.BilledFTE = decimal.Zero
		rec.NonBillableFTE = decimal.Zero
		rec.RevenueLocal = decimal.Zero
		rec.RevenueTarget = decimal.Zero
		return
	}

	wd := decimal.NewFromInt(int64(in.workingDays))

	// presenceDays = workingDays - leaveDays, clamped at zero. Revenue is
	// computed from presence days rather than availableFte * workingDays so
	// that division rounding never leaks into currency values.
	presenceDays := wd.Sub(in.leaveDays)
	if presenceDays.IsNegative() {
		presenceDays = decimal.Zero
	}

	leaveFte := in.leaveDays.Div(wd)
	available := presenceDays.Div(wd)

	billableRatio := c.billableRatio(in.nonBillableRatio)

	totalFte := decimal.Zero
	revenueLocal := decimal.Zero
	revenueTarget := decimal.Zero
	for _, slice := range in.rateSlices {
		allocation := slice.allocationPct.Div(hundred)
		totalFte = totalFte.Add(available.Mul(allocation))

		// billedFte * workingDays == billableRatio * allocation * presenceDays
		sliceRevenue := presenceDays.Mul(allocation).Mul(billableRatio).Mul(slice.dailyRate)
		if sliceRevenue.IsNegative() {
			sliceRevenue = decimal.Zero
		}
		revenueLocal = revenueLocal.Add(sliceRevenue)

		sliceTarget := sliceRevenue.Mul(slice.fxRate)
		if sliceTarget.IsNegative() {
			sliceTarget = decimal.Zero
		}
		revenueTarget = revenueTarget.Add(sliceTarget)
	}

	// Round the small side and derive billed as the exact remainder so the
	// split invariant billed + nonBillable == total holds exactly.
	nonBillable := totalFte.Mul(one.Sub(billableRatio)).Round(nonBillablePrecision)
	if nonBillable.IsNegative() {
		nonBillable = decimal.Zero
	}
	if nonBillable.GreaterThan(totalFte) {
		nonBillable = totalFte
	}
	billed := totalFte.Sub(nonBillable)

	rec.LeaveFTE = leaveFte
	rec.TotalFTE = totalFte
	rec.BilledFTE = billed
	rec.NonBillableFTE = nonBillable
	rec.RevenueLocal = revenueLocal
	rec.RevenueTarget = revenueTarget
}

// billableRatio maps a non-billable ratio to the billable fraction under the
// configured composition rule, clamped to [0, 1].
func (c *Calculator) billableRatio(nonBillable decimal.Decimal) decimal.Decimal {
	if nonBillable.IsNegative() {
		nonBillable = decimal.Zero
	}
	if nonBillable.GreaterThan(one) {
		nonBillable = one
	}
	switch c.opts.composition() {
	case CompositionExclusive:
		if nonBillable.IsPositive() {
			return decimal.Zero
		}
		return one
	default:
		return one.Sub(nonBillable)
	}
}
