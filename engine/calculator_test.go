package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// Internal tests for the metric derivation: the builder and pipeline are
// covered from the outside in engine_test.go.

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func deriveOne(t *testing.T, opts Options, in metricInput) AssociateMonthRecord {
	t.Helper()
	rec := AssociateMonthRecord{EmpID: "e-1", Contract: "C", Month: time.January}
	warns := &warningList{}
	NewCalculator(opts).derive(&rec, in, warns)
	return rec
}

func TestDerive_FullyBillable(t *testing.T) {
	// GIVEN: 23 working days, 2 leave days, 100% allocation, rate 500, fx 1.2
	rec := deriveOne(t, Options{}, metricInput{
		workingDays: 23,
		leaveDays:   d("2"),
		rateSlices:  []rateSlice{{allocationPct: d("100"), dailyRate: d("500"), fxRate: d("1.2")}},
	})

	// THEN: leaveFte = 2/23, totalFte = 21/23, revenue = 21*500 = 10500
	if !rec.LeaveFTE.Sub(d("2").Div(d("23"))).IsZero() {
		t.Errorf("leaveFte = %s", rec.LeaveFTE)
	}
	if !rec.RevenueLocal.Equal(d("10500")) {
		t.Errorf("revenueLocal = %s, want 10500", rec.RevenueLocal)
	}
	if !rec.RevenueTarget.Equal(d("12600")) {
		t.Errorf("revenueTarget = %s, want 12600", rec.RevenueTarget)
	}
	if !rec.BilledFTE.Equal(rec.TotalFTE) {
		t.Errorf("fully billable: billed %s != total %s", rec.BilledFTE, rec.TotalFTE)
	}
	if !rec.NonBillableFTE.IsZero() {
		t.Errorf("nonBillable = %s, want 0", rec.NonBillableFTE)
	}
}

func TestDerive_SplitInvariant(t *testing.T) {
	// The 3-decimal rounding lands on the non-billable side, so
	// billed + nonBillable must equal total exactly, not just within 1e-6.
	ratios := []string{"0", "0.1", "0.25", "0.333333", "0.5", "0.999", "1"}
	for _, r := range ratios {
		rec := deriveOne(t, Options{}, metricInput{
			workingDays:      21,
			leaveDays:        d("3"),
			nonBillableRatio: d(r),
			rateSlices:       []rateSlice{{allocationPct: d("80"), dailyRate: d("450"), fxRate: d("1.1")}},
		})
		if !rec.BilledFTE.Add(rec.NonBillableFTE).Equal(rec.TotalFTE) {
			t.Errorf("ratio %s: billed %s + nonBillable %s != total %s",
				r, rec.BilledFTE, rec.NonBillableFTE, rec.TotalFTE)
		}
		if rec.BilledFTE.IsNegative() || rec.NonBillableFTE.IsNegative() {
			t.Errorf("ratio %s: negative split %s / %s", r, rec.BilledFTE, rec.NonBillableFTE)
		}
	}
}

func TestDerive_ZeroWorkingDays_AllZero(t *testing.T) {
	warns := &warningList{}
	rec := AssociateMonthRecord{EmpID: "e-1", Contract: "C", Month: time.February}
	NewCalculator(Options{}).derive(&rec, metricInput{
		workingDays: 0,
		leaveDays:   d("5"),
		rateSlices:  []rateSlice{{allocationPct: d("100"), dailyRate: d("500"), fxRate: d("1")}},
	}, warns)

	for name, v := range map[string]decimal.Decimal{
		"leaveFte":      rec.LeaveFTE,
		"totalFte":      rec.TotalFTE,
		"billedFte":     rec.BilledFTE,
		"nonBillable":   rec.NonBillableFTE,
		"revenueLocal":  rec.RevenueLocal,
		"revenueTarget": rec.RevenueTarget,
	} {
		if !v.IsZero() {
			t.Errorf("%s = %s, want 0", name, v)
		}
	}
	if len(warns.warnings) != 1 || warns.warnings[0].Code != WarnZeroWorkingDays {
		t.Errorf("warnings = %v, want one zero_working_days", warns.warnings)
	}
}

func TestDerive_LeaveExceedsMonth_ClampsAvailability(t *testing.T) {
	// leaveDays is clamped by the builder, but availability must clamp at
	// zero here too in case leave arrives over-counted.
	rec := deriveOne(t, Options{}, metricInput{
		workingDays: 20,
		leaveDays:   d("25"),
		rateSlices:  []rateSlice{{allocationPct: d("100"), dailyRate: d("500"), fxRate: d("1")}},
	})
	if !rec.TotalFTE.IsZero() {
		t.Errorf("totalFte = %s, want 0", rec.TotalFTE)
	}
	if !rec.RevenueLocal.IsZero() {
		t.Errorf("revenueLocal = %s, want 0", rec.RevenueLocal)
	}
}

func TestDerive_NegativeRate_ZeroRevenue(t *testing.T) {
	rec := deriveOne(t, Options{}, metricInput{
		workingDays: 20,
		leaveDays:   decimal.Zero,
		rateSlices:  []rateSlice{{allocationPct: d("100"), dailyRate: d("-500"), fxRate: d("1.2")}},
	})
	if !rec.RevenueLocal.IsZero() || !rec.RevenueTarget.IsZero() {
		t.Errorf("negative rate: revenue %s / %s, want 0", rec.RevenueLocal, rec.RevenueTarget)
	}
}

func TestDerive_ExclusiveComposition(t *testing.T) {
	// GIVEN: exclusive composition and any non-zero non-billable ratio
	rec := deriveOne(t, Options{BillableComposition: CompositionExclusive}, metricInput{
		workingDays:      20,
		leaveDays:        decimal.Zero,
		nonBillableRatio: d("0.25"),
		rateSlices:       []rateSlice{{allocationPct: d("100"), dailyRate: d("500"), fxRate: d("1")}},
	})

	// THEN: the whole assignment is non-billable
	if !rec.BilledFTE.IsZero() {
		t.Errorf("billedFte = %s, want 0", rec.BilledFTE)
	}
	if !rec.NonBillableFTE.Equal(rec.TotalFTE) {
		t.Errorf("nonBillable %s != total %s", rec.NonBillableFTE, rec.TotalFTE)
	}
	if !rec.RevenueLocal.IsZero() {
		t.Errorf("revenueLocal = %s, want 0", rec.RevenueLocal)
	}
}

func TestDerive_MultiRateSlices(t *testing.T) {
	// Two source rows on the same contract/month: allocations sum for FTE,
	// revenue accrues per row at its own rate.
	rec := deriveOne(t, Options{}, metricInput{
		workingDays: 20,
		leaveDays:   decimal.Zero,
		rateSlices: []rateSlice{
			{allocationPct: d("50"), dailyRate: d("400"), fxRate: d("1")},
			{allocationPct: d("30"), dailyRate: d("600"), fxRate: d("1")},
		},
	})
	if !rec.TotalFTE.Equal(d("0.8")) {
		t.Errorf("totalFte = %s, want 0.8", rec.TotalFTE)
	}
	// 0.5*20*400 + 0.3*20*600 = 4000 + 3600
	if !rec.RevenueLocal.Equal(d("7600")) {
		t.Errorf("revenueLocal = %s, want 7600", rec.RevenueLocal)
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want time.Month
		ok   bool
	}{
		{"1", time.January, true},
		{"12", time.December, true},
		{"0", 0, false},
		{"13", 0, false},
		{"Jan", time.January, true},
		{"january", time.January, true},
		{"SEP", time.September, true},
		{"sept", time.September, true},
		{"", 0, false},
		{"  mar ", time.March, true},
		{"janx", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseMonth(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseMonth(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
