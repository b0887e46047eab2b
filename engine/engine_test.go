package engine_test

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-engine/calendar"
	"github.com/warp/workforce-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// January 2025 has 23 weekdays, which matches the reference scenario.
func jan2025Calendar() *calendar.Calendar {
	return calendar.New(2025, nil)
}

func leave(empID, month, days string) engine.LeaveRow {
	return engine.LeaveRow{EmpID: empID, Month: month, LeaveDaysTaken: days}
}

func assign(empID, name, contract, month, alloc, rate, fx string) engine.AssignmentRow {
	return engine.AssignmentRow{
		EmpID:                 empID,
		Name:                  name,
		Contract:              contract,
		Month:                 month,
		BillableAllocationPct: alloc,
		DailyRateLocal:        rate,
		FXRateToTarget:        fx,
	}
}

func fteOf(records []engine.AssociateMonthRecord, empID string) (engine.AssociateMonthRecord, bool) {
	for _, r := range records {
		if r.EmpID == empID {
			return r, true
		}
	}
	return engine.AssociateMonthRecord{}, false
}

// =============================================================================
// REFERENCE SCENARIO
// =============================================================================

func TestRun_AlphaContractScenario(t *testing.T) {
	// GIVEN: Contract "Alpha", January 2025 (23 working days, no holidays).
	//   Associate A: 2 leave days, 100% allocation, rate 500, fx 1.2
	//   Associate B: 0 leave days, 50% allocation, rate 400, fx 1.2
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Leave: []engine.LeaveRow{
			leave("A", "Jan", "2"),
			leave("B", "Jan", "0"),
		},
		Assignments: []engine.AssignmentRow{
			assign("A", "Alice", "Alpha", "Jan", "100", "500", "1.2"),
			assign("B", "Bob", "Alpha", "Jan", "50", "400", "1.2"),
		},
	})

	require.Equal(t, []string{"Jan"}, result.Months)
	require.Len(t, result.Contracts, 1)
	require.Empty(t, result.Warnings)

	alpha := result.Contracts[0]
	assert.Equal(t, "Alpha", alpha.Contract)
	require.Len(t, alpha.Associates, 2)

	a, ok := fteOf(alpha.Associates, "A")
	require.True(t, ok)
	assert.Equal(t, 23, a.WorkingDays)
	assert.InDelta(t, 0.087, a.LeaveFTE.InexactFloat64(), 0.001)
	assert.InDelta(t, 0.913, a.TotalFTE.InexactFloat64(), 0.001)
	assert.True(t, a.RevenueLocal.Equal(decimalFrom(t, "10500")), "revenueLocal = %s", a.RevenueLocal)
	assert.True(t, a.RevenueTarget.Equal(decimalFrom(t, "12600")), "revenueTarget = %s", a.RevenueTarget)

	b, ok := fteOf(alpha.Associates, "B")
	require.True(t, ok)
	assert.True(t, b.TotalFTE.Equal(decimalFrom(t, "0.5")), "totalFte = %s", b.TotalFTE)

	require.Len(t, alpha.Months, 1)
	assert.InDelta(t, 1.413, alpha.Months[0].TotalFTE.InexactFloat64(), 0.001)

	// Single contract: grand total equals the contract summary exactly.
	require.Len(t, result.GrandTotal, 1)
	assert.True(t, result.GrandTotal[0].TotalFTE.Equal(alpha.Months[0].TotalFTE))
	assert.True(t, result.GrandTotal[0].TotalRevenueLocal.Equal(alpha.Months[0].TotalRevenueLocal))
}

// =============================================================================
// AGGREGATION PROPERTIES
// =============================================================================

func TestRun_GrandTotalIsExactSumOfContracts(t *testing.T) {
	// GIVEN: Three contracts across two months with awkward fractions
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Leave: []engine.LeaveRow{
			leave("e1", "Jan", "3"),
			leave("e2", "Feb", "1.5"),
		},
		Assignments: []engine.AssignmentRow{
			assign("e1", "One", "Alpha", "Jan", "80", "517", "1.13"),
			assign("e2", "Two", "Beta", "Jan", "65", "433", "0.97"),
			assign("e2", "Two", "Beta", "Feb", "65", "433", "0.97"),
			assign("e3", "Three", "Gamma", "Feb", "100", "811", "1.31"),
			assign("e1", "One", "Gamma", "Jan", "20", "350", "1.13"),
		},
	})

	for i, total := range result.GrandTotal {
		sumFTE := decimalFrom(t, "0")
		sumRevenue := decimalFrom(t, "0")
		for _, group := range result.Contracts {
			for _, sum := range group.Months {
				if sum.Month == total.Month {
					sumFTE = sumFTE.Add(sum.TotalFTE)
					sumRevenue = sumRevenue.Add(sum.TotalRevenueLocal)
				}
			}
		}
		// Exact equality: grand totals are sums of contract sums, never an
		// independent recomputation.
		assert.True(t, total.TotalFTE.Equal(sumFTE),
			"month %d: grand %s != sum %s", i, total.TotalFTE, sumFTE)
		assert.True(t, total.TotalRevenueLocal.Equal(sumRevenue),
			"month %d: grand %s != sum %s", i, total.TotalRevenueLocal, sumRevenue)
	}
}

func TestRun_SharedAllocationAcrossContracts_NotDeduplicated(t *testing.T) {
	// GIVEN: e1 split 60/40 across two contracts in the same month
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Assignments: []engine.AssignmentRow{
			assign("e1", "One", "Alpha", "Jan", "60", "500", "1"),
			assign("e1", "One", "Beta", "Jan", "40", "500", "1"),
		},
	})

	// THEN: each contract carries its own partial record
	require.Len(t, result.Contracts, 2)
	assert.Equal(t, "Alpha", result.Contracts[0].Contract)
	assert.Equal(t, "Beta", result.Contracts[1].Contract)
	assert.True(t, result.Contracts[0].Months[0].TotalFTE.Equal(decimalFrom(t, "0.6")))
	assert.True(t, result.Contracts[1].Months[0].TotalFTE.Equal(decimalFrom(t, "0.4")))
	assert.True(t, result.GrandTotal[0].TotalFTE.Equal(decimalFrom(t, "1")))
}

func TestRun_DuplicateRowsWithinContract_Merged(t *testing.T) {
	// GIVEN: two rows for e1 on Alpha in January (split workstreams)
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Leave:    []engine.LeaveRow{leave("e1", "Jan", "0")},
		Assignments: []engine.AssignmentRow{
			assign("e1", "One", "Alpha", "Jan", "50", "400", "1"),
			assign("e1", "One", "Alpha", "Jan", "30", "600", "1"),
		},
	})

	require.Len(t, result.Contracts, 1)
	require.Len(t, result.Contracts[0].Associates, 1)
	rec := result.Contracts[0].Associates[0]
	assert.True(t, rec.TotalFTE.Equal(decimalFrom(t, "0.8")), "totalFte = %s", rec.TotalFTE)
	// 0.5*23*400 + 0.3*23*600 = 4600 + 4140
	assert.True(t, rec.RevenueLocal.Equal(decimalFrom(t, "8740")), "revenue = %s", rec.RevenueLocal)
	// Leave counted once for the merged record.
	assert.True(t, rec.LeaveFTE.IsZero())
}

func TestRun_ContractsInFirstSeenOrder(t *testing.T) {
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Assignments: []engine.AssignmentRow{
			assign("e1", "", "Zulu", "Jan", "100", "1", "1"),
			assign("e2", "", "Alpha", "Jan", "100", "1", "1"),
			assign("e3", "", "Mike", "Feb", "100", "1", "1"),
		},
	})

	got := make([]string, 0, len(result.Contracts))
	for _, g := range result.Contracts {
		got = append(got, g.Contract)
	}
	assert.Equal(t, []string{"Zulu", "Alpha", "Mike"}, got)
}

// =============================================================================
// SAFE NUMERICS AND WARNINGS
// =============================================================================

func TestRun_BlankLeaveDays_ZeroNotNaN(t *testing.T) {
	result := engine.Run(engine.Input{
		Calendar:    jan2025Calendar(),
		Leave:       []engine.LeaveRow{leave("e1", "Jan", "")},
		Assignments: []engine.AssignmentRow{assign("e1", "", "Alpha", "Jan", "100", "500", "1")},
	})

	rec := result.Contracts[0].Associates[0]
	assert.True(t, rec.LeaveFTE.IsZero())
	assert.True(t, rec.TotalFTE.Equal(decimalFrom(t, "1")))
	// Blank is silently zero, not a warning.
	assert.Empty(t, result.Warnings)
}

func TestRun_NonNumericInput_ZeroPlusWarning(t *testing.T) {
	result := engine.Run(engine.Input{
		Calendar:    jan2025Calendar(),
		Leave:       []engine.LeaveRow{leave("e1", "Jan", "n/a")},
		Assignments: []engine.AssignmentRow{assign("e1", "", "Alpha", "Jan", "abc", "500", "1")},
	})

	rec := result.Contracts[0].Associates[0]
	assert.True(t, rec.LeaveFTE.IsZero())
	assert.True(t, rec.TotalFTE.IsZero()) // allocation "abc" -> 0

	codes := warningCodes(result)
	assert.Equal(t, 2, codes[engine.WarnNonNumericInput])
}

func TestRun_MissingEmpIDOrMonth_SkippedWithWarning(t *testing.T) {
	result := engine.Run(engine.Input{
		Calendar: jan2025Calendar(),
		Leave:    []engine.LeaveRow{leave("", "Jan", "2")},
		Assignments: []engine.AssignmentRow{
			assign("e1", "", "Alpha", "Smarch", "100", "500", "1"),
			assign("e2", "", "Alpha", "Jan", "100", "500", "1"),
		},
	})

	require.Len(t, result.Contracts, 1)
	require.Len(t, result.Contracts[0].Associates, 1)
	assert.Equal(t, "e2", result.Contracts[0].Associates[0].EmpID)

	codes := warningCodes(result)
	assert.Equal(t, 2, codes[engine.WarnMissingField])
}

func TestRun_BlankContract_GroupedUnderUnassigned(t *testing.T) {
	result := engine.Run(engine.Input{
		Calendar:    jan2025Calendar(),
		Assignments: []engine.AssignmentRow{assign("e1", "One", "", "Jan", "100", "500", "1")},
	})

	require.Len(t, result.Contracts, 1)
	assert.Equal(t, engine.UnassignedContract, result.Contracts[0].Contract)
	codes := warningCodes(result)
	assert.Equal(t, 1, codes[engine.WarnUnknownContract])
}

func TestRun_LeaveOnlyAssociate_VisibleWithoutRevenue(t *testing.T) {
	// GIVEN: e9 appears in the leave register but has no assignment
	result := engine.Run(engine.Input{
		Calendar:    jan2025Calendar(),
		Leave:       []engine.LeaveRow{leave("e9", "Jan", "5")},
		Assignments: []engine.AssignmentRow{assign("e1", "", "Alpha", "Jan", "100", "500", "1")},
	})

	var unassigned *engine.ContractGroup
	for i := range result.Contracts {
		if result.Contracts[i].Contract == engine.UnassignedContract {
			unassigned = &result.Contracts[i]
		}
	}
	require.NotNil(t, unassigned, "leave-only associate should surface under Unassigned")
	require.Len(t, unassigned.Associates, 1)
	rec := unassigned.Associates[0]
	assert.Equal(t, "e9", rec.EmpID)
	assert.False(t, rec.LeaveFTE.IsZero())
	assert.True(t, rec.TotalFTE.IsZero())
	assert.True(t, rec.RevenueLocal.IsZero())
}

func TestRun_ZeroWorkingDays_NeverPanicsAlwaysComplete(t *testing.T) {
	// GIVEN: a degenerate calendar year where the month has no working days
	// (every weekday of February declared a holiday)
	var holidays []time.Time
	day := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == time.February {
		holidays = append(holidays, day)
		day = day.AddDate(0, 0, 1)
	}

	result := engine.Run(engine.Input{
		Calendar:    calendar.New(2025, holidays),
		Leave:       []engine.LeaveRow{leave("e1", "Feb", "2")},
		Assignments: []engine.AssignmentRow{assign("e1", "", "Alpha", "Feb", "100", "500", "1")},
	})

	require.Len(t, result.Contracts, 1)
	rec := result.Contracts[0].Associates[0]
	assert.True(t, rec.LeaveFTE.IsZero())
	assert.True(t, rec.RevenueLocal.IsZero())
	codes := warningCodes(result)
	assert.Equal(t, 1, codes[engine.WarnZeroWorkingDays])
}

func TestRun_Deterministic_SameInputSameOutput(t *testing.T) {
	input := engine.Input{
		Calendar: jan2025Calendar(),
		Leave: []engine.LeaveRow{
			leave("e1", "Jan", ""),
			leave("e2", "Feb", "junk"),
			leave("e9", "Mar", "1"),
		},
		Assignments: []engine.AssignmentRow{
			assign("e1", "One", "Alpha", "Jan", "80", "500", "1.2"),
			assign("e2", "Two", "", "Feb", "50", "400", "0.9"),
		},
	}

	first, err := json.Marshal(engine.Run(input))
	require.NoError(t, err)
	second, err := json.Marshal(engine.Run(input))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "re-running identical input must be byte-identical")
}

// =============================================================================
// HELPERS
// =============================================================================

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func warningCodes(result *engine.Result) map[engine.WarningCode]int {
	codes := make(map[engine.WarningCode]int)
	for _, w := range result.Warnings {
		codes[w.Code]++
	}
	return codes
}
