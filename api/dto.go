/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based domain model from the external API contract:
  metrics cross the wire as plain numbers, registers arrive as the raw
  string-celled rows the upstream parser produces.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: The domain shapes these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/store/sqlite"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AnalyzeRequest carries one full analysis: the year, the holiday source,
// the two registers, and the calculator options.
type AnalyzeRequest struct {
	Year         int    `json:"year"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	// Holidays overrides the jurisdiction presets when non-empty
	// (dates as YYYY-MM-DD).
	Holidays []string `json:"holidays,omitempty"`
	// UseStoredHolidays pulls the holiday table from the database for the
	// given jurisdiction instead of the built-in presets.
	UseStoredHolidays bool `json:"use_stored_holidays,omitempty"`

	Leave       []engine.LeaveRow      `json:"leave"`
	Assignments []engine.AssignmentRow `json:"assignments"`
	Options     engine.Options         `json:"options,omitempty"`
}

// CreateHolidayRequest adds one holiday to the stored table.
type CreateHolidayRequest struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Date         string `json:"date"` // YYYY-MM-DD
	Name         string `json:"name"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalyzeResponse wraps a run's result with its stored ID.
type AnalyzeResponse struct {
	RunID  string    `json:"run_id"`
	Year   int       `json:"year"`
	Result ResultDTO `json:"result"`
}

// ResultDTO mirrors engine.Result with float64 metrics.
type ResultDTO struct {
	Months     []string           `json:"months"`
	Contracts  []ContractGroupDTO `json:"contractGroupedSummary"`
	GrandTotal []MonthSummaryDTO  `json:"grandTotal"`
	Warnings   []engine.Warning   `json:"warnings"`
}

// ContractGroupDTO is one contract with associate detail and monthly sums.
type ContractGroupDTO struct {
	Contract   string              `json:"contract"`
	Associates []AssociateMonthDTO `json:"associates"`
	Months     []MonthSummaryDTO   `json:"months"`
}

// AssociateMonthDTO is one associate-month record.
type AssociateMonthDTO struct {
	EmpID          string  `json:"emp_id"`
	Name           string  `json:"name"`
	Contract       string  `json:"contract"`
	Month          string  `json:"month"`
	WorkingDays    int     `json:"working_days"`
	LeaveDays      float64 `json:"leave_days"`
	LeaveFTE       float64 `json:"leave_fte"`
	TotalFTE       float64 `json:"total_fte"`
	BilledFTE      float64 `json:"billed_fte"`
	NonBillableFTE float64 `json:"non_billable_fte"`
	RevenueLocal   float64 `json:"revenue_local"`
	RevenueTarget  float64 `json:"revenue_target"`
}

// MonthSummaryDTO is one per-month sum, for a contract or the grand total.
type MonthSummaryDTO struct {
	Contract            string  `json:"contract,omitempty"`
	Month               string  `json:"month"`
	TotalLeaveFTE       float64 `json:"total_leave_fte"`
	TotalFTE            float64 `json:"total_fte"`
	TotalBilledFTE      float64 `json:"total_billed_fte"`
	TotalNonBillableFTE float64 `json:"total_non_billable_fte"`
	TotalRevenueLocal   float64 `json:"total_revenue_local"`
	TotalRevenueTarget  float64 `json:"total_revenue_target"`
}

// RunDTO is a stored-run listing entry.
type RunDTO struct {
	ID           string `json:"id"`
	Year         int    `json:"year"`
	CreatedAt    string `json:"created_at"`
	WarningCount int    `json:"warning_count"`
}

// HolidayDTO is a stored holiday.
type HolidayDTO struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Date         string `json:"date"`
	Name         string `json:"name"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toResultDTO(result *engine.Result) ResultDTO {
	dto := ResultDTO{
		Months:     result.Months,
		Contracts:  make([]ContractGroupDTO, 0, len(result.Contracts)),
		GrandTotal: make([]MonthSummaryDTO, 0, len(result.GrandTotal)),
		Warnings:   result.Warnings,
	}
	for _, group := range result.Contracts {
		g := ContractGroupDTO{
			Contract:   group.Contract,
			Associates: make([]AssociateMonthDTO, 0, len(group.Associates)),
			Months:     make([]MonthSummaryDTO, 0, len(group.Months)),
		}
		for _, rec := range group.Associates {
			g.Associates = append(g.Associates, toAssociateDTO(rec))
		}
		for _, sum := range group.Months {
			g.Months = append(g.Months, toSummaryDTO(sum))
		}
		dto.Contracts = append(dto.Contracts, g)
	}
	for _, sum := range result.GrandTotal {
		dto.GrandTotal = append(dto.GrandTotal, toSummaryDTO(sum))
	}
	return dto
}

func toAssociateDTO(rec engine.AssociateMonthRecord) AssociateMonthDTO {
	return AssociateMonthDTO{
		EmpID:          rec.EmpID,
		Name:           rec.Name,
		Contract:       rec.Contract,
		Month:          engine.MonthLabel(rec.Month),
		WorkingDays:    rec.WorkingDays,
		LeaveDays:      f(rec.LeaveDays),
		LeaveFTE:       f(rec.LeaveFTE),
		TotalFTE:       f(rec.TotalFTE),
		BilledFTE:      f(rec.BilledFTE),
		NonBillableFTE: f(rec.NonBillableFTE),
		RevenueLocal:   f(rec.RevenueLocal),
		RevenueTarget:  f(rec.RevenueTarget),
	}
}

func toSummaryDTO(sum engine.MonthSummary) MonthSummaryDTO {
	return MonthSummaryDTO{
		Contract:            sum.Contract,
		Month:               engine.MonthLabel(sum.Month),
		TotalLeaveFTE:       f(sum.TotalLeaveFTE),
		TotalFTE:            f(sum.TotalFTE),
		TotalBilledFTE:      f(sum.TotalBilledFTE),
		TotalNonBillableFTE: f(sum.TotalNonBillableFTE),
		TotalRevenueLocal:   f(sum.TotalRevenueLocal),
		TotalRevenueTarget:  f(sum.TotalRevenueTarget),
	}
}

func f(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func toRunDTO(run sqlite.Run) RunDTO {
	return RunDTO{
		ID:           run.ID,
		Year:         run.Year,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		WarningCount: run.WarningCount,
	}
}
