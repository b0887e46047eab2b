/*
aggregate.go - Contract and grand-total rollups

PURPOSE:
  Groups derived associate-month records by contract and sums each metric
  per month, then sums the contract summaries into grand totals. Grand
  totals are sums of contract summaries - never recomputed from the
  records - so grandTotal(month).totalFte is exactly the sum of the
  contract totals for that month.

ORDERING:
  Contracts report in first-seen input order. Associates keep their
  original relative order within a contract. Month summaries are in
  calendar order.
*/
package engine

import (
	"time"
)

// aggregateContracts groups records into ContractGroups in first-seen
// contract order, with per-month sums for each contract.
func aggregateContracts(records []AssociateMonthRecord, contractOrder []string, months []time.Month) []ContractGroup {
	byContract := make(map[string][]AssociateMonthRecord, len(contractOrder))
	for _, rec := range records {
		byContract[rec.Contract] = append(byContract[rec.Contract], rec)
	}

	groups := make([]ContractGroup, 0, len(contractOrder))
	for _, contract := range contractOrder {
		recs := byContract[contract]
		group := ContractGroup{
			Contract:   contract,
			Associates: recs,
			Months:     make([]MonthSummary, 0, len(months)),
		}
		for _, month := range months {
			sum := MonthSummary{Contract: contract, Month: month}
			for _, rec := range recs {
				if rec.Month == month {
					sum.add(rec)
				}
			}
			group.Months = append(group.Months, sum)
		}
		groups = append(groups, group)
	}
	return groups
}

// aggregateGrandTotal sums the contract summaries per month.
func aggregateGrandTotal(groups []ContractGroup, months []time.Month) []MonthSummary {
	totals := make([]MonthSummary, 0, len(months))
	for _, month := range months {
		total := MonthSummary{Month: month}
		for _, group := range groups {
			for _, sum := range group.Months {
				if sum.Month == month {
					sub := sum
					sub.Contract = ""
					total.addSummary(sub)
				}
			}
		}
		totals = append(totals, total)
	}
	return totals
}

// monthsIn returns the distinct months present in the records, in calendar
// order with fixed labels.
func monthsIn(records []AssociateMonthRecord) []time.Month {
	var seen [12]bool
	for _, rec := range records {
		if rec.Month >= time.January && rec.Month <= time.December {
			seen[rec.Month-1] = true
		}
	}
	var months []time.Month
	for m := time.January; m <= time.December; m++ {
		if seen[m-1] {
			months = append(months, m)
		}
	}
	return months
}
