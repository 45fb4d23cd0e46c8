// Package report computes summary aggregations over a book's transactions.
// All reports operate on in-memory slices so callers control the query window.
package report

import (
	"sort"

	"github.com/lekha-app/lekha/internal/model"
)

// UncategorizedLabel is the bucket used for transactions without a category.
const UncategorizedLabel = "Uncategorized"

// UnknownGroupLabel is the bucket used when a grouping field has no value.
const UnknownGroupLabel = "Unknown"

// CashFlow summarizes money in and out over a set of transactions.
type CashFlow struct {
	TotalIn      float64
	TotalOut     float64
	Net          float64
	Transactions int
}

// ComputeCashFlow sums income against expenses. Transfers do not affect
// either side but count toward the transaction total.
func ComputeCashFlow(txns []model.Transaction) CashFlow {
	var flow CashFlow
	for _, txn := range txns {
		switch txn.Type {
		case model.TypeIncome:
			flow.TotalIn += txn.Amount
		case model.TypeExpense:
			flow.TotalOut += txn.Amount
		case model.TypeTransfer:
		}
		flow.Transactions++
	}
	flow.Net = flow.TotalIn - flow.TotalOut
	return flow
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category   string
	Amount     float64
	Percentage float64
	Count      int
}

// ComputeCategoryBreakdown totals expenses per category, largest first.
// Percentages are relative to total expenses.
func ComputeCategoryBreakdown(txns []model.Transaction) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	var grandTotal float64

	for _, txn := range txns {
		if txn.Type != model.TypeExpense {
			continue
		}
		category := txn.CategoryID
		if category == "" {
			category = UncategorizedLabel
		}
		row, ok := totals[category]
		if !ok {
			row = &CategoryTotal{Category: category}
			totals[category] = row
		}
		row.Amount += txn.Amount
		row.Count++
		grandTotal += txn.Amount
	}

	result := make([]CategoryTotal, 0, len(totals))
	for _, row := range totals {
		if grandTotal > 0 {
			row.Percentage = row.Amount / grandTotal * 100
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount != result[j].Amount {
			return result[i].Amount > result[j].Amount
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// MonthlyTotal is one month's income and expense sums.
type MonthlyTotal struct {
	Month   string
	Income  float64
	Expense float64
}

// MonthlyTrends holds per-month totals plus the largest single-side value,
// used to scale chart bars.
type MonthlyTrends struct {
	Months []MonthlyTotal
	Max    float64
}

// ComputeMonthlyTrends buckets transactions by calendar month in ascending
// order.
func ComputeMonthlyTrends(txns []model.Transaction) MonthlyTrends {
	byMonth := make(map[string]*MonthlyTotal)
	for _, txn := range txns {
		month := txn.Month()
		row, ok := byMonth[month]
		if !ok {
			row = &MonthlyTotal{Month: month}
			byMonth[month] = row
		}
		switch txn.Type {
		case model.TypeIncome:
			row.Income += txn.Amount
		case model.TypeExpense:
			row.Expense += txn.Amount
		case model.TypeTransfer:
		}
	}

	trends := MonthlyTrends{Months: make([]MonthlyTotal, 0, len(byMonth))}
	for _, row := range byMonth {
		trends.Months = append(trends.Months, *row)
		if row.Income > trends.Max {
			trends.Max = row.Income
		}
		if row.Expense > trends.Max {
			trends.Max = row.Expense
		}
	}
	sort.Slice(trends.Months, func(i, j int) bool {
		return trends.Months[i].Month < trends.Months[j].Month
	})
	return trends
}

// PartyBalance is one party's ledger position.
type PartyBalance struct {
	Party    string
	Paid     float64
	Received float64
	Net      float64
	Count    int
}

// ComputePartyLedger totals expenses paid to and income received from each
// party. Transactions without a party are excluded.
func ComputePartyLedger(txns []model.Transaction) []PartyBalance {
	byParty := make(map[string]*PartyBalance)
	for _, txn := range txns {
		if txn.PartyID == "" {
			continue
		}
		row, ok := byParty[txn.PartyID]
		if !ok {
			row = &PartyBalance{Party: txn.PartyID}
			byParty[txn.PartyID] = row
		}
		switch txn.Type {
		case model.TypeIncome:
			row.Received += txn.Amount
		case model.TypeExpense:
			row.Paid += txn.Amount
		case model.TypeTransfer:
		}
		row.Count++
	}

	result := make([]PartyBalance, 0, len(byParty))
	for _, row := range byParty {
		row.Net = row.Received - row.Paid
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Party < result[j].Party
	})
	return result
}

// GroupTotal is one bucket of a custom grouping report.
type GroupTotal struct {
	Group  string
	Amount float64
	Count  int
}

// ComputeCustomGroups totals raw amounts bucketed by an arbitrary schema
// field. The field value is resolved from custom data first, then from the
// matching built-in column. Amounts are summed across all transaction types
// without regard to direction.
func ComputeCustomGroups(txns []model.Transaction, fieldKey string) []GroupTotal {
	byGroup := make(map[string]*GroupTotal)
	for _, txn := range txns {
		group := groupValue(&txn, fieldKey)
		row, ok := byGroup[group]
		if !ok {
			row = &GroupTotal{Group: group}
			byGroup[group] = row
		}
		row.Amount += txn.Amount
		row.Count++
	}

	result := make([]GroupTotal, 0, len(byGroup))
	for _, row := range byGroup {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount != result[j].Amount {
			return result[i].Amount > result[j].Amount
		}
		return result[i].Group < result[j].Group
	})
	return result
}

func groupValue(txn *model.Transaction, fieldKey string) string {
	if v, ok := txn.CustomData[fieldKey]; ok && !v.IsNull() {
		if s := v.String(); s != "" {
			return s
		}
		return UnknownGroupLabel
	}
	var s string
	switch fieldKey {
	case "category":
		s = txn.CategoryID
	case "party":
		s = txn.PartyID
	case "mode", "payment_mode":
		s = txn.PaymentMode
	case "type":
		s = string(txn.Type)
	case "description":
		s = txn.Description
	case "date":
		s = txn.DateString()
	}
	if s == "" {
		return UnknownGroupLabel
	}
	return s
}
