package http

import (
	"finwell/internal/core"
	"finwell/internal/services"
)

// Monetary fields of stored rows render as fixed two-place strings, report
// figures as JSON numbers.

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type transactionResponse struct {
	ID          int64            `json:"id"`
	Category    categoryResponse `json:"category"`
	Amount      string           `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}

type alertResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// transactionWriteResponse always carries budget_alert, null when no alert
// applies.
type transactionWriteResponse struct {
	transactionResponse
	BudgetAlert *alertResponse `json:"budget_alert"`
}

type budgetResponse struct {
	ID         int64            `json:"id"`
	Category   categoryResponse `json:"category"`
	Amount     string           `json:"amount"`
	Period     string           `json:"period"`
	TotalSpent string           `json:"total_spent"`
	Remaining  string           `json:"remaining"`
}

type summaryRowResponse struct {
	Category  string  `json:"category"`
	Spent     float64 `json:"spent"`
	Budget    float64 `json:"budget"`
	Remaining float64 `json:"remaining"`
}

type summaryTotalsResponse struct {
	Spent     float64 `json:"spent"`
	Budget    float64 `json:"budget"`
	Remaining float64 `json:"remaining"`
}

type summaryResponse struct {
	Summary []summaryRowResponse  `json:"summary"`
	Totals  summaryTotalsResponse `json:"totals"`
}

type healthResponse struct {
	Score   int    `json:"score"`
	Message string `json:"message"`
}

func presentCategory(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type)}
}

func presentCategories(cs []core.Category) []categoryResponse {
	out := make([]categoryResponse, len(cs))
	for i, c := range cs {
		out[i] = presentCategory(c)
	}
	return out
}

func presentTransaction(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Category:    presentCategory(t.Category),
		Amount:      core.FormatAmount(t.Amount),
		Date:        t.Date.String(),
		Description: t.Description,
	}
}

func presentTransactions(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(ts))
	for i, t := range ts {
		out[i] = presentTransaction(t)
	}
	return out
}

func presentTransactionWrite(res services.TransactionResult) transactionWriteResponse {
	out := transactionWriteResponse{transactionResponse: presentTransaction(res.Transaction)}
	if res.Alert != nil {
		out.BudgetAlert = &alertResponse{Type: string(res.Alert.Kind), Message: res.Alert.Message}
	}
	return out
}

func presentBudget(b core.BudgetStatus) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		Category:   presentCategory(b.Category),
		Amount:     core.FormatAmount(b.Amount),
		Period:     b.Period.String(),
		TotalSpent: core.FormatAmount(b.TotalSpent),
		Remaining:  core.FormatAmount(b.Remaining),
	}
}

func presentBudgets(bs []core.BudgetStatus) []budgetResponse {
	out := make([]budgetResponse, len(bs))
	for i, b := range bs {
		out[i] = presentBudget(b)
	}
	return out
}

func presentSummary(s core.Summary) summaryResponse {
	rows := make([]summaryRowResponse, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = summaryRowResponse{
			Category:  r.Category,
			Spent:     r.Spent.InexactFloat64(),
			Budget:    r.Budget.InexactFloat64(),
			Remaining: r.Remaining.InexactFloat64(),
		}
	}
	return summaryResponse{
		Summary: rows,
		Totals: summaryTotalsResponse{
			Spent:     s.Totals.Spent.InexactFloat64(),
			Budget:    s.Totals.Budget.InexactFloat64(),
			Remaining: s.Totals.Remaining.InexactFloat64(),
		},
	}
}

func presentHealth(h core.HealthScore) healthResponse {
	return healthResponse{Score: h.Score, Message: h.Message}
}
