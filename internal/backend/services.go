package backend

import (
	"finwell/internal/metrics"
	"finwell/internal/services"
	"finwell/internal/storage"
)

// Services bundles the domain services built over one store.
type Services struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportBuilder
	Health       *services.HealthCalculator
}

// NewServices wires the services. publisher and m may be nil.
func NewServices(store storage.Store, publisher services.EventPublisher, m *metrics.Metrics) *Services {
	aggregator := services.NewSpendingAggregator(store)
	evaluator := services.NewAlertEvaluator(store, aggregator)
	return &Services{
		Categories:   services.NewCategoryService(store),
		Transactions: services.NewTransactionService(store, store, evaluator, publisher, m),
		Budgets:      services.NewBudgetService(store, store, aggregator),
		Reports:      services.NewReportBuilder(store),
		Health:       services.NewHealthCalculator(store, aggregator),
	}
}
