package sheets

import "context"

// TransactionRow is one line of the transactions export. Amount is a
// 2-place decimal string, Date is YYYY-MM-DD.
type TransactionRow struct {
	Action        string // created, updated or deleted
	OwnerID       string
	TransactionID int64
	Date          string
	Category      string
	Description   string
	Amount        string
	RecordedAt    string
}

// AlertRow is one line of the alerts export.
type AlertRow struct {
	OwnerID       string
	TransactionID int64
	Date          string
	Type          string
	Category      string
	Percentage    string
	Spent         string
	Budget        string
	Message       string
}

// Ports for outbound adapters.
type (
	TransactionExporter interface {
		AppendTransaction(ctx context.Context, r TransactionRow) (rowRef string, err error)
		AppendAlert(ctx context.Context, r AlertRow) (rowRef string, err error)
	}
)

// Year extracts the year from a YYYY-MM-DD date, or 0 when malformed.
func Year(date string) int {
	if len(date) < 4 {
		return 0
	}
	y := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}
