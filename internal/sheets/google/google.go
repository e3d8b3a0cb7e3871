package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	ports "finwell/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends export rows to year-prefixed tabs, e.g. "2025 Transactions".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab names without year; the row's year is prefixed on write.
	transactionsBase string
	alertsBase       string
	now              func() time.Time
}

var _ ports.TransactionExporter = (*Client)(nil)

// Config names the target spreadsheet and tab base names.
type Config struct {
	SpreadsheetID string
	SheetName     string
	AlertsSheet   string
}

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var (
		svc *gsheet.Service
		err error
	)
	if len(opts) > 0 {
		svc, err = gsheet.NewService(ctx, opts...)
	} else {
		svc, err = newSheetsService(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:              svc,
		spreadsheetID:    strings.TrimSpace(cfg.SpreadsheetID),
		transactionsBase: defaultName(cfg.SheetName, "Transactions"),
		alertsBase:       defaultName(cfg.AlertsSheet, "Alerts"),
		now:              time.Now,
	}, nil
}

func defaultName(name, fallback string) string {
	if name = strings.TrimSpace(name); name == "" {
		return fallback
	}
	return name
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendTransaction writes Action, Owner, ID, Date, Category, Description,
// Amount and RecordedAt into columns A:H.
func (c *Client) AppendTransaction(ctx context.Context, r ports.TransactionRow) (string, error) {
	amount, err := strconv.ParseFloat(r.Amount, 64)
	if err != nil {
		return "", fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	sheet := yearPrefixedName(c.transactionsBase, c.yearOf(r.Date))
	row := []any{r.Action, r.OwnerID, r.TransactionID, r.Date, r.Category, r.Description, amount, r.RecordedAt}
	return c.append(ctx, sheet, "A:H", row)
}

// AppendAlert writes Date, Owner, ID, Type, Category, Percentage, Spent,
// Budget and Message into columns A:I.
func (c *Client) AppendAlert(ctx context.Context, r ports.AlertRow) (string, error) {
	sheet := yearPrefixedName(c.alertsBase, c.yearOf(r.Date))
	row := []any{r.Date, r.OwnerID, r.TransactionID, r.Type, r.Category, r.Percentage, r.Spent, r.Budget, r.Message}
	return c.append(ctx, sheet, "A:I", row)
}

func (c *Client) append(ctx context.Context, sheet, cols string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.DebugContext(ctx, "Appended row", "sheet", sheet, "ref", ref)
	return ref, nil
}

func (c *Client) yearOf(date string) int {
	if y := ports.Year(date); y > 0 {
		return y
	}
	return c.now().Year()
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
