package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finwell/internal/config"
	"finwell/internal/sheets"
	gsheet "finwell/internal/sheets/google"
	"finwell/internal/sheets/memory"
)

// NewExporter returns the Google Sheets exporter when a spreadsheet id is
// configured, otherwise an in-memory one.
func NewExporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sheets.TransactionExporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, exporting to memory")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
		AlertsSheet:   cfg.GoogleAlertsSheetName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}
	logger.InfoContext(ctx, "Initialized Google Sheets exporter",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
