package invoice

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RowAppender appends flattened invoice rows to a tabular sink
type RowAppender interface {
	// AppendRows appends rows after the last row of the sink
	AppendRows(ctx context.Context, rows []Row) error
}

// GoogleSheets implements RowAppender against the Google Sheets API
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewGoogleSheets builds a Sheets client from a service-account
// credentials file scoped to spreadsheet access
func NewGoogleSheets(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*GoogleSheets, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("service account credentials file is required")
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &GoogleSheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendRows appends rows to the configured sheet
func (g *GoogleSheets) AppendRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row)
	}

	_, err := g.svc.Spreadsheets.Values.
		Append(g.spreadsheetID, g.sheetName, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}
	return nil
}
