// Package google exports ledger entries to a Google Sheets spreadsheet
// using service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"voxpense/internal/core"
	"voxpense/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.Exporter = (*Client)(nil)

// New builds a Sheets client from a service-account credentials file.
func New(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if credentialsFile == "" {
		return nil, errors.New("missing credentials file")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsFile(credentialsFile),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// AppendBatch appends one row per expense: ID, date, time, category,
// amount in rupees, description. Sheets handles row placement, so the
// append is safe under concurrent writers.
func (c *Client) AppendBatch(ctx context.Context, expenses []core.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	values := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		values = append(values, []any{
			e.ID,
			e.Date.String(),
			e.TimeOfDay,
			e.Category,
			e.Amount.Rupees(),
			e.Description,
		})
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %d rows to sheet %s: %w", len(values), c.sheetName, err)
	}
	return nil
}
