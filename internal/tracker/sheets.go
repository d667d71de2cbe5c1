// Package tracker mirrors the draft pipeline into a Google Sheets content
// calendar.
package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
)

// Tracker receives draft lifecycle events
type Tracker interface {
	DraftCreated(ctx context.Context, draft *models.Draft, idea *models.Idea) error
	DraftScheduled(ctx context.Context, draft *models.Draft) error
	DraftPublished(ctx context.Context, draft *models.Draft) error
}

// SheetColumns defines the column headers for the calendar sheet
var SheetColumns = []string{
	"Draft ID",
	"Idea ID",
	"Title",
	"Source",
	"Status",
	"Focus Keywords",
	"Scheduled For",
	"Published At",
	"Post URL",
	"Created At",
	"Updated At",
}

// Calendar statuses
const (
	StatusDrafted   = "Drafted"
	StatusScheduled = "Scheduled"
	StatusPublished = "Published"
)

// SheetsTracker writes one row per draft
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetsTracker creates a tracker. It returns nil when tracking is
// disabled. Extra client options are appended after the credentials.
func NewSheetsTracker(ctx context.Context, cfg config.TrackerConfig, log *logger.Logger, opts ...option.ClientOption) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("tracker.spreadsheet_id is required")
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(opts) == 0:
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Content"
	}

	return &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-tracker"),
	}, nil
}

// InitializeSheet creates the sheet and headers if they don't exist
func (t *SheetsTracker) InitializeSheet(ctx context.Context) error {
	spreadsheet, err := t.service.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == t.sheetName {
			exists = true
			break
		}
	}

	if !exists {
		t.log.Info().Str("sheet", t.sheetName).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: t.sheetName}}},
			},
		}
		if _, err := t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, t.cell("A1:K1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := make([]any, len(SheetColumns))
	for i, col := range SheetColumns {
		header[i] = col
	}
	_, err = t.service.Spreadsheets.Values.Update(t.spreadsheetID, t.cell("A1"), &sheets.ValueRange{
		Values: [][]any{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	t.log.Info().Msg("Sheet headers initialized")
	return nil
}

// DraftCreated appends a calendar row for a new draft
func (t *SheetsTracker) DraftCreated(ctx context.Context, draft *models.Draft, idea *models.Idea) error {
	var ideaID any = ""
	source := "manual"
	if idea != nil {
		ideaID = idea.ID
		source = string(idea.Source)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	row := []any{
		draft.ID,
		ideaID,
		draft.Title,
		source,
		StatusDrafted,
		strings.Join(draft.FocusKeywords, ", "),
		formatTime(draft.ScheduledFor),
		formatTime(draft.PublishedAt),
		draft.RemoteURL,
		now,
		now,
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, t.cell("A:K"), &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	t.log.Info().Uint("draft_id", draft.ID).Str("title", draft.Title).Msg("Tracked new draft")
	return nil
}

// DraftScheduled records the planned publish time
func (t *SheetsTracker) DraftScheduled(ctx context.Context, draft *models.Draft) error {
	return t.updateRow(ctx, draft.ID, map[string]any{
		"E": StatusScheduled,
		"G": formatTime(draft.ScheduledFor),
	})
}

// DraftPublished records the publish time and post URL
func (t *SheetsTracker) DraftPublished(ctx context.Context, draft *models.Draft) error {
	return t.updateRow(ctx, draft.ID, map[string]any{
		"E": StatusPublished,
		"G": "",
		"H": formatTime(draft.PublishedAt),
		"I": draft.RemoteURL,
	})
}

// updateRow writes the given columns plus Updated At in one batch call
func (t *SheetsTracker) updateRow(ctx context.Context, draftID uint, cells map[string]any) error {
	rowNum, err := t.findRow(ctx, draftID)
	if err != nil {
		return err
	}

	cells["K"] = time.Now().UTC().Format(time.RFC3339)

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for col, value := range cells {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  t.cell(fmt.Sprintf("%s%d", col, rowNum)),
			Values: [][]any{{value}},
		})
	}

	if _, err := t.service.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update row %d: %w", rowNum, err)
	}
	return nil
}

// findRow returns the 1-indexed row holding a draft ID
func (t *SheetsTracker) findRow(ctx context.Context, draftID uint) (int, error) {
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, t.cell("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to search for draft: %w", err)
	}

	want := strconv.FormatUint(uint64(draftID), 10)
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == want {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("draft %d not found in tracker", draftID)
}

func (t *SheetsTracker) cell(r string) string {
	return t.sheetName + "!" + r
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
