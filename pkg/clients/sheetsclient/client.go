package sheetsclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/ninebox-weightage/internal/config"
	"github.com/jakechorley/ninebox-weightage/pkg/utils"
)

// Client reads and writes spreadsheet values through the Sheets v4 API
type Client struct {
	service *sheets.Service
}

// NewClient authorizes with the installed-app client, running the browser
// flow when env has no usable token, and opens the Sheets service.
func NewClient(ctx context.Context, google *config.GoogleClient, env string, logger *zap.Logger) (*Client, error) {
	tokens, err := utils.HomeTokenStore()
	if err != nil {
		return nil, err
	}
	auth := utils.NewAuthorizer(google.OAuth2(utils.RedirectURL(), utils.ScopeSheets), tokens, logger)

	tok, err := auth.Token(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize sheets access: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(auth.Config.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewFromService(service), nil
}

// NewFromService wraps an existing sheets service
func NewFromService(service *sheets.Service) *Client {
	return &Client{service: service}
}

// GetValues returns the formatted cell values of sheetRange
func (c *Client) GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error) {
	vr, err := c.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheetRange, err)
	}
	return vr.Values, nil
}

// AppendRows writes values below the last non-empty row of sheetRange
func (c *Client) AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error {
	_, err := c.service.Spreadsheets.Values.
		Append(spreadsheetID, sheetRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheetRange, err)
	}
	return nil
}

// CreateSheet adds a tab and returns its sheet id
func (c *Client) CreateSheet(spreadsheetID, sheetTitle string) (int64, error) {
	add := &sheets.Request{AddSheet: &sheets.AddSheetRequest{
		Properties: &sheets.SheetProperties{Title: sheetTitle},
	}}
	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{add}}).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to add tab %s: %w", sheetTitle, err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			return reply.AddSheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("add tab %s: response has no sheet properties", sheetTitle)
}

// ListSheets returns the tab titles of a spreadsheet
func (c *Client) ListSheets(spreadsheetID string) ([]string, error) {
	ss, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	var titles []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}
