// Package sheets imports the lending partner catalog from a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// DefaultRange is read when no range is configured.
const DefaultRange = "Partners!A2:P"

// Config points at the spreadsheet holding the catalog.
type Config struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id" json:"spreadsheetId"`
	Range           string `mapstructure:"range" json:"range"`
	APIKey          string `mapstructure:"api_key" json:"apiKey"`
	APIKeyFile      string `mapstructure:"api_key_file" json:"-"`
	CredentialsFile string `mapstructure:"credentials_file" json:"-"`
}

// Fetcher returns the raw cell values of the catalog range.
type Fetcher interface {
	Fetch(ctx context.Context) ([][]any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([][]any, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([][]any, error) { return f(ctx) }

// Client reads a range through the Sheets API.
type Client struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	readRange     string
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a Sheets API client. A service account credentials file takes precedence
// over the API key.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
		)
	case strings.TrimSpace(cfg.APIKey) != "":
		opts = append(opts, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	default:
		return nil, errors.New("sheets api key or credentials file is required")
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	readRange := strings.TrimSpace(cfg.Range)
	if readRange == "" {
		readRange = DefaultRange
	}

	return &Client{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: id,
		readRange:     readRange,
	}, nil
}

func (c *Client) Fetch(ctx context.Context) ([][]any, error) {
	resp, err := c.values.Get(c.spreadsheetID, c.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %q: %w", c.readRange, err)
	}
	return resp.Values, nil
}
