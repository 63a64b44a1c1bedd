// Package google mirrors ledger rows into a Google Sheets spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"finpulse/internal/sheets"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName   = "Ledger"
	defaultRowCacheTTL = 2 * time.Minute
	lastColumn         = "J"
)

// Config selects the spreadsheet and the credentials. OAuth client and token
// take precedence over a service account; with neither, application default
// credentials are used. Inline JSON wins over the matching file.
type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; the row's year is prefixed to it.
	SheetName string

	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
	ServiceAccountJSON string
	ServiceAccountFile string

	RowCacheTTL time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	now           func() time.Time

	// mu guards the row-count cache and serialises appends so two rows never
	// claim the same line.
	mu                 sync.Mutex
	cachedSheet        string
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ sheets.LedgerMirror = (*Client)(nil)

// New authenticates and builds a client for cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	// The token source and the API calls share one pooled transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets mirror ready", "spreadsheet_id", cfg.SpreadsheetID)
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = DefaultSheetName
	}
	ttl := cfg.RowCacheTTL
	if ttl <= 0 {
		ttl = defaultRowCacheTTL
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(cfg.SpreadsheetID),
		sheetBase:          base,
		now:                time.Now,
		cacheValidDuration: ttl,
	}
}

func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	clientJSON, err := readSecret(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if len(clientJSON) > 0 {
		conf, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		tokenJSON, err := readSecret(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth token: %w", err)
		}
		if len(tokenJSON) == 0 {
			return nil, errors.New("oauth token missing: run oauth-init first")
		}
		var tok oauth2.Token
		if err := json.Unmarshal(tokenJSON, &tok); err != nil {
			return nil, fmt.Errorf("oauth token: %w", err)
		}
		slog.InfoContext(ctx, "Using OAuth user credentials for Google Sheets")
		return conf.TokenSource(ctx, &tok), nil
	}

	saJSON, err := readSecret(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if len(saJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, saJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account credentials: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials for Google Sheets")
		return creds.TokenSource, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("application default credentials: %w", err)
	}
	slog.InfoContext(ctx, "Using application default credentials for Google Sheets")
	return creds.TokenSource, nil
}

func readSecret(inline, file string) ([]byte, error) {
	if v := strings.TrimSpace(inline); v != "" {
		return []byte(v), nil
	}
	if file = strings.TrimSpace(file); file == "" {
		return nil, nil
	}
	return os.ReadFile(file)
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// AppendRow writes row under the last used line of the tab for the row's
// year, creating the tab and its header when missing. It returns the A1
// range written.
func (c *Client) AppendRow(ctx context.Context, row sheets.MirrorRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	recorded := row.RecordedAt
	if recorded.IsZero() {
		recorded = c.now().UTC()
		row.RecordedAt = recorded
	}
	sheet := yearPrefixedName(c.sheetBase, recorded.Year())

	c.mu.Lock()
	defer c.mu.Unlock()

	count, err := c.rowCountLocked(ctx, sheet)
	if err != nil {
		return "", err
	}

	values := make([][]any, 0, 2)
	if count == 0 {
		values = append(values, sheets.Header)
	}
	values = append(values, row.Values())
	first, last := count+1, count+len(values)

	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, first, lastColumn, last)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidateLocked()
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	c.cachedRowCount = last

	ref := fmt.Sprintf("%s!A%d:%s%d", sheet, last, lastColumn, last)
	slog.DebugContext(ctx, "Mirror row written",
		"ref", ref,
		"transaction_id", row.TransactionID,
		"action", row.Action)
	return ref, nil
}

func (c *Client) rowCountLocked(ctx context.Context, sheet string) (int, error) {
	if c.cachedSheet == sheet && c.now().Before(c.cacheExpiresAt) {
		return c.cachedRowCount, nil
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	count := 0
	switch {
	case err == nil:
		count = len(resp.Values)
	case isMissingSheet(err):
		if err := c.addSheet(ctx, sheet); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}

	c.cachedSheet = sheet
	c.cachedRowCount = count
	c.cacheExpiresAt = c.now().Add(c.cacheValidDuration)
	return count, nil
}

func (c *Client) addSheet(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Created mirror sheet", "sheet", sheet)
	return nil
}

// isMissingSheet reports whether err is the API's answer to a range naming a
// tab that does not exist.
func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(gerr.Message, "Unable to parse range")
}

// InvalidateRowCache forces the next append to re-read the row count.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Client) invalidateLocked() {
	c.cachedSheet = ""
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
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
