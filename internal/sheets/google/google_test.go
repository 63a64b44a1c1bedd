package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/sheets"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets answers the three Sheets calls the client makes.
type fakeSheets struct {
	mu        sync.Mutex
	rows      map[string]int
	gets      int
	added     []string
	updates   []string
	bodies    []gsheet.ValueRange
	inputOpts []string
	failPut   bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		title := req.Requests[0].AddSheet.Properties.Title
		f.added = append(f.added, title)
		f.rows[title] = 0
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-id"})

	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		f.gets++
		rng := r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		sheet := strings.SplitN(rng, "!", 2)[0]
		n, ok := f.rows[sheet]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
				"code":    400,
				"message": "Unable to parse range: " + rng,
			}})
			return
		}
		values := make([][]any, n)
		for i := range values {
			values[i] = []any{"x"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": values})

	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		if f.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 500, "message": "backend error"}})
			return
		}
		rng := r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		body, _ := io.ReadAll(r.Body)
		var vr gsheet.ValueRange
		_ = json.Unmarshal(body, &vr)
		f.updates = append(f.updates, rng)
		f.bodies = append(f.bodies, vr)
		f.inputOpts = append(f.inputOpts, r.URL.Query().Get("valueInputOption"))
		sheet := strings.SplitN(rng, "!", 2)[0]
		f.rows[sheet] += len(vr.Values)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return newClient(svc, Config{SpreadsheetID: "sheet-id", RowCacheTTL: time.Minute})
}

func testRow(year int) sheets.MirrorRow {
	tx := core.Transaction{
		ID:          uuid.New(),
		UserID:      "u1",
		Date:        core.NewDate(year, 3, 14),
		Description: "Coffee",
		Amount:      decimal.RequireFromString("-4.5"),
		Category:    "Food",
		Kind:        core.KindRegular,
	}
	return sheets.RowFromTransaction("created", tx, time.Date(year, 3, 14, 9, 0, 0, 0, time.UTC))
}

func TestAppendRow(t *testing.T) {
	tests := []struct {
		name       string
		existing   map[string]int
		wantAdded  []string
		wantRange  string
		wantRef    string
		wantHeader bool
	}{
		{
			name:      "existing sheet with rows",
			existing:  map[string]int{"2024 Ledger": 5},
			wantRange: "2024 Ledger!A6:J6",
			wantRef:   "2024 Ledger!A6:J6",
		},
		{
			name:       "empty sheet gets header",
			existing:   map[string]int{"2024 Ledger": 0},
			wantRange:  "2024 Ledger!A1:J2",
			wantRef:    "2024 Ledger!A2:J2",
			wantHeader: true,
		},
		{
			name:       "missing sheet is created",
			existing:   map[string]int{},
			wantAdded:  []string{"2024 Ledger"},
			wantRange:  "2024 Ledger!A1:J2",
			wantRef:    "2024 Ledger!A2:J2",
			wantHeader: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSheets{rows: tt.existing}
			c := newTestClient(t, f)

			ref, err := c.AppendRow(context.Background(), testRow(2024))
			if err != nil {
				t.Fatalf("AppendRow: %v", err)
			}
			if ref != tt.wantRef {
				t.Errorf("ref = %q, want %q", ref, tt.wantRef)
			}
			if len(f.updates) != 1 || f.updates[0] != tt.wantRange {
				t.Fatalf("updates = %v, want [%s]", f.updates, tt.wantRange)
			}
			if f.inputOpts[0] != "USER_ENTERED" {
				t.Errorf("valueInputOption = %q", f.inputOpts[0])
			}
			if len(f.added) != len(tt.wantAdded) {
				t.Errorf("added sheets = %v, want %v", f.added, tt.wantAdded)
			}

			values := f.bodies[0].Values
			if tt.wantHeader && values[0][0] != sheets.Header[0] {
				t.Errorf("first row = %v, want header", values[0])
			}
			data := values[len(values)-1]
			if data[6] != "-4.50" || data[1] != "created" {
				t.Errorf("data row = %v", data)
			}
		})
	}
}

func TestAppendRowUsesRowCache(t *testing.T) {
	f := &fakeSheets{rows: map[string]int{"2024 Ledger": 3}}
	c := newTestClient(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.AppendRow(ctx, testRow(2024)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if f.gets != 1 {
		t.Errorf("row count read %d times, want 1", f.gets)
	}
	want := []string{"2024 Ledger!A4:J4", "2024 Ledger!A5:J5", "2024 Ledger!A6:J6"}
	for i, w := range want {
		if f.updates[i] != w {
			t.Errorf("update %d = %q, want %q", i, f.updates[i], w)
		}
	}

	// A new year goes to its own tab.
	if _, err := c.AppendRow(ctx, testRow(2025)); err != nil {
		t.Fatalf("append 2025: %v", err)
	}
	if f.gets != 2 || len(f.added) != 1 || f.added[0] != "2025 Ledger" {
		t.Errorf("gets=%d added=%v", f.gets, f.added)
	}
}

func TestAppendRowFailureInvalidatesCache(t *testing.T) {
	f := &fakeSheets{rows: map[string]int{"2024 Ledger": 1}}
	c := newTestClient(t, f)
	ctx := context.Background()

	if _, err := c.AppendRow(ctx, testRow(2024)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	f.mu.Lock()
	f.failPut = true
	f.mu.Unlock()

	if _, err := c.AppendRow(ctx, testRow(2024)); err == nil {
		t.Fatal("expected error from failing update")
	}
	c.mu.Lock()
	expired := !c.now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if !expired {
		t.Error("cache should be invalidated after a failed write")
	}
}

func TestAppendRowWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendRow(context.Background(), testRow(2024)); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing spreadsheet",
			cfg:     Config{},
			wantErr: "missing GOOGLE_SPREADSHEET_ID",
		},
		{
			name: "invalid oauth client",
			cfg: Config{
				SpreadsheetID:   "test-id",
				OAuthClientJSON: "invalid-json",
				OAuthTokenJSON:  `{"access_token":"test"}`,
			},
			wantErr: "oauth config",
		},
		{
			name: "missing token file",
			cfg: Config{
				SpreadsheetID:   "test-id",
				OAuthClientJSON: `{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`,
				OAuthTokenFile:  "/nonexistent/token.json",
			},
			wantErr: "read oauth token",
		},
		{
			name: "token missing",
			cfg: Config{
				SpreadsheetID:   "test-id",
				OAuthClientJSON: `{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`,
			},
			wantErr: "oauth token missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewWithOAuthToken(t *testing.T) {
	c, err := New(context.Background(), Config{
		SpreadsheetID:   "test-id",
		OAuthClientJSON: `{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`,
		OAuthTokenJSON:  `{"access_token":"test","token_type":"Bearer"}`,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.sheetBase != DefaultSheetName || c.cacheValidDuration != defaultRowCacheTTL {
		t.Errorf("defaults not applied: base=%q ttl=%v", c.sheetBase, c.cacheValidDuration)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2024, "2024 Ledger"},
		{"  Ledger ", 2025, "2025 Ledger"},
		{"2023 Ledger", 2025, "2023 Ledger"},
		{"", 2024, ""},
		{"1234Ledger", 2024, "2024 1234Ledger"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestIsMissingSheet(t *testing.T) {
	if isMissingSheet(errors.New("Unable to parse range")) {
		t.Error("plain errors are not API errors")
	}
}
