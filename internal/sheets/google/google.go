package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finance/internal/core"
	ports "finance/internal/sheets"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultTransactionsSheet = "Transactions"
	DefaultCategoriesSheet   = "Categories"
)

// Ensure interface conformance
var (
	_ ports.Backend = (*Client)(nil)
	_ ports.Pinger  = (*Client)(nil)
)

type Options struct {
	SpreadsheetID     string
	TransactionsSheet string
	CategoriesSheet   string
	// Inline service account JSON; takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// OAuth desktop client plus a token saved by "finance sheets-auth".
	// Used only when no service account is configured. Inline values take
	// precedence over files.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
	// ClientOptions are appended after the credential options.
	ClientOptions []goption.ClientOption
}

// Client stores the ledger in two tabs of a Google spreadsheet.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	categoriesSheet   string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	clientOpts, err := credentialOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c := &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: strings.TrimSpace(opts.TransactionsSheet),
		categoriesSheet:   strings.TrimSpace(opts.CategoriesSheet),
	}
	if c.transactionsSheet == "" {
		c.transactionsSheet = DefaultTransactionsSheet
	}
	if c.categoriesSheet == "" {
		c.categoriesSheet = DefaultCategoriesSheet
	}
	return c, nil
}

func credentialOptions(ctx context.Context, opts Options) ([]goption.ClientOption, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	case hasOAuth(opts):
		return oauthOptions(ctx, opts)
	case len(opts.ClientOptions) > 0:
		// Caller supplied its own transport or credentials.
		return nil, nil
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON/FILE or GOOGLE_OAUTH_CLIENT_* with GOOGLE_OAUTH_TOKEN_*)")
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func hasOAuth(opts Options) bool {
	hasClient := strings.TrimSpace(opts.OAuthClientJSON) != "" || strings.TrimSpace(opts.OAuthClientFile) != ""
	hasToken := strings.TrimSpace(opts.OAuthTokenJSON) != "" || strings.TrimSpace(opts.OAuthTokenFile) != ""
	return hasClient && hasToken
}

// oauthOptions authenticates as the user who authorized the saved token.
// The token source refreshes the access token as it expires.
func oauthOptions(ctx context.Context, opts Options) ([]goption.ClientOption, error) {
	clientJSON, err := inlineOrFile(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	tokenJSON, err := inlineOrFile(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("parse oauth token: no access or refresh token")
	}

	slog.InfoContext(ctx, "Using OAuth user credentials", "expiry", tok.Expiry)
	// The token source outlives ctx: it refreshes on later requests.
	ts := cfg.TokenSource(context.WithoutCancel(ctx), &tok)
	return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
}

// OAuthConfig parses an OAuth client secret JSON for the spreadsheets scope.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if v := strings.TrimSpace(inline); v != "" {
		return []byte(v), nil
	}
	return os.ReadFile(strings.TrimSpace(path))
}

func (c *Client) txRange() string  { return fmt.Sprintf("'%s'!A:G", c.transactionsSheet) }
func (c *Client) catRange() string { return fmt.Sprintf("'%s'!A:B", c.categoriesSheet) }

// Read fetches both tabs in one request. Values are requested unformatted so
// amounts arrive as numbers and dates entered by hand as serials.
func (c *Client) Read(ctx context.Context) (core.Snapshot, error) {
	if c.svc == nil {
		return core.Snapshot{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(c.txRange(), c.catRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	if len(resp.ValueRanges) != 2 {
		return core.Snapshot{}, fmt.Errorf("read spreadsheet %s: expected 2 ranges, got %d", c.spreadsheetID, len(resp.ValueRanges))
	}

	txs, err := ports.DecodeTransactions(toRows(resp.ValueRanges[0].Values))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode %s: %w", c.transactionsSheet, err)
	}
	cats, err := ports.DecodeCategories(toRows(resp.ValueRanges[1].Values))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode %s: %w", c.categoriesSheet, err)
	}
	return core.Snapshot{Transactions: txs, Categories: cats}, nil
}

// Write replaces both tabs in one spreadsheet batchUpdate, which the API
// applies all or nothing: a failed save leaves the previous rows in place.
func (c *Client) Write(ctx context.Context, s core.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	grids, err := c.grids(ctx)
	if err != nil {
		return err
	}

	var requests []*gsheet.Request
	for _, tab := range []struct {
		name  string
		width int64
		rows  [][]any
	}{
		{c.transactionsSheet, transactionColumns, ports.EncodeTransactions(s.Transactions)},
		{c.categoriesSheet, categoryColumns, ports.EncodeCategories(s.Categories)},
	} {
		props, ok := grids[tab.name]
		if !ok {
			return fmt.Errorf("spreadsheet %s has no sheet %q", c.spreadsheetID, tab.name)
		}
		requests = append(requests, replaceRequests(props, tab.width, tab.rows)...)
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update spreadsheet %s: %w", c.spreadsheetID, err)
	}
	return nil
}

// Columns covered by txRange and catRange.
const (
	transactionColumns = 7
	categoryColumns    = 2
)

// grids returns the properties of every sheet keyed by title.
func (c *Client) grids(ctx context.Context) (map[string]*gsheet.SheetProperties, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title,gridProperties(rowCount,columnCount))").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	out := make(map[string]*gsheet.SheetProperties, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = sh.Properties
		}
	}
	return out, nil
}

// replaceRequests overwrites the first width columns of a sheet with rows.
// The range extends to the old row count so cells below the new data are
// cleared; the grid grows first when rows do not fit.
func replaceRequests(props *gsheet.SheetProperties, width int64, rows [][]any) []*gsheet.Request {
	var rowCount, colCount int64
	if g := props.GridProperties; g != nil {
		rowCount, colCount = g.RowCount, g.ColumnCount
	}
	need := int64(len(rows))

	var out []*gsheet.Request
	if need > rowCount {
		out = append(out, &gsheet.Request{AppendDimension: &gsheet.AppendDimensionRequest{
			SheetId: props.SheetId, Dimension: "ROWS", Length: need - rowCount,
		}})
		rowCount = need
	}
	if width > colCount {
		out = append(out, &gsheet.Request{AppendDimension: &gsheet.AppendDimensionRequest{
			SheetId: props.SheetId, Dimension: "COLUMNS", Length: width - colCount,
		}})
	}

	data := make([]*gsheet.RowData, len(rows))
	for i, row := range rows {
		cells := make([]*gsheet.CellData, len(row))
		for j, v := range row {
			cells[j] = &gsheet.CellData{UserEnteredValue: cellValue(v)}
		}
		data[i] = &gsheet.RowData{Values: cells}
	}
	out = append(out, &gsheet.Request{UpdateCells: &gsheet.UpdateCellsRequest{
		Range: &gsheet.GridRange{
			SheetId:        props.SheetId,
			EndRowIndex:    rowCount,
			EndColumnIndex: width,
		},
		Rows:   data,
		Fields: "userEnteredValue",
	}})
	return out
}

func cellValue(v any) *gsheet.ExtendedValue {
	switch n := v.(type) {
	case int:
		f := float64(n)
		return &gsheet.ExtendedValue{NumberValue: &f}
	case int64:
		f := float64(n)
		return &gsheet.ExtendedValue{NumberValue: &f}
	case float64:
		return &gsheet.ExtendedValue{NumberValue: &n}
	default:
		str := fmt.Sprint(v)
		return &gsheet.ExtendedValue{StringValue: &str}
	}
}

// Ping fetches the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if _, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	return nil
}
