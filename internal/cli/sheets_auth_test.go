package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestOAuthCallback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantSent string
	}{
		{"valid", "?state=s1&code=abc", http.StatusOK, "abc"},
		{"provider error", "?error=access_denied&state=s1", http.StatusBadRequest, ""},
		{"state mismatch", "?state=other&code=abc", http.StatusBadRequest, ""},
		{"missing code", "?state=s1", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			rec := httptest.NewRecorder()
			oauthCallback("s1", codes).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			select {
			case got := <-codes:
				if got != tt.wantSent {
					t.Errorf("code = %q, want %q", got, tt.wantSent)
				}
			default:
				if tt.wantSent != "" {
					t.Errorf("expected code %q to be delivered", tt.wantSent)
				}
			}
		})
	}
}

func TestSaveToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	if err := saveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}); err != nil {
		t.Fatalf("saveToken() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil || tok.RefreshToken != "r" {
		t.Errorf("saved token = %+v, %v", tok, err)
	}
}

func TestSheetsAuthRequiresClient(t *testing.T) {
	setupEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")

	_, _, err := run(t, "sheets-auth")
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_OAUTH_CLIENT_JSON") {
		t.Fatalf("expected missing client error, got %v", err)
	}

	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "not json")
	if _, _, err := run(t, "sheets-auth"); err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestRandomState(t *testing.T) {
	a, err := randomState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := randomState()
	if len(a) != 32 || a == b {
		t.Errorf("states %q and %q should be distinct 32 char hex strings", a, b)
	}
}
