package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"finance/internal/config"
	"finance/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func newSheetsAuthCmd() *cobra.Command {
	var port, tokenFile string
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access with a Google account",
		Long: `Run the OAuth consent flow for a desktop OAuth client and save the token.
Point GOOGLE_OAUTH_TOKEN_FILE at the saved file to use the sheets backend
without a service account.

The client is read from GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE.
Its authorized redirect URIs must include http://localhost:PORT/callback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.GoogleOAuthClientJSON == "" && cfg.GoogleOAuthClientFile == "" {
				return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
			}
			clientJSON := []byte(cfg.GoogleOAuthClientJSON)
			if len(clientJSON) == 0 {
				data, err := os.ReadFile(cfg.GoogleOAuthClientFile)
				if err != nil {
					return fmt.Errorf("read client file: %w", err)
				}
				clientJSON = data
			}
			oauthCfg, err := google.OAuthConfig(clientJSON)
			if err != nil {
				return err
			}
			oauthCfg.RedirectURL = "http://localhost:" + port + "/callback"

			if tokenFile == "" {
				tokenFile = cfg.GoogleOAuthTokenFile
			}
			if tokenFile == "" {
				tokenFile = "token.json"
			}

			tok, err := authorize(cmd, oauthCfg, port)
			if err != nil {
				return err
			}
			if err := saveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "where to save the token (default GOOGLE_OAUTH_TOKEN_FILE or token.json)")
	return cmd
}

// authorize prints the consent URL and waits for the redirect carrying the
// authorization code, then exchanges it for a token.
func authorize(cmd *cobra.Command, cfg *oauth2.Config, port string) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codes := make(chan string, 1)
	ln, err := net.Listen("tcp", "localhost:"+port)
	if err != nil {
		return nil, fmt.Errorf("listen for OAuth redirect: %w", err)
	}
	srv := &http.Server{Handler: oauthCallback(state, codes), ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer srv.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codes:
	case err := <-serveErr:
		return nil, fmt.Errorf("OAuth redirect server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// oauthCallback accepts the first redirect whose state matches and hands its
// code to codes.
func oauthCallback(state string, codes chan<- string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
	})
	return mux
}

func saveToken(path string, tok *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
