package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cafeledger/internal/cli"
	gsheet "cafeledger/internal/sheets/google"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// sheetsAuthCmd runs the installed-app OAuth flow and saves the user token
// the mirror worker can use instead of a service account.
func sheetsAuthCmd() *cobra.Command {
	var (
		port    string
		out     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize the Sheets mirror with a Google user account",
		Long: `Reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE,
prints the consent URL, waits for the redirect on localhost and saves the token.
Add http://localhost:<port>/callback to the client's authorized redirect URIs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientJSON, err := oauthClientJSON()
			if err != nil {
				return err
			}
			cfg, err := gsheet.OAuthConfig(clientJSON, "http://localhost:"+port+"/callback")
			if err != nil {
				return err
			}

			codeCh := make(chan string, 1)
			mux := http.NewServeMux()
			mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
				if errStr := r.URL.Query().Get("error"); errStr != "" {
					http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
					return
				}
				fmt.Fprintln(w, "You may close this window and return to the terminal.")
				select {
				case codeCh <- r.URL.Query().Get("code"):
				default:
				}
			})
			srv := &http.Server{Addr: "localhost:" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			go func() { _ = srv.ListenAndServe() }()
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", cfg.AuthCodeURL("cafeledger", oauth2.AccessTypeOffline))

			select {
			case code := <-codeCh:
				tok, err := cfg.Exchange(cmd.Context(), code)
				if err != nil {
					return fmt.Errorf("token exchange: %w", err)
				}
				if err := gsheet.SaveToken(out, tok); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Saved token to "+out))
				return nil
			case <-time.After(timeout):
				return errors.New("authorization timed out")
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	cmd.Flags().StringVar(&out, "out", envOr("GOOGLE_OAUTH_TOKEN_FILE", "token.json"), "where to save the token")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for consent")
	return cmd
}

func oauthClientJSON() ([]byte, error) {
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"); v != "" {
		return []byte(v), nil
	}
	if f := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
