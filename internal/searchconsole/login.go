package searchconsole

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// LocalLogin runs the OAuth flow from a terminal. It serves the redirect
// URI's path on addr until Google redirects back, then exchanges the code.
// open receives the authorization URL to show the user.
func (m *OAuthManager) LocalLogin(ctx context.Context, addr string, open func(authURL string)) error {
	redirect, err := url.Parse(m.config.RedirectURL)
	if err != nil || redirect.Path == "" {
		return fmt.Errorf("invalid redirect uri %q", m.config.RedirectURL)
	}

	authURL, _, err := m.AuthURL()
	if err != nil {
		return err
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if err := m.CheckState(q.Get("state")); err != nil {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			errChan <- err
			return
		}
		if msg := q.Get("error"); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			errChan <- fmt.Errorf("oauth error: %s - %s", msg, q.Get("error_description"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code", http.StatusBadRequest)
			errChan <- errors.New("no code in callback")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>Search Console connected</h1>
<p>You can close this window and return to the terminal.</p>
</body></html>`)
		codeChan <- code
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer server.Shutdown(context.Background())

	m.log.Info().
		Str("addr", ln.Addr().String()).
		Str("path", redirect.Path).
		Msg("OAuth callback server started, waiting for redirect")
	open(authURL)

	select {
	case code := <-codeChan:
		_, err := m.Exchange(ctx, code)
		return err
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
