package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"anisync/internal/shared"
)

// callbackResult carries the outcome of one authorization redirect.
type callbackResult struct {
	Token *oauth2.Token
	err   error
}

func (r callbackResult) Error() error {
	return r.err
}

// callbackHandler serves the OAuth redirect endpoint for a single
// authorization attempt. The state token guards against CSRF; only the first
// callback is processed.
type callbackHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan callbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

func newCallbackHandler(config *oauth2.Config, state string) *callbackHandler {
	return &callbackHandler{
		config:     config,
		state:      state,
		resultChan: make(chan callbackResult, 1),
	}
}

// ServeHTTP validates the state parameter, exchanges the authorization code
// for a token, and sends the result through the result channel.
func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.send(callbackResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.send(callbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(callbackResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(callbackResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #3DB4F2; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// send delivers the result through the channel (only once).
func (h *callbackHandler) send(result callbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// result returns the channel carrying the flow's single outcome.
func (h *callbackHandler) result() <-chan callbackResult {
	return h.resultChan
}

// CallbackFlow authorizes by opening the browser and running a temporary
// localhost HTTP server that captures the redirect from AniList.
//
// The listen address must agree with the redirect URI registered on the
// OAuth client, e.g. "localhost:3000" for http://localhost:3000/callback.
type CallbackFlow struct {
	addr    string
	timeout time.Duration
	out     io.Writer
	openURL func(string) error
}

// NewCallbackFlow creates a flow listening on addr. Instructions are printed
// to out, defaulting to stdout.
func NewCallbackFlow(addr string, out io.Writer) *CallbackFlow {
	if out == nil {
		out = os.Stdout
	}
	return &CallbackFlow{
		addr:    addr,
		timeout: 3 * time.Minute,
		out:     out,
		openURL: shared.OpenBrowser,
	}
}

// Authorize opens the authorization URL in the browser and waits for AniList
// to redirect back with a code, which it exchanges for a token.
func (f *CallbackFlow) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()
	handler := newCallbackHandler(config, state)

	mux := http.NewServeMux()
	mux.Handle("/callback", handler)

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", f.addr, err)
	}

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	url := config.AuthCodeURL(state)
	fmt.Fprintf(f.out, "Opening your browser to authorize with AniList:\n\n  %s\n\n", url)
	if err := f.openURL(url); err != nil {
		fmt.Fprintln(f.out, "Could not open a browser. Visit the URL above manually.")
	}

	select {
	case result := <-handler.result():
		if result.Error() != nil {
			return nil, result.Error()
		}
		return result.Token, nil
	case <-time.After(f.timeout):
		return nil, fmt.Errorf("no callback received within %s", f.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var codePattern = regexp.MustCompile(`code=([^&\s]+)`)

// ManualFlow authorizes without a reachable localhost: it prints the
// authorization URL and reads back the full redirect URL the user pastes in,
// extracting the code parameter. Log in to the right account first; nothing
// is opened automatically, so an alt can be authorized from an incognito
// window.
type ManualFlow struct {
	in  *bufio.Reader
	out io.Writer
}

// NewManualFlow creates a flow reading the pasted URL from in and printing
// instructions to out, defaulting to stdin and stdout.
func NewManualFlow(in io.Reader, out io.Writer) *ManualFlow {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ManualFlow{in: bufio.NewReader(in), out: out}
}

// Authorize prints the grant instructions, parses the pasted redirect URL,
// and exchanges its code for a token.
func (f *ManualFlow) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	url := config.AuthCodeURL(shared.GenerateID())
	fmt.Fprintf(f.out, "Authorization required. In a browser:\n\n"+
		"1. Log in to the account you want to authorize on AniList.\n"+
		"2. Visit the following URL to grant access:\n\n  %s\n\n"+
		"3. You will be redirected. Paste the full final redirected URL below.\n\n", url)

	fmt.Fprint(f.out, "Final URL: ")
	line, err := f.in.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("%w: reading redirect URL: %v", shared.ErrInvalidInput, err)
	}

	match := codePattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return nil, fmt.Errorf("%w: pasted URL has no code parameter", shared.ErrInvalidInput)
	}

	token, err := config.Exchange(ctx, match[1])
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	return token, nil
}
