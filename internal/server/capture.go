package server

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/session"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// maxFragmentSize bounds the /capture request body.
const maxFragmentSize = 8 << 10

// CaptureResult contains the outcome of a redirect capture.
type CaptureResult struct {
	Session session.Session
	err     error
}

func (c *CaptureResult) Error() error {
	return c.err
}

// CaptureHandler receives the implicit-grant redirect and hands the token to a [session.Guard].
//
// Implements the [Handler] interface for registration with a [Router].
type CaptureHandler struct {
	guard      *session.Guard
	state      string
	logger     *log.Logger
	resultChan chan CaptureResult
	once       sync.Once
	captured   bool
	mu         sync.Mutex
}

// NewCaptureHandler creates a capture handler. A non-empty state must come back in the redirect.
func NewCaptureHandler(guard *session.Guard, state string, logger *log.Logger) *CaptureHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CaptureHandler{
		guard:      guard,
		state:      state,
		logger:     logger,
		resultChan: make(chan CaptureResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CaptureHandler) Routes() []string {
	return []string{"/callback", "/capture"}
}

func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/callback":
		h.callback(w, r)
	case "/capture":
		h.capture(w, r)
	default:
		http.NotFound(w, r)
	}
}

// callback serves the page that forwards the fragment. Errors the catalog puts in the query are reported directly.
func (h *CaptureHandler) callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Send(CaptureResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)})
		writePage(w, http.StatusBadRequest, "Authorization Failed", "The request was denied. You can close this window.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, forwardPage)
}

// capture reads the posted fragment, persists the token, and reports the result once.
func (h *CaptureHandler) capture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	if h.captured {
		h.mu.Unlock()
		http.Error(w, "Redirect already processed", http.StatusBadRequest)
		return
	}
	h.captured = true
	h.mu.Unlock()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentSize))
	if err != nil {
		h.Send(CaptureResult{err: fmt.Errorf("failed to read redirect: %w", err)})
		http.Error(w, "Could not read redirect", http.StatusBadRequest)
		return
	}

	grant, ok := h.guard.CaptureGrant(string(body))
	if !ok {
		err := h.guard.Err()
		if err == nil {
			err = fmt.Errorf("%w: no access token in redirect", shared.ErrAuthFailed)
		}
		h.Send(CaptureResult{err: err})
		http.Error(w, "No access token found", http.StatusBadRequest)
		return
	}

	if h.state != "" && grant.State != h.state {
		h.Send(CaptureResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if err := h.guard.Persist(r.Context(), grant.AccessToken, grant.ExpiresIn); err != nil {
		h.Send(CaptureResult{err: err})
		http.Error(w, "Could not save session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("captured access token", "expires_in", grant.ExpiresIn)
	h.Send(CaptureResult{Session: h.guard.Current()})
	io.WriteString(w, "Authorization successful. You can close this window and return to the terminal.")
}

// Send sends the result through the channel (only once).
func (h *CaptureHandler) Send(result CaptureResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving capture completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CaptureHandler) Result() <-chan CaptureResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageTemplate, title, title, message)
}

const pageStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; color: #eee; }
        .container { text-align: center; background: #1e1e1e; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #aaa; margin: 0; }
    </style>`

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`

const forwardPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signing in</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1>spotunisia</h1>
        <p id="status">Finishing sign in...</p>
    </div>
    <script>
        const fragment = window.location.hash.substring(1);
        history.replaceState(null, "", window.location.pathname);
        fetch("/capture", { method: "POST", body: fragment })
            .then((resp) => resp.text())
            .then((text) => { document.getElementById("status").textContent = text; })
            .catch(() => { document.getElementById("status").textContent = "Sign in failed. Return to the terminal."; });
    </script>
</body>
</html>
`
