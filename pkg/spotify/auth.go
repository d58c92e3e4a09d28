package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultAuthURL is Spotify's authorization endpoint.
	DefaultAuthURL = "https://accounts.spotify.com/authorize"

	// DefaultCallbackPort is the loopback port registered as the app's
	// redirect URI. Spotify rejects redirect URIs that differ in any byte.
	DefaultCallbackPort = 43019
)

// DefaultScopes are the permissions needed to read playlists and the
// user's saved library.
var DefaultScopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
}

// AuthConfig holds authorizer configuration.
type AuthConfig struct {
	ClientID    string                 // Required: Spotify application client ID
	Scopes      []string               // Optional: defaults to DefaultScopes
	Port        int                    // Optional: loopback callback port (defaults to DefaultCallbackPort)
	AuthURL     string                 // Optional: authorization endpoint (defaults to DefaultAuthURL)
	OpenBrowser func(url string) error // Optional: defaults to the platform's URL opener
	Logger      Logger                 // Optional: Logger interface for debug logging
}

// authState tracks where the loopback exchange is.
type authState int

const (
	stateIdle      authState = iota // Nothing served yet
	stateListening                  // Waiting for the browser to deliver the token
	stateCaptured                   // Token received
)

// String returns a human-readable representation of the authState
func (s authState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateListening:
		return "listening"
	case stateCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// accessTokenPattern pulls the token out of the /token query string.
var accessTokenPattern = regexp.MustCompile(`(?:^|&)access_token=([^&]+)`)

// redirectPage moves the URL fragment into the query string. Browsers
// never send fragments to servers, so this hop is the only way the
// token reaches the listener.
const redirectPage = `<script>location.replace("token?" + location.hash.slice(1));</script>`

const capturedPage = `<script>close()</script>Thanks! You may now close this window.`

// Authorizer runs the OAuth implicit grant against a loopback listener.
//
// No client secret is involved: Spotify redirects the browser to
// /redirect with the access token in the URL fragment, the page served
// there forwards it to /token as a query string, and the listener stops
// once the token is read.
type Authorizer struct {
	oauth       oauth2.Config
	port        int
	openBrowser func(string) error
	logger      Logger

	mu      sync.Mutex
	state   authState
	tokenCh chan string
	errCh   chan error
}

// NewAuthorizer creates an Authorizer.
//
// Returns an error if ClientID is missing.
func NewAuthorizer(cfg AuthConfig) (*Authorizer, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: ClientID is required", ErrInvalidConfig)
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultCallbackPort
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid callback port %d", ErrInvalidConfig, port)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}

	openBrowser := cfg.OpenBrowser
	if openBrowser == nil {
		openBrowser = OpenBrowser
	}

	return &Authorizer{
		oauth: oauth2.Config{
			ClientID:    cfg.ClientID,
			Endpoint:    oauth2.Endpoint{AuthURL: authURL},
			RedirectURL: redirectURI(port),
			Scopes:      scopes,
		},
		port:        port,
		openBrowser: openBrowser,
		logger:      cfg.Logger,
		state:       stateIdle,
	}, nil
}

func redirectURI(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/redirect", port)
}

// RedirectURI returns the redirect URI sent to Spotify. It must match
// the one registered for the client ID.
func (a *Authorizer) RedirectURI() string {
	return a.oauth.RedirectURL
}

// AuthCodeURL returns the URL the user visits to grant access.
func (a *Authorizer) AuthCodeURL() string {
	return a.oauth.AuthCodeURL("", oauth2.SetAuthURLParam("response_type", "token"))
}

// Authorize opens the authorization page in the browser and blocks until
// the redirect delivers an access token, the provider reports an error,
// or ctx is cancelled. There is no timeout of its own.
func (a *Authorizer) Authorize(ctx context.Context) (string, error) {
	authURL := a.AuthCodeURL()

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return "", fmt.Errorf("failed to start callback listener: %w", err)
	}

	a.logInfof("Logging in (click if it doesn't open automatically): %s", authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.logInfof("Failed to open browser: %v", err)
	}

	token, err := a.Serve(ctx, listener)
	if err != nil {
		return "", err
	}

	a.logInfof("Received access token from Spotify")
	return token, nil
}

// Serve handles callback requests on listener until a token is captured.
// The listener is closed before Serve returns.
func (a *Authorizer) Serve(ctx context.Context, listener net.Listener) (string, error) {
	a.mu.Lock()
	a.state = stateListening
	tokenCh := make(chan string, 1)
	errCh := make(chan error, 1)
	a.tokenCh = tokenCh
	a.errCh = errCh
	a.mu.Unlock()

	server := &http.Server{
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	defer a.shutdown(server)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case token := <-tokenCh:
		return token, nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return "", err
		}
		return "", fmt.Errorf("callback server failed: %w", err)
	}
}

// shutdown lets the final response flush before the port is released.
func (a *Authorizer) shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		a.logDebugf("spotify: callback server shutdown: %v", err)
		_ = server.Close()
	}
}

// ServeHTTP implements the loopback side of the implicit grant. Requests
// are handled one at a time.
func (a *Authorizer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logDebugf("spotify: callback %s %s", r.Method, r.URL.Path)

	switch {
	case r.Method != http.MethodGet:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	case strings.HasPrefix(r.URL.Path, "/redirect"):
		writeHTML(w, http.StatusOK, redirectPage)
	case r.URL.Path == "/token" && r.URL.RawQuery != "":
		a.handleToken(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleToken must be called with a.mu held.
func (a *Authorizer) handleToken(w http.ResponseWriter, r *http.Request) {
	if a.state == stateCaptured {
		writeHTML(w, http.StatusOK, capturedPage)
		return
	}

	match := accessTokenPattern.FindStringSubmatch(r.URL.RawQuery)
	if match == nil {
		query := r.URL.Query()
		authErr := &AuthError{
			Code:        query.Get("error"),
			Description: query.Get("error_description"),
		}
		http.Error(w, authErr.Error(), http.StatusBadRequest)
		a.fail(authErr)
		return
	}

	token := match[1]
	if unescaped, err := url.QueryUnescape(token); err == nil {
		token = unescaped
	}

	writeHTML(w, http.StatusOK, capturedPage)
	a.state = stateCaptured

	select {
	case a.tokenCh <- token:
	default:
	}
}

func (a *Authorizer) fail(err error) {
	select {
	case a.errCh <- err:
	default:
	}
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Login runs the authorization flow and returns a client using the
// captured token. Any Token already set in cfg is replaced.
func Login(ctx context.Context, authCfg AuthConfig, cfg Config) (*Client, error) {
	authorizer, err := NewAuthorizer(authCfg)
	if err != nil {
		return nil, err
	}

	token, err := authorizer.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	cfg.Token = token
	return NewClient(cfg)
}

func (a *Authorizer) logDebugf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debugf(format, args...)
	}
}

func (a *Authorizer) logInfof(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Infof(format, args...)
	}
}
