// Package auth holds the client side of Schedly authentication: the
// in-memory access token, single-flight token refresh, and the browser
// based OAuth login flow.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/browser"
)

const (
	// DefaultCallbackPort is the first port tried for the local OAuth callback server
	DefaultCallbackPort = 9876

	// DefaultClientName is the name sent during dynamic client registration
	DefaultClientName = "Schedly CLI"

	// loginTimeout bounds how long Login waits for the browser callback
	loginTimeout = 5 * time.Minute
)

// OAuthResult contains the tokens issued by the authorization server
type OAuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        string
}

// ClientCredentials contains OAuth client credentials
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse represents the response from the OAuth token endpoint
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// TokenEndpointError is returned when the token endpoint rejects a grant.
// A rejected refresh grant means the stored refresh token is no longer usable.
type TokenEndpointError struct {
	StatusCode int
	Grant      string
}

func (e *TokenEndpointError) Error() string {
	return fmt.Sprintf("%s grant rejected with status %d", e.Grant, e.StatusCode)
}

// OAuthFlow talks to the Schedly authorization server
type OAuthFlow struct {
	apiURL       string
	clientID     string
	clientSecret string
	callbackPort int
	httpClient   *http.Client
	openURL      func(string) error
}

// NewOAuthFlow creates a new OAuth flow handler
func NewOAuthFlow(apiURL string) *OAuthFlow {
	return &OAuthFlow{
		apiURL:       strings.TrimRight(apiURL, "/"),
		callbackPort: DefaultCallbackPort,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		openURL:      browser.OpenURL,
	}
}

// SetClientCredentials sets the OAuth client credentials
func (o *OAuthFlow) SetClientCredentials(clientID, clientSecret string) {
	o.clientID = clientID
	o.clientSecret = clientSecret
}

// SetHTTPClient replaces the client used for registration and token calls
func (o *OAuthFlow) SetHTTPClient(c *http.Client) {
	o.httpClient = c
}

// GetClientCredentials returns the current client credentials, or nil if
// the CLI has not been registered yet
func (o *OAuthFlow) GetClientCredentials() *ClientCredentials {
	if o.clientID == "" {
		return nil
	}
	return &ClientCredentials{
		ClientID:     o.clientID,
		ClientSecret: o.clientSecret,
	}
}

// RegisterClient performs OAuth Dynamic Client Registration (RFC 7591)
func (o *OAuthFlow) RegisterClient(ctx context.Context, redirectURI string) (*ClientCredentials, error) {
	body, err := json.Marshal(map[string]interface{}{
		"client_name":   DefaultClientName,
		"redirect_uris": []string{redirectURI},
		"grant_types":   []string{"authorization_code", "refresh_token"},
		"scope":         "calendar shops",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL+"/oauth/register", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client registration failed with status %d", resp.StatusCode)
	}

	var creds ClientCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, fmt.Errorf("failed to parse registration response: %w", err)
	}
	if creds.ClientID == "" {
		return nil, fmt.Errorf("registration response has no client_id")
	}

	return &creds, nil
}

// Login runs the authorization-code flow: it registers the CLI if needed,
// opens the browser and waits for the local callback.
func (o *OAuthFlow) Login(ctx context.Context) (*OAuthResult, error) {
	port, err := o.findAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", port)

	if o.clientID == "" {
		fmt.Println("Registering CLI with Schedly...")
		creds, err := o.RegisterClient(ctx, redirectURI)
		if err != nil {
			return nil, fmt.Errorf("failed to register client: %w", err)
		}
		o.clientID = creds.ClientID
		o.clientSecret = creds.ClientSecret
	}

	state, err := generateRandomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := o.startCallbackServer(port, state, codeChan, errChan)
	defer server.Shutdown(context.Background())

	authURL := o.buildAuthURL(redirectURI, state)

	fmt.Println("Opening browser for authentication...")
	fmt.Printf("If the browser doesn't open, please visit:\n%s\n\n", authURL)

	if err := o.openURL(authURL); err != nil {
		fmt.Printf("Failed to open browser automatically: %v\n", err)
	}

	fmt.Println("Waiting for authentication...")

	select {
	case code := <-codeChan:
		return o.exchangeCodeForTokens(ctx, code, redirectURI)
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(loginTimeout):
		return nil, fmt.Errorf("authentication timed out")
	}
}

// RefreshTokens exchanges a refresh token for a new token pair
func (o *OAuthFlow) RefreshTokens(ctx context.Context, refreshToken string) (*OAuthResult, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	return o.requestToken(ctx, data)
}

func (o *OAuthFlow) exchangeCodeForTokens(ctx context.Context, code, redirectURI string) (*OAuthResult, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	return o.requestToken(ctx, data)
}

// requestToken posts a grant to the token endpoint
func (o *OAuthFlow) requestToken(ctx context.Context, data url.Values) (*OAuthResult, error) {
	grant := data.Get("grant_type")
	data.Set("client_id", o.clientID)
	if o.clientSecret != "" {
		data.Set("client_secret", o.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", grant, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenEndpointError{StatusCode: resp.StatusCode, Grant: grant}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	return &OAuthResult{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    tokenResp.ExpiresIn,
		Scope:        tokenResp.Scope,
	}, nil
}

// findAvailablePort finds an available port starting from the default
func (o *OAuthFlow) findAvailablePort() (int, error) {
	for port := o.callbackPort; port < o.callbackPort+10; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found")
}

func (o *OAuthFlow) startCallbackServer(port int, expectedState string, codeChan chan<- string, errChan chan<- error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", callbackHandler(expectedState, codeChan, errChan))

	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go server.ListenAndServe()

	return server
}

// callbackHandler validates the redirect from the authorization server and
// forwards either the code or an error. Sends never block: the channels are
// buffered and only the first outcome matters.
func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.HandlerFunc {
	fail := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != expectedState {
			fail(fmt.Errorf("state mismatch"))
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			fail(fmt.Errorf("OAuth error: %s - %s", errMsg, q.Get("error_description")))
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, resultHTML("Authentication failed. You can close this window."))
			return
		}

		code := q.Get("code")
		if code == "" {
			fail(fmt.Errorf("no authorization code received"))
			http.Error(w, "No code received", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultHTML("Authentication successful! You can close this window."))

		select {
		case codeChan <- code:
		default:
		}
	}
}

func (o *OAuthFlow) buildAuthURL(redirectURI, state string) string {
	params := url.Values{}
	params.Set("client_id", o.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "calendar shops")
	params.Set("state", state)

	return fmt.Sprintf("%s/oauth/authorize?%s", o.apiURL, params.Encode())
}

func generateRandomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func resultHTML(message string) string {
	return `<!DOCTYPE html>
<html>
<head><title>Schedly CLI</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh;">
    <h1>Schedly CLI</h1>
    <p>` + message + `</p>
</body>
</html>`
}
