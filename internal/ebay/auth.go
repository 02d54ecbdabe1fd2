package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token" //nolint:gosec // not a credential
	defaultScope    = "https://api.ebay.com/oauth/api_scope"

	// Tokens are refreshed this long before their reported expiry so an
	// in-flight request never carries a token that dies mid-call.
	expirySlack = 60 * time.Second
)

// OAuthTokenProvider implements TokenProvider using the eBay OAuth2
// client credentials flow. The token cache is owned by this object:
// Token checks expiry and refreshes on demand under a mutex, so it is
// safe to share across goroutines.
type OAuthTokenProvider struct {
	appID    string
	certID   string
	tokenURL string
	client   *http.Client

	mu      sync.Mutex
	token   string
	expiry  time.Time
	nowFunc func() time.Time // for testing
}

// OAuthOption configures the OAuthTokenProvider.
type OAuthOption func(*OAuthTokenProvider)

// WithTokenURL overrides the default eBay token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.tokenURL = u
	}
}

// WithAuthHTTPClient overrides the default HTTP client.
func WithAuthHTTPClient(c *http.Client) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.client = c
	}
}

// WithAuthNowFunc overrides the time function for testing.
func WithAuthNowFunc(f func() time.Time) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.nowFunc = f
	}
}

// NewOAuthTokenProvider creates a new eBay OAuth2 token provider.
func NewOAuthTokenProvider(appID, certID string, opts ...OAuthOption) *OAuthTokenProvider {
	p := &OAuthTokenProvider{
		appID:    appID,
		certID:   certID,
		tokenURL: defaultTokenURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Token returns a valid OAuth2 access token, refreshing if the cached
// one is absent or within the expiry slack.
func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.nowFunc().Before(p.expiry.Add(-expirySlack)) {
		return p.token, nil
	}

	return p.refreshLocked(ctx)
}

// Invalidate drops the cached token so the next Token call refreshes.
// Used after an upstream 401 that suggests early revocation.
func (p *OAuthTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiry = time.Time{}
}

func (p *OAuthTokenProvider) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {defaultScope},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	creds := base64.StdEncoding.EncodeToString([]byte(p.appID + ":" + p.certID))
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp) //nolint:errcheck // best-effort error parsing
		return "", fmt.Errorf(
			"token request failed (status %d): %s - %s",
			resp.StatusCode, errResp.Error, errResp.ErrorDescription,
		)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}

	p.token = tokenResp.AccessToken
	p.expiry = p.nowFunc().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return p.token, nil
}
