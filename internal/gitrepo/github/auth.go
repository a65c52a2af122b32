package github

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
)

// AppConfig carries GitHub App credentials for installation-token auth.
type AppConfig struct {
	AppID          int64
	PrivateKeyPEM  string
	InstallationID int64
	Owner          string
	Repo           string
	BaseURL        string
}

// AppAuth mints a short-lived installation client per request: an RS256 app
// JWT is exchanged for an installation token, which backs the client's
// oauth2 transport. Nothing is cached between requests.
type AppAuth struct {
	appID          int64
	installationID int64
	key            *rsa.PrivateKey
	owner          string
	repo           string
	baseURL        string
	now            func() time.Time
}

// NewAppAuth parses the PEM private key and returns the factory.
func NewAppAuth(cfg AppConfig) (*AppAuth, error) {
	key, err := parsePrivateKey(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AppAuth{
		appID:          cfg.AppID,
		installationID: cfg.InstallationID,
		key:            key,
		owner:          cfg.Owner,
		repo:           cfg.Repo,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		now:            time.Now,
	}, nil
}

// NewClient implements gitrepo.Factory.
func (a *AppAuth) NewClient(ctx context.Context) (gitrepo.Client, error) {
	jwt, err := a.signJWT()
	if err != nil {
		return nil, fmt.Errorf("signing app JWT: %w", err)
	}
	token, err := a.createInstallationToken(ctx, jwt)
	if err != nil {
		return nil, err
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return newClient(oauth2.NewClient(ctx, source), a.baseURL, a.owner, a.repo), nil
}

// signJWT builds the RS256 app JWT by hand; the claim set is tiny and the
// corpus carries no JWT dependency. Issued-at is backdated 60s against clock
// skew, expiry is 9 minutes (GitHub caps at 10).
func (a *AppAuth) signJWT() (string, error) {
	now := a.now()
	header := map[string]string{"alg": "RS256", "typ": "JWT"}
	claims := map[string]interface{}{
		"iat": now.Add(-60 * time.Second).Unix(),
		"exp": now.Add(9 * time.Minute).Unix(),
		"iss": strconv.FormatInt(a.appID, 10),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)

	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, a.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

func (a *AppAuth) createInstallationToken(ctx context.Context, jwt string) (string, error) {
	endpoint := fmt.Sprintf("%s/app/installations/%d/access_tokens", a.baseURL, a.installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+jwt)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("installation token request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var token struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if token.Token == "" {
		return "", errors.New("installation token response missing token")
	}
	return token.Token, nil
}

// parsePrivateKey accepts PKCS#1 or PKCS#8 PEM. Keys passed through a single
// env var commonly arrive with literal \n escapes; those are unescaped first.
func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	pemData = strings.ReplaceAll(pemData, `\n`, "\n")
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("private key is not valid PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}

// TokenConfig carries static-token credentials.
type TokenConfig struct {
	Token   string
	Owner   string
	Repo    string
	BaseURL string
}

// TokenAuth authenticates with a fixed personal-access token.
type TokenAuth struct {
	token   string
	owner   string
	repo    string
	baseURL string
}

func NewTokenAuth(cfg TokenConfig) *TokenAuth {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TokenAuth{
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewClient implements gitrepo.Factory.
func (t *TokenAuth) NewClient(ctx context.Context) (gitrepo.Client, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t.token})
	return newClient(oauth2.NewClient(ctx, source), t.baseURL, t.owner, t.repo), nil
}
