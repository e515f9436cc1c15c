package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oref-labs/placement-api/pkg/config"
)

const (
	scopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets.readonly"
	defaultTokenURI   = "https://oauth2.googleapis.com/token"
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// credentials is the subset of a service-account key file the client needs.
type credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// loadCredentials reads the service-account key either from the configured
// file path or from the base64-encoded inline blob.
func loadCredentials(cfg config.SheetsConfig) (*credentials, error) {
	var raw []byte
	switch {
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		raw = data
	case cfg.CredentialsJSON != "":
		data, err := base64.StdEncoding.DecodeString(cfg.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("decode inline credentials: %w", err)
		}
		raw = data
	default:
		return nil, fmt.Errorf("no spreadsheet credentials configured")
	}

	creds := &credentials{}
	if err := json.Unmarshal(raw, creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, fmt.Errorf("credentials missing client_email or private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = defaultTokenURI
	}
	return creds, nil
}

// tokenSource mints and caches OAuth access tokens by signing an RS256
// service-account assertion and exchanging it at the token endpoint.
type tokenSource struct {
	creds  *credentials
	client *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(creds *credentials, client *http.Client) *tokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &tokenSource{creds: creds, client: client}
}

// Token returns a valid access token, reusing the cached one until shortly
// before its expiry.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Add(time.Minute).Before(ts.expiry) {
		return ts.token, nil
	}

	assertion, err := ts.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange assertion: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}

	ts.token = payload.AccessToken
	ts.expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return ts.token, nil
}

func (ts *tokenSource) signAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(ts.creds.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("parse service-account key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   ts.creds.ClientEmail,
		"scope": scopeSpreadsheets,
		"aud":   ts.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return assertion, nil
}
