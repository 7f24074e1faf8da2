// Package icloud is the remote collaborator: it authenticates against the
// cloud photo-storage web API, enumerates the library, and resolves download
// URLs. The sync engine consumes it through narrow interfaces and never sees
// HTTP details.
package icloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

const (
	defaultAuthBase  = "https://idmsa.apple.com/appleauth/auth"
	defaultSetupBase = "https://setup.icloud.com/setup/ws/1"

	clientIDFile = "client_id"
	cookieFile   = "cookies.json"
	sessionFile  = "session.json"
)

// Client talks to the photo service. Safe for use by one goroutine during
// authentication; listing and URL resolution may be called concurrently once
// authenticated.
type Client struct {
	http      *http.Client
	session   *Session
	stateDir  string
	clientID  string
	authBase  string
	setupBase string

	// filled by ValidateSession / SignIn
	serviceURL string
	dsid       string
}

// New creates a client whose session state (client id, cookies, tokens)
// persists under stateDir.
func New(stateDir string, timeout time.Duration) (*Client, error) {
	if err := fsutil.EnsureDir(stateDir); err != nil {
		return nil, errors.Wrap(err, "failed to create session directory")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	c := &Client{
		http:      &http.Client{Timeout: timeout, Jar: jar},
		session:   &Session{},
		stateDir:  stateDir,
		authBase:  defaultAuthBase,
		setupBase: defaultSetupBase,
	}
	if err := c.loadClientID(); err != nil {
		return nil, err
	}
	c.loadSession()
	return c, nil
}

// loadClientID reads or mints the stable per-installation client id the
// authentication endpoints expect.
func (c *Client) loadClientID() error {
	path := filepath.Join(c.stateDir, clientIDFile)
	data, err := os.ReadFile(path)
	if err == nil && len(bytes.TrimSpace(data)) > 0 {
		c.clientID = strings.TrimSpace(string(data))
		return nil
	}
	c.clientID = "auth-" + uuid.NewString()
	if err := os.WriteFile(path, []byte(c.clientID+"\n"), fsutil.FileModeSecure); err != nil {
		return errors.Wrap(err, "failed to persist client id")
	}
	return nil
}

type persistedSession struct {
	Authenticated bool   `json:"authenticated"`
	SessionToken  string `json:"session_token,omitempty"`
	TrustToken    string `json:"trust_token,omitempty"`
	ServiceURL    string `json:"service_url,omitempty"`
	DSID          string `json:"dsid,omitempty"`
}

func (c *Client) loadSession() {
	data, err := os.ReadFile(filepath.Join(c.stateDir, sessionFile))
	if err != nil {
		return
	}
	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		logger.Warn("ignoring corrupt session file", logger.Fields{"error": err.Error()})
		return
	}
	c.session.SessionToken = ps.SessionToken
	c.session.TrustToken = ps.TrustToken
	c.serviceURL = ps.ServiceURL
	c.dsid = ps.DSID
	if ps.Authenticated && ps.SessionToken != "" {
		// Trust the persisted session until a request proves it stale.
		c.session.state = StateAuthenticated
	}
}

func (c *Client) saveSession() error {
	ps := persistedSession{
		Authenticated: c.session.State() == StateAuthenticated,
		SessionToken:  c.session.SessionToken,
		TrustToken:    c.session.TrustToken,
		ServiceURL:    c.serviceURL,
		DSID:          c.dsid,
	}
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	path := filepath.Join(c.stateDir, sessionFile)
	if err := os.WriteFile(path, data, fsutil.FileModeSecure); err != nil {
		return errors.Wrap(err, "failed to persist session")
	}
	return nil
}

// Authenticated reports whether the client holds a usable session.
func (c *Client) Authenticated() bool {
	return c.session.State() == StateAuthenticated
}

// SignIn performs the password handshake. It returns ErrTwoFactorNeeded when
// the account requires a verification code; the caller then collects the code
// and calls SubmitTwoFactor.
func (c *Client) SignIn(ctx context.Context, appleID, password string) error {
	if err := c.session.Advance(StateNone, StateAuthenticating); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"accountName": appleID,
		"password":    password,
		"rememberMe":  true,
		"trustTokens": []string{},
	}
	if c.session.TrustToken != "" {
		payload["trustTokens"] = []string{c.session.TrustToken}
	}

	resp, err := c.postJSON(ctx, c.authBase+"/signin", payload)
	if err != nil {
		c.session.Reset()
		return errors.Wrap(errors.ErrAuthFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	c.session.SessionToken = resp.Header.Get("X-Apple-Session-Token")
	c.session.SessionID = resp.Header.Get("X-Apple-ID-Session-Id")
	c.session.Scnt = resp.Header.Get("scnt")

	switch resp.StatusCode {
	case http.StatusOK:
		if err := c.session.Advance(StateAuthenticating, StateTrusted); err != nil {
			return err
		}
		return c.finishLogin(ctx)
	case http.StatusConflict, http.StatusPreconditionFailed:
		if err := c.session.Advance(StateAuthenticating, StateNeedsTwoFactor); err != nil {
			return err
		}
		return errors.ErrTwoFactorNeeded
	default:
		c.session.Reset()
		return errors.Wrapf(errors.ErrAuthFailed, "signin status %d", resp.StatusCode)
	}
}

// SubmitTwoFactor verifies the six-digit code and requests device trust. It
// only succeeds while the session is waiting for a code.
func (c *Client) SubmitTwoFactor(ctx context.Context, code string) error {
	if c.session.State() != StateNeedsTwoFactor {
		return errors.Wrapf(errors.ErrSessionState, "no verification pending")
	}

	payload := map[string]interface{}{
		"securityCode": map[string]string{"code": strings.TrimSpace(code)},
	}
	resp, err := c.postJSON(ctx, c.authBase+"/verify/trusteddevice/securitycode", payload)
	if err != nil {
		return errors.Wrap(errors.ErrAuthFailed, err.Error())
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.Wrapf(errors.ErrAuthFailed, "verification status %d", resp.StatusCode)
	}

	if err := c.session.Advance(StateNeedsTwoFactor, StateTrusted); err != nil {
		return err
	}

	// Ask for a trust token so the next run skips the code prompt.
	trustResp, err := c.getWithAuthHeaders(ctx, c.authBase+"/2sv/trust")
	if err == nil {
		if tok := trustResp.Header.Get("X-Apple-TwoSV-Trust-Token"); tok != "" {
			c.session.TrustToken = tok
		}
		if tok := trustResp.Header.Get("X-Apple-Session-Token"); tok != "" {
			c.session.SessionToken = tok
		}
		_ = trustResp.Body.Close()
	}

	return c.finishLogin(ctx)
}

// finishLogin exchanges the session token for service cookies and the photo
// service endpoint.
func (c *Client) finishLogin(ctx context.Context) error {
	payload := map[string]interface{}{
		"dsWebAuthToken": c.session.SessionToken,
		"extended_login": true,
	}
	if c.session.TrustToken != "" {
		payload["trustToken"] = c.session.TrustToken
	}

	resp, err := c.postJSON(ctx, c.setupBase+"/accountLogin", payload)
	if err != nil {
		c.session.Reset()
		return errors.Wrap(errors.ErrAuthFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		c.session.Reset()
		return errors.Wrapf(errors.ErrAuthFailed, "account login status %d", resp.StatusCode)
	}

	var body struct {
		DSInfo struct {
			DSID string `json:"dsid"`
		} `json:"dsInfo"`
		Webservices map[string]struct {
			URL    string `json:"url"`
			Status string `json:"status"`
		} `json:"webservices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.session.Reset()
		return errors.Wrap(errors.ErrAuthFailed, "failed to decode account login response")
	}

	svc, ok := body.Webservices["ckdatabasews"]
	if !ok || svc.URL == "" {
		c.session.Reset()
		return errors.Wrap(errors.ErrAuthFailed, "photo service endpoint missing from account")
	}
	c.serviceURL = svc.URL
	c.dsid = body.DSInfo.DSID

	if err := c.session.Advance(StateTrusted, StateAuthenticated); err != nil {
		return err
	}
	logger.Info("signed in", logger.Fields{"service_url": c.serviceURL})
	return c.saveSession()
}

// SignOut clears the persisted session but keeps the device trust token.
func (c *Client) SignOut() error {
	c.session.Reset()
	return c.saveSession()
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setAuthHeaders(req)
	return c.http.Do(req)
}

func (c *Client) getWithAuthHeaders(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	c.setAuthHeaders(req)
	return c.http.Do(req)
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("X-Apple-OAuth-Client-Id", c.clientID)
	req.Header.Set("X-Apple-OAuth-Client-Type", "firstPartyAuth")
	req.Header.Set("X-Apple-OAuth-Response-Type", "code")
	if c.session.SessionID != "" {
		req.Header.Set("X-Apple-ID-Session-Id", c.session.SessionID)
	}
	if c.session.Scnt != "" {
		req.Header.Set("scnt", c.session.Scnt)
	}
}

// serviceQueryURL builds a database query URL against the photo service.
func (c *Client) serviceQueryURL(path string) string {
	v := url.Values{}
	v.Set("remapEnums", "true")
	if c.dsid != "" {
		v.Set("dsid", c.dsid)
	}
	return fmt.Sprintf("%s%s?%s", c.serviceURL, path, v.Encode())
}
