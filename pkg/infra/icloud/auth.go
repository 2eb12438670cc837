package icloud

import (
	"context"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

// Headers returned by the Apple ID service that must be replayed
const (
	headerAccountCountry = "X-Apple-ID-Account-Country"
	headerSessionID      = "X-Apple-ID-Session-Id"
	headerSessionToken   = "X-Apple-Session-Token"
	headerTrustToken     = "X-Apple-TwoSV-Trust-Token"
	headerScnt           = "scnt"
)

// accountData is the subset of the accountLogin response in use
type accountData struct {
	DsInfo struct {
		Dsid       string `json:"dsid"`
		HsaVersion int    `json:"hsaVersion"`
	} `json:"dsInfo"`
	HsaChallengeRequired bool                  `json:"hsaChallengeRequired"`
	HsaTrustedBrowser    bool                  `json:"hsaTrustedBrowser"`
	Webservices          map[string]webservice `json:"webservices"`
}

type webservice struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type signInRequest struct {
	AccountName string   `json:"accountName"`
	Password    string   `json:"password"`
	RememberMe  bool     `json:"rememberMe"`
	TrustTokens []string `json:"trustTokens"`
}

type accountLoginRequest struct {
	AccountCountryCode string `json:"accountCountryCode"`
	DsWebAuthToken     string `json:"dsWebAuthToken"`
	ExtendedLogin      bool   `json:"extended_login"`
	TrustToken         string `json:"trustToken"`
}

type securityCodeRequest struct {
	SecurityCode struct {
		Code string `json:"code"`
	} `json:"securityCode"`
}

// login implements interfaces.Login for an iCloud account
type login struct {
	client *Client
	http   *http.Client
	// content fetches originals. It has no overall timeout so a large
	// transfer is not cut off while data is still arriving.
	content *http.Client
	appleID string

	accountCountry string
	sessionID      string
	sessionToken   string
	trustToken     string
	scnt           string

	data accountData
}

func (l *login) authHeaders() map[string]string {
	headers := map[string]string{
		"X-Apple-OAuth-Client-Id":          widgetKey,
		"X-Apple-OAuth-Client-Type":        "firstPartyAuth",
		"X-Apple-OAuth-Redirect-URI":       l.client.homeEndpoint,
		"X-Apple-OAuth-Require-Grant-Code": "true",
		"X-Apple-OAuth-Response-Mode":      "web_message",
		"X-Apple-OAuth-Response-Type":      "code",
		"X-Apple-OAuth-State":              l.client.clientID,
		"X-Apple-Widget-Key":               widgetKey,
	}
	if l.scnt != "" {
		headers[headerScnt] = l.scnt
	}
	if l.sessionID != "" {
		headers[headerSessionID] = l.sessionID
	}
	return headers
}

// captureHeaders keeps the session headers of an Apple ID response
func (l *login) captureHeaders(resp *http.Response) {
	for header, dst := range map[string]*string{
		headerAccountCountry: &l.accountCountry,
		headerSessionID:      &l.sessionID,
		headerSessionToken:   &l.sessionToken,
		headerTrustToken:     &l.trustToken,
		headerScnt:           &l.scnt,
	} {
		if v := resp.Header.Get(header); v != "" {
			*dst = v
		}
	}
}

func (l *login) setupURL(path string) string {
	q := url.Values{}
	q.Set("clientBuildNumber", clientBuildNumber)
	q.Set("clientMasteringNumber", clientMasteringNumber)
	q.Set("clientId", l.client.clientID)
	if l.data.DsInfo.Dsid != "" {
		q.Set("dsid", l.data.DsInfo.Dsid)
	}
	return l.client.setupEndpoint + path + "?" + q.Encode()
}

// signIn posts the credential to the Apple ID service. A 409 response means
// the password was accepted and a second factor is pending.
func (l *login) signIn(ctx context.Context, password types.Secret) error {
	logger := logging.From(ctx)

	body := signInRequest{
		AccountName: l.appleID,
		Password:    password.Unsafe(),
		RememberMe:  true,
		TrustTokens: []string{},
	}
	if l.trustToken != "" {
		body.TrustTokens = []string{l.trustToken}
	}

	resp, err := l.request(ctx, http.MethodPost, l.client.authEndpoint+"/signin?isRememberMeEnabled=true", body, l.authHeaders())
	if err != nil {
		return err
	}

	if !isSuccess(resp) && resp.StatusCode != http.StatusConflict {
		return statusError(resp, "Apple ID sign-in rejected")
	}
	defer resp.Body.Close()

	l.captureHeaders(resp)
	if l.sessionToken == "" {
		return goerr.New("Apple ID sign-in returned no session token", goerr.V("status", resp.StatusCode))
	}

	logger.Debug("Apple ID sign-in accepted", "status", resp.StatusCode)
	return nil
}

// accountLogin exchanges the session token for the iCloud account data
func (l *login) accountLogin(ctx context.Context) error {
	body := accountLoginRequest{
		AccountCountryCode: l.accountCountry,
		DsWebAuthToken:     l.sessionToken,
		ExtendedLogin:      true,
		TrustToken:         l.trustToken,
	}

	resp, err := l.request(ctx, http.MethodPost, l.setupURL("/accountLogin"), body, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp) {
		return statusError(resp, "iCloud account login failed")
	}

	var data accountData
	if err := decodeJSON(resp, &data); err != nil {
		return err
	}
	l.data = data

	logging.From(ctx).Debug("iCloud account loaded",
		"hsa_version", data.DsInfo.HsaVersion,
		"challenge_required", data.HsaChallengeRequired,
		"trusted_browser", data.HsaTrustedBrowser,
	)
	return nil
}

// RequiresSecondFactor implements interfaces.Login
func (l *login) RequiresSecondFactor() bool {
	return l.data.DsInfo.HsaVersion == 2 && (l.data.HsaChallengeRequired || !l.IsTrusted())
}

// IsTrusted implements interfaces.Login
func (l *login) IsTrusted() bool {
	return l.data.HsaTrustedBrowser
}

// ValidateCode submits the code received on a trusted device, then asks the
// service to trust this session and reloads the account data
func (l *login) ValidateCode(ctx context.Context, code string) (bool, error) {
	logger := logging.From(ctx)

	var body securityCodeRequest
	body.SecurityCode.Code = code

	resp, err := l.request(ctx, http.MethodPost, l.client.authEndpoint+"/verify/trusteddevice/securitycode", body, l.authHeaders())
	if err != nil {
		return false, err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		logger.Debug("Security code rejected", "status", resp.StatusCode)
		_ = resp.Body.Close()
		return false, nil
	}
	if !isSuccess(resp) {
		return false, statusError(resp, "security code verification failed")
	}
	l.captureHeaders(resp)
	_ = resp.Body.Close()

	if err := l.trustSession(ctx); err != nil {
		return true, err
	}
	return true, nil
}

func (l *login) trustSession(ctx context.Context) error {
	resp, err := l.request(ctx, http.MethodGet, l.client.authEndpoint+"/2sv/trust", nil, l.authHeaders())
	if err != nil {
		return err
	}
	if !isSuccess(resp) {
		return statusError(resp, "failed to trust session")
	}
	l.captureHeaders(resp)
	_ = resp.Body.Close()

	return l.accountLogin(ctx)
}

// Session implements interfaces.Login
func (l *login) Session() interfaces.Session {
	return &session{login: l}
}
