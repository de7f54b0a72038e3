package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultSiteVerifyURL is Google's verification endpoint.
const DefaultSiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type recaptchaSecret struct {
	SiteKey string `json:"site_key" validate:"required,max=200" label:"Site key"`
	Secret  string `json:"secret" validate:"required,max=200" label:"Secret key"`
}

// SiteVerifyResponse is the subset of Google's reply we read.
type SiteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Recaptcha verifies registration tokens.
type Recaptcha struct {
	Vault     *Vault
	VerifyURL string
	Client    *http.Client
	Log       *zap.Logger
}

// NewRecaptcha returns a provider using Google's endpoint.
func NewRecaptcha(v *Vault, logger *zap.Logger) *Recaptcha {
	return &Recaptcha{
		Vault:     v,
		VerifyURL: DefaultSiteVerifyURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
		Log:       logger,
	}
}

func (p *Recaptcha) Name() string { return models.ProviderRecaptcha }

func (p *Recaptcha) Status(ctx context.Context) (Status, error) {
	return p.Vault.statusFromMeta(ctx, models.ProviderRecaptcha, "reCAPTCHA")
}

func (p *Recaptcha) Configure(ctx context.Context, raw json.RawMessage, actor primitive.ObjectID) (Status, error) {
	var in recaptchaSecret
	if err := decodeInput(raw, &in); err != nil {
		return Status{}, err
	}
	in.SiteKey = strings.TrimSpace(in.SiteKey)
	in.Secret = strings.TrimSpace(in.Secret)
	if err := p.Vault.Save(ctx, models.ProviderRecaptcha, in.SiteKey, in, actor); err != nil {
		return Status{}, err
	}
	return p.Status(ctx)
}

func (p *Recaptcha) Disconnect(ctx context.Context, _ primitive.ObjectID) error {
	return p.Vault.Remove(ctx, models.ProviderRecaptcha)
}

// Test sends a dummy token. Google rejects the token itself, but only a bad
// secret produces invalid-input-secret, which is what we look for.
func (p *Recaptcha) Test(ctx context.Context, _ TestRequest) (string, error) {
	var sec recaptchaSecret
	if _, err := p.Vault.Load(ctx, models.ProviderRecaptcha, &sec); err != nil {
		return "", err
	}
	resp, err := p.siteverify(ctx, sec.Secret, "councilhub-connection-test", "")
	if err != nil {
		return "", apperr.Collaborator("reCAPTCHA could not be reached.", err)
	}
	for _, c := range resp.ErrorCodes {
		if c == "invalid-input-secret" || c == "missing-input-secret" {
			return "", apperr.Collaborator("reCAPTCHA rejected the secret key.", errors.New(c))
		}
	}
	return "reCAPTCHA accepted the secret key.", nil
}

// SiteKey returns the public key for the registration form, or "" when
// reCAPTCHA is not configured.
func (p *Recaptcha) SiteKey(ctx context.Context) string {
	cred, err := p.Vault.Meta(ctx, models.ProviderRecaptcha)
	if err != nil {
		return ""
	}
	return cred.Account
}

// Configured reports whether a credential is stored.
func (p *Recaptcha) Configured(ctx context.Context) bool {
	_, err := p.Vault.Meta(ctx, models.ProviderRecaptcha)
	return err == nil
}

// Verify checks a user's token. It returns ErrNotConfigured when no secret
// is stored; callers decide whether that blocks the request.
func (p *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	var sec recaptchaSecret
	if _, err := p.Vault.Load(ctx, models.ProviderRecaptcha, &sec); err != nil {
		return false, err
	}
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	resp, err := p.siteverify(ctx, sec.Secret, token, remoteIP)
	if err != nil {
		return false, err
	}
	if !resp.Success && p.Log != nil {
		p.Log.Info("recaptcha verification failed", zap.Strings("error_codes", resp.ErrorCodes))
	}
	return resp.Success, nil
}

func (p *Recaptcha) siteverify(ctx context.Context, secret, token, remoteIP string) (*SiteVerifyResponse, error) {
	form := url.Values{"secret": {secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify: status %d", res.StatusCode)
	}
	var out SiteVerifyResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("siteverify: decode: %w", err)
	}
	return &out, nil
}
