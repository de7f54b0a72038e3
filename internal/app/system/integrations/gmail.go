package integrations

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/councilhub/internal/app/store/oauthstate"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/mailer"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConnectPath starts the consent flow; GmailCallbackPath receives it.
const (
	GmailConnectPath  = "/admin/integrations/gmail/connect"
	GmailCallbackPath = "/admin/integrations/gmail/callback"
)

const gmailStateName = "gmail_oauth_state"

var (
	// ErrBadState means the callback's state parameter was forged, expired,
	// reused, or started by another admin.
	ErrBadState = errors.New("integrations: invalid oauth state")
	// ErrOAuthUnavailable means google_client_id/secret are not set.
	ErrOAuthUnavailable = errors.New("integrations: google oauth client not configured")
)

// GmailConfig holds the OAuth client registered in Google Cloud console.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	// StateKey signs the state parameter. At least 32 bytes.
	StateKey []byte
	FromName string
}

// StateStore keeps one-time nonces for consent flows.
type StateStore interface {
	Save(ctx context.Context, st oauthstate.State) error
	Consume(ctx context.Context, nonce, provider string) (oauthstate.State, bool, error)
}

// SiteNamer supplies the organization name for test messages.
type SiteNamer interface {
	SiteName(ctx context.Context) string
}

type gmailSecret struct {
	Email string        `json:"email"`
	Token *oauth2.Token `json:"token"`
}

type gmailState struct {
	Nonce string `json:"n"`
	Actor string `json:"a"`
}

// gmailAPI is the slice of the Gmail API we call.
type gmailAPI interface {
	Profile(ctx context.Context) (string, error)
	Send(ctx context.Context, raw []byte) error
}

// Gmail sends outbound mail as a connected Google account.
type Gmail struct {
	Vault  *Vault
	States StateStore
	Site   SiteNamer
	Log    *zap.Logger

	cfg      GmailConfig
	oauth    *oauth2.Config
	codec    *securecookie.SecureCookie
	exchange func(ctx context.Context, code string) (*oauth2.Token, error)
	newAPI   func(ctx context.Context, tok *oauth2.Token) (gmailAPI, error)
}

// NewGmail returns the provider.
func NewGmail(v *Vault, states StateStore, site SiteNamer, cfg GmailConfig, logger *zap.Logger) *Gmail {
	g := &Gmail{
		Vault:  v,
		States: states,
		Site:   site,
		Log:    logger,
		cfg:    cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.BaseURL + GmailCallbackPath,
			Scopes:       []string{gmail.GmailSendScope, gmail.GmailMetadataScope},
			Endpoint:     google.Endpoint,
		},
		codec: securecookie.New(cfg.StateKey, nil).
			MaxAge(int(oauthstate.DefaultTTL.Seconds())).
			SetSerializer(securecookie.JSONEncoder{}),
	}
	g.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return g.oauth.Exchange(ctx, code)
	}
	g.newAPI = func(ctx context.Context, tok *oauth2.Token) (gmailAPI, error) {
		svc, err := gmail.NewService(ctx, option.WithTokenSource(g.oauth.TokenSource(ctx, tok)))
		if err != nil {
			return nil, err
		}
		return &gmailService{svc: svc}, nil
	}
	return g
}

func (g *Gmail) Name() string { return models.ProviderGmail }

// OAuthReady reports whether the OAuth client is configured.
func (g *Gmail) OAuthReady() bool {
	return g.cfg.ClientID != "" && g.cfg.ClientSecret != ""
}

func (g *Gmail) Status(ctx context.Context) (Status, error) {
	st, err := g.Vault.statusFromMeta(ctx, models.ProviderGmail, "Gmail")
	if err != nil {
		return st, err
	}
	if g.OAuthReady() {
		st.ConnectURL = GmailConnectPath
	}
	return st, nil
}

// Configure is not used for Gmail; the account is connected through the
// Google consent screen.
func (g *Gmail) Configure(context.Context, json.RawMessage, primitive.ObjectID) (Status, error) {
	return Status{}, apperr.Validation("Gmail is connected from "+GmailConnectPath+".", nil)
}

func (g *Gmail) Disconnect(ctx context.Context, _ primitive.ObjectID) error {
	return g.Vault.Remove(ctx, models.ProviderGmail)
}

// Test sends a message to the caller through Gmail.
func (g *Gmail) Test(ctx context.Context, req TestRequest) (string, error) {
	if req.ActorEmail == "" {
		return "", apperr.Validation("Your account has no email address to send to.", nil)
	}
	sender, err := g.sender(ctx)
	if err != nil {
		return "", err
	}
	siteName := models.DefaultSiteName
	if g.Site != nil {
		siteName = g.Site.SiteName(ctx)
	}
	if err := sender.Send(ctx, mailer.BuildTestEmail(req.ActorEmail, siteName, "Gmail")); err != nil {
		return "", apperr.Collaborator("Gmail did not accept the test message.", err)
	}
	return fmt.Sprintf("Sent a test message to %s from %s.", req.ActorEmail, sender.email), nil
}

// Begin records a nonce and returns the consent URL.
func (g *Gmail) Begin(ctx context.Context, actor primitive.ObjectID, returnURL string) (string, error) {
	if !g.OAuthReady() {
		return "", ErrOAuthUnavailable
	}
	nonce := uuid.NewString()
	if err := g.States.Save(ctx, oauthstate.State{
		Nonce:     nonce,
		Provider:  models.ProviderGmail,
		ActorID:   actor,
		ReturnURL: returnURL,
	}); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	state, err := g.codec.Encode(gmailStateName, gmailState{Nonce: nonce, Actor: actor.Hex()})
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Complete validates the callback, exchanges the code and stores the token.
// It returns the return URL saved by Begin.
func (g *Gmail) Complete(ctx context.Context, actor primitive.ObjectID, state, code string) (string, error) {
	var payload gmailState
	if err := g.codec.Decode(gmailStateName, state, &payload); err != nil {
		return "", ErrBadState
	}
	if payload.Actor != actor.Hex() {
		return "", ErrBadState
	}
	saved, ok, err := g.States.Consume(ctx, payload.Nonce, models.ProviderGmail)
	if err != nil {
		return "", err
	}
	if !ok || saved.ActorID != actor {
		return "", ErrBadState
	}

	tok, err := g.exchange(ctx, code)
	if err != nil {
		return "", apperr.Collaborator("Google did not accept the authorization code.", err)
	}
	api, err := g.newAPI(ctx, tok)
	if err != nil {
		return "", apperr.Collaborator("Could not reach Gmail.", err)
	}
	email, err := api.Profile(ctx)
	if err != nil {
		return "", apperr.Collaborator("Could not read the Gmail profile.", err)
	}
	if err := g.Vault.Save(ctx, models.ProviderGmail, email, gmailSecret{Email: email, Token: tok}, actor); err != nil {
		return "", err
	}
	if g.Log != nil {
		g.Log.Info("gmail connected", zap.String("account", email), zap.String("actor_id", actor.Hex()))
	}
	return saved.ReturnURL, nil
}

// ActiveSender implements mailer.Resolver. It reports false when Gmail is
// not connected or the stored token cannot be used.
func (g *Gmail) ActiveSender(ctx context.Context) (mailer.Sender, bool) {
	s, err := g.sender(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) && g.Log != nil {
			g.Log.Warn("gmail sender unavailable; falling back", zap.Error(err))
		}
		return nil, false
	}
	return s, true
}

func (g *Gmail) sender(ctx context.Context) (*gmailSender, error) {
	var sec gmailSecret
	if _, err := g.Vault.Load(ctx, models.ProviderGmail, &sec); err != nil {
		return nil, err
	}
	if sec.Token == nil {
		return nil, fmt.Errorf("gmail credential has no token")
	}
	api, err := g.newAPI(ctx, sec.Token)
	if err != nil {
		return nil, err
	}
	return &gmailSender{api: api, email: sec.Email, fromName: g.cfg.FromName}, nil
}

type gmailSender struct {
	api      gmailAPI
	email    string
	fromName string
}

func (s *gmailSender) Send(ctx context.Context, e mailer.Email) error {
	raw, err := mailer.BuildMessage(s.fromName, s.email, e)
	if err != nil {
		return err
	}
	return s.api.Send(ctx, raw)
}

type gmailService struct {
	svc *gmail.Service
}

func (g *gmailService) Profile(ctx context.Context) (string, error) {
	p, err := g.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return p.EmailAddress, nil
}

func (g *gmailService) Send(ctx context.Context, raw []byte) error {
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	_, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	return err
}
