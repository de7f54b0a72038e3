// Package integrations manages the admin-configured third-party accounts:
// Gmail send-as, a Google Cloud Storage bucket and reCAPTCHA. Credentials
// are sealed with credcrypt before they reach the database; nothing outside
// this package sees them in the clear.
package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	integrationstore "github.com/dalemusser/councilhub/internal/app/store/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/credcrypt"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotConfigured means no credential is stored for the provider.
	ErrNotConfigured = errors.New("integrations: provider not configured")
	// ErrUnknownProvider means the provider name is not one we support.
	ErrUnknownProvider = errors.New("integrations: unknown provider")
)

// Status is the admin-facing view of one provider. It never carries secrets.
type Status struct {
	Provider    string     `json:"provider"`
	Label       string     `json:"label"`
	Connected   bool       `json:"connected"`
	Account     string     `json:"account,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	ConnectURL  string     `json:"connect_url,omitempty"`
}

// TestRequest carries what a provider test may need about the caller.
type TestRequest struct {
	ActorEmail string
}

// Provider is the surface every integration exposes to the admin API.
type Provider interface {
	Name() string
	Status(ctx context.Context) (Status, error)
	Configure(ctx context.Context, raw json.RawMessage, actor primitive.ObjectID) (Status, error)
	Disconnect(ctx context.Context, actor primitive.ObjectID) error
	// Test exercises the stored credential against the live service and
	// returns a short description of what it found.
	Test(ctx context.Context, req TestRequest) (string, error)
}

// Manager looks providers up by name.
type Manager struct {
	providers map[string]Provider
}

// NewManager registers ps.
func NewManager(ps ...Provider) *Manager {
	m := &Manager{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		m.providers[p.Name()] = p
	}
	return m
}

// Get returns the named provider or ErrUnknownProvider.
func (m *Manager) Get(name string) (Provider, error) {
	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Statuses returns every provider's status ordered by name.
func (m *Manager) Statuses(ctx context.Context) ([]Status, error) {
	names := make([]string, 0, len(m.providers))
	for n := range m.providers {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]Status, 0, len(names))
	for _, n := range names {
		st, err := m.providers[n].Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s status: %w", n, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// CredStore is the persistence the vault needs.
type CredStore interface {
	Get(ctx context.Context, provider string) (*models.IntegrationCredential, error)
	Upsert(ctx context.Context, provider, blob, account string, by *primitive.ObjectID, now time.Time) error
	Delete(ctx context.Context, provider string) (bool, error)
}

// Vault seals and opens provider credentials.
type Vault struct {
	Store  CredStore
	Sealer *credcrypt.Sealer // nil when integrations_key is unset
	Clock  clock.Clock
}

// NewVault builds a Vault. sealer may be nil; Save then fails with a
// validation error and Load with ErrNotConfigured.
func NewVault(store CredStore, sealer *credcrypt.Sealer, clk clock.Clock) *Vault {
	if clk == nil {
		clk = clock.System{}
	}
	return &Vault{Store: store, Sealer: sealer, Clock: clk}
}

// Meta returns the stored row without opening the blob.
func (v *Vault) Meta(ctx context.Context, provider string) (*models.IntegrationCredential, error) {
	cred, err := v.Store.Get(ctx, provider)
	if errors.Is(err, integrationstore.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	return cred, err
}

// Load opens the provider's blob into dst.
func (v *Vault) Load(ctx context.Context, provider string, dst any) (*models.IntegrationCredential, error) {
	cred, err := v.Meta(ctx, provider)
	if err != nil {
		return nil, err
	}
	if v.Sealer == nil {
		return nil, ErrNotConfigured
	}
	pt, err := v.Sealer.Open(provider, cred.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s credential: %w", provider, err)
	}
	if err := json.Unmarshal(pt, dst); err != nil {
		return nil, fmt.Errorf("decode %s credential: %w", provider, err)
	}
	return cred, nil
}

// Save seals secret and stores it with its display label.
func (v *Vault) Save(ctx context.Context, provider, account string, secret any, by primitive.ObjectID) error {
	if v.Sealer == nil {
		return apperr.Validation("Set integrations_key before configuring integrations.", nil)
	}
	pt, err := json.Marshal(secret)
	if err != nil {
		return err
	}
	blob, err := v.Sealer.Seal(provider, pt)
	if err != nil {
		return err
	}
	var byp *primitive.ObjectID
	if !by.IsZero() {
		byp = &by
	}
	return v.Store.Upsert(ctx, provider, blob, account, byp, v.Clock.Now())
}

// Remove deletes the provider's credential. Removing a missing one is not
// an error.
func (v *Vault) Remove(ctx context.Context, provider string) error {
	_, err := v.Store.Delete(ctx, provider)
	return err
}

// statusFromMeta fills the common Status fields.
func (v *Vault) statusFromMeta(ctx context.Context, provider, label string) (Status, error) {
	st := Status{Provider: provider, Label: label}
	cred, err := v.Meta(ctx, provider)
	if errors.Is(err, ErrNotConfigured) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	at := cred.ConnectedAt
	st.Connected = true
	st.Account = cred.Account
	st.ConnectedAt = &at
	return st, nil
}

// decodeInput unmarshals raw into dst and runs its validate tags.
func decodeInput(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return apperr.Validation("Configuration is required.", nil)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("Configuration is not valid JSON.", nil)
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		return apperr.Validation(res.First(), res.Fields())
	}
	return nil
}
