package integrations

import (
	"context"
	"sync"
	"time"

	integrationstore "github.com/dalemusser/councilhub/internal/app/store/integrations"
	"github.com/dalemusser/councilhub/internal/app/store/oauthstate"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/credcrypt"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memCreds struct {
	mu   sync.Mutex
	rows map[string]models.IntegrationCredential
}

func newMemCreds() *memCreds {
	return &memCreds{rows: map[string]models.IntegrationCredential{}}
}

func (m *memCreds) Get(_ context.Context, provider string) (*models.IntegrationCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[provider]
	if !ok {
		return nil, integrationstore.ErrNotFound
	}
	return &c, nil
}

func (m *memCreds) Upsert(_ context.Context, provider, blob, account string, by *primitive.ObjectID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[provider] = models.IntegrationCredential{Provider: provider, Blob: blob, Account: account, ConnectedAt: now, UpdatedBy: by}
	return nil
}

func (m *memCreds) Delete(_ context.Context, provider string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[provider]
	delete(m.rows, provider)
	return ok, nil
}

type memStates struct {
	mu   sync.Mutex
	rows map[string]oauthstate.State
}

func newMemStates() *memStates { return &memStates{rows: map[string]oauthstate.State{}} }

func (m *memStates) Save(_ context.Context, st oauthstate.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[st.Nonce] = st
	return nil
}

func (m *memStates) Consume(_ context.Context, nonce, provider string) (oauthstate.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[nonce]
	if !ok || st.Provider != provider {
		return oauthstate.State{}, false, nil
	}
	delete(m.rows, nonce)
	return st, true, nil
}

var testNow = time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC)

func newTestVault(t interface{ Fatalf(string, ...any) }) (*Vault, *memCreds) {
	key, err := credcrypt.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sealer, err := credcrypt.New(key)
	if err != nil {
		t.Fatalf("credcrypt.New: %v", err)
	}
	creds := newMemCreds()
	return NewVault(creds, sealer, clock.NewManual(testNow)), creds
}
