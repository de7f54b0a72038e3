package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/api/option"
)

type gcsSecret struct {
	Bucket             string `json:"bucket" validate:"required,min=3,max=222" label:"Bucket"`
	ServiceAccountJSON string `json:"service_account_json" validate:"required" label:"Service account key"`
}

// serviceAccountKey is the part of a key file we check before storing it.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// BucketInfo is what Test reports about the bucket.
type BucketInfo struct {
	Name         string
	Location     string
	StorageClass string
}

// GCS connects a Cloud Storage bucket for event media.
type GCS struct {
	Vault *Vault
	// attrs reads bucket metadata; replaced in tests.
	attrs func(ctx context.Context, keyJSON []byte, bucket string) (BucketInfo, error)
}

// NewGCS returns the provider.
func NewGCS(v *Vault) *GCS {
	return &GCS{Vault: v, attrs: bucketAttrs}
}

func (p *GCS) Name() string { return models.ProviderGCS }

func (p *GCS) Status(ctx context.Context) (Status, error) {
	return p.Vault.statusFromMeta(ctx, models.ProviderGCS, "Google Cloud Storage")
}

func (p *GCS) Configure(ctx context.Context, raw json.RawMessage, actor primitive.ObjectID) (Status, error) {
	var in gcsSecret
	if err := decodeInput(raw, &in); err != nil {
		return Status{}, err
	}
	in.Bucket = strings.TrimSpace(in.Bucket)
	if err := checkServiceAccount([]byte(in.ServiceAccountJSON)); err != nil {
		return Status{}, err
	}
	if err := p.Vault.Save(ctx, models.ProviderGCS, in.Bucket, in, actor); err != nil {
		return Status{}, err
	}
	return p.Status(ctx)
}

func (p *GCS) Disconnect(ctx context.Context, _ primitive.ObjectID) error {
	return p.Vault.Remove(ctx, models.ProviderGCS)
}

func (p *GCS) Test(ctx context.Context, _ TestRequest) (string, error) {
	var sec gcsSecret
	if _, err := p.Vault.Load(ctx, models.ProviderGCS, &sec); err != nil {
		return "", err
	}
	info, err := p.attrs(ctx, []byte(sec.ServiceAccountJSON), sec.Bucket)
	if err != nil {
		return "", apperr.Collaborator("Could not read the bucket.", err)
	}
	return fmt.Sprintf("Bucket %s is reachable (%s, %s).", info.Name, info.Location, info.StorageClass), nil
}

func checkServiceAccount(b []byte) error {
	var k serviceAccountKey
	if err := json.Unmarshal(b, &k); err != nil {
		return apperr.Validation("Service account key is not valid JSON.",
			map[string]string{"service_account_json": "Paste the JSON key file."})
	}
	if k.Type != "service_account" || k.ClientEmail == "" || k.PrivateKey == "" {
		return apperr.Validation("Service account key is incomplete.",
			map[string]string{"service_account_json": "Expected a service_account key with client_email and private_key."})
	}
	return nil
}

func bucketAttrs(ctx context.Context, keyJSON []byte, bucket string) (BucketInfo, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(keyJSON))
	if err != nil {
		return BucketInfo{}, err
	}
	defer client.Close()

	attrs, err := client.Bucket(bucket).Attrs(ctx)
	if err != nil {
		return BucketInfo{}, err
	}
	return BucketInfo{Name: attrs.Name, Location: attrs.Location, StorageClass: attrs.StorageClass}, nil
}
