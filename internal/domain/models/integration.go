// internal/domain/models/integration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Integration providers.
const (
	ProviderGmail     = "gmail"
	ProviderGCS       = "gcs"
	ProviderRecaptcha = "recaptcha"
)

// Providers lists every integration provider.
var Providers = []string{ProviderGmail, ProviderGCS, ProviderRecaptcha}

// IntegrationCredential stores one provider's encrypted credential blob.
// The blob is opaque outside the integrations package.
type IntegrationCredential struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Provider    string              `bson:"provider"`
	Blob        string              `bson:"blob"`    // base64(nonce || AES-GCM ciphertext)
	Account     string              `bson:"account"` // display label: send-as address, bucket, site key
	ConnectedAt time.Time           `bson:"connected_at"`
	UpdatedBy   *primitive.ObjectID `bson:"updated_by,omitempty"`
}
