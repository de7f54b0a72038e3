// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful login.
// CreatedAt is indexed for recent-activity views.
type LoginRecord struct {
	UserID    primitive.ObjectID `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
	IP        string             `bson:"ip"`
	UserAgent string             `bson:"user_agent,omitempty"`
}
