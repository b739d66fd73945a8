package models

import (
	"time"

	"github.com/solsticehq/core/internal/pkg/clientinfo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the server-side record backing one access/refresh token pair.
// Both tokens embed InvalidationID; deleting the record revokes the pair at
// once, before the tokens' own expiry. ExpiresAt mirrors the refresh expiry.
type Session struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"         json:"-"`
	InvalidationID string             `bson:"invalidate_id"         json:"invalidate_id"`
	UserID         primitive.ObjectID `bson:"user_id"               json:"user_id"`
	CreatedAt      time.Time          `bson:"created_at"            json:"created_at"`
	ExpiresAt      time.Time          `bson:"expires_at"            json:"expires_at"`
	LastUsed       time.Time          `bson:"last_used"             json:"last_used"`
	IsActive       bool               `bson:"is_active"             json:"is_active"`
	IPAddress      string             `bson:"ip_address,omitempty"  json:"ip_address,omitempty"`
	ClientInfo     clientinfo.Info    `bson:"client_info,omitempty" json:"client_info,omitempty"`
}

func (Session) CollectionName() string { return "sessions" }
