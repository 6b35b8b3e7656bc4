package models

import "time"

// StoreCredential holds the Store API credentials issued to this app for one
// store during the authentication callback.
type StoreCredential struct {
	StoreID          int        `gorm:"column:store_id;primaryKey"`
	AuthenticationID string     `gorm:"column:authentication_id;not null"`
	AccessToken      string     `gorm:"column:access_token;not null"`
	ExpiresAt        *time.Time `gorm:"column:expires_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by the auth store.
func (StoreCredential) TableName() string { return "store_credentials" }
