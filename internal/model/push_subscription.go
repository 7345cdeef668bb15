package model

import "time"

// PushSubscription holds a browser push endpoint and the instruments it watches.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserName  string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Instruments []*Instrument `gorm:"many2many:subscription_instruments;constraint:OnDelete:CASCADE"`
}
