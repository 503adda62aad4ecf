package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// Store is a retail location selling through the POS and, optionally, an
// e-commerce channel identified by domain.
type Store struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Domain       *string           `gorm:"column:domain;uniqueIndex"`
	ChannelToken *string           `gorm:"column:channel_token"`
	NameOptions  types.NameOptions `gorm:"column:name_options;type:jsonb;serializer:json"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
