package models

import "time"

// DonationCategory is a classification bucket for donations. Names are
// unique case-insensitively among non-deleted categories.
type DonationCategory struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	DefaultUnit string    `db:"default_unit" json:"default_unit"`
	Icon        string    `db:"icon" json:"icon,omitempty"`
	Color       string    `db:"color" json:"color,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	Deleted     bool      `db:"deleted" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryFilter captures filtering criteria for listing categories.
type CategoryFilter struct {
	IsActive       *bool
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
