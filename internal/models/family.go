package models

import "time"

// Family is a recipient household targeted by distributions.
type Family struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	City         string    `db:"city" json:"city"`
	Neighborhood string    `db:"neighborhood" json:"neighborhood"`
	Contact      string    `db:"contact" json:"contact,omitempty"`
	Address      string    `db:"address" json:"address,omitempty"`
	Deleted      bool      `db:"deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FamilyFilter captures filtering criteria for listing families.
type FamilyFilter struct {
	City           string
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// Beneficiary is an individual member of a family.
type Beneficiary struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	FamilyID  string    `db:"family_id" json:"family_id"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	CPF       string    `db:"cpf" json:"cpf,omitempty"`
	Deleted   bool      `db:"deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BeneficiaryFilter captures filtering criteria for listing beneficiaries.
type BeneficiaryFilter struct {
	FamilyID       string
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
