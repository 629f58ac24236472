package dto

import "time"

// CreateFamilyRequest defines the payload for registering a family.
type CreateFamilyRequest struct {
	Name         string `json:"name" validate:"required"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Contact      string `json:"contact"`
	Address      string `json:"address"`
}

// UpdateFamilyRequest defines the payload for updating a family.
type UpdateFamilyRequest struct {
	Name         *string `json:"name"`
	City         *string `json:"city"`
	Neighborhood *string `json:"neighborhood"`
	Contact      *string `json:"contact"`
	Address      *string `json:"address"`
}

// CreateBeneficiaryRequest defines the payload for registering a beneficiary.
type CreateBeneficiaryRequest struct {
	Name      string     `json:"name" validate:"required"`
	FamilyID  string     `json:"family_id" validate:"required,uuid"`
	BirthDate *time.Time `json:"birth_date"`
	CPF       string     `json:"cpf"`
}

// UpdateBeneficiaryRequest defines the payload for updating a beneficiary.
type UpdateBeneficiaryRequest struct {
	Name      *string    `json:"name"`
	FamilyID  *string    `json:"family_id" validate:"omitempty,uuid"`
	BirthDate *time.Time `json:"birth_date"`
	CPF       *string    `json:"cpf"`
}
