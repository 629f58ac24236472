package dto

import "time"

// CreateVolunteerRequest defines the payload for registering a volunteer.
type CreateVolunteerRequest struct {
	Name      string     `json:"name" validate:"required"`
	Contact   string     `json:"contact"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date"`
}

// UpdateVolunteerRequest defines the payload for updating a volunteer.
type UpdateVolunteerRequest struct {
	Name      *string    `json:"name"`
	Contact   *string    `json:"contact"`
	CPF       *string    `json:"cpf"`
	BirthDate *time.Time `json:"birth_date"`
}
