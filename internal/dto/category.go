package dto

// CreateCategoryRequest defines the payload for creating a donation category.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
	DefaultUnit string `json:"default_unit" validate:"required"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// UpdateCategoryRequest defines the payload for updating a donation category.
// Nil fields are left untouched.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description"`
	DefaultUnit *string `json:"default_unit"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}
