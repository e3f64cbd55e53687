package types

// CreateProfileRequest represents the request to create a search profile.
// Keywords must be non-empty; job type and experience level accept "any" to
// disable the filter.
type CreateProfileRequest struct {
	Name            string   `json:"name" validate:"required,min=1"`
	Keywords        []string `json:"keywords" validate:"required,min=1,dive,required"`
	Location        string   `json:"location,omitempty"`
	JobType         string   `json:"job_type,omitempty" validate:"omitempty,oneof=remote hybrid onsite any"`
	ExperienceLevel string   `json:"experience_level,omitempty" validate:"omitempty,oneof=entry mid senior any"`
	SalaryMin       *float64 `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax       *float64 `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
}

// UpdateProfileRequest represents a partial profile update; nil fields are
// left unchanged.
type UpdateProfileRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Keywords        []string `json:"keywords,omitempty" validate:"omitempty,min=1,dive,required"`
	Location        *string  `json:"location,omitempty"`
	JobType         *string  `json:"job_type,omitempty" validate:"omitempty,oneof=remote hybrid onsite any"`
	ExperienceLevel *string  `json:"experience_level,omitempty" validate:"omitempty,oneof=entry mid senior any"`
	SalaryMin       *float64 `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax       *float64 `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
	Active          *bool    `json:"active,omitempty"`
}

// Validate checks the create payload against its field rules.
func (r *CreateProfileRequest) Validate() error {
	return validate.Struct(r)
}

// Validate checks the update payload against its field rules.
func (r *UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}
