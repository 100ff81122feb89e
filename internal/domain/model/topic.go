package model

import "time"

type Topic struct {
	ID               int64     `json:"id"`
	CertificationID  int64     `json:"certification_id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	WeightPercentage int       `json:"weight_percentage"`
	Order            int       `json:"order"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
