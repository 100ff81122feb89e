package model

import (
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
)

type User struct {
	ID                    int64          `json:"id"`
	Email                 string         `json:"email"`
	Name                  string         `json:"name"`
	PictureURL            *string        `json:"picture_url,omitempty"`
	Role                  enums.UserRole `json:"role"`
	ActiveCertificationID *int64         `json:"active_certification_id,omitempty"`
	IsActive              bool           `json:"is_active"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}
