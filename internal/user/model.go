package user

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         auth.Role `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Update holds the fields a profile update may change. Nil means unchanged.
type Update struct {
	Name  *string
	Email *string
}

func (u User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Role: u.Role}
}
