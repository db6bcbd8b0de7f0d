// Package users stores report owners and administrators.
package users

import (
	"context"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type Repository interface {
	// Create inserts a user. A duplicate email yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
