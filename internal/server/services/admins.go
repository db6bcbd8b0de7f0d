package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/cryptox"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/auth"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
)

// MinPasswordLength is enforced when creating admins.
const MinPasswordLength = 8

// AdminService authenticates administrators and mints their access tokens.
type AdminService struct {
	tx                          dbx.Transactor
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

func NewAdminService(d Deps) *AdminService {
	d = d.withDefaults()
	return &AdminService{
		tx:                          d.Tx,
		repomanager:                 d.Repos,
		jwtSecret:                   []byte(d.Config.SecretKey),
		accessTokenValidityDuration: d.Config.AccessTokenValidityDuration,
		logger:                      d.Logger.With("module", "admins"),
	}
}

// Login checks an admin's credentials and returns a signed access token.
// Unknown users, non-admins and wrong passwords all yield
// common.ErrorUnauthorized.
func (s *AdminService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.tx.Conn()).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if user.Role != models.RoleAdmin || user.PasswordHash == "" {
		return "", common.ErrorUnauthorized
	}
	if err := cryptox.CheckPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.logger.Error(ctx, "password check failed", "user_id", user.ID, "error", err)
		}
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	s.logger.Info(ctx, "admin logged in", "user_id", user.ID)
	return token, nil
}

// CreateAdmin registers a new administrator with a bcrypt password hash.
func (s *AdminService) CreateAdmin(ctx context.Context, email, fullName, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrInvalidArgument)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidArgument, MinPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repomanager.Users(s.tx.Conn()).Create(ctx, &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin created", "user_id", user.ID)
	return user, nil
}
