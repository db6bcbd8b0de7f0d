// Package common defines shared constants, helpers and sentinel errors used
// across CyberCrime Hive components. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")

	// feedback links: unknown, expired, used and revoked all map here
	ErrInvalidToken = errors.New("invalid token")

	// bearer token lifecycle
	ErrTokenExpired = errors.New("token expired")
)
