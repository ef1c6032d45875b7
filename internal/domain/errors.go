package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrExpired           = errors.New("password expired")
	ErrTooManyAttempts   = errors.New("too many login attempts")
	ErrAuthRequired      = errors.New("credential required")
	ErrConflict          = errors.New("version conflict")
	ErrTooLarge          = errors.New("request body too large")
	ErrTooManyLinks      = errors.New("too many links")
	ErrTooManyCategories = errors.New("too many categories")
	ErrReservedCategory  = errors.New("reserved category cannot be deleted")
	ErrInvalidDocument   = errors.New("invalid document")
	ErrNotFound          = errors.New("not found")
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrAIConfigMissing   = errors.New("ai config incomplete")
	ErrAIUpstream        = errors.New("ai upstream failed")
	ErrBackupNotFound    = errors.New("backup file not found")
)

// ConflictError 写入时 baseVersion 与当前版本不一致
type ConflictError struct {
	ExpectedVersion int64
	CurrentVersion  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current %d", e.ExpectedVersion, e.CurrentVersion)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
