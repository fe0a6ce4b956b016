package services

import "errors"

// Ошибки сервисного слоя. Нарушения ограничений и бизнес-правил возвращаются как
// *models.ViolationError, "не найдено" оборачивает models.ErrNotFound.
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrLastAdmin            = errors.New("cannot remove or demote the last admin")

	ErrArchiveDisabled = errors.New("game archive storage is not configured")
	ErrNothingToExport = errors.New("tournament has no recorded games")
)
