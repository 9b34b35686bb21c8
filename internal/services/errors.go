package services

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already registered")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidNonce      = errors.New("invalid or expired nonce")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrAppNotFound       = errors.New("app not found")
	ErrForbidden         = errors.New("forbidden")
	ErrSubmissionsClosed = errors.New("submissions are closed")
	ErrInvalidStatus     = errors.New("invalid status transition")
	ErrTemplateInUse     = errors.New("template has apps")
	ErrTemplateNotReady  = errors.New("template is not approved")
	ErrUpstream          = errors.New("ai upstream failure")
)
