package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidImage     = errors.New("invalid image")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNoPrompt         = errors.New("design has no visualization prompt")
	ErrProviderFailure  = errors.New("provider failure")
)
