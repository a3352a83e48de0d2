package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrInvalidStep     = errors.New("invalid wizard step")
	ErrDraftIncomplete = errors.New("draft has unfinished steps")
)
