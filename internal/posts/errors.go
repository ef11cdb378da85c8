package posts

import "errors"

var (
	ErrNotFound             = errors.New("post not found")
	ErrSlugExists           = errors.New("slug already exists")
	ErrValidation           = errors.New("title and content are required")
	ErrSaveInProgress       = errors.New("save already in progress")
	ErrNotDrafting          = errors.New("editor has no open draft")
	ErrConfirmationRequired = errors.New("delete must be confirmed")
	ErrLocked               = errors.New("admin gate is locked")
)
