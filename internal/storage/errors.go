// Package storage объединяет ошибки, общие для всех реализаций хранилищ
package storage

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidContent   = errors.New("invalid content")
	ErrMaxDepth         = errors.New("maximum reply depth reached")
	ErrCommentsDisabled = errors.New("comments are disabled for this post")
	ErrInvalidVote      = errors.New("invalid vote")
)
