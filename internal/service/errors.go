package service

import "errors"

var (
	ErrEmptyQuery      = errors.New("query must not be empty")
	ErrSearchFailed    = errors.New("search failed")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoHistory       = errors.New("no search history to recommend from")
)
