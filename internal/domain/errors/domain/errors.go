// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Source-related errors.
var (
	ErrUnreadableSource = errors.New("source file is unreadable")
	ErrSourceParse      = errors.New("source file could not be parsed")
)

// Collection-related errors.
var (
	ErrInvalidItem = errors.New("test item is invalid")
	ErrOutputWrite = errors.New("collection output could not be written")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
