package repository

import "errors"

var (
	// ErrStateNotFound is returned when no feed snapshot has been stored yet.
	ErrStateNotFound = errors.New("state not found")
	// ErrProductNotFound is returned when the catalog has no product with the given ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrAlertNotFound is returned when no alert with the given ID exists.
	ErrAlertNotFound = errors.New("alert not found")
)
