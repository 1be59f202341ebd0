package model

import "errors"

var (
	// Authentication/authorization errors. Unknown usernames and inactive
	// accounts both surface as ErrInvalidCredentials so responses never
	// reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")

	// Record errors
	ErrDuplicateTag   = errors.New("rfid tag already assigned")
	ErrRecordNotFound = errors.New("record not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("username or full name already exists")
	ErrWeakPassword   = errors.New("password does not meet policy")

	// Generic errors
	ErrValidation  = errors.New("validation failed")
	ErrTransaction = errors.New("transaction failed")
)
