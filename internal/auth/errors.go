package auth

import "errors"

// ErrUserNotFound is returned by a UserStore when no account has the
// requested email.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned by a UserStore when the email is taken.
var ErrEmailExists = errors.New("email already exists")
