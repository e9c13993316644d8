// Package repository implements the persistence layer over MySQL. This file
// defines sentinel errors shared by the repositories so that handlers and the
// auth service can branch on failure kinds without inspecting SQL errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint (email, username, wishlist entry). Handlers translate it into
// HTTP 409.
var ErrDuplicate = errors.New("duplicate record")

// ErrFingerprintConflict is returned by the conditional refresh-fingerprint
// swap when the stored fingerprint no longer matches the expected value.
// This is how a lost rotation race surfaces.
var ErrFingerprintConflict = errors.New("refresh fingerprint conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not a participant of. Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as sending a friend request where one is already
// pending. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
