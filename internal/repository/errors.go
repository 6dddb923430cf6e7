// Package repository defines the entity store used by the reservation
// workflow.  Each entity has a small interface (lookup by id, save,
// a few list queries) with a MySQL implementation in this package and
// an in-memory one in repository/memory.
//
// The sentinel errors below let higher layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup by identifier resolves to no
// row.  MySQL implementations translate sql.ErrNoRows into it.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned by UsuarioRepository.Create when the
// username is already registered.
var ErrUsernameExists = errors.New("username already exists")
