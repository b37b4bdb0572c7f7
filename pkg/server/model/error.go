package model

import (
	"github.com/pkg/errors"
)

// Document errors
var (
	// ErrMalformed is returned when a supplied value cannot be decoded as a document.
	ErrMalformed = errors.New("malformed document")
)

// Collection errors
var (
	// ErrCollectionNotFound is returned when the collection does not exist, or is dropped during the operation.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionAlreadyExists is returned when creating a collection whose name is taken.
	ErrCollectionAlreadyExists = errors.New("collection already exists")
	// ErrInvalidName is returned when a collection or key name is empty.
	ErrInvalidName = errors.New("invalid name")
)

// Key errors
var (
	// ErrKeyNotFound is returned when the key does not exist in the collection.
	ErrKeyNotFound = errors.New("key not found")
)

// Request errors
var (
	// ErrInvalidRange is returned when a range bound is not a non-negative integer.
	ErrInvalidRange = errors.New("invalid range")
)
