package rib

import (
	"errors"

	"github.com/rotonda-go/rib/internal/store"
)

// The error taxonomy (spec.md §7), re-exported from internal/store so
// callers never need to import an internal package to compare errors.
var (
	ErrNodeCreationMaxRetry = store.ErrNodeCreationMaxRetry
	ErrNodeNotFound         = store.ErrNodeNotFound
	ErrPrefixAlreadyExists  = store.ErrPrefixAlreadyExists
)

// ErrUnsupportedFamily is returned when a prefix's address family
// doesn't match the Table it's being inserted into or queried against.
var ErrUnsupportedFamily = errors.New("rib: prefix family does not match table family")
