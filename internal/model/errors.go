package model

import "errors"

// ErrUnknownPool marks an event referencing a pool with no stored record.
// It signals an ordering or upstream-completeness defect and aborts the
// block pass. Hosts match it with errors.Is.
var ErrUnknownPool = errors.New("unknown pool")

// ErrUnknownToken marks a pool referencing a token with no stored record
// where presence is required. Same severity as ErrUnknownPool.
var ErrUnknownToken = errors.New("unknown token")
