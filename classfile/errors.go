package classfile

import (
	"errors"
	"fmt"
)

// ErrCorrupted is matched by every structural decode failure.
var ErrCorrupted = errors.New("corrupted class file")

// CorruptionError describes a structural problem found at a byte offset.
// Offsets are relative to the start of the class file, except inside the
// instruction stream where they are relative to the start of the code array.
type CorruptionError struct {
	Offset int
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupted class file at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptionError) Unwrap() error {
	return ErrCorrupted
}

func corruptf(offset int, format string, args ...any) error {
	return &CorruptionError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
