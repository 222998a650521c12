package classfile

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every structural parse failure.
var ErrMalformedInput = errors.New("malformed class file")

// MalformedInputError reports where parsing stopped. Offset is -1 when the
// failure is not tied to a byte position, such as a bad constant-pool index
// discovered during resolution.
type MalformedInputError struct {
	Offset int
	Reason string
	File   string
}

func (e *MalformedInputError) Error() string {
	msg := "malformed class file"
	if e.File != "" {
		msg += " " + e.File
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return msg + ": " + e.Reason
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedInputError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// withFile stamps the file name onto a MalformedInputError, leaving other
// errors untouched.
func withFile(err error, file string) error {
	var mie *MalformedInputError
	if errors.As(err, &mie) && mie.File == "" {
		mie.File = file
	}
	return err
}
