package pttc

import (
	"errors"
	"fmt"
)

var (
	ErrFileOpen         = errors.New("cannot open file")
	ErrFileWrite        = errors.New("cannot write file")
	ErrMissingLabel     = errors.New("missing label")
	ErrDuplicateLabel   = errors.New("label name is not unique")
	ErrUnknownLabel     = errors.New("unknown label")
	ErrLabelNameTooLong = errors.New("label name is too long")
	ErrIntegerParse     = errors.New("cannot parse integer")
	ErrIntegerTooBig    = errors.New("integer too big")
	ErrUnknownChar      = errors.New("unknown character")
	ErrMissingArgument  = errors.New("missing argument")
	ErrTrailingTokens   = errors.New("trailing tokens")
	ErrSyntax           = errors.New("syntax error")
	ErrUnknownDirective = errors.New("unknown directive")
	ErrMissingDirective = errors.New("missing directive")
	ErrMissingIP        = fmt.Errorf("%w: ip missing", ErrMissingArgument)
	ErrEncoder          = errors.New("encoder error")
	errStopProcess      = errors.New("stop processing directives")
)

// EncoderError reports a packet encoder failure for a directive.
type EncoderError struct {
	Directive string
	Err       error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("encoder error in directive %s (status %v)", e.Directive, e.Err)
}

func (e *EncoderError) Unwrap() []error { return []error{ErrEncoder, e.Err} }
