package rmutils

import "github.com/pkg/errors"

// ErrMalformedRecord is returned when a line names a known driver call but its parameters could not be extracted
var ErrMalformedRecord error = errors.New("malformed call record")

// ErrUnrecognizedToken is reported when a parameter key or value falls outside the schema of its call
var ErrUnrecognizedToken error = errors.New("unrecognized token")

// ErrSyntax is returned by the tokenizer when a parameter list is not well formed
var ErrSyntax error = errors.New("parameter list syntax error")
