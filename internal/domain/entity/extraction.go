package entity

import (
	"errors"
	"fmt"
	"image"
)

const ResultContentType = "image/png"

// ExtractionResult is the outcome of one successful attempt.
type ExtractionResult struct {
	Image    image.Image
	Encoded  []byte
	FileName string
	Width    int
	Height   int
	Duration float64
	SeekTime float64
}

func (r *ExtractionResult) ContentType() string {
	return ResultContentType
}

type ErrorKind string

const (
	ErrInvalidInputType ErrorKind = "invalid-input-type"
	ErrMetadataTimeout  ErrorKind = "metadata-timeout"
	ErrMetadataError    ErrorKind = "metadata-error"
	ErrSeekTimeout      ErrorKind = "seek-timeout"
	ErrSeekError        ErrorKind = "seek-error"
	ErrEncodeError      ErrorKind = "encode-error"
)

// ErrorCategory is the user-facing collapse of ErrorKind.
type ErrorCategory string

const (
	CategoryWrongInputType    ErrorCategory = "wrong-input-type"
	CategoryProcessingFailure ErrorCategory = "processing-failure"
)

func (k ErrorKind) Category() ErrorCategory {
	if k == ErrInvalidInputType {
		return CategoryWrongInputType
	}
	return CategoryProcessingFailure
}

// ExtractionError is the classified failure of one attempt.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func NewExtractionError(kind ErrorKind, detail string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, Detail: detail, Err: cause}
}

func (e *ExtractionError) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches another *ExtractionError by kind, so errors.Is(err,
// &ExtractionError{Kind: ErrSeekTimeout}) works on wrapped chains.
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first ExtractionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var xe *ExtractionError
	if errors.As(err, &xe) {
		return xe.Kind, true
	}
	return "", false
}
