package status

import "errors"

// ErrorCode is a numeric code to classify errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   0-999:     client/validation
//   1000-1999: configuration
//   2000-2999: document ingestion
//   3000-3999: collaborator (vector store, embedder, reranker, LLM)

const (
	InvalidRequestBody ErrorCode = iota // 0
	MissingParams                       // 1
)

const (
	ConfigInvalid      ErrorCode = 1000 + iota // 1000
	ConfigChunkGeometry                        // 1001
)

const (
	DocumentUnreadable ErrorCode = 2000 + iota // 2000
	DocumentEmpty                              // 2001
)

const (
	CollaboratorVector   ErrorCode = 3000 + iota // 3000
	CollaboratorEmbedder                         // 3001
	CollaboratorReranker                         // 3002
	CollaboratorLLM                              // 3003
)

const (
	ErrorCodeInternal ErrorCode = 9000
)

// CodedError represents an error with an associated ErrorCode
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

type codedError struct {
	code ErrorCode
	err  error
}

func (e codedError) Error() string        { return e.err.Error() }
func (e codedError) Unwrap() error        { return e.err }
func (e codedError) ErrorCode() ErrorCode { return e.code }

// New creates a new CodedError with the given code and underlying error
func New(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return codedError{code: code, err: err}
}

// CodeOf extracts the ErrorCode from err, or ErrorCodeInternal when err
// carries no code.
func CodeOf(err error) ErrorCode {
	var ce CodedError
	if errors.As(err, &ce) {
		return ce.ErrorCode()
	}
	return ErrorCodeInternal
}
