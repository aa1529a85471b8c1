package services

import "fmt"

// Stable failure codes surfaced to clients. Handlers map these onto
// HTTP statuses; the codes themselves never change meaning.
const (
  CodeWalletNotConnected = "WALLET_NOT_CONNECTED"
  CodeNotAuthenticated   = "NOT_AUTHENTICATED"
  CodeNotEnrolled        = "NOT_ENROLLED"
  CodeRelayNotReady      = "RELAY_NOT_READY"
  CodeChainReadFailed    = "CHAIN_READ_FAILED"
  CodeSubmissionRejected = "SUBMISSION_REJECTED_BY_USER"
  CodeSubmissionReverted = "SUBMISSION_REVERTED"
  CodeTimeout            = "TIMEOUT"
  CodeConfigInvalid      = "CONFIG_INVALID"
  CodeAlreadyEnrolled    = "ALREADY_ENROLLED"
  CodeCourseNotFound     = "COURSE_NOT_FOUND"
)

// CodedError carries a stable machine-readable code alongside a human
// message.
type CodedError struct {
  Code    string
  Message string
}

func (e *CodedError) Error() string {
  return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCodedError(code, message string) *CodedError {
  return &CodedError{Code: code, Message: message}
}

// ErrorCode extracts the stable code from an error, or empty.
func ErrorCode(err error) string {
  if coded, ok := err.(*CodedError); ok {
    return coded.Code
  }
  return ""
}
