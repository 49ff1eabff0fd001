package model

import "fmt"

// ValidationError represents a rejected import parameter set or request field
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// NotFoundError means a catalog lookup returned no item for a match key.
// Recoverable: the operator can correct the key or enable auto-create.
type NotFoundError struct {
	Kind  string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no catalog item for %s %q", e.Kind, e.Value)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(kind, value string) *NotFoundError {
	return &NotFoundError{Kind: kind, Value: value}
}

// RemoteCallError represents a failed call to the document source or ledger
type RemoteCallError struct {
	Endpoint string
	Code     string
	Message  string
	Cause    error
}

func (e *RemoteCallError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote call %s failed: %s - %s", e.Endpoint, e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("remote call %s failed: %s (%v)", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("remote call %s failed: %s", e.Endpoint, e.Message)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Cause
}

// NewRemoteCallError creates a new remote call error
func NewRemoteCallError(endpoint, code, message string, cause error) *RemoteCallError {
	return &RemoteCallError{
		Endpoint: endpoint,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// PartialPostError means the purchase document header was created but the
// operations batch was not. The header now exists in the ledger with zero
// operations; the operator must void it or retry the operations step.
type PartialPostError struct {
	DocumentID int64
	Cause      error
}

func (e *PartialPostError) Error() string {
	return fmt.Sprintf("document %d created but operations post failed: %v", e.DocumentID, e.Cause)
}

func (e *PartialPostError) Unwrap() error {
	return e.Cause
}

// NewPartialPostError creates a new partial post error
func NewPartialPostError(documentID int64, cause error) *PartialPostError {
	return &PartialPostError{DocumentID: documentID, Cause: cause}
}
