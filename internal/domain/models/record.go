package models

import (
	"fmt"
	"strings"
)

// Record is any domain entity exposed through the uniform resource endpoints.
// The identifier is opaque, immutable and assigned by the backend at creation.
type Record interface {
	RecordID() uint
	Validate() error
}

// ValidationError marks a client-detected input problem. It never reaches
// the network and leaves any previously displayed data untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
