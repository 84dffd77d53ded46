// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrCustomerNotFound struct {
	CustomerID int
}

func (e *ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("customer with ID %d not found", e.CustomerID)
}

func NewCustomerNotFound(id int) error {
	return &ErrCustomerNotFound{CustomerID: id}
}

type ErrJobNotFound struct {
	JobID int
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job with ID %d not found", e.JobID)
}

func NewJobNotFound(id int) error {
	return &ErrJobNotFound{JobID: id}
}

// ErrInvalidState is returned when an operation targets a record that has
// already progressed past the state the operation is defined for, e.g.
// reverting a replaced conflict or cancelling a scheduled send that already
// ran. Never silently coerced.
type ErrInvalidState struct {
	Op     string
	Detail string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func NewInvalidState(op, detail string) error {
	return &ErrInvalidState{Op: op, Detail: detail}
}

func IsInvalidState(err error) bool {
	var e *ErrInvalidState
	return errors.As(err, &e)
}

// ErrQuotaExceeded rejects a whole batch pre-flight; no partial sends past
// quota.
type ErrQuotaExceeded struct {
	Requested int
	Remaining int
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("monthly send quota exceeded: requested %d, remaining %d", e.Requested, e.Remaining)
}

func NewQuotaExceeded(requested, remaining int) error {
	return &ErrQuotaExceeded{Requested: requested, Remaining: remaining}
}

func IsQuotaExceeded(err error) bool {
	var e *ErrQuotaExceeded
	return errors.As(err, &e)
}

// ErrNotEligible is the typed rejection for a single send to an ineligible
// recipient. Batch sends report the same reasons as skipped outcomes instead.
type ErrNotEligible struct {
	CustomerID int
	Reason     string
}

func (e *ErrNotEligible) Error() string {
	return fmt.Sprintf("customer %d is not eligible: %s", e.CustomerID, e.Reason)
}

func NewNotEligible(customerID int, reason string) error {
	return &ErrNotEligible{CustomerID: customerID, Reason: reason}
}

// ErrValidation carries field-by-field messages for bad input, rejected
// before any side effect.
type ErrValidation struct {
	Fields map[string]string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func NewValidation(fields map[string]string) error {
	return &ErrValidation{Fields: fields}
}
