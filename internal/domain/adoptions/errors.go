package adoptions

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNotFound       = errors.New("request not found")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicate      = errors.New("you already requested to adopt this pet")
	ErrPetNotFound    = errors.New("pet not found")

	ErrApprovalIncomplete = errors.New("approval incomplete")
)

// ApprovalError: se aprobó la solicitud pero no se pudo marcar la mascota.
// Reverted indica si la solicitud volvió a su estado anterior (rollback o
// compensación). Si no, queda una aprobación apuntando a una mascota sin marcar.
type ApprovalError struct {
	RequestID     string
	PetID         string
	Err           error
	CompensateErr error
	Reverted      bool
}

func (e *ApprovalError) Error() string {
	msg := fmt.Sprintf("approve request %s: mark pet %s adopted: %v", e.RequestID, e.PetID, e.Err)
	if e.CompensateErr != nil {
		msg += fmt.Sprintf("; revert status: %v", e.CompensateErr)
	}
	return msg
}

func (e *ApprovalError) Unwrap() []error {
	if e.CompensateErr != nil {
		return []error{e.Err, e.CompensateErr}
	}
	return []error{e.Err}
}

func (e *ApprovalError) Is(target error) bool { return target == ErrApprovalIncomplete }
