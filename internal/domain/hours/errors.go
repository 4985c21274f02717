package hours

import "errors"

var (
	ErrExtraHoursNotFound      = errors.New("extra hours request not found")
	ErrRequestAlreadyProcessed = errors.New("extra hours request already processed")
	ErrDuplicateSubmission     = errors.New("extra hours request already submitted with this idempotency key")
	ErrUnauthorizedAccess      = errors.New("not allowed to access another staff member's hours")
	ErrNotStaff                = errors.New("only staff members accrue hours")
	ErrInvalidMonth            = errors.New("invalid month, expected YYYY-MM")
	ErrLedgerNotFound          = errors.New("staff hours not found")
)
