package enums

import "fmt"

// BorrowStatus tracks the lifecycle of a borrow record.
type BorrowStatus string

const (
	BorrowStatusRequested BorrowStatus = "requested"
	BorrowStatusApproved  BorrowStatus = "approved"
	BorrowStatusBorrowed  BorrowStatus = "borrowed"
	BorrowStatusReturned  BorrowStatus = "returned"
	BorrowStatusRejected  BorrowStatus = "rejected"
)

var validBorrowStatuses = []BorrowStatus{
	BorrowStatusRequested,
	BorrowStatusApproved,
	BorrowStatusBorrowed,
	BorrowStatusReturned,
	BorrowStatusRejected,
}

// ActiveBorrowStatuses are the states that hold or will hold a physical copy.
// A user's borrow cap and the per-book duplicate check both count these.
var ActiveBorrowStatuses = []BorrowStatus{
	BorrowStatusRequested,
	BorrowStatusApproved,
	BorrowStatusBorrowed,
}

// String implements fmt.Stringer.
func (b BorrowStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BorrowStatus.
func (b BorrowStatus) IsValid() bool {
	for _, candidate := range validBorrowStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsActive reports whether the status reserves or holds a copy.
func (b BorrowStatus) IsActive() bool {
	for _, candidate := range ActiveBorrowStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are legal from the status.
func (b BorrowStatus) IsTerminal() bool {
	return b == BorrowStatusReturned || b == BorrowStatusRejected
}

// ParseBorrowStatus converts raw input into a BorrowStatus.
func ParseBorrowStatus(value string) (BorrowStatus, error) {
	for _, candidate := range validBorrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid borrow status %q", value)
}
