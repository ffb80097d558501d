package lending

import "time"

// LoanPeriod is the fixed window between borrowing and due date.
const LoanPeriod = 70 * 24 * time.Hour

type BorrowingStatus string

const (
	StatusPending  BorrowingStatus = "Pending"
	StatusApproved BorrowingStatus = "Approved"
	StatusRejected BorrowingStatus = "Rejected"
	StatusReturned BorrowingStatus = "Returned"
)

type Borrowing struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	BookID       int64           `json:"book_id"`
	DateBorrowed time.Time       `json:"date_borrowed"`
	DueDate      time.Time       `json:"due_date"`
	DateReturned *time.Time      `json:"date_returned"`
	Status       BorrowingStatus `json:"status"`
}

type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

func ParseReviewAction(s string) (ReviewAction, error) {
	switch a := ReviewAction(s); a {
	case ActionApprove, ActionReject:
		return a, nil
	}
	return "", ErrInvalidAction
}
