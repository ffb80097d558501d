package order

import "time"

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "Pending"
	SaleStatusCompleted SaleStatus = "Completed"
	SaleStatusCanceled  SaleStatus = "Canceled"
	SaleStatusApproved  SaleStatus = "Approved"
	SaleStatusRejected  SaleStatus = "Rejected"
)

type Sale struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	DateOfSale time.Time  `json:"date_of_sale"`
	Quantity   int        `json:"quantity"`
	TotalPrice float64    `json:"total_price"`
	Status     SaleStatus `json:"status"`
}

type CheckoutResult struct {
	TotalPrice float64 `json:"total_price"`
	SaleIDs    []int64 `json:"sale_ids"`
	Sales      []Sale  `json:"sales"`
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

// LockedBook is the store_books row as seen under FOR UPDATE.
type LockedBook struct {
	ID    int64
	Title string
	Price float64
	Stock int
}
