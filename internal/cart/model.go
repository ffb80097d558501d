package cart

import "time"

type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart row joined with the book's current title and price.
type CartLine struct {
	ID        int64   `json:"id"`
	BookID    int64   `json:"book_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type Cart struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

// LockedItem is a cart row held under FOR UPDATE during checkout.
type LockedItem struct {
	ID       int64
	BookID   int64
	Quantity int
}
