package catalog

import (
	"math"
	"strings"

	"github.com/doug-martin/goqu/v9"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func (in CreateStoreBookInput) validate() error {
	if blank(in.Title) || blank(in.Author) || blank(in.Genre) || blank(in.ISBN) {
		return ErrMissingFields
	}
	if in.Price == nil {
		return ErrMissingPrice
	}
	if !validPrice(*in.Price) {
		return ErrInvalidPrice
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func (in CreateStoreBookInput) record() goqu.Record {
	return goqu.Record{
		"title":     strings.TrimSpace(in.Title),
		"author":    strings.TrimSpace(in.Author),
		"genre":     strings.TrimSpace(in.Genre),
		"isbn":      strings.TrimSpace(in.ISBN),
		"price":     *in.Price,
		"stock":     in.Stock,
		"image_url": nullable(in.ImageURL),
	}
}

func (in UpdateStoreBookInput) empty() bool {
	return in.Title == nil && in.Author == nil && in.Genre == nil && in.ISBN == nil &&
		in.Price == nil && in.Stock == nil && in.ImageURL == nil
}

// apply merges the present fields into b and returns the columns that changed.
func (in UpdateStoreBookInput) apply(b *StoreBook) (goqu.Record, error) {
	rec := goqu.Record{}
	if err := setText(rec, "title", in.Title, &b.Title); err != nil {
		return nil, err
	}
	if err := setText(rec, "author", in.Author, &b.Author); err != nil {
		return nil, err
	}
	if err := setText(rec, "genre", in.Genre, &b.Genre); err != nil {
		return nil, err
	}
	if err := setText(rec, "isbn", in.ISBN, &b.ISBN); err != nil {
		return nil, err
	}
	if in.Price != nil {
		if !validPrice(*in.Price) {
			return nil, ErrInvalidPrice
		}
		b.Price = *in.Price
		rec["price"] = b.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		b.Stock = *in.Stock
		rec["stock"] = b.Stock
	}
	if in.ImageURL != nil {
		b.ImageURL = in.ImageURL
		rec["image_url"] = *in.ImageURL
	}
	return rec, nil
}

func (in CreateLibraryBookInput) validate() error {
	if blank(in.Title) || blank(in.Author) || blank(in.Genre) || blank(in.ISBN) {
		return ErrMissingFields
	}
	available := in.TotalCopies
	if in.AvailableCopies != nil {
		available = *in.AvailableCopies
	}
	return validCopies(available, in.TotalCopies)
}

func (in CreateLibraryBookInput) record() goqu.Record {
	available := in.TotalCopies
	if in.AvailableCopies != nil {
		available = *in.AvailableCopies
	}
	return goqu.Record{
		"title":            strings.TrimSpace(in.Title),
		"author":           strings.TrimSpace(in.Author),
		"genre":            strings.TrimSpace(in.Genre),
		"isbn":             strings.TrimSpace(in.ISBN),
		"total_copies":     in.TotalCopies,
		"available_copies": available,
		"image_url":        nullable(in.ImageURL),
	}
}

func (in UpdateLibraryBookInput) empty() bool {
	return in.Title == nil && in.Author == nil && in.Genre == nil && in.ISBN == nil &&
		in.TotalCopies == nil && in.AvailableCopies == nil && in.ImageURL == nil
}

// apply merges the present fields into b; the copy invariant is checked on the
// merged row.
func (in UpdateLibraryBookInput) apply(b *LibraryBook) (goqu.Record, error) {
	rec := goqu.Record{}
	if err := setText(rec, "title", in.Title, &b.Title); err != nil {
		return nil, err
	}
	if err := setText(rec, "author", in.Author, &b.Author); err != nil {
		return nil, err
	}
	if err := setText(rec, "genre", in.Genre, &b.Genre); err != nil {
		return nil, err
	}
	if err := setText(rec, "isbn", in.ISBN, &b.ISBN); err != nil {
		return nil, err
	}
	if in.TotalCopies != nil {
		b.TotalCopies = *in.TotalCopies
		rec["total_copies"] = b.TotalCopies
	}
	if in.AvailableCopies != nil {
		b.AvailableCopies = *in.AvailableCopies
		rec["available_copies"] = b.AvailableCopies
	}
	if in.ImageURL != nil {
		b.ImageURL = in.ImageURL
		rec["image_url"] = *in.ImageURL
	}
	if err := validCopies(b.AvailableCopies, b.TotalCopies); err != nil {
		return nil, err
	}
	return rec, nil
}

func validCopies(available, total int) error {
	if available < 0 || total < 0 || available > total {
		return ErrInvalidCopies
	}
	return nil
}

func setText(rec goqu.Record, col string, v *string, dst *string) error {
	if v == nil {
		return nil
	}
	if blank(*v) {
		return ErrEmptyField
	}
	*dst = strings.TrimSpace(*v)
	rec[col] = *dst
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
