package catalog

type StoreBook struct {
	ID       int64   `db:"id" json:"id"`
	Title    string  `db:"title" json:"title"`
	Author   string  `db:"author" json:"author"`
	Genre    string  `db:"genre" json:"genre"`
	ISBN     string  `db:"isbn" json:"isbn"`
	Price    float64 `db:"price" json:"price"`
	Stock    int     `db:"stock" json:"stock"`
	ImageURL *string `db:"image_url" json:"image_url"`
}

type LibraryBook struct {
	ID              int64   `db:"id" json:"id"`
	Title           string  `db:"title" json:"title"`
	Author          string  `db:"author" json:"author"`
	Genre           string  `db:"genre" json:"genre"`
	ISBN            string  `db:"isbn" json:"isbn"`
	AvailableCopies int     `db:"available_copies" json:"available_copies"`
	TotalCopies     int     `db:"total_copies" json:"total_copies"`
	ImageURL        *string `db:"image_url" json:"image_url"`
}

type CreateStoreBookInput struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Genre    string   `json:"genre"`
	ISBN     string   `json:"isbn"`
	Price    *float64 `json:"price"`
	Stock    int      `json:"stock"`
	ImageURL *string  `json:"image_url"`
}

// UpdateStoreBookInput lists the only fields an admin may change. Nil means
// "leave as is".
type UpdateStoreBookInput struct {
	Title    *string  `json:"title"`
	Author   *string  `json:"author"`
	Genre    *string  `json:"genre"`
	ISBN     *string  `json:"isbn"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
	ImageURL *string  `json:"image_url"`
}

type CreateLibraryBookInput struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	ISBN            string  `json:"isbn"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies *int    `json:"available_copies"`
	ImageURL        *string `json:"image_url"`
}

type UpdateLibraryBookInput struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Genre           *string `json:"genre"`
	ISBN            *string `json:"isbn"`
	TotalCopies     *int    `json:"total_copies"`
	AvailableCopies *int    `json:"available_copies"`
	ImageURL        *string `json:"image_url"`
}
