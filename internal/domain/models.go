package domain

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Icon      string `db:"icon"`
	SortOrder int    `db:"sort_order"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
}

type Product struct {
	ID          string  `db:"id"`
	CategoryID  string  `db:"category_id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	Stock       int     `db:"stock"`
	Active      bool    `db:"active"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// Option is an add-on belonging to exactly one product. Its price is additive;
// placed orders snapshot name and price instead of referencing the row.
type Option struct {
	ID        string  `db:"id"`
	ProductID string  `db:"product_id"`
	Name      string  `db:"name"`
	Price     float64 `db:"price"`
}

// CartLine is one row of a user's in-progress cart, one per distinct product.
type CartLine struct {
	UserID    int64  `db:"user_id"`
	ProductID string `db:"product_id"`
	Qty       int    `db:"qty"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Store is a pickup location in the carrier directory.
type Store struct {
	Code    string `db:"code"`
	Name    string `db:"name"`
	Carrier string `db:"carrier"`
	Active  bool   `db:"active"`
}
