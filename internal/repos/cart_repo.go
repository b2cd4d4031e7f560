package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"shopbot/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Line returns a user's cart line for a product, or sql.ErrNoRows.
func (r *CartRepo) Line(userID int64, productID string) (domain.CartLine, error) {
	var l domain.CartLine
	err := r.db.Get(&l, `
	  SELECT user_id, product_id, qty, created_at, COALESCE(updated_at,'') AS updated_at
	  FROM cart_lines
	  WHERE user_id = ? AND product_id = ?
	`, userID, productID)
	return l, err
}

func (r *CartRepo) Lines(userID int64) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := r.db.Select(&out, `
	  SELECT user_id, product_id, qty, created_at, COALESCE(updated_at,'') AS updated_at
	  FROM cart_lines
	  WHERE user_id = ?
	  ORDER BY created_at
	`, userID)
	return out, err
}

// Upsert merges qty into the existing line for (user, product) or creates it.
func (r *CartRepo) Upsert(userID int64, productID string, qty int) error {
	_, err := r.db.Exec(`
	  INSERT INTO cart_lines(user_id, product_id, qty, created_at)
	  VALUES(?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(user_id, product_id) DO UPDATE
	  SET qty = cart_lines.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, userID, productID, qty)
	return err
}

func (r *CartRepo) SetQty(userID int64, productID string, qty int) error {
	_, err := r.db.Exec(`
	  UPDATE cart_lines SET qty = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE user_id = ? AND product_id = ?
	`, qty, userID, productID)
	return err
}

func (r *CartRepo) Remove(userID int64, productID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_lines WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`DELETE FROM cart_line_options WHERE user_id = ? AND product_id = ?`, userID, productID)
	return err
}

func (r *CartRepo) Clear(userID int64) error {
	if _, err := r.db.Exec(`DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM cart_line_options WHERE user_id = ?`, userID)
	return err
}

// AddOptions unions option ids into the line's selected set.
func (r *CartRepo) AddOptions(userID int64, productID string, optionIDs []string) error {
	for _, oid := range optionIDs {
		if _, err := r.db.Exec(`
		  INSERT INTO cart_line_options(user_id, product_id, option_id)
		  VALUES(?,?,?)
		  ON CONFLICT(user_id, product_id, option_id) DO NOTHING
		`, userID, productID, oid); err != nil {
			return err
		}
	}
	return nil
}

// LineOptions resolves the selected options of a line against live option rows.
// Options deleted from the catalog since selection simply drop out.
func (r *CartRepo) LineOptions(userID int64, productID string) ([]domain.Option, error) {
	var out []domain.Option
	err := r.db.Select(&out, `
	  SELECT o.id, o.product_id, o.name, o.price
	  FROM cart_line_options clo
	  JOIN options o ON o.id = clo.option_id
	  WHERE clo.user_id = ? AND clo.product_id = ?
	  ORDER BY o.name
	`, userID, productID)
	return out, err
}

// Qty is a convenience for stock-headroom checks; missing line reads as 0.
func (r *CartRepo) Qty(userID int64, productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT qty FROM cart_lines WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}
