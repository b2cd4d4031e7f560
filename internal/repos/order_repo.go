package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"shopbot/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) Begin() (*sqlx.Tx, error) { return r.db.Beginx() }

// InsertHeader writes the order row inside the commit transaction. A UNIQUE
// violation on order_no surfaces as an error for the caller to retry on.
func (r *OrderRepo) InsertHeader(tx *sqlx.Tx, o domain.Order) error {
	_, err := tx.Exec(`
	  INSERT INTO orders(id, order_no, user_id, customer_name, customer_phone,
	                     store_code, status, tracking_number, total, created_at)
	  VALUES(?,?,?,?,?,?,?,'',?,?)
	`, o.ID, o.OrderNo, o.UserID, o.CustomerName, o.CustomerPhone,
		o.StoreCode, string(o.Status), o.Total, o.CreatedAt)
	return err
}

func (r *OrderRepo) InsertLine(tx *sqlx.Tx, l domain.OrderLine) error {
	_, err := tx.Exec(`
	  INSERT INTO order_lines(order_id, product_id, product_name, qty, unit_price, options_json)
	  VALUES(?,?,?,?,?,?)
	`, l.OrderID, l.ProductID, l.ProductName, l.Qty, l.UnitPrice, l.OptionsJSON)
	return err
}

// DecrementStock subtracts qty only while enough active stock remains. A false
// return means the guarded update matched no row (sold out or deactivated).
func (r *OrderRepo) DecrementStock(tx *sqlx.Tx, productID string, qty int) (bool, error) {
	res, err := tx.Exec(`
	  UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND active = 1 AND stock >= ?
	`, qty, productID, qty)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *OrderRepo) ClearCart(tx *sqlx.Tx, userID int64) error {
	if _, err := tx.Exec(`DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM cart_line_options WHERE user_id = ?`, userID)
	return err
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderLine, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT * FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	lines, err := r.lines(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, lines, nil
}

func (r *OrderRepo) GetByNo(orderNo string) (domain.Order, []domain.OrderLine, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT * FROM orders WHERE order_no = ?`, orderNo); err != nil {
		return domain.Order{}, nil, err
	}
	lines, err := r.lines(o.ID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, lines, nil
}

func (r *OrderRepo) lines(orderID string) ([]domain.OrderLine, error) {
	var out []domain.OrderLine
	err := r.db.Select(&out, `
	  SELECT order_id, product_id, product_name, qty, unit_price, options_json
	  FROM order_lines
	  WHERE order_id = ?
	  ORDER BY product_name
	`, orderID)
	return out, err
}

func (r *OrderRepo) ListByUser(userID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT * FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT * FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) ListByStatus(status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT * FROM orders
	  WHERE status = ?
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, string(status), limit)
	return out, err
}

// statusStampCol maps each status to its transition-timestamp column.
var statusStampCol = map[domain.OrderStatus]string{
	domain.StatusConfirmed: "confirmed_at",
	domain.StatusShipped:   "shipped_at",
	domain.StatusArrived:   "arrived_at",
	domain.StatusCompleted: "completed_at",
	domain.StatusCancelled: "cancelled_at",
}

// UpdateStatus sets the new status, stamps its timestamp column and stores the
// tracking number when one is supplied. The update is guarded on the status the
// caller observed; a false return means another update won the race.
func (r *OrderRepo) UpdateStatus(orderID string, status domain.OrderStatus, tracking string, from domain.OrderStatus) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	q := `UPDATE orders SET status = ?`
	args := []any{string(status)}
	if col, ok := statusStampCol[status]; ok {
		q += `, ` + col + ` = ?`
		args = append(args, now)
	}
	if tracking != "" {
		q += `, tracking_number = ?`
		args = append(args, tracking)
	}
	q += ` WHERE id = ? AND status = ?`
	args = append(args, orderID, string(from))
	res, err := r.db.Exec(q, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
