package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"shopbot/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, category_id, name, description, price, stock, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE id = ?
	`, id)
	return p, err
}

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT id, category_id, name, description, price, stock, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE category_id = ? AND active = 1
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

// Options returns the add-ons attached to a product.
func (r *ProductRepo) Options(productID string) ([]domain.Option, error) {
	var out []domain.Option
	err := r.db.Select(&out, `
	  SELECT id, product_id, name, price
	  FROM options
	  WHERE product_id = ?
	  ORDER BY name
	`, productID)
	return out, err
}

func (r *ProductRepo) OptionsByIDs(productID string, ids []string) ([]domain.Option, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`
	  SELECT id, product_id, name, price
	  FROM options
	  WHERE product_id = ? AND id IN (?)
	  ORDER BY name
	`, productID, ids)
	if err != nil {
		return nil, err
	}
	var out []domain.Option
	err = r.db.Select(&out, r.db.Rebind(q), args...)
	return out, err
}

func (r *ProductRepo) Save(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, category_id, name, description, price, stock, active, created_at, updated_at)
	  VALUES(?,?,?,?,?,?,?,CURRENT_TIMESTAMP,NULL)
	  ON CONFLICT(id) DO UPDATE SET
	    category_id = excluded.category_id,
	    name        = excluded.name,
	    description = excluded.description,
	    price       = excluded.price,
	    stock       = excluded.stock,
	    active      = excluded.active,
	    updated_at  = CURRENT_TIMESTAMP
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.Active)
	return err
}

func (r *ProductRepo) SetActive(id string, active bool) error {
	_, err := r.db.Exec(`UPDATE products SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *ProductRepo) SetStock(id string, stock int) error {
	_, err := r.db.Exec(`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		stock, time.Now().UTC().Format(time.RFC3339), id)
	return err
}
