package repos

import (
	"shopbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `
	  SELECT id, name, icon, sort_order, active, created_at
	  FROM categories
	  WHERE active = 1
	  ORDER BY sort_order, name
	`)
	return out, err
}

func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `
	  SELECT id, name, icon, sort_order, active, created_at
	  FROM categories
	  WHERE id = ?
	`, id)
	return c, err
}

func (r *CategoryRepo) Save(c domain.Category) error {
	_, err := r.db.Exec(`
	  INSERT INTO categories(id, name, icon, sort_order, active)
	  VALUES(?,?,?,?,?)
	  ON CONFLICT(id) DO UPDATE SET
	    name = excluded.name, icon = excluded.icon,
	    sort_order = excluded.sort_order, active = excluded.active
	`, c.ID, c.Name, c.Icon, c.SortOrder, c.Active)
	return err
}
