package repos

import (
	"shopbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

type StoreRepo struct{ db *sqlx.DB }

func NewStoreRepo(db *sqlx.DB) *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) Get(code string) (domain.Store, error) {
	var s domain.Store
	err := r.db.Get(&s, `SELECT code, name, carrier, active FROM stores WHERE code = ?`, code)
	return s, err
}

func (r *StoreRepo) Save(s domain.Store) error {
	_, err := r.db.Exec(`
	  INSERT INTO stores(code, name, carrier, active) VALUES(?,?,?,?)
	  ON CONFLICT(code) DO UPDATE SET
	    name = excluded.name, carrier = excluded.carrier, active = excluded.active
	`, s.Code, s.Name, s.Carrier, s.Active)
	return err
}
