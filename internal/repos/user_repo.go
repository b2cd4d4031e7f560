package repos

import (
	"shopbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Touch upserts a chat user and refreshes last_active. Called on every update.
func (r *UserRepo) Touch(u domain.User) error {
	_, err := r.db.Exec(`
	  INSERT INTO users(id, username, first_name, last_name, last_active)
	  VALUES(?,?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO UPDATE SET
	    username = excluded.username,
	    first_name = excluded.first_name,
	    last_name = excluded.last_name,
	    last_active = CURRENT_TIMESTAMP
	`, u.ID, u.Username, u.FirstName, u.LastName)
	return err
}

func (r *UserRepo) Get(id int64) (domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `
	  SELECT id, username, first_name, last_name, operator,
	         created_at, COALESCE(last_active,'') AS last_active
	  FROM users WHERE id = ?
	`, id)
	return u, err
}

// AllIDs is the broadcast fan-out target list.
func (r *UserRepo) AllIDs() ([]int64, error) {
	var out []int64
	err := r.db.Select(&out, `SELECT id FROM users ORDER BY id`)
	return out, err
}
