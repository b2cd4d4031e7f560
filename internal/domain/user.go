package domain

// User is a chat-platform account we have seen at least once. Operators are
// flagged here in addition to the configured operator id list.
type User struct {
	ID         int64  `db:"id"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Operator   bool   `db:"operator"`
	CreatedAt  string `db:"created_at"`
	LastActive string `db:"last_active"`
}
