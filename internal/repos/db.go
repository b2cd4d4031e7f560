package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	// modernc sqlite: a single connection avoids per-conn :memory: databases
	// and keeps write transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates all tables. Idempotent; tests call it on :memory: DBs.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  icon TEXT NOT NULL DEFAULT '',
  sort_order INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL DEFAULT '' ,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

CREATE TABLE IF NOT EXISTS options(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0)
);
CREATE INDEX IF NOT EXISTS idx_options_product ON options(product_id);

CREATE TABLE IF NOT EXISTS cart_lines(
  user_id INTEGER NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS cart_line_options(
  user_id INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  option_id TEXT NOT NULL REFERENCES options(id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, product_id, option_id)
);

CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_no TEXT NOT NULL UNIQUE,
  user_id INTEGER NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  store_code TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  tracking_number TEXT NOT NULL DEFAULT '',
  total NUMERIC NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  confirmed_at TEXT NOT NULL DEFAULT '',
  shipped_at TEXT NOT NULL DEFAULT '',
  arrived_at TEXT NOT NULL DEFAULT '',
  completed_at TEXT NOT NULL DEFAULT '',
  cancelled_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_orders_user    ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status  ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_lines(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  options_json TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (order_id, product_id)
);

CREATE TABLE IF NOT EXISTS stores(
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  carrier TEXT NOT NULL DEFAULT '7-11',
  active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY,
  username TEXT NOT NULL DEFAULT '',
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  operator INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_active TEXT
);
`
	_, err := db.Exec(schema)
	return err
}

// seedIfEmpty inserts a small demo catalog plus a few pickup stores so a fresh
// instance is browsable. Safe to run on every start.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Info().Msg("seeding demo categories/products/stores")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name,icon,sort_order) VALUES
	  ('drinks','Drinks','🧋',1),
	  ('snacks','Snacks','🍪',2),
	  ('goods','Goods','📦',3)`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price,stock) VALUES
	  ('milk-tea','drinks','Milk Tea','Classic black milk tea',60,20),
	  ('lemon-green','drinks','Lemon Green Tea','Fresh squeezed lemon',55,15),
	  ('egg-roll','snacks','Egg Roll Box','Handmade egg rolls, 12 pcs',150,8)`)

	tx.MustExec(`INSERT INTO options(id,product_id,name,price) VALUES
	  ('opt-pearl','milk-tea','Pearls',10),
	  ('opt-large','milk-tea','Large Cup',15),
	  ('opt-large-lg','lemon-green','Large Cup',15)`)

	tx.MustExec(`INSERT INTO stores(code,name,carrier) VALUES
	  ('123456','Songshan Station','7-11'),
	  ('234567','Daan Park','7-11'),
	  ('870012','Shida Road','FamilyMart')`)

	return tx.Commit()
}
