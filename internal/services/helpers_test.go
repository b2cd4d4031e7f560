package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shopbot/internal/domain"
	"shopbot/internal/repos"
	"shopbot/internal/services"
)

type env struct {
	db *sqlx.DB

	carts  *repos.CartRepo
	prods  *repos.ProductRepo
	orders *repos.OrderRepo
	stores *repos.StoreRepo

	cart     *services.CartService
	valid    *services.Validator
	orderSvc *services.OrderService
	checkout *services.Checkout
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// one connection so every query sees the same :memory: database
	db.SetMaxOpenConns(1)
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:     db,
		carts:  repos.NewCartRepo(db),
		prods:  repos.NewProductRepo(db),
		orders: repos.NewOrderRepo(db),
		stores: repos.NewStoreRepo(db),
	}
	e.cart = services.NewCartService(e.carts, e.prods)
	e.valid = services.NewValidator(e.carts, e.prods)
	e.orderSvc = services.NewOrderService(e.orders, e.carts, e.prods, e.valid)
	e.checkout = services.NewCheckout(e.cart, e.valid, e.orderSvc, 10*time.Minute)
	e.checkout.Stores = e.stores
	return e
}

func (e *env) seedProduct(t *testing.T, id string, price float64, stock int) {
	t.Helper()
	err := e.prods.Save(domain.Product{
		ID: id, CategoryID: "cat", Name: id, Price: price, Stock: stock, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (e *env) seedOption(t *testing.T, id, productID, name string, price float64) {
	t.Helper()
	e.db.MustExec(`INSERT INTO options(id, product_id, name, price) VALUES(?,?,?,?)`,
		id, productID, name, price)
}

func (e *env) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := e.prods.Get(productID)
	if err != nil {
		t.Fatal(err)
	}
	return p.Stock
}

func (e *env) orderCount(t *testing.T) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	return n
}

// captureNotifier records deliveries and can be told to fail for given users.
type captureNotifier struct {
	mu      sync.Mutex
	msgs    map[int64][]string
	failFor map[int64]error
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{msgs: make(map[int64][]string), failFor: make(map[int64]error)}
}

func (n *captureNotifier) Notify(userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[userID]; err != nil {
		return err
	}
	n.msgs[userID] = append(n.msgs[userID], text)
	return nil
}

func (n *captureNotifier) sent(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs[userID]...)
}
