package services

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"shopbot/internal/repos"
	"shopbot/internal/validate"
)

type CheckoutState string

const (
	StateName  CheckoutState = "COLLECT_NAME"
	StatePhone CheckoutState = "COLLECT_PHONE"
	StateStore CheckoutState = "COLLECT_STORE"
)

var (
	ErrNoCheckout      = errors.New("no checkout in progress")
	ErrCheckoutExpired = errors.New("checkout expired, please start again")
)

type checkoutSession struct {
	State    CheckoutState
	Name     string
	Phone    string
	Deadline time.Time
}

// Step is what the presentation layer renders after each dialogue turn.
type Step struct {
	State CheckoutState // state to prompt for next; empty once Done
	Done  bool

	Total     float64 // cart total, set on entry
	Reprompt  string  // non-empty when the last input was rejected
	Name      string  // accepted fields echoed back
	Phone     string
	StoreName string // pickup store name when the code matched the directory

	Order *OrderView // set when the commit succeeded
}

// Checkout drives the strictly ordered name → phone → store dialogue. State
// is an explicit per-user record with an idle deadline; entering the dialogue
// always resets it, so fields never leak between attempts.
type Checkout struct {
	Cart   *CartService
	Valid  *Validator
	Orders *OrderService
	Stores *repos.StoreRepo // optional

	TTL time.Duration
	Now func() time.Time

	mu       sync.Mutex
	sessions map[int64]*checkoutSession
}

func NewCheckout(cart *CartService, valid *Validator, orders *OrderService, ttl time.Duration) *Checkout {
	return &Checkout{
		Cart:     cart,
		Valid:    valid,
		Orders:   orders,
		TTL:      ttl,
		Now:      time.Now,
		sessions: make(map[int64]*checkoutSession),
	}
}

// Start opens the dialogue: the cart must be non-empty and pass the validator.
// Validator issues abort entry and surface as *CartIssuesError.
func (c *Checkout) Start(userID int64) (*Step, error) {
	issues, err := c.Valid.Validate(userID)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &CartIssuesError{Issues: issues}
	}
	cv, err := c.Cart.Totals(userID)
	if err != nil {
		return nil, err
	}
	if len(cv.Lines) == 0 {
		return nil, ErrCartEmpty
	}

	c.mu.Lock()
	c.sessions[userID] = &checkoutSession{
		State:    StateName,
		Deadline: c.Now().Add(c.TTL),
	}
	c.mu.Unlock()

	log.Info().Int64("user_id", userID).Float64("total", cv.Total).Msg("checkout started")
	return &Step{State: StateName, Total: cv.Total}, nil
}

// Active reports whether a dialogue record exists for the user. Expired
// records still count: the next Input surfaces the expiry to the user and
// discards them, so expiry reads differently from never having started.
func (c *Checkout) Active(userID int64) (CheckoutState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[userID]
	if !ok {
		return "", false
	}
	return sess.State, true
}

// Cancel terminates the dialogue, discarding collected fields. The cart is
// untouched. Returns false when nothing was in progress.
func (c *Checkout) Cancel(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[userID]; !ok {
		return false
	}
	delete(c.sessions, userID)
	return true
}

// Input feeds one user message into the dialogue. Malformed input re-prompts
// the same state and mutates nothing. A successful store code triggers the
// commit; commit-time validator issues or stock errors terminate the dialogue
// with the cart left for the user to re-confirm.
func (c *Checkout) Input(userID int64, text string) (*Step, error) {
	c.mu.Lock()
	sess, ok := c.sessions[userID]
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoCheckout
	}
	if c.Now().After(sess.Deadline) {
		delete(c.sessions, userID)
		c.mu.Unlock()
		return nil, ErrCheckoutExpired
	}
	sess.Deadline = c.Now().Add(c.TTL)
	state := sess.State
	c.mu.Unlock()

	switch state {
	case StateName:
		name, ok := validate.CustomerName(text)
		if !ok {
			return &Step{State: StateName, Reprompt: "Please enter your real name, 2-20 letters."}, nil
		}
		c.mu.Lock()
		sess.Name = name
		sess.State = StatePhone
		c.mu.Unlock()
		return &Step{State: StatePhone, Name: name}, nil

	case StatePhone:
		phone, ok := validate.Phone(text)
		if !ok {
			return &Step{State: StatePhone, Reprompt: "Please enter a mobile number like 09XXXXXXXX."}, nil
		}
		c.mu.Lock()
		sess.Phone = phone
		sess.State = StateStore
		c.mu.Unlock()
		return &Step{State: StateStore, Phone: phone}, nil

	case StateStore:
		code, ok := validate.StoreCode(text)
		if !ok {
			return &Step{State: StateStore, Reprompt: "Please enter the 6-digit pickup store code."}, nil
		}
		return c.commit(userID, sess, code)
	}
	return nil, ErrNoCheckout
}

func (c *Checkout) commit(userID int64, sess *checkoutSession, storeCode string) (*Step, error) {
	fields := CheckoutFields{Name: sess.Name, Phone: sess.Phone, StoreCode: storeCode}

	view, err := c.Orders.Commit(userID, fields)

	// Whatever happened, this attempt is over; a retry starts clean.
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	step := &Step{Done: true, Name: fields.Name, Phone: fields.Phone, Order: view}
	if c.Stores != nil {
		if st, err := c.Stores.Get(storeCode); err == nil {
			step.StoreName = st.Name
		} else if err != sql.ErrNoRows {
			log.Warn().Err(err).Str("store_code", storeCode).Msg("store lookup failed")
		}
	}
	return step, nil
}
