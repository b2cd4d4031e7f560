package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"shopbot/internal/domain"
	"shopbot/internal/repos"
	"shopbot/internal/services"
	"shopbot/internal/validate"
)

// Router maps updates onto core operations. It also holds the operator-side
// single-field sub-dialogue that collects a tracking number before shipping.
type Router struct {
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Checkout  *services.Checkout
	Selection *services.SelectionStore
	Lifecycle *services.Lifecycle
	Orders    *repos.OrderRepo
	Users     *repos.UserRepo

	OperatorIDs []int64

	mu          sync.Mutex
	pendingShip map[int64]string // operator id -> order id awaiting tracking
	pendingQty  map[int64]string // user id -> product id awaiting a typed quantity
}

func (rt *Router) isOperator(userID int64) bool {
	for _, id := range rt.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Handle processes one update and writes replies through r.
func (rt *Router) Handle(u Update, r Replyer) error {
	if rt.Users != nil {
		if err := rt.Users.Touch(domain.User{
			ID: u.UserID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
		}); err != nil {
			log.Warn().Err(err).Int64("user_id", u.UserID).Msg("user touch failed")
		}
	}
	if u.Callback != "" {
		return rt.handleCallback(u, r)
	}
	return rt.handleText(u, ForMessage(r))
}

func (rt *Router) handleText(u Update, r Replyer) error {
	text := strings.TrimSpace(u.Text)
	switch {
	case text == "/start" || text == "/help":
		return r.Reply("Welcome! /browse to shop, /cart to review, /checkout to order, /orders for history.")
	case text == "/browse":
		return rt.showCategories(r)
	case text == "/cart":
		return rt.showCart(u.UserID, r)
	case text == "/checkout":
		return rt.startCheckout(u.UserID, r)
	case text == "/cancel":
		if rt.Checkout.Cancel(u.UserID) {
			return r.Reply("Checkout cancelled. Your cart is unchanged.")
		}
		return r.Reply("Nothing to cancel.")
	case text == "/orders":
		return rt.showOrders(u.UserID, r)
	}

	// Operator entering a tracking number for a pending shipment.
	if rt.isOperator(u.UserID) {
		rt.mu.Lock()
		orderID, waiting := rt.pendingShip[u.UserID]
		if waiting {
			delete(rt.pendingShip, u.UserID)
		}
		rt.mu.Unlock()
		if waiting {
			return rt.ship(u.UserID, orderID, text, r)
		}
	}

	// A typed quantity for a cart line the user asked to change.
	rt.mu.Lock()
	productID, typing := rt.pendingQty[u.UserID]
	if typing {
		delete(rt.pendingQty, u.UserID)
	}
	rt.mu.Unlock()
	if typing {
		return rt.setQty(u.UserID, productID, text, r)
	}

	// Free text while a checkout dialogue is open feeds the dialogue.
	if _, active := rt.Checkout.Active(u.UserID); active {
		return rt.checkoutInput(u.UserID, text, r)
	}
	return r.Reply("I didn't understand that. Try /help.")
}

func (rt *Router) handleCallback(u Update, r Replyer) error {
	data := u.Callback
	switch {
	case data == "CATEGORIES":
		return rt.showCategories(r)
	case data == "VIEW_CART":
		return rt.showCart(u.UserID, r)
	case data == "CLEAR_CART":
		if err := rt.Cart.Clear(u.UserID); err != nil {
			return rt.fail(r, err)
		}
		return r.EditOrReply("Cart cleared.")
	case data == "START_CHECKOUT":
		return rt.startCheckout(u.UserID, r)
	case strings.HasPrefix(data, "CAT_"):
		return rt.showProducts(strings.TrimPrefix(data, "CAT_"), r)
	case strings.HasPrefix(data, "PROD_"):
		return rt.showProduct(u.UserID, strings.TrimPrefix(data, "PROD_"), r)
	case strings.HasPrefix(data, "OPT_"):
		return rt.toggleOption(u.UserID, strings.TrimPrefix(data, "OPT_"), r)
	case strings.HasPrefix(data, "ADD_"):
		return rt.addToCart(u.UserID, strings.TrimPrefix(data, "ADD_"), r)
	case strings.HasPrefix(data, "CART_INC_"):
		return rt.adjust(u.UserID, strings.TrimPrefix(data, "CART_INC_"), +1, r)
	case strings.HasPrefix(data, "CART_DEC_"):
		return rt.adjust(u.UserID, strings.TrimPrefix(data, "CART_DEC_"), -1, r)
	case strings.HasPrefix(data, "CART_QTY_"):
		rt.mu.Lock()
		if rt.pendingQty == nil {
			rt.pendingQty = make(map[int64]string)
		}
		rt.pendingQty[u.UserID] = strings.TrimPrefix(data, "CART_QTY_")
		rt.mu.Unlock()
		return r.Reply("Enter the quantity (1-99):")
	case strings.HasPrefix(data, "ORDER_"):
		return rt.showOrder(u.UserID, strings.TrimPrefix(data, "ORDER_"), r)
	case strings.HasPrefix(data, "CART_DEL_"):
		if err := rt.Cart.RemoveLine(u.UserID, strings.TrimPrefix(data, "CART_DEL_")); err != nil {
			return rt.fail(r, err)
		}
		return rt.showCart(u.UserID, r)
	case strings.HasPrefix(data, "SHIP_") && rt.isOperator(u.UserID):
		orderID := strings.TrimPrefix(data, "SHIP_")
		rt.mu.Lock()
		if rt.pendingShip == nil {
			rt.pendingShip = make(map[int64]string)
		}
		rt.pendingShip[u.UserID] = orderID
		rt.mu.Unlock()
		return r.Reply("Enter the tracking number:")
	case strings.HasPrefix(data, "SET_") && rt.isOperator(u.UserID):
		return rt.setStatus(strings.TrimPrefix(data, "SET_"), r)
	}
	return r.Reply("That button is no longer valid.")
}

func (rt *Router) showCategories(r Replyer) error {
	cats, err := rt.Catalog.ListCategories()
	if err != nil {
		return rt.fail(r, err)
	}
	if len(cats) == 0 {
		return r.EditOrReply("The shop is empty right now.")
	}
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "%s %s  [CAT_%s]\n", c.Icon, c.Name, c.ID)
	}
	return r.EditOrReply(b.String())
}

func (rt *Router) showProducts(catID string, r Replyer) error {
	prods, err := rt.Catalog.ListProducts(catID, 1, 10)
	if err != nil {
		return rt.fail(r, err)
	}
	if len(prods) == 0 {
		return r.EditOrReply("No products in this category.")
	}
	var b strings.Builder
	for _, p := range prods {
		fmt.Fprintf(&b, "%s — $%.0f", p.Name, p.Price)
		if p.Stock == 0 {
			b.WriteString(" (sold out)")
		}
		fmt.Fprintf(&b, "  [PROD_%s]\n", p.ID)
	}
	return r.EditOrReply(b.String())
}

func (rt *Router) showProduct(userID int64, productID string, r Replyer) error {
	p, err := rt.Catalog.GetProduct(productID)
	if err != nil {
		return r.EditOrReply("This item is no longer available.")
	}
	opts, err := rt.Catalog.ProductOptions(productID)
	if err != nil {
		return rt.fail(r, err)
	}
	selected := rt.Selection.Selected(userID, productID)
	on := make(map[string]bool, len(selected))
	for _, id := range selected {
		on[id] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s — $%.0f\n%s\nStock: %d\n", p.Name, p.Price, p.Description, p.Stock)
	for _, o := range opts {
		mark := "○"
		if on[o.ID] {
			mark = "●"
		}
		fmt.Fprintf(&b, "%s %s +$%.0f  [OPT_%s:%s]\n", mark, o.Name, o.Price, p.ID, o.ID)
	}
	fmt.Fprintf(&b, "[ADD_%s] to add 1 to your cart", p.ID)
	return r.EditOrReply(b.String())
}

func (rt *Router) toggleOption(userID int64, data string, r Replyer) error {
	productID, optionID, ok := strings.Cut(data, ":")
	if !ok {
		return r.Reply("That button is no longer valid.")
	}
	rt.Selection.Toggle(userID, productID, optionID)
	return rt.showProduct(userID, productID, r)
}

func (rt *Router) addToCart(userID int64, productID string, r Replyer) error {
	if _, ok := validate.ID(productID); !ok {
		return r.Reply("That button is no longer valid.")
	}
	opts := rt.Selection.Selected(userID, productID)
	qty, err := rt.Cart.AddItem(userID, productID, 1, opts)
	if err != nil {
		return rt.fail(r, err)
	}
	rt.Selection.Clear(userID, productID)
	return r.EditOrReply(fmt.Sprintf("Added to cart (%d in line). /cart to review.", qty))
}

// setQty applies a typed quantity to an existing line.
func (rt *Router) setQty(userID int64, productID, text string, r Replyer) error {
	n, ok := validate.Qty(text)
	if !ok {
		rt.mu.Lock()
		rt.pendingQty[userID] = productID
		rt.mu.Unlock()
		return r.Reply("Quantities are 1-99. Try again:")
	}
	cv, err := rt.Cart.Totals(userID)
	if err != nil {
		return rt.fail(r, err)
	}
	for _, l := range cv.Lines {
		if l.ProductID != productID {
			continue
		}
		if delta := n - l.Qty; delta != 0 {
			if _, err := rt.Cart.AdjustQuantity(userID, productID, delta); err != nil {
				return rt.fail(r, err)
			}
		}
		return rt.showCart(userID, r)
	}
	return rt.fail(r, services.ErrLineNotFound)
}

func (rt *Router) adjust(userID int64, productID string, delta int, r Replyer) error {
	if _, err := rt.Cart.AdjustQuantity(userID, productID, delta); err != nil {
		return rt.fail(r, err)
	}
	return rt.showCart(userID, r)
}

func (rt *Router) showCart(userID int64, r Replyer) error {
	cv, err := rt.Cart.Totals(userID)
	if err != nil {
		return rt.fail(r, err)
	}
	if len(cv.Lines) == 0 {
		return r.EditOrReply("Your cart is empty. /browse to shop.")
	}
	return r.EditOrReply(renderCart(cv))
}

func (rt *Router) startCheckout(userID int64, r Replyer) error {
	step, err := rt.Checkout.Start(userID)
	if err != nil {
		return rt.fail(r, err)
	}
	return r.Reply(fmt.Sprintf(
		"Checkout — total $%.0f\nStep 1/3: enter your name (2-20 letters).\nSend /cancel anytime to stop.",
		step.Total))
}

func (rt *Router) checkoutInput(userID int64, text string, r Replyer) error {
	step, err := rt.Checkout.Input(userID, text)
	if err != nil {
		return rt.fail(r, err)
	}
	if step.Reprompt != "" {
		return r.Reply(step.Reprompt)
	}
	switch {
	case step.Done:
		return r.Reply(renderReceipt(step))
	case step.State == services.StatePhone:
		return r.Reply(fmt.Sprintf("Name: %s\nStep 2/3: enter your mobile number (09XXXXXXXX).", step.Name))
	case step.State == services.StateStore:
		return r.Reply(fmt.Sprintf("Phone: %s\nStep 3/3: enter the 6-digit pickup store code.", step.Phone))
	}
	return nil
}

func (rt *Router) showOrders(userID int64, r Replyer) error {
	orders, err := rt.Orders.ListByUser(userID)
	if err != nil {
		return rt.fail(r, err)
	}
	if len(orders) == 0 {
		return r.Reply("You have no orders yet.")
	}
	var b strings.Builder
	for _, o := range orders {
		fmt.Fprintf(&b, "%s — %s — $%.0f  [ORDER_%s]\n", o.OrderNo, o.Status.Label(), o.Total, o.ID)
	}
	return r.Reply(b.String())
}

func (rt *Router) showOrder(userID int64, orderID string, r Replyer) error {
	o, lines, err := rt.Orders.Get(orderID)
	if err != nil || o.UserID != userID {
		return r.EditOrReply("Order not found.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s — %s\n", o.OrderNo, o.Status.Label())
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "Tracking: %s\n", o.TrackingNumber)
	}
	b.WriteString("\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s  $%.0f × %d = $%.0f\n", l.ProductName, l.UnitPrice, l.Qty, l.UnitPrice*float64(l.Qty))
	}
	fmt.Fprintf(&b, "\nTotal: $%.0f\nPickup store: %s", o.Total, o.StoreCode)
	return r.EditOrReply(b.String())
}

func (rt *Router) ship(operatorID int64, orderID, text string, r Replyer) error {
	tracking, ok := validate.Tracking(text)
	if !ok {
		// Re-arm the sub-dialogue so the operator can correct the input.
		rt.mu.Lock()
		rt.pendingShip[operatorID] = orderID
		rt.mu.Unlock()
		return r.Reply("Tracking numbers are 5-30 letters/digits. Try again:")
	}
	o, err := rt.Lifecycle.SetStatus(orderID, domain.StatusShipped, tracking)
	if err != nil {
		return rt.fail(r, err)
	}
	return r.Reply(fmt.Sprintf("Order %s marked shipped, customer notified.", o.OrderNo))
}

// setStatus handles SET_<orderID>_<STATUS> operator buttons.
func (rt *Router) setStatus(data string, r Replyer) error {
	i := strings.LastIndex(data, "_")
	if i <= 0 {
		return r.Reply("That button is no longer valid.")
	}
	orderID, status := data[:i], domain.OrderStatus(data[i+1:])
	o, err := rt.Lifecycle.SetStatus(orderID, status, "")
	if err != nil {
		return rt.fail(r, err)
	}
	return r.Reply(fmt.Sprintf("Order %s is now %s.", o.OrderNo, o.Status.Label()))
}

// fail translates core errors into user-facing text.
func (rt *Router) fail(r Replyer, err error) error {
	var oos *services.OutOfStockError
	var issues *services.CartIssuesError
	switch {
	case errors.As(err, &issues):
		var b strings.Builder
		b.WriteString("Your cart changed while you were away:\n")
		for _, is := range issues.Issues {
			fmt.Fprintf(&b, "• %s\n", is.Message)
		}
		b.WriteString("Checkout was stopped — please review your cart and try again.")
		return r.Reply(b.String())
	case errors.As(err, &oos):
		return r.Reply(oos.Error())
	case errors.Is(err, services.ErrProductInactive),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrNoCheckout),
		errors.Is(err, services.ErrCheckoutExpired),
		errors.Is(err, services.ErrCommitFailed),
		errors.Is(err, services.ErrTrackingRequired),
		errors.Is(err, services.ErrStatusUnchanged),
		errors.Is(err, services.ErrInvalidTransition):
		return r.Reply(err.Error())
	}
	log.Error().Err(err).Msg("chat: unhandled error")
	return r.Reply("Something went wrong. Please try again.")
}

func renderCart(cv services.CartView) string {
	var b strings.Builder
	b.WriteString("Your cart:\n")
	for _, l := range cv.Lines {
		fmt.Fprintf(&b, "• %s  $%.0f × %d = $%.0f\n", l.Name, l.UnitPrice, l.Qty, l.Subtotal)
		if len(l.Options) > 0 {
			names := make([]string, 0, len(l.Options))
			for _, o := range l.Options {
				names = append(names, o.Name)
			}
			fmt.Fprintf(&b, "   options: %s\n", strings.Join(names, ", "))
		}
		fmt.Fprintf(&b, "   [CART_INC_%s] [CART_DEC_%s] [CART_QTY_%s] [CART_DEL_%s]\n",
			l.ProductID, l.ProductID, l.ProductID, l.ProductID)
	}
	fmt.Fprintf(&b, "\n%d item(s) — total $%.0f\n/checkout to order", cv.ItemCount, cv.Total)
	return b.String()
}

func renderReceipt(step *services.Step) string {
	o := step.Order.Order
	var b strings.Builder
	fmt.Fprintf(&b, "Order placed!\n\nOrder no: %s\nName: %s\nPhone: %s\n", o.OrderNo, o.CustomerName, o.CustomerPhone)
	if step.StoreName != "" {
		fmt.Fprintf(&b, "Store: %s (%s)\n", step.StoreName, o.StoreCode)
	} else {
		fmt.Fprintf(&b, "Store: %s\n", o.StoreCode)
	}
	fmt.Fprintf(&b, "Total: $%.0f\n\nPlease pick up and pay within 24 hours. Thank you!", o.Total)
	return b.String()
}
