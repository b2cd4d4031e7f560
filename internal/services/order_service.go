package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"shopbot/internal/domain"
	"shopbot/internal/events"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
)

// CheckoutFields are the dialogue-collected customer fields.
type CheckoutFields struct {
	Name      string
	Phone     string
	StoreCode string
}

type OrderView struct {
	Order domain.Order
	Lines []domain.OrderLine
}

// OrderService converts a validated cart plus checkout fields into an
// immutable order, all-or-nothing inside one transaction.
type OrderService struct {
	Orders *repos.OrderRepo
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	Valid  *Validator

	Bus         events.Publisher   // optional
	Operators   *notify.Broadcaster // optional
	OperatorIDs []int64
}

func NewOrderService(orders *repos.OrderRepo, carts *repos.CartRepo, prods *repos.ProductRepo, valid *Validator) *OrderService {
	return &OrderService{Orders: orders, Carts: carts, Prods: prods, Valid: valid}
}

// Commit places the order. Any failure after order-number generation rolls
// the whole transaction back: no stock decrement without a persisted order.
func (s *OrderService) Commit(userID int64, fields CheckoutFields) (*OrderView, error) {
	// Close the race between "browse cart" and "confirm purchase".
	issues, err := s.Valid.Validate(userID)
	if err != nil {
		return nil, fmt.Errorf("validate cart: %w", err)
	}
	if len(issues) > 0 {
		return nil, &CartIssuesError{Issues: issues}
	}

	lines, err := s.Carts.Lines(userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	// Snapshot products and option selections before entering the tx.
	type pending struct {
		line    domain.CartLine
		product domain.Product
		options []domain.Option
	}
	var items []pending
	for _, l := range lines {
		p, err := s.Prods.Get(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", l.ProductID, err)
		}
		opts, err := s.Carts.LineOptions(userID, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load options %s: %w", l.ProductID, err)
		}
		items = append(items, pending{line: l, product: p, options: opts})
	}

	tx, err := s.Orders.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Guarded read-check-decrement: concurrent commits against the same
	// product cannot both pass, the second sees zero rows affected.
	for _, it := range items {
		ok, err := s.Orders.DecrementStock(tx, it.line.ProductID, it.line.Qty)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return nil, &OutOfStockError{ProductName: it.product.Name}
		}
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		CustomerName:  fields.Name,
		CustomerPhone: fields.Phone,
		StoreCode:     fields.StoreCode,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	for _, it := range items {
		unit := it.product.Price
		for _, o := range it.options {
			unit += o.Price
		}
		order.Total += unit * float64(it.line.Qty)
	}

	// Insert the header, regenerating the order number on the rare collision.
	const maxAttempts = 5
	for attempt := 0; ; attempt++ {
		order.OrderNo = NewOrderNo()
		err = s.Orders.InsertHeader(tx, order)
		if err == nil {
			break
		}
		if attempt+1 < maxAttempts && isOrderNoCollision(err) {
			log.Warn().Str("order_no", order.OrderNo).Msg("order number collision, regenerating")
			continue
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("order header insert failed")
		return nil, ErrCommitFailed
	}

	var view OrderView
	for _, it := range items {
		snaps := make([]domain.OptionSnapshot, 0, len(it.options))
		unit := it.product.Price
		for _, o := range it.options {
			unit += o.Price
			snaps = append(snaps, domain.OptionSnapshot{Name: o.Name, Price: o.Price})
		}
		raw, err := json.Marshal(snaps)
		if err != nil {
			return nil, ErrCommitFailed
		}
		ol := domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   it.line.ProductID,
			ProductName: it.product.Name,
			Qty:         it.line.Qty,
			UnitPrice:   unit,
			OptionsJSON: string(raw),
		}
		if err := s.Orders.InsertLine(tx, ol); err != nil {
			log.Error().Err(err).Str("order_no", order.OrderNo).Msg("order line insert failed")
			return nil, ErrCommitFailed
		}
		view.Lines = append(view.Lines, ol)
	}

	if err := s.Orders.ClearCart(tx, userID); err != nil {
		log.Error().Err(err).Str("order_no", order.OrderNo).Msg("cart clear failed")
		return nil, ErrCommitFailed
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Str("order_no", order.OrderNo).Msg("order commit failed")
		return nil, ErrCommitFailed
	}
	committed = true
	view.Order = order

	log.Info().Str("order_no", order.OrderNo).Int64("user_id", userID).
		Float64("total", order.Total).Int("lines", len(view.Lines)).Msg("order created")

	s.announce(&view)
	return &view, nil
}

// announce publishes the order-created event and alerts the operators.
// Both are best-effort: the order already exists.
func (s *OrderService) announce(v *OrderView) {
	if s.Bus != nil {
		ev := events.OrderCreated{
			OrderNo:       v.Order.OrderNo,
			UserID:        v.Order.UserID,
			CustomerName:  v.Order.CustomerName,
			CustomerPhone: v.Order.CustomerPhone,
			StoreCode:     v.Order.StoreCode,
			Total:         v.Order.Total,
			CreatedAt:     v.Order.CreatedAt,
		}
		for _, l := range v.Lines {
			ev.Lines = append(ev.Lines, events.OrderLine{
				ProductID: l.ProductID, Name: l.ProductName, Qty: l.Qty, UnitPrice: l.UnitPrice,
			})
		}
		if err := s.Bus.Publish(context.Background(), events.RouteOrderCreated, ev); err != nil {
			log.Warn().Err(err).Str("order_no", v.Order.OrderNo).Msg("order event publish failed")
		}
	}
	if s.Operators != nil && len(s.OperatorIDs) > 0 {
		s.Operators.Send(s.OperatorIDs, newOrderAlert(v))
	}
}

func newOrderAlert(v *OrderView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", v.Order.OrderNo)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", v.Order.CustomerName, v.Order.CustomerPhone)
	fmt.Fprintf(&b, "Pickup store: %s\n\n", v.Order.StoreCode)
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "- %s x%d = $%.0f\n", l.ProductName, l.Qty, l.UnitPrice*float64(l.Qty))
	}
	fmt.Fprintf(&b, "\nTotal: $%.0f", v.Order.Total)
	return b.String()
}

func isOrderNoCollision(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE") &&
		strings.Contains(err.Error(), "order_no")
}
