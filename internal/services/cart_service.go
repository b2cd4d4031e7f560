package services

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"shopbot/internal/domain"
	"shopbot/internal/repos"
)

// CartService owns a user's cart lines for the duration of a shopping session.
// Prices are never cached on lines; every read recomputes from the catalog.
type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// AddItem merges qty into the user's line for the product, unioning the
// selected options, and returns the line's new quantity.
func (s *CartService) AddItem(userID int64, productID string, qty int, optionIDs []string) (int, error) {
	if qty < 1 {
		return 0, ErrInvalidQuantity
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrProductInactive
		}
		return 0, fmt.Errorf("load product: %w", err)
	}
	if !p.Active {
		return 0, ErrProductInactive
	}

	current, err := s.Carts.Qty(userID, productID)
	if err != nil {
		return 0, fmt.Errorf("read cart line: %w", err)
	}
	if current+qty > p.Stock {
		return 0, &OutOfStockError{ProductName: p.Name, Available: p.Stock - current}
	}

	// Reject option ids that don't belong to this product.
	if len(optionIDs) > 0 {
		owned, err := s.Prods.OptionsByIDs(productID, optionIDs)
		if err != nil {
			return 0, fmt.Errorf("load options: %w", err)
		}
		if len(owned) != len(optionIDs) {
			return 0, fmt.Errorf("unknown option for %s", p.Name)
		}
	}

	if err := s.Carts.Upsert(userID, productID, qty); err != nil {
		return 0, fmt.Errorf("upsert cart line: %w", err)
	}
	if err := s.Carts.AddOptions(userID, productID, optionIDs); err != nil {
		return 0, fmt.Errorf("save line options: %w", err)
	}
	log.Info().Int64("user_id", userID).Str("product_id", productID).
		Int("qty", current+qty).Msg("cart: item added")
	return current + qty, nil
}

// AdjustQuantity applies delta to a line. The floor is 1: lines leave the cart
// only via RemoveLine, Clear, order commit or the validator.
func (s *CartService) AdjustQuantity(userID int64, productID string, delta int) (int, error) {
	line, err := s.Carts.Line(userID, productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrLineNotFound
		}
		return 0, fmt.Errorf("read cart line: %w", err)
	}
	next := line.Qty + delta
	if next < 1 {
		return line.Qty, ErrInvalidQuantity
	}
	if delta > 0 {
		p, err := s.Prods.Get(productID)
		if err != nil {
			return line.Qty, fmt.Errorf("load product: %w", err)
		}
		if next > p.Stock {
			return line.Qty, &OutOfStockError{ProductName: p.Name, Available: p.Stock - line.Qty}
		}
	}
	if err := s.Carts.SetQty(userID, productID, next); err != nil {
		return line.Qty, fmt.Errorf("set qty: %w", err)
	}
	return next, nil
}

func (s *CartService) RemoveLine(userID int64, productID string) error {
	if _, err := s.Carts.Line(userID, productID); err != nil {
		if err == sql.ErrNoRows {
			return ErrLineNotFound
		}
		return err
	}
	return s.Carts.Remove(userID, productID)
}

func (s *CartService) Clear(userID int64) error {
	return s.Carts.Clear(userID)
}

type CartLineView struct {
	ProductID string
	Name      string
	Qty       int
	UnitPrice float64
	Subtotal  float64
	Options   []domain.Option
}

type CartView struct {
	Lines     []CartLineView
	Total     float64
	ItemCount int
}

// Totals renders the cart against live catalog data. Lines whose product has
// vanished are skipped here; the validator is the one that repairs the cart.
func (s *CartService) Totals(userID int64) (CartView, error) {
	lines, err := s.Carts.Lines(userID)
	if err != nil {
		return CartView{}, fmt.Errorf("read cart: %w", err)
	}
	var cv CartView
	for _, l := range lines {
		p, err := s.Prods.Get(l.ProductID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return CartView{}, fmt.Errorf("load product: %w", err)
		}
		opts, err := s.Carts.LineOptions(userID, l.ProductID)
		if err != nil {
			return CartView{}, fmt.Errorf("load line options: %w", err)
		}
		unit := p.Price
		for _, o := range opts {
			unit += o.Price
		}
		lv := CartLineView{
			ProductID: l.ProductID,
			Name:      p.Name,
			Qty:       l.Qty,
			UnitPrice: unit,
			Subtotal:  unit * float64(l.Qty),
			Options:   opts,
		}
		cv.Lines = append(cv.Lines, lv)
		cv.Total += lv.Subtotal
		cv.ItemCount += l.Qty
	}
	return cv, nil
}
