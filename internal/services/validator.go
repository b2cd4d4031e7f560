package services

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"shopbot/internal/repos"
)

type IssueKind string

const (
	IssueDelisted IssueKind = "DELISTED"
	IssueSoldOut  IssueKind = "SOLD_OUT"
	IssueReduced  IssueKind = "REDUCED"
)

// Issue describes one cart adjustment forced by catalog drift.
type Issue struct {
	ProductID   string
	ProductName string
	Kind        IssueKind
	NewQty      int
	Message     string
}

// Validator reconciles carts against the live catalog. It runs before the
// checkout dialogue opens and again right before the order commit; a clean
// second pass with no intervening catalog change returns no issues.
type Validator struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewValidator(carts *repos.CartRepo, prods *repos.ProductRepo) *Validator {
	return &Validator{Carts: carts, Prods: prods}
}

// Validate repairs the user's cart in place and returns the adjustments made.
// Callers in the checkout path must treat a non-empty result as fatal for the
// attempt: show the issues, abort, let the user re-confirm.
func (v *Validator) Validate(userID int64) ([]Issue, error) {
	lines, err := v.Carts.Lines(userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	var issues []Issue
	for _, l := range lines {
		p, err := v.Prods.Get(l.ProductID)
		switch {
		case err == sql.ErrNoRows || (err == nil && !p.Active):
			name := p.Name
			if name == "" {
				name = l.ProductID
			}
			if err := v.Carts.Remove(userID, l.ProductID); err != nil {
				return nil, fmt.Errorf("remove delisted line: %w", err)
			}
			issues = append(issues, Issue{
				ProductID:   l.ProductID,
				ProductName: name,
				Kind:        IssueDelisted,
				Message:     fmt.Sprintf("%s — delisted", name),
			})
		case err != nil:
			return nil, fmt.Errorf("load product: %w", err)
		case p.Stock == 0:
			if err := v.Carts.Remove(userID, l.ProductID); err != nil {
				return nil, fmt.Errorf("remove sold-out line: %w", err)
			}
			issues = append(issues, Issue{
				ProductID:   l.ProductID,
				ProductName: p.Name,
				Kind:        IssueSoldOut,
				Message:     fmt.Sprintf("%s — sold out", p.Name),
			})
		case l.Qty > p.Stock:
			if err := v.Carts.SetQty(userID, l.ProductID, p.Stock); err != nil {
				return nil, fmt.Errorf("clamp line qty: %w", err)
			}
			issues = append(issues, Issue{
				ProductID:   l.ProductID,
				ProductName: p.Name,
				Kind:        IssueReduced,
				NewQty:      p.Stock,
				Message:     fmt.Sprintf("%s — reduced to %d", p.Name, p.Stock),
			})
		}
	}
	if len(issues) > 0 {
		log.Info().Int64("user_id", userID).Int("issues", len(issues)).Msg("cart reconciled")
	}
	return issues, nil
}
