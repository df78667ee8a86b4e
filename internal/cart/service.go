package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/internal/catalog"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type itemReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Item, error)
}

// Service exposes the per-session cart operations.
type Service interface {
	Get(ctx context.Context, actor auth.Actor) (*View, error)
	AddItem(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*View, error)
	SetQuantity(ctx context.Context, actor auth.Actor, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, actor auth.Actor) (*View, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// View is a cart priced against the live catalog.
type View struct {
	Lines     []ViewLine      `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// ViewLine joins a cart line with the catalog entry it points at. Missing lines
// reference items that no longer exist and are priced at zero.
type ViewLine struct {
	ItemID       uuid.UUID       `json:"itemId"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Missing      bool            `json:"missing,omitempty"`
	ExceedsStock bool            `json:"exceedsStock,omitempty"`
}

type service struct {
	store   *Store
	catalog itemReader
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(store *Store, catalog itemReader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{store: store, catalog: catalog}, nil
}

func sessionOf(actor auth.Actor) (string, error) {
	sessionID := strings.TrimSpace(actor.SessionID)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return sessionID, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor) (*View, error) {
	sessionID, err := sessionOf(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.view(ctx, c)
}

func (s *service) AddItem(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*View, error) {
	if _, err := s.catalog.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, func(c *Cart) { c.AddItem(itemID) })
}

func (s *service) SetQuantity(ctx context.Context, actor auth.Actor, itemID uuid.UUID, quantity int) (*View, error) {
	return s.mutate(ctx, actor, func(c *Cart) { c.SetQuantity(itemID, quantity) })
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*View, error) {
	return s.mutate(ctx, actor, func(c *Cart) { c.RemoveItem(itemID) })
}

func (s *service) Clear(ctx context.Context, actor auth.Actor) (*View, error) {
	return s.mutate(ctx, actor, func(c *Cart) { c.Clear() })
}

func (s *service) ClearSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	l := s.store.acquire(sessionID)
	defer l.mu.Unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.store.end(sessionID, l)
	return nil
}

func (s *service) mutate(ctx context.Context, actor auth.Actor, fn func(c *Cart)) (*View, error) {
	sessionID, err := sessionOf(actor)
	if err != nil {
		return nil, err
	}

	l := s.store.acquire(sessionID)
	defer l.mu.Unlock()
	if l.ended {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended")
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	fn(c)
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return s.view(ctx, c)
}

func (s *service) view(ctx context.Context, c *Cart) (*View, error) {
	items, err := s.catalog.Lookup(ctx, c.ItemIDs())
	if err != nil {
		return nil, err
	}

	view := &View{Lines: make([]ViewLine, 0, len(c.Lines)), ItemCount: c.ItemCount()}
	for _, line := range c.Lines {
		vl := ViewLine{ItemID: line.ItemID, Quantity: line.Quantity, Price: decimal.Zero, Subtotal: decimal.Zero}
		item, ok := items[line.ItemID]
		if !ok {
			vl.Missing = true
			view.Lines = append(view.Lines, vl)
			continue
		}
		vl.Name = item.Name
		vl.Category = item.Category
		vl.Price = item.Price
		vl.Stock = item.Stock
		vl.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		vl.ExceedsStock = line.Quantity > item.Stock
		view.Lines = append(view.Lines, vl)
	}
	view.Total = c.Total(func(id uuid.UUID) decimal.Decimal {
		if item, ok := items[id]; ok {
			return item.Price
		}
		return decimal.Zero
	})
	return view, nil
}
