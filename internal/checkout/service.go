package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetshop-backend/internal/cart"
	"github.com/angelmondragon/sweetshop-backend/internal/catalog"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errRejected = errors.New("checkout rejected")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Lock(sessionID string) func()
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Service converts a session's cart into stock decrements.
type Service interface {
	Checkout(ctx context.Context, actor auth.Actor) (*Result, error)
}

type service struct {
	tx      txRunner
	repo    *catalog.Repository
	carts   cartStore
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service. A nil metrics recorder disables metrics.
func NewService(tx txRunner, repo *catalog.Repository, carts cartStore, recorder *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		carts:   carts,
		metrics: recorder,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, actor auth.Actor) (*Result, error) {
	sessionID := strings.TrimSpace(actor.SessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	started := s.now()
	ctx = s.logg.WithSessionID(ctx, sessionID)

	unlock := s.carts.Lock(sessionID)
	defer unlock()

	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeError, s.now().Sub(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c.IsEmpty() {
		s.metrics.Observe(metrics.OutcomeEmpty, s.now().Sub(started))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty cart")
	}

	run := newAttempt()
	if err := run.transition(enums.CheckoutStateValidating); err != nil {
		return nil, err
	}

	var (
		violations []Violation
		lines      []Line
		cleared    bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows := make([]*models.Sweet, len(c.Lines))
		for i, line := range c.Lines {
			row, err := repo.FindByID(ctx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					violations = append(violations, Violation{
						ItemID:    line.ItemID,
						Reason:    ReasonItemNotFound,
						Requested: line.Quantity,
					})
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sweet")
			}
			rows[i] = row
			if row.Stock < line.Quantity {
				violations = append(violations, insufficient(row, line.Quantity))
			}
		}
		if len(violations) > 0 {
			return errRejected
		}

		lines = make([]Line, 0, len(c.Lines))
		for i, line := range c.Lines {
			ok, err := repo.DecrementStockIfEnough(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if !ok {
				violations = append(violations, s.lostRace(ctx, repo, rows[i], line))
				return errRejected
			}
			price := catalog.PriceFromCents(rows[i].PriceCents)
			lines = append(lines, Line{
				ItemID:   line.ItemID,
				Name:     rows[i].Name,
				Quantity: line.Quantity,
				Price:    price,
				Subtotal: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			})
		}

		if err := s.carts.Delete(ctx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		cleared = true
		return nil
	})

	if err != nil {
		if cleared {
			s.restoreCart(ctx, sessionID, c, err)
		}
		if errors.Is(err, errRejected) {
			return nil, s.reject(ctx, run, violations, started)
		}
		s.metrics.Observe(metrics.OutcomeError, s.now().Sub(started))
		if db.IsContention(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout conflicted with a concurrent update")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: checkout")
	}

	if err := run.transition(enums.CheckoutStateCommitted); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	itemCount := c.ItemCount()
	s.metrics.Observe(metrics.OutcomeCommitted, s.now().Sub(started))
	s.metrics.AddUnitsSold(itemCount)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"item_count": itemCount,
		"total":      total.StringFixed(2),
	}), "checkout.committed")

	return &Result{
		State:     run.state,
		Total:     total,
		ItemCount: itemCount,
		Lines:     lines,
		Message:   successMessage(itemCount, total),
	}, nil
}

func insufficient(row *models.Sweet, requested int) Violation {
	return Violation{
		ItemID:    row.ID,
		Name:      row.Name,
		Reason:    ReasonInsufficientStock,
		Requested: requested,
		Available: row.Stock,
	}
}

// lostRace describes a line whose guarded decrement matched no row after
// validation passed.
func (s *service) lostRace(ctx context.Context, repo *catalog.Repository, validated *models.Sweet, line cart.Line) Violation {
	row, err := repo.FindByID(ctx, line.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Violation{ItemID: line.ItemID, Reason: ReasonItemNotFound, Requested: line.Quantity}
		}
		s.logg.Warn(s.logg.WithField(ctx, "item_id", line.ItemID.String()), "checkout.recheck_failed")
		v := insufficient(validated, line.Quantity)
		v.Available = 0
		return v
	}
	return insufficient(row, line.Quantity)
}

func (s *service) reject(ctx context.Context, run *attempt, violations []Violation, started time.Time) error {
	if err := run.transition(enums.CheckoutStateRejected); err != nil {
		return err
	}
	s.metrics.Observe(metrics.OutcomeRejected, s.now().Sub(started))
	s.logg.Info(s.logg.WithField(ctx, "violations", len(violations)), "checkout.rejected")
	return pkgerrors.New(pkgerrors.CodeStateConflict, rejectionMessage(violations)).
		WithDetails(map[string]any{"violations": violations})
}

func (s *service) restoreCart(ctx context.Context, sessionID string, c *cart.Cart, cause error) {
	if err := s.carts.Save(context.WithoutCancel(ctx), sessionID, c); err != nil {
		s.logg.Error(ctx, "checkout.cart_restore_failed", errors.Join(cause, err))
		return
	}
	s.logg.Warn(ctx, "checkout.cart_restored")
}
