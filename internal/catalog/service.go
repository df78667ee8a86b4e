package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes catalog reads to every actor and mutations to admins.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Item, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Item, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error)
	List(ctx context.Context, filter Filter) ([]Item, error)
	LowStock(ctx context.Context) ([]Item, error)
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*Stats, error)
	EnsureSeeded(ctx context.Context) (int, error)
}

// CreateInput holds the payload to create an item.
type CreateInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Description string
	Image       *string
}

// UpdateInput holds optional mutation values; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Description *string
	Image       *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func requireAdmin(actor auth.Actor) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can modify the catalog")
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").WithDetails(map[string]any{"field": "name"})
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, err
	}

	now := s.timestamp()
	row := &models.Sweet{
		ID:          uuid.New(),
		Name:        name,
		Category:    strings.TrimSpace(input.Category),
		PriceCents:  CentsFromPrice(input.Price),
		Stock:       input.Stock,
		Description: strings.TrimSpace(input.Description),
		Image:       normalizeImage(input.Image),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sweet")
	}

	item := ItemFromModel(*row)
	return &item, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	fields, err := updateFields(input)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	fields["updated_at"] = s.timestamp()

	found, err := s.repo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sweet")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
	}
	return s.Get(ctx, id)
}

func updateFields(input UpdateInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty").WithDetails(map[string]any{"field": "name"})
		}
		fields["name"] = name
	}
	if input.Category != nil {
		fields["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		fields["price_cents"] = CentsFromPrice(*input.Price)
	}
	if input.Stock != nil {
		if err := validateStock(*input.Stock); err != nil {
			return nil, err
		}
		fields["stock"] = *input.Stock
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		// an empty string clears the image
		fields["image"] = normalizeImage(input.Image)
	}
	return fields, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete sweet")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sweet")
	}
	item := ItemFromModel(*row)
	return &item, nil
}

// Lookup returns the items among ids that still exist. Missing ids are absent from the map.
func (s *service) Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sweets")
	}
	items := make(map[uuid.UUID]Item, len(rows))
	for _, row := range rows {
		items[row.ID] = ItemFromModel(row)
	}
	return items, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]Item, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sweets")
	}
	return itemsFromModels(rows), nil
}

func (s *service) LowStock(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.LowStock(ctx, LowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	return itemsFromModels(rows), nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	return categories, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx, LowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: catalog stats")
	}
	return stats, nil
}

func itemsFromModels(rows []models.Sweet) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemFromModel(row))
	}
	return items
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative").WithDetails(map[string]any{"field": "price"})
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places").WithDetails(map[string]any{"field": "price"})
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative").WithDetails(map[string]any{"field": "stock"})
	}
	return nil
}

func normalizeImage(image *string) *string {
	if image == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*image)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
