package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists catalog rows in the sweets table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the row. Seq is assigned by the database.
func (r *Repository) Create(ctx context.Context, sweet *models.Sweet) error {
	return r.db.WithContext(ctx).Create(sweet).Error
}

// UpdateFields writes only the supplied columns and reports whether the row exists.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, errors.New("no fields to update")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Sweet{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the row permanently and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Sweet{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads a single row. A missing row returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sweet).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}

// FindByIDs loads every existing row among ids, in insertion order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Sweet, error) {
	if len(ids) == 0 {
		return []models.Sweet{}, nil
	}
	var rows []models.Sweet
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns rows matching filter in insertion order.
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.Sweet, error) {
	query := r.db.WithContext(ctx).Model(&models.Sweet{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if category := strings.TrimSpace(filter.Category); category != "" && !strings.EqualFold(category, "all") {
		query = query.Where("category = ?", category)
	}

	var rows []models.Sweet
	if err := query.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LowStock returns rows whose stock is at or below threshold, in insertion order.
func (r *Repository) LowStock(ctx context.Context, threshold int) ([]models.Sweet, error) {
	var rows []models.Sweet
	if err := r.db.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Categories returns the distinct categories, sorted.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).
		Model(&models.Sweet{}).
		Distinct("category").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	sort.Strings(categories)
	return categories, nil
}

type statsRow struct {
	ItemCount     int64
	TotalUnits    int64
	ValueCents    int64
	LowStockCount int64
}

// Stats aggregates counts and inventory value in one query.
func (r *Repository) Stats(ctx context.Context, threshold int) (*Stats, error) {
	var row statsRow
	if err := r.db.WithContext(ctx).Raw(`
SELECT CAST(COUNT(*) AS BIGINT) AS item_count,
       CAST(COALESCE(SUM(stock), 0) AS BIGINT) AS total_units,
       CAST(COALESCE(SUM(price_cents * stock), 0) AS BIGINT) AS value_cents,
       CAST(COALESCE(SUM(CASE WHEN stock <= ? THEN 1 ELSE 0 END), 0) AS BIGINT) AS low_stock_count
FROM sweets`, threshold).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &Stats{
		ItemCount:      row.ItemCount,
		TotalUnits:     row.TotalUnits,
		InventoryValue: PriceFromCents(row.ValueCents),
		LowStockCount:  row.LowStockCount,
	}, nil
}

// Count returns the number of catalog rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Sweet{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DecrementStockIfEnough removes qty units in a single guarded statement. It
// returns false when the row is missing or holds fewer than qty units.
func (r *Repository) DecrementStockIfEnough(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, errors.New("quantity must be positive")
	}
	res := r.db.WithContext(ctx).Exec(
		`UPDATE sweets SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?`,
		qty, id, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
