package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/sweetshop-backend/internal/testhelper"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func mustCreateSweet(t *testing.T, repo *Repository, name string, stock int) *models.Sweet {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	row := &models.Sweet{
		ID:         uuid.New(),
		Name:       name,
		Category:   "Test",
		PriceCents: 100,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(context.Background(), row); err != nil {
		t.Fatalf("create sweet: %v", err)
	}
	return row
}

func TestDecrementStockIfEnough(t *testing.T) {
	client := testhelper.SetupSQLite(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	row := mustCreateSweet(t, repo, "Fudge", 5)

	ok, err := repo.DecrementStockIfEnough(ctx, row.ID, 3)
	if err != nil || !ok {
		t.Fatalf("expected decrement to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.DecrementStockIfEnough(ctx, row.ID, 3)
	if err != nil || ok {
		t.Fatalf("expected guarded decrement to refuse, ok=%v err=%v", ok, err)
	}
	ok, err = repo.DecrementStockIfEnough(ctx, row.ID, 2)
	if err != nil || !ok {
		t.Fatalf("expected exact decrement to succeed, ok=%v err=%v", ok, err)
	}

	loaded, err := repo.FindByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", loaded.Stock)
	}

	ok, err = repo.DecrementStockIfEnough(ctx, uuid.New(), 1)
	if err != nil || ok {
		t.Fatalf("missing row should not decrement, ok=%v err=%v", ok, err)
	}
	if _, err := repo.DecrementStockIfEnough(ctx, row.ID, 0); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestStockCheckConstraint(t *testing.T) {
	client := testhelper.SetupSQLite(t)
	repo := NewRepository(client.DB())
	row := mustCreateSweet(t, repo, "Toffee", 1)

	_, err := repo.UpdateFields(context.Background(), row.ID, map[string]any{"stock": -1})
	if err == nil {
		t.Fatal("expected check constraint to reject negative stock")
	}
	if !db.IsCheckViolation(err, "") {
		t.Fatalf("expected check violation, got %v", err)
	}
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	client := testhelper.SetupSQLite(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	row := mustCreateSweet(t, repo, "Nougat", 4)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if ok, err := txRepo.DecrementStockIfEnough(ctx, row.ID, 4); err != nil || !ok {
			t.Fatalf("decrement in tx: ok=%v err=%v", ok, err)
		}
		return context.Canceled
	})
	if err == nil {
		t.Fatal("expected tx error")
	}

	loaded, err := repo.FindByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Stock != 4 {
		t.Fatalf("expected rollback to restore stock 4, got %d", loaded.Stock)
	}
}

func TestParseSeedRejectsBadEntries(t *testing.T) {
	if _, err := parseSeed([]byte("sweets:\n  - name: X\n    price: abc\n")); err == nil {
		t.Fatal("expected price parse error")
	}
	if _, err := parseSeed([]byte("sweets:\n  - name: X\n    price: \"1.00\"\n    stock: -2\n")); err == nil {
		t.Fatal("expected negative stock error")
	}
	defaults, err := DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	if len(defaults) != 4 || defaults[0].Name != "Chocolate Truffle" || defaults[3].Stock != 8 {
		t.Fatalf("unexpected default seed %+v", defaults)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape %q", got)
	}
}
