package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Sweets []seedEntry `yaml:"sweets"`
}

type seedEntry struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// DefaultSeed parses the embedded default catalog.
func DefaultSeed() ([]CreateInput, error) {
	return parseSeed(seedYAML)
}

func parseSeed(raw []byte) ([]CreateInput, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	inputs := make([]CreateInput, 0, len(file.Sweets))
	for i, entry := range file.Sweets {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%s): price: %w", i, entry.Name, err)
		}
		if entry.Name == "" || price.IsNegative() || entry.Stock < 0 {
			return nil, fmt.Errorf("seed entry %d (%s) is invalid", i, entry.Name)
		}
		input := CreateInput{
			Name:        entry.Name,
			Category:    entry.Category,
			Price:       price,
			Stock:       entry.Stock,
			Description: entry.Description,
		}
		if entry.Image != "" {
			image := entry.Image
			input.Image = &image
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// EnsureSeeded inserts the default catalog when the table is empty and reports
// how many items were written.
func (s *service) EnsureSeeded(ctx context.Context) (int, error) {
	defaults, err := DefaultSeed()
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default catalog")
	}

	inserted := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		now := s.timestamp()
		for _, input := range defaults {
			row := &models.Sweet{
				ID:          uuid.New(),
				Name:        input.Name,
				Category:    input.Category,
				PriceCents:  CentsFromPrice(input.Price),
				Stock:       input.Stock,
				Description: input.Description,
				Image:       input.Image,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := txRepo.Create(ctx, row); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: seed catalog")
	}
	return inserted, nil
}
