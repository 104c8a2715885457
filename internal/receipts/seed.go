package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/entity"
)

// DefaultSeedCount is how many demo receipts Seed writes when asked for none.
const DefaultSeedCount = 50

type seedMerchant struct {
	name     string
	category constants.Category
}

var seedMerchants = []seedMerchant{
	{"Migros", constants.Grocery},
	{"Bim", constants.Grocery},
	{"A101", constants.Grocery},
	{"Şok", constants.Grocery},
	{"CarrefourSA", constants.Grocery},
	{"Starbucks", constants.FoodAndDrink},
	{"Kahve Dünyası", constants.FoodAndDrink},
	{"Shell", constants.Fuel},
	{"Opet", constants.Fuel},
	{"BP", constants.Fuel},
	{"LC Waikiki", constants.Clothing},
	{"Mavi", constants.Clothing},
	{"Zara", constants.Clothing},
	{"Trendyol", constants.Shopping},
	{"Hepsiburada", constants.Shopping},
	{"Amazon", constants.Shopping},
	{"Netflix", constants.Entertainment},
	{"Spotify", constants.Entertainment},
	{"Apple", constants.Technology},
	{"Turkcell", constants.Bill},
	{"Vodafone", constants.Bill},
}

// Seed writes n random demo receipts dated within the last year and returns how many were stored.
func (s *Service) Seed(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		n = DefaultSeedCount
	}
	today := s.now().UTC()
	hundred := decimal.NewFromInt(100)

	for i := 0; i < n; i++ {
		m := seedMerchants[s.rng.IntN(len(seedMerchants))]
		day := today.AddDate(0, 0, -s.rng.IntN(366))

		// 20.00 .. 2000.00
		total := decimal.New(2000+s.rng.Int64N(198001), -2)
		rate := int64(10)
		if s.rng.IntN(2) == 1 {
			rate = 20
		}
		tax := total.Mul(decimal.NewFromInt(rate)).Div(hundred).Round(2)

		r := entity.Receipt{
			ID:        uuid.NewString(),
			Filename:  "mock_" + uuid.NewString() + ".jpg",
			Merchant:  m.name,
			Date:      day.Format("02.01.2006"),
			Total:     total.StringFixed(2),
			Tax:       tax.StringFixed(2),
			Category:  string(m.category),
			TaxRate:   fmt.Sprintf("%%%d", rate),
			Currency:  string(constants.DefaultCurrency),
			Status:    string(constants.StatusSeeded),
			CreatedAt: today.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.repo.Create(ctx, r); err != nil {
			s.logger.Error("receipts.seed.failed", "inserted", i, "error", err)
			return i, err
		}
	}
	s.logger.Info("receipts.seed.ok", "count", n)
	return n, nil
}
