package receipts

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
	"github.com/joseph-ayodele/spendify/internal/repository"
)

const maxTextField = 256

// Service handles receipt business logic.
type Service struct {
	repo      repository.ReceiptRepository
	uploadDir string
	logger    *slog.Logger
	now       func() time.Time
	rng       *rand.Rand
}

type Option func(*Service)

// WithClock replaces time.Now, for tests and reproducible seeding.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the random source used by Seed.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// NewService creates a new receipt service. uploadDir is where receipt images are stored.
func NewService(repo repository.ReceiptRepository, uploadDir string, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		uploadDir: uploadDir,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(s.now().UnixNano()), 0x5eed))
	}
	return s
}

// CreateRequest is a receipt the user confirmed after reviewing the extraction.
type CreateRequest struct {
	Merchant string `json:"merchant"`
	Date     string `json:"date"`
	Total    string `json:"total"`
	Tax      string `json:"tax"`
	Category string `json:"category"`
	TaxRate  string `json:"tax_rate"`
	Currency string `json:"currency"`
	Filename string `json:"filename"`
	ImageURL string `json:"image_url"`
}

func safeFilename(fieldName string, value any) *common.ValidationError {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if s != filepath.Base(s) || strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return &common.ValidationError{Field: fieldName, Value: value, Message: "must be a bare file name"}
	}
	return nil
}

// Create stores a new receipt and returns its id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	v := common.NewValidator().
		Field("merchant", req.Merchant, common.Required, common.MaxLength(maxTextField)).
		Field("date", req.Date, common.MaxLength(maxTextField)).
		Field("total", req.Total, common.MaxLength(maxTextField)).
		Field("tax", req.Tax, common.MaxLength(maxTextField)).
		Field("category", req.Category, common.MaxLength(maxTextField)).
		Field("tax_rate", req.TaxRate, common.MaxLength(maxTextField)).
		Field("currency", req.Currency, common.CurrencySymbol).
		Field("filename", req.Filename, safeFilename)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("receipts.create.invalid", "error", err)
		return "", err
	}

	r := entity.Receipt{
		ID:        uuid.NewString(),
		Filename:  req.Filename,
		Merchant:  req.Merchant,
		Date:      req.Date,
		Total:     req.Total,
		Tax:       req.Tax,
		Category:  req.Category,
		TaxRate:   req.TaxRate,
		Currency:  req.Currency,
		Status:    string(constants.StatusCompleted),
		ImageURL:  req.ImageURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return "", err
	}
	s.logger.Info("receipts.create.ok", "id", r.ID, "merchant", r.Merchant)
	return r.ID, nil
}

// ids are always uuids, so anything else cannot name a stored receipt
func checkID(id string) error {
	if common.UUID("id", id) != nil {
		return common.NotFoundError("receipt not found")
	}
	return nil
}

// Get returns a single receipt.
func (s *Service) Get(ctx context.Context, id string) (entity.Receipt, error) {
	if err := checkID(id); err != nil {
		return entity.Receipt{}, err
	}
	return s.repo.Get(ctx, id)
}

// List returns all receipts, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Receipt, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("receipts.list.failed", "error", err)
		return nil, err
	}
	s.logger.Debug("receipts.list.ok", "count", len(recs))
	return recs, nil
}

// Update overwrites the fields present in patch.
func (s *Service) Update(ctx context.Context, id string, patch entity.ReceiptPatch) error {
	if patch.IsEmpty() {
		return common.InvalidInputError("no fields to update")
	}
	v := common.NewValidator().
		Field("merchant", patch.Merchant, common.MaxLength(maxTextField)).
		Field("date", patch.Date, common.MaxLength(maxTextField)).
		Field("total", patch.Total, common.MaxLength(maxTextField)).
		Field("tax", patch.Tax, common.MaxLength(maxTextField)).
		Field("category", patch.Category, common.MaxLength(maxTextField)).
		Field("tax_rate", patch.TaxRate, common.MaxLength(maxTextField)).
		Field("currency", patch.Currency, common.CurrencySymbol)
	if patch.Merchant != nil {
		v.Field("merchant", patch.Merchant, common.Required)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("receipts.update.failed", "id", id, "error", err)
		}
		return err
	}
	s.logger.Info("receipts.update.ok", "id", id)
	return nil
}

// Delete removes the receipt and its stored image, if any.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	filename, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.removeUpload(filename)
	s.logger.Info("receipts.delete.ok", "id", id, "filename", filename)
	return nil
}

func (s *Service) removeUpload(filename string) {
	if filename == "" || s.uploadDir == "" {
		return
	}
	path := filepath.Join(s.uploadDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("receipts.delete.file_remove_failed", "path", path, "error", err)
	}
}
