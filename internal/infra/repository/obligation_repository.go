package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

const obligationTable = "tax_obligations"

type obligationRecord struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)"`
	BusinessName    string    `gorm:"type:varchar(255);not null"`
	TaxID           string    `gorm:"column:tax_id;type:varchar(32);not null"`
	ObligationName  string    `gorm:"type:varchar(255);not null"`
	DueDate         time.Time `gorm:"type:date;not null;index"`
	ClientEmail     string    `gorm:"type:varchar(255)"`
	ClientPhone     string    `gorm:"type:varchar(32)"`
	AccountantEmail string    `gorm:"type:varchar(255)"`
	AccountantPhone string    `gorm:"type:varchar(32)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (obligationRecord) TableName() string {
	return obligationTable
}

func (r obligationRecord) toDomain() domain.TaxObligation {
	return domain.TaxObligation{
		ID:              r.ID,
		BusinessName:    r.BusinessName,
		TaxID:           r.TaxID,
		Name:            r.ObligationName,
		DueDate:         civil.DateOf(r.DueDate),
		ClientEmail:     r.ClientEmail,
		ClientPhone:     r.ClientPhone,
		AccountantEmail: r.AccountantEmail,
		AccountantPhone: r.AccountantPhone,
	}
}

func recordFromDomain(o domain.TaxObligation) obligationRecord {
	return obligationRecord{
		ID:              o.ID,
		BusinessName:    o.BusinessName,
		TaxID:           o.TaxID,
		ObligationName:  o.Name,
		DueDate:         o.DueDate.In(time.UTC),
		ClientEmail:     o.ClientEmail,
		ClientPhone:     o.ClientPhone,
		AccountantEmail: o.AccountantEmail,
		AccountantPhone: o.AccountantPhone,
	}
}

type ObligationRepository struct {
	db *gorm.DB
}

func NewObligationRepository(db *gorm.DB) *ObligationRepository {
	return &ObligationRepository{
		db: db,
	}
}

// FindDueOn matches the due date exactly. Results are ordered by business
// name and id so reports are reproducible.
func (r *ObligationRepository) FindDueOn(ctx context.Context, date civil.Date) ([]domain.TaxObligation, error) {
	if !date.IsValid() {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrSourceUnavailable, ErrInvalidDueDate, date)
	}

	var records []obligationRecord
	err := r.db.WithContext(ctx).
		Where("due_date = ?", date.String()).
		Order("business_name ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to query tax obligations",
			slog.String("due_date", date.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	obligations := make([]domain.TaxObligation, 0, len(records))
	for _, rec := range records {
		obligations = append(obligations, rec.toDomain())
	}

	return obligations, nil
}

func (r *ObligationRepository) Create(ctx context.Context, obligation domain.TaxObligation) error {
	if !obligation.DueDate.IsValid() {
		return fmt.Errorf("%w: %w: %s", domain.ErrStoreWriteFailed, ErrInvalidDueDate, obligation.DueDate)
	}

	record := recordFromDomain(obligation)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.ErrorContext(ctx, "failed to insert tax obligation",
			slog.String("obligation_id", obligation.ID),
			slog.String("tax_id", obligation.TaxID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err)
	}

	return nil
}
