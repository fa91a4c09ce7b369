package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/infrastructure/database/postgres/models"
)

const uniqueViolation = "23505"

type ShipmentRepository struct {
	db *DB
}

func NewShipmentRepository(db *DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// IsValidInternalID reports whether id is a UUID, the shape of ids this store assigns.
func IsValidInternalID(id string) bool {
	_, ok := canonicalID(id)
	return ok
}

// canonicalID accepts only the hyphenated 36-character UUID form and
// returns it lower-cased. Braced, urn and bare-hex forms are tracking codes.
func canonicalID(id string) (string, bool) {
	if len(id) != 36 {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// whereIDOrCode narrows a query to the rows matching idOrCode as id or tracking code.
func whereIDOrCode(db *gorm.DB, idOrCode string) *gorm.DB {
	if id, ok := canonicalID(idOrCode); ok {
		return db.Where("id = ? OR tracking_id = ?", id, idOrCode)
	}
	return db.Where("tracking_id = ?", idOrCode)
}

// pick returns the row matching by id if any, otherwise the tracking code match.
func pick(rows []models.ShipmentModel, idOrCode string) (*models.ShipmentModel, shipment.Resolution) {
	id, isID := canonicalID(idOrCode)
	var byCode *models.ShipmentModel
	for i := range rows {
		if isID && rows[i].ID.String() == id {
			return &rows[i], shipment.ResolvedByInternalID
		}
		if rows[i].TrackingID == idOrCode {
			byCode = &rows[i]
		}
	}
	if byCode != nil {
		return byCode, shipment.ResolvedByTrackingCode
	}
	return nil, shipment.ResolvedNone
}

func (r *ShipmentRepository) resolve(db *gorm.DB, idOrCode string) (*models.ShipmentModel, shipment.Resolution, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if idOrCode == "" {
		return nil, shipment.ResolvedNone, shipment.ErrShipmentNotFound
	}

	var rows []models.ShipmentModel
	if err := whereIDOrCode(db, idOrCode).Limit(2).Find(&rows).Error; err != nil {
		return nil, shipment.ResolvedNone, fmt.Errorf("failed to resolve shipment: %w", err)
	}

	row, how := pick(rows, idOrCode)
	if row == nil {
		return nil, shipment.ResolvedNone, shipment.ErrShipmentNotFound
	}
	return row, how, nil
}

func (r *ShipmentRepository) Resolve(ctx context.Context, idOrCode string) (*shipment.Shipment, shipment.Resolution, error) {
	row, how, err := r.resolve(r.db.DB.WithContext(ctx), idOrCode)
	if err != nil {
		return nil, how, err
	}
	return row.ToEntity(), how, nil
}

func (r *ShipmentRepository) GetByTrackingID(ctx context.Context, trackingID string) (*shipment.Shipment, error) {
	var dbModel models.ShipmentModel
	err := r.db.DB.WithContext(ctx).
		Where("tracking_id = ?", trackingID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shipment.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	return dbModel.ToEntity(), nil
}

func (r *ShipmentRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.ShipmentModel{}).
		Where("tracking_id = ?", trackingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check tracking id: %w", err)
	}
	return count > 0, nil
}

func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	dbModel := models.ToShipmentModel(s)
	dbModel.ID = uuid.New()

	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isUniqueViolation(err) {
			return shipment.ErrTrackingIDTaken
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	s.ID = dbModel.ID.String()
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE, runs mutate on the loaded
// record and writes every column back inside one transaction.
func (r *ShipmentRepository) Update(ctx context.Context, idOrCode string, mutate shipment.MutateFunc) (*shipment.Shipment, error) {
	var updated *shipment.Shipment

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, _, err := r.resolve(tx.Clauses(clause.Locking{Strength: "UPDATE"}), idOrCode)
		if err != nil {
			return err
		}

		current := row.ToEntity()
		if err := mutate(current); err != nil {
			return err
		}

		next := models.ToShipmentModel(current)
		next.ID = row.ID
		next.TrackingID = row.TrackingID
		next.CreatedAt = row.CreatedAt

		result := tx.Model(&models.ShipmentModel{}).
			Where("id = ?", row.ID).
			Select("*").
			Omit("id", "tracking_id", "created_at").
			Updates(next)
		if result.Error != nil {
			return fmt.Errorf("failed to update shipment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shipment.ErrShipmentNotFound
		}

		updated = next.ToEntity()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *ShipmentRepository) Delete(ctx context.Context, idOrCode string) (int64, error) {
	var deleted int64

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, _, err := r.resolve(tx, idOrCode)
		if errors.Is(err, shipment.ErrShipmentNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", row.ID).Delete(&models.ShipmentModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete shipment: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func (r *ShipmentRepository) List(ctx context.Context, page, pageSize int) ([]*shipment.Shipment, int64, error) {
	var dbModels []models.ShipmentModel
	var total int64

	page, pageSize = shipment.NormalizePage(page, pageSize)
	db := r.db.DB.WithContext(ctx).Model(&models.ShipmentModel{}).Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	offset := (page - 1) * pageSize
	err := db.Order("created_at DESC").
		Order("tracking_id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}

	shipments := make([]*shipment.Shipment, len(dbModels))
	for i := range dbModels {
		shipments[i] = dbModels[i].ToEntity()
	}

	return shipments, total, nil
}

func (r *ShipmentRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
