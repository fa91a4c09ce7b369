package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/logger"
)

type ShipmentRepository struct {
	db *DB
}

func NewShipmentRepository(db *DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// IsValidInternalID reports whether id is a 24-character hex ObjectID.
func IsValidInternalID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// idOrCodeFilter matches by _id or trackingId in one query; the _id branch is
// only present when the input is a well-formed ObjectID.
func idOrCodeFilter(idOrCode string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(idOrCode); err == nil {
		return bson.M{"$or": bson.A{
			bson.M{"_id": oid},
			bson.M{"trackingId": idOrCode},
		}}
	}
	return bson.M{"trackingId": idOrCode}
}

func pick(docs []shipmentDocument, idOrCode string) (*shipmentDocument, shipment.Resolution) {
	var byCode *shipmentDocument
	for i := range docs {
		if docs[i].ID.Hex() == strings.ToLower(idOrCode) {
			return &docs[i], shipment.ResolvedByInternalID
		}
		if docs[i].TrackingID == idOrCode {
			byCode = &docs[i]
		}
	}
	if byCode != nil {
		return byCode, shipment.ResolvedByTrackingCode
	}
	return nil, shipment.ResolvedNone
}

func (r *ShipmentRepository) resolve(ctx context.Context, idOrCode string) (*shipmentDocument, shipment.Resolution, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if idOrCode == "" {
		return nil, shipment.ResolvedNone, shipment.ErrShipmentNotFound
	}

	cursor, err := r.db.collection.Find(ctx, idOrCodeFilter(idOrCode), options.Find().SetLimit(2))
	if err != nil {
		return nil, shipment.ResolvedNone, fmt.Errorf("failed to resolve shipment: %w", err)
	}
	var docs []shipmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, shipment.ResolvedNone, fmt.Errorf("failed to decode shipment: %w", err)
	}

	doc, how := pick(docs, idOrCode)
	if doc == nil {
		return nil, shipment.ResolvedNone, shipment.ErrShipmentNotFound
	}
	return doc, how, nil
}

func (r *ShipmentRepository) Resolve(ctx context.Context, idOrCode string) (*shipment.Shipment, shipment.Resolution, error) {
	doc, how, err := r.resolve(ctx, idOrCode)
	if err != nil {
		return nil, how, err
	}
	return doc.toEntity(), how, nil
}

func (r *ShipmentRepository) GetByTrackingID(ctx context.Context, trackingID string) (*shipment.Shipment, error) {
	var doc shipmentDocument
	err := r.db.collection.FindOne(ctx, bson.M{"trackingId": trackingID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shipment.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *ShipmentRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	n, err := r.db.collection.CountDocuments(ctx, bson.M{"trackingId": trackingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check tracking id: %w", err)
	}
	return n > 0, nil
}

func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	doc := newDocument(s)
	doc.ID = primitive.NewObjectID()

	if _, err := r.db.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shipment.ErrTrackingIDTaken
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	s.ID = doc.ID.Hex()
	return nil
}

// maxUpdateAttempts bounds the read-mutate-write retries of Update.
const maxUpdateAttempts = 5

// guardFilter matches the document only while it is still in the state it
// was read in. Progress writes always move updatedAt, currentIndex or the
// history length.
func guardFilter(doc *shipmentDocument) bson.M {
	return bson.M{
		"_id":             doc.ID,
		"updatedAt":       doc.UpdatedAt,
		"currentIndex":    doc.CurrentIndex,
		"locationHistory": bson.M{"$size": len(doc.LocationHistory)},
	}
}

// Update reads the record, runs mutate on a copy and writes the changed
// fields with a FindOneAndUpdate conditioned on the state that was read.
// A lost race re-reads the record and runs mutate again.
func (r *ShipmentRepository) Update(ctx context.Context, idOrCode string, mutate shipment.MutateFunc) (*shipment.Shipment, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, _, err := r.resolve(ctx, idOrCode)
		if err != nil {
			return nil, err
		}

		before := doc.toEntity()
		after := before.Clone()
		if err := mutate(after); err != nil {
			return nil, err
		}
		after.ID, after.TrackingID, after.CreatedAt = before.ID, before.TrackingID, before.CreatedAt

		update, err := diffUpdate(before, after)
		if err != nil {
			return nil, err
		}
		if len(update) == 0 {
			return before, nil
		}

		var out shipmentDocument
		err = r.db.collection.FindOneAndUpdate(ctx,
			guardFilter(doc),
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Debug("Shipment changed during update, retrying",
				zap.String("id", doc.ID.Hex()), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update shipment: %w", err)
		}

		return out.toEntity(), nil
	}
	return nil, shipment.ErrConcurrentUpdate
}

func (r *ShipmentRepository) Delete(ctx context.Context, idOrCode string) (int64, error) {
	doc, _, err := r.resolve(ctx, idOrCode)
	if errors.Is(err, shipment.ErrShipmentNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	res, err := r.db.collection.DeleteOne(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete shipment: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *ShipmentRepository) List(ctx context.Context, page, pageSize int) ([]*shipment.Shipment, int64, error) {
	page, pageSize = shipment.NormalizePage(page, pageSize)

	total, err := r.db.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "trackingId", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.db.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}
	var docs []shipmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode shipments: %w", err)
	}

	shipments := make([]*shipment.Shipment, len(docs))
	for i := range docs {
		shipments[i] = docs[i].toEntity()
	}
	return shipments, total, nil
}

func (r *ShipmentRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}
