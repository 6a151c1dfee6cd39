package repository

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/document"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/logger"
	"github.com/mzawadzki/storekeeper/internal/core/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditSeqCounter = "audit_seq"

// AuditRepository is the append-only trail. Records get a monotonically
// increasing seq from a counters document, which is what history range
// queries filter on.
type AuditRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) port.AuditPort {
	repo := &AuditRepository{
		collection: db.Collection("audit_records"),
		counters:   db.Collection("counters"),
	}

	if err := repo.createIndexes(context.Background()); err != nil {
		logger.Error(context.Background(), "failed to create indexes", err, map[string]any{
			"collection": "audit_records",
		})
	}

	return repo
}

func (r *AuditRepository) createIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *AuditRepository) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": auditSeqCounter},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

func (r *AuditRepository) Append(ctx context.Context, message string) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}

	record := domain.NewRecord(message)
	_, err = r.collection.InsertOne(ctx, document.RecordDocument{
		Seq:        seq,
		Message:    record.Message,
		RecordedAt: record.RecordedAt,
	})
	return parseError(err)
}

func (r *AuditRepository) GetAll(ctx context.Context) ([]*domain.Record, error) {
	return r.find(ctx, bson.M{})
}

func (r *AuditRepository) GetRange(ctx context.Context, startSeq, endSeq int64) ([]*domain.Record, error) {
	return r.find(ctx, bson.M{"seq": bson.M{"$gte": startSeq, "$lte": endSeq}})
}

func (r *AuditRepository) find(ctx context.Context, filter bson.M) ([]*domain.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, parseError(err)
	}
	defer cursor.Close(ctx)

	var docs []document.RecordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, parseError(err)
	}

	records := make([]*domain.Record, len(docs))
	for i := range docs {
		records[i] = docs[i].ToDomain()
	}

	return records, nil
}
