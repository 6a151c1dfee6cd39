package document

import (
	"time"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

type RecordDocument struct {
	Seq        int64     `bson:"seq"`
	Message    string    `bson:"message"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func (doc *RecordDocument) ToDomain() *domain.Record {
	return &domain.Record{
		Seq:        doc.Seq,
		Message:    doc.Message,
		RecordedAt: doc.RecordedAt,
	}
}
