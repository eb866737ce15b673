package mongostore

import (
	"context"

	"onlineticket/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type transactionStore struct {
	coll *mongo.Collection
}

func (r transactionStore) ListByUser(ctx context.Context, userEmail string) ([]models.Transaction, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userEmail": userEmail}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r transactionStore) GetByBookingID(ctx context.Context, bookingID string) (models.Transaction, error) {
	oid, err := objectID(bookingID)
	if err != nil {
		return models.Transaction{}, err
	}
	var doc transactionDoc
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": oid}).Decode(&doc); err != nil {
		return models.Transaction{}, notFoundOr(err, "transaction")
	}
	return doc.model(), nil
}
