package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"onlineticket/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ticketStore struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r ticketStore) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]models.Ticket, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []ticketDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Ticket, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r ticketStore) Create(ctx context.Context, t *models.Ticket) error {
	doc := newTicketDoc(*t)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	t.ID = doc.ID.Hex()
	return nil
}

func (r ticketStore) GetByID(ctx context.Context, id string) (models.Ticket, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Ticket{}, err
	}
	var doc ticketDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.Ticket{}, notFoundOr(err, "ticket")
	}
	return doc.model(), nil
}

func containsFold(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(s)), "$options": "i"}
}

func (r ticketStore) ListApproved(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int64, error) {
	filter := bson.M{"approved": true}
	if strings.TrimSpace(f.From) != "" {
		filter["from"] = containsFold(f.From)
	}
	if strings.TrimSpace(f.To) != "" {
		filter["to"] = containsFold(f.To)
	}
	if f.TransportType != "" {
		filter["transportType"] = f.TransportType
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	sort := newestFirst
	switch f.Sort {
	case models.SortPriceAsc:
		sort = bson.D{{Key: "price", Value: 1}, {Key: "createdAt", Value: -1}}
	case models.SortPriceDesc:
		sort = bson.D{{Key: "price", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	opts := options.Find().SetSort(sort).SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	return items, total, nil
}

func (r ticketStore) ListAdvertised(ctx context.Context, limit int) ([]models.Ticket, error) {
	return r.find(ctx, bson.M{"approved": true, "advertised": true},
		options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r ticketStore) ListLatest(ctx context.Context, limit int) ([]models.Ticket, error) {
	return r.find(ctx, bson.M{"approved": true}, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r ticketStore) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	return r.find(ctx, bson.M{"vendorEmail": vendorEmail}, options.Find().SetSort(newestFirst))
}

func (r ticketStore) ListAll(ctx context.Context) ([]models.Ticket, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r ticketStore) set(ctx context.Context, id string, fields bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFoundOr(mongo.ErrNoDocuments, "ticket")
	}
	return nil
}

func (r ticketStore) Update(ctx context.Context, id string, in models.TicketInput) error {
	return r.set(ctx, id, bson.M{
		"title":         in.Title,
		"image":         in.Image,
		"from":          in.From,
		"to":            in.To,
		"transportType": in.TransportType,
		"perks":         perksOrEmpty(in.Perks),
		"price":         toDecimal128(in.Price),
		"quantity":      in.Quantity,
		"departureDate": in.DepartureDate,
		"departureTime": in.DepartureTime,
	})
}

func (r ticketStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFoundOr(mongo.ErrNoDocuments, "ticket")
	}
	return nil
}

func (r ticketStore) SetApproved(ctx context.Context, id string, approved bool) error {
	return r.set(ctx, id, bson.M{"approved": approved})
}

func (r ticketStore) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	return r.set(ctx, id, bson.M{"advertised": advertised})
}

func (r ticketStore) CountAdvertised(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"approved": true, "advertised": true})
}

func (r ticketStore) CountByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"vendorEmail": vendorEmail})
}

func (r ticketStore) RevokeByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx, bson.M{"vendorEmail": vendorEmail},
		bson.M{"$set": bson.M{"approved": false, "advertised": false}})
	if err != nil {
		return 0, fmt.Errorf("revoke vendor tickets: %w", err)
	}
	return res.ModifiedCount, nil
}
