package mongostore

import (
	"context"
	"errors"
	"fmt"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingStore struct {
	coll    *mongo.Collection
	tickets *mongo.Collection
	txs     *mongo.Collection
}

func (r bookingStore) find(ctx context.Context, filter any) ([]models.Booking, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r bookingStore) Create(ctx context.Context, b *models.Booking) error {
	doc := newBookingDoc(*b)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = doc.ID.Hex()
	return nil
}

func (r bookingStore) GetByID(ctx context.Context, id string) (models.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Booking{}, err
	}
	var doc bookingDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.Booking{}, notFoundOr(err, "booking")
	}
	return doc.model(), nil
}

func (r bookingStore) ListByUser(ctx context.Context, userEmail string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"userEmail": userEmail})
}

func (r bookingStore) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"vendorEmail": vendorEmail})
}

// ListDetailsByUser joins each booking with its live ticket; bookings whose
// ticket was deleted are dropped by the unwind.
func (r bookingStore) ListDetailsByUser(ctx context.Context, userEmail string) ([]models.BookingDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userEmail": userEmail}}},
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$lookup", Value: bson.M{
			"from":         ticketsCollection,
			"localField":   "ticketId",
			"foreignField": "_id",
			"as":           "ticket",
		}}},
		{{Key: "$unwind", Value: "$ticket"}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("booking details: %w", err)
	}
	var docs []bookingDetailDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.BookingDetail, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.BookingDetail{Booking: d.Booking.model(), Ticket: d.Ticket.model()})
	}
	return out, nil
}

func (r bookingStore) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.InvalidStateError{Msg: "booking status changed, reload and retry"}
	}
	return nil
}

// Settle claims the booking with a compare-and-set on a payable status, then
// decrements the ticket conditionally and records the transaction. A failed later step
// undoes the earlier ones so no partial settlement survives.
func (r bookingStore) Settle(ctx context.Context, st models.Settlement) (bool, error) {
	bookingID, err := objectID(st.BookingID)
	if err != nil {
		return false, err
	}
	ticketID, err := objectID(st.TicketID)
	if err != nil {
		return false, err
	}

	payable := make([]string, 0, 2)
	for _, status := range st.PayableStatuses() {
		payable = append(payable, string(status))
	}

	// The status claim goes first: without multi-document transactions it is
	// the only step that makes a second settlement of the same booking lose.
	var before bookingDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID, "status": bson.M{"$in": payable}},
		bson.M{"$set": bson.M{"status": string(models.StatusPaid)}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, gerr := r.GetByID(ctx, st.BookingID)
		if gerr != nil {
			return false, gerr
		}
		if current.Status == models.StatusPaid {
			return false, nil
		}
		return false, domain.InvalidStateError{Msg: fmt.Sprintf("booking is %s and cannot be paid", current.Status)}
	}
	if err != nil {
		return false, fmt.Errorf("claim booking: %w", err)
	}

	// Compensations ignore request cancellation.
	undoCtx := context.WithoutCancel(ctx)
	restoreBooking := func() {
		if _, uerr := r.coll.UpdateOne(undoCtx,
			bson.M{"_id": bookingID, "status": string(models.StatusPaid)},
			bson.M{"$set": bson.M{"status": before.Status}},
		); uerr != nil {
			utils.LogError("", "mongostore", "settle_restore_booking", uerr)
		}
	}

	res, err := r.tickets.UpdateOne(ctx,
		bson.M{"_id": ticketID, "quantity": bson.M{"$gte": st.Quantity}},
		bson.M{"$inc": bson.M{"quantity": -st.Quantity}},
	)
	if err != nil {
		restoreBooking()
		return false, fmt.Errorf("decrement ticket: %w", err)
	}
	if res.MatchedCount == 0 {
		restoreBooking()
		n, cerr := r.tickets.CountDocuments(ctx, bson.M{"_id": ticketID})
		if cerr != nil {
			return false, cerr
		}
		if n == 0 {
			return false, domain.NotFoundError{Resource: "ticket"}
		}
		return false, domain.InvalidStateError{Msg: "not enough tickets left to settle this booking"}
	}

	tx := st.Transaction
	doc := transactionDoc{
		ID:            primitive.NewObjectID(),
		TransactionID: tx.TransactionID,
		Amount:        toDecimal128(tx.Amount),
		Currency:      tx.Currency,
		BookingID:     bookingID,
		TicketID:      ticketID,
		TicketTitle:   tx.TicketTitle,
		UserEmail:     tx.UserEmail,
		CreatedAt:     tx.CreatedAt,
	}
	if doc.TransactionID == "" {
		doc.TransactionID = "local_" + doc.ID.Hex()
	}
	if _, err := r.txs.InsertOne(ctx, doc); err != nil {
		if _, uerr := r.tickets.UpdateOne(undoCtx, bson.M{"_id": ticketID},
			bson.M{"$inc": bson.M{"quantity": st.Quantity}}); uerr != nil {
			utils.LogError("", "mongostore", "settle_restore_ticket", uerr)
		}
		restoreBooking()
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	return true, nil
}

func (r bookingStore) VendorRevenue(ctx context.Context, vendorEmail string) (models.VendorRevenue, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"vendorEmail": vendorEmail, "status": string(models.StatusPaid)}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$totalPrice"},
			"sold":    bson.M{"$sum": "$quantity"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.VendorRevenue{}, fmt.Errorf("vendor revenue: %w", err)
	}
	var rows []struct {
		Revenue primitive.Decimal128 `bson:"revenue"`
		Sold    int64                `bson:"sold"`
		Count   int64                `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.VendorRevenue{}, err
	}
	rev := models.VendorRevenue{VendorEmail: vendorEmail, TotalRevenue: decimal.Zero}
	if len(rows) > 0 {
		rev.TotalRevenue = fromDecimal128(rows[0].Revenue)
		rev.TicketsSold = rows[0].Sold
		rev.PaidBookings = rows[0].Count
	}
	return rev, nil
}
