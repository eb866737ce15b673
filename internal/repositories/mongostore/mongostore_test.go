package mongostore

import (
	"context"
	"testing"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func dec(s string) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(s)
	if err != nil {
		panic(err)
	}
	return v
}

func settlementFor(bookingID, ticketID primitive.ObjectID) models.Settlement {
	return models.Settlement{
		BookingID: bookingID.Hex(),
		TicketID:  ticketID.Hex(),
		Quantity:  2,
		Transaction: models.Transaction{
			TransactionID: "pi_123",
			Amount:        decimal.RequireFromString("25"),
			Currency:      "usd",
			BookingID:     bookingID.Hex(),
			TicketID:      ticketID.Hex(),
			UserEmail:     "rider@example.com",
			CreatedAt:     time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestMalformedIDIsValidation(t *testing.T) {
	_, err := objectID("not-an-id")
	assert.True(t, domain.IsValidation(err))
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12.50")
	assert.True(t, fromDecimal128(toDecimal128(d)).Equal(d))
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ticket get by id", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.tickets", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "title", Value: "Dhaka Express"},
			{Key: "perks", Value: bson.A{"AC", "Water"}},
			{Key: "price", Value: dec("12.50")},
			{Key: "quantity", Value: 5},
			{Key: "approved", Value: true},
		}))

		tk, err := store.Tickets().GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), tk.ID)
		assert.Equal(mt, 5, tk.Quantity)
		assert.True(mt, tk.Price.Equal(decimal.RequireFromString("12.5")))
		assert.Equal(mt, []string{"AC", "Water"}, tk.Perks)
	})

	mt.Run("ticket get by id missing", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.tickets", mtest.FirstBatch))

		_, err := store.Tickets().GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.True(mt, domain.IsNotFound(err))
	})

	mt.Run("settle commits", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		bookingID, ticketID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: bookingID},
				{Key: "status", Value: "accepted"},
			}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		settled, err := store.Bookings().Settle(context.Background(), settlementFor(bookingID, ticketID))
		require.NoError(mt, err)
		assert.True(mt, settled)
	})

	mt.Run("settle already paid", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		bookingID, ticketID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: bookingID},
				{Key: "status", Value: "paid"},
			}),
		)

		settled, err := store.Bookings().Settle(context.Background(), settlementFor(bookingID, ticketID))
		require.NoError(mt, err)
		assert.False(mt, settled)
	})

	mt.Run("settle cancelled booking", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		bookingID, ticketID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: bookingID},
				{Key: "status", Value: "cancelled"},
			}),
		)

		settled, err := store.Bookings().Settle(context.Background(), settlementFor(bookingID, ticketID))
		assert.False(mt, settled)
		assert.True(mt, domain.IsInvalidState(err), "got %v", err)

		for _, ev := range mt.GetAllStartedEvents() {
			assert.NotEqual(mt, "update", ev.CommandName)
			assert.NotEqual(mt, "insert", ev.CommandName)
		}
		claim := mt.GetStartedEvent()
		require.NotNil(mt, claim)
		assert.Equal(mt, "findAndModify", claim.CommandName)
		status := claim.Command.Lookup("query", "status", "$in")
		values, ok := status.ArrayOK()
		require.True(mt, ok, "claim must filter on payable statuses")
		elems, err := values.Values()
		require.NoError(mt, err)
		var got []string
		for _, v := range elems {
			got = append(got, v.StringValue())
		}
		assert.Equal(mt, []string{"pending", "accepted"}, got)
	})

	mt.Run("settle short stock restores booking", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		bookingID, ticketID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: bookingID},
				{Key: "status", Value: "pending"},
			}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, "test.tickets", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		settled, err := store.Bookings().Settle(context.Background(), settlementFor(bookingID, ticketID))
		assert.False(mt, settled)
		assert.True(mt, domain.IsInvalidState(err), "got %v", err)

		updates := 0
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName == "update" {
				updates++
			}
		}
		assert.Equal(mt, 2, updates, "ticket decrement then booking restore")
	})

	mt.Run("update status conflict", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: "cancelled"},
			}),
		)

		err := store.Bookings().UpdateStatus(context.Background(), id.Hex(), models.StatusPending, models.StatusAccepted)
		assert.True(mt, domain.IsInvalidState(err), "got %v", err)
	})

	mt.Run("details join live ticket", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		bookingID, ticketID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: bookingID},
			{Key: "ticketId", Value: ticketID},
			{Key: "status", Value: "pending"},
			{Key: "quantity", Value: 2},
			{Key: "ticket", Value: bson.D{
				{Key: "_id", Value: ticketID},
				{Key: "title", Value: "Dhaka Express"},
				{Key: "quantity", Value: 3},
			}},
		}))

		items, err := store.Bookings().ListDetailsByUser(context.Background(), "rider@example.com")
		require.NoError(mt, err)
		require.Len(mt, items, 1)
		assert.Equal(mt, bookingID.Hex(), items[0].ID)
		assert.Equal(mt, ticketID.Hex(), items[0].Ticket.ID)
		assert.Equal(mt, 3, items[0].Ticket.Quantity)
	})

	mt.Run("vendor revenue", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: dec("30.00")},
			{Key: "sold", Value: int32(2)},
			{Key: "count", Value: int32(1)},
		}))

		rev, err := store.Bookings().VendorRevenue(context.Background(), "vendor@example.com")
		require.NoError(mt, err)
		assert.True(mt, rev.TotalRevenue.Equal(decimal.NewFromInt(30)))
		assert.EqualValues(mt, 2, rev.TicketsSold)
		assert.EqualValues(mt, 1, rev.PaidBookings)
	})

	mt.Run("upsert keeps role", func(mt *mtest.T) {
		store := New(nil, mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "rider@example.com"},
				{Key: "role", Value: "vendor"},
				{Key: "status", Value: "active"},
			}),
		)

		u, err := store.Users().Upsert(context.Background(), models.User{
			Email: "Rider@Example.com", Role: models.RoleUser, Status: models.UserStatusActive,
		})
		require.NoError(mt, err)
		assert.Equal(mt, models.RoleVendor, u.Role)
	})
}
