// Package mongostore keeps tickets, bookings, users and transactions in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ticketsCollection      = "tickets"
	bookingsCollection     = "bookings"
	usersCollection        = "users"
	transactionsCollection = "transactions"
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// New wraps an existing database handle. The client may be nil when the caller owns it.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{Client: client, DB: db}
}

// Connect dials uri and selects dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, client.Database(dbName)), nil
}

// EnsureIndexes creates the unique keys the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.DB.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.DB.Collection(transactionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookingId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("transactions index: %w", err)
	}
	if _, err := s.DB.Collection(ticketsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vendorEmail", Value: 1}}},
		{Keys: bson.D{{Key: "approved", Value: 1}, {Key: "advertised", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("tickets index: %w", err)
	}
	if _, err := s.DB.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "vendorEmail", Value: 1}, {Key: "status", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("bookings index: %w", err)
	}
	return nil
}

func (s *Store) Tickets() services.TicketStore {
	return ticketStore{coll: s.DB.Collection(ticketsCollection)}
}

func (s *Store) Bookings() services.BookingStore {
	return bookingStore{
		coll:    s.DB.Collection(bookingsCollection),
		tickets: s.DB.Collection(ticketsCollection),
		txs:     s.DB.Collection(transactionsCollection),
	}
}

func (s *Store) Users() services.UserStore {
	return userStore{coll: s.DB.Collection(usersCollection)}
}

func (s *Store) Transactions() services.TransactionStore {
	return transactionStore{coll: s.DB.Collection(transactionsCollection)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

// objectID parses a hex id. Malformed ids are reported as validation errors.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ValidationError{Field: "id", Msg: "malformed id", Err: err}
	}
	return oid, nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}
