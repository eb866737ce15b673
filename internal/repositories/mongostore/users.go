package mongostore

import (
	"context"
	"fmt"
	"strings"

	"onlineticket/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userStore struct {
	coll *mongo.Collection
}

func (r userStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&doc); err != nil {
		return models.User{}, notFoundOr(err, "user")
	}
	return doc.model(), nil
}

// Upsert never touches role, fraud or status of an existing user.
func (r userStore) Upsert(ctx context.Context, u models.User) (models.User, error) {
	email := strings.ToLower(u.Email)
	onInsert := bson.M{
		"_id":       primitive.NewObjectID(),
		"email":     email,
		"role":      u.Role,
		"fraud":     false,
		"status":    u.Status,
		"createdAt": u.CreatedAt,
	}
	set := bson.M{"lastLogin": u.LastLogin}
	if u.Name != "" {
		set["name"] = u.Name
	} else {
		onInsert["name"] = ""
	}
	if u.Photo != "" {
		set["photo"] = u.Photo
	} else {
		onInsert["photo"] = ""
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$setOnInsert": onInsert, "$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return r.GetByEmail(ctx, email)
}

func (r userStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r userStore) set(ctx context.Context, email string, fields bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": strings.ToLower(email)}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFoundOr(mongo.ErrNoDocuments, "user")
	}
	return nil
}

func (r userStore) SetRole(ctx context.Context, email, role string) error {
	return r.set(ctx, email, bson.M{"role": role})
}

func (r userStore) MarkFraud(ctx context.Context, email string) error {
	return r.set(ctx, email, bson.M{"fraud": true, "status": models.UserStatusBlocked})
}
