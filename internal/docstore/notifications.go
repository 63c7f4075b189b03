package docstore

import (
	"context"

	"devgram/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	coll *mongo.Collection
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.PrepareForInsert()
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	list := []models.Notification{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipient string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx, markReadFilter(recipient, ids), bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.ModifiedCount, nil
}
