package docstore

import (
	"context"

	"devgram/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	coll *mongo.Collection
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	msg.PrepareForInsert()
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) ListForUser(ctx context.Context, username string) ([]models.Message, error) {
	return r.find(ctx, inboxFilter(username), -1)
}

func (r *messageRepository) Thread(ctx context.Context, a, b string) ([]models.Message, error) {
	return r.find(ctx, threadFilter(a, b), 1)
}

func (r *messageRepository) find(ctx context.Context, filter bson.M, order int) ([]models.Message, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
