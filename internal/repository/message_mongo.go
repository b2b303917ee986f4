package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/db"
)

// MongoStore is the MongoDB MessageStore.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, pings and ensures the conversation index.
func NewMongoStore(ctx context.Context, cfg *config.Config) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mongo index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Save(ctx context.Context, msg *db.Message) error {
	_, err := s.coll.InsertOne(ctx, msg)
	return err
}

func notExpired(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expire_at": nil},
		bson.M{"expire_at": bson.M{"$gt": now}},
	}}
}

func (s *MongoStore) Conversation(ctx context.Context, a, b uint64, search string, now time.Time) ([]db.Message, error) {
	and := bson.A{
		bson.M{"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		}},
		notExpired(now),
	}
	if search = strings.TrimSpace(search); search != "" {
		and = append(and, bson.M{"body": bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"$and": and}, opts)
	if err != nil {
		return nil, err
	}

	var msgs []db.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, receiverID, senderID uint64, at time.Time) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"receiver_id": receiverID, "sender_id": senderID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}},
	)
	return err
}

func (s *MongoStore) Latest(ctx context.Context, userID uint64, now time.Time) ([]db.Message, error) {
	filter := bson.M{"$and": bson.A{
		bson.M{"$or": bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}}},
		notExpired(now),
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(conversationScanWindow)

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var msgs []db.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return latestPerPartner(userID, msgs), nil
}
