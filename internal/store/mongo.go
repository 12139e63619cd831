package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/models"
)

// MongoStore persists each conversation as a single document keyed by the
// conversation key. Message appends use $push and deletions $pull, so
// concurrent writers never overwrite each other's messages.
type MongoStore struct {
	coll *mongo.Collection
	log  *zap.SugaredLogger
}

func NewMongoStore(coll *mongo.Collection, log *zap.SugaredLogger) *MongoStore {
	ix := mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("participants_updated_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), ix)
	return &MongoStore{coll: coll, log: log}
}

func (s *MongoStore) Get(ctx context.Context, key string) (*models.Conversation, error) {
	var c models.Conversation
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) AppendMessage(ctx context.Context, key string, participants []string, msg models.Message) error {
	now := time.Now().UTC()
	update := bson.M{
		"$push":        bson.M{"messages": msg},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"participants": participants, "created_at": now},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) RemoveMessage(ctx context.Context, key, messageID string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{
		"$pull": bson.M{"messages": bson.M{"id": messageID}},
	})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	// The message is gone; a failed updated_at bump only skews list order.
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}); err != nil {
		s.log.Warnw("updated_at bump failed after delete", "conversation", key, "err", err)
	}
	return true, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, key, readerID string) (int64, error) {
	update := bson.M{"$set": bson.M{"messages.$[m].status": models.StatusRead}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"m.receiver_id": readerID,
			"m.status":      bson.M{"$ne": models.StatusRead},
		}},
	})
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, opts)
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		_, _ = s.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) ListForParticipant(ctx context.Context, id string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"participants": id}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Conversation{}
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// Subscribe watches the collection through a change stream filtered on the
// participants array. onChange fires once per change event; the projection
// layer re-reads the full set, so the event payload itself is not used.
func (s *MongoStore) Subscribe(ctx context.Context, participantID string, onChange func()) (func(), error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.participants": participantID}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := s.coll.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			onChange()
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			s.log.Errorw("change stream terminated", "participant", participantID, "err", err)
		}
	}()

	return cancel, nil
}
