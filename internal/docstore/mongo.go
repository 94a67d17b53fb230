package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps every path to a MongoDB collection.  Subscribers reload on
// change stream events; deployments without change streams (standalone
// servers) fall back to polling.
type MongoStore struct {
	DB           *mongo.Database
	PollInterval time.Duration
}

// NewMongoStore wires a store over a database handle.
func NewMongoStore(db *mongo.Database, poll time.Duration) *MongoStore {
	return &MongoStore{DB: db, PollInterval: poll}
}

func (s *MongoStore) coll(path Path) *mongo.Collection {
	return s.DB.Collection(strings.ReplaceAll(path.String(), "/", "."))
}

func (s *MongoStore) load(ctx context.Context, path Path) ([]Document, error) {
	// ids are ULIDs, so sorting by _id keeps insertion order
	cur, err := s.coll(path).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo store: find %s: %w", path, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("mongo store: read %s: %w", path, err)
	}
	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		id := idString(m["_id"])
		delete(m, "_id")
		f, err := toFields(m)
		if err != nil {
			glog.Warningf("mongo store: skip %s/%s: %v", path, id, err)
			continue
		}
		docs = append(docs, Document{ID: id, Fields: f})
	}
	return docs, nil
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	default:
		return fmt.Sprint(t)
	}
}

// toFields normalises driver types (int32, primitive.A, nested bson.M) into
// JSON shaped values.
func toFields(m bson.M) (Fields, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *MongoStore) Subscribe(ctx context.Context, path Path) (<-chan Snapshot, error) {
	notify := make(chan struct{}, 1)
	load := func(ctx context.Context) ([]Document, error) { return s.load(ctx, path) }

	cs, err := s.coll(path).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		glog.Warningf("mongo store: change stream %s unavailable, polling: %v", path, err)
		go poll(ctx, s.PollInterval, notify)
		return watch(ctx, load, notify, nil), nil
	}
	go func() {
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			signal(notify)
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			glog.Warningf("mongo store: change stream %s ended, polling: %v", path, err)
			poll(ctx, s.PollInterval, notify)
		}
	}()
	return watch(ctx, load, notify, nil), nil
}

func (s *MongoStore) Insert(ctx context.Context, path Path, fields Fields) (string, error) {
	id := NewID()
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := s.coll(path).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongo store: insert %s: %w", path, err)
	}
	return id, nil
}

func (s *MongoStore) Overwrite(ctx context.Context, path Path, id string, fields Fields) error {
	repl := bson.M{}
	for k, v := range fields {
		repl[k] = v
	}
	res, err := s.coll(path).ReplaceOne(ctx, bson.M{"_id": id}, repl)
	if err != nil {
		return fmt.Errorf("mongo store: overwrite %s/%s: %w", path, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, path Path, id string) error {
	if _, err := s.coll(path).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo store: delete %s/%s: %w", path, id, err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.DB.Client().Disconnect(ctx)
}
