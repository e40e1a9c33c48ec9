package history

import (
	"context"
	"errors"
	"sort"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/google/uuid"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SNAPSHOTS_COLLECTION = "snapshots"

type snapshotDocument struct {
	ID       string `bson:"_id"`
	GameID   int    `bson:"gameId"`
	UnixNano int64  `bson:"unixNano"`
	Data     []byte `bson:"data"`
}

type MongoStore struct {
	collection *mongo.Collection
	codec      *codec.Codec
}

func NewMongoStore(ctx context.Context, db *mongo.Database, c *codec.Codec) *MongoStore {
	store := &MongoStore{
		collection: db.Collection(SNAPSHOTS_COLLECTION),
		codec:      c,
	}
	store.ensureIndexes(ctx)
	return store
}

func (m *MongoStore) ensureIndexes(ctx context.Context) {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "gameId", Value: 1},
			{Key: "unixNano", Value: 1},
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to create snapshot index")
	}
}

func (m *MongoStore) Games(ctx context.Context) ([]int, error) {
	values, err := m.collection.Distinct(ctx, "gameId", bson.M{})
	if err != nil {
		return nil, err
	}

	games := make([]int, 0, len(values))
	for _, value := range values {
		switch id := value.(type) {
		case int32:
			games = append(games, int(id))
		case int64:
			games = append(games, int(id))
		}
	}

	sort.Ints(games)
	return games, nil
}

func (m *MongoStore) find(ctx context.Context, gameID int) ([][]byte, error) {
	opts := options.Find().SetSort(bson.D{{Key: "unixNano", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{"gameId": gameID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var documents []snapshotDocument
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, err
	}

	records := make([][]byte, len(documents))
	for i, document := range documents {
		records[i] = document.Data
	}
	return records, nil
}

func (m *MongoStore) Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error) {
	records, err := m.find(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return decodeRecords(m.codec, gameID, records), nil
}

func (m *MongoStore) Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error) {
	var document snapshotDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "unixNano", Value: -1}})
	err := m.collection.FindOne(ctx, bson.M{"gameId": gameID}, opts).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return opt.None[game.Snapshot](), nil
	}
	if err != nil {
		return opt.None[game.Snapshot](), err
	}

	latest := latestRecord(m.codec, gameID, [][]byte{document.Data})
	if !opt.IsNone(latest) {
		return latest, nil
	}

	records, err := m.find(ctx, gameID)
	if err != nil {
		return opt.None[game.Snapshot](), err
	}
	return latestRecord(m.codec, gameID, records), nil
}

func (m *MongoStore) Append(ctx context.Context, gameID int, snapshot game.Snapshot) error {
	data, err := m.codec.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = m.collection.InsertOne(ctx, snapshotDocument{
		ID:       uuid.NewString(),
		GameID:   gameID,
		UnixNano: snapshot.Time.UnixNano(),
		Data:     data,
	})
	return err
}

var _ Store = (*MongoStore)(nil)
