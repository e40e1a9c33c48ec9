package history

import (
	"context"
	"errors"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/google/uuid"
	"github.com/repeale/fp-go/option"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SnapshotRecord struct {
	ID       string `gorm:"primaryKey;size:36"`
	GameID   int    `gorm:"not null;index:idx_game_time"`
	UnixNano int64  `gorm:"not null;index:idx_game_time"`
	Data     []byte `gorm:"not null"`
}

func (SnapshotRecord) TableName() string {
	return "snapshots"
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&SnapshotRecord{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

type SQLStore struct {
	db    *gorm.DB
	codec *codec.Codec
}

func NewSQLStore(db *gorm.DB, c *codec.Codec) *SQLStore {
	return &SQLStore{
		db:    db,
		codec: c,
	}
}

func (s *SQLStore) Games(ctx context.Context) ([]int, error) {
	var games []int
	err := s.db.WithContext(ctx).
		Model(&SnapshotRecord{}).
		Distinct("game_id").
		Order("game_id").
		Pluck("game_id", &games).
		Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func recordData(records []SnapshotRecord) [][]byte {
	data := make([][]byte, len(records))
	for i, record := range records {
		data[i] = record.Data
	}
	return data
}

func (s *SQLStore) Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error) {
	var records []SnapshotRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("unix_nano").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return decodeRecords(s.codec, gameID, recordData(records)), nil
}

func (s *SQLStore) Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error) {
	var record SnapshotRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("unix_nano desc").
		First(&record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return opt.None[game.Snapshot](), nil
	}
	if err != nil {
		return opt.None[game.Snapshot](), err
	}

	latest := latestRecord(s.codec, gameID, [][]byte{record.Data})
	if !opt.IsNone(latest) {
		return latest, nil
	}

	// The newest row is unreadable, fall back to the rest
	snapshots, err := s.Snapshots(ctx, gameID)
	if err != nil || len(snapshots) == 0 {
		return opt.None[game.Snapshot](), err
	}
	return opt.Some(snapshots[len(snapshots)-1]), nil
}

func (s *SQLStore) Append(ctx context.Context, gameID int, snapshot game.Snapshot) error {
	data, err := s.codec.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(&SnapshotRecord{
		ID:       uuid.NewString(),
		GameID:   gameID,
		UnixNano: snapshot.Time.UnixNano(),
		Data:     data,
	}).Error
}

var _ Store = (*SQLStore)(nil)
