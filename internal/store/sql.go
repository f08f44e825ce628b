package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/embed" // sqlite wasm build
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// record is the persisted form of an item. Seq preserves insertion order.
type record struct {
	Seq        uint64 `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"not null;size:64;uniqueIndex:idx_records_collection_item"`
	ItemID     string `gorm:"column:item_id;not null;size:64;uniqueIndex:idx_records_collection_item"`
	Payload    string `gorm:"not null"`
}

func (record) TableName() string {
	return "records"
}

func (r *record) item() (model.Item, error) {
	var item model.Item
	if err := json.Unmarshal([]byte(r.Payload), &item); err != nil {
		return nil, errors.Wrapf(err, "decode item %s/%s", r.Collection, r.ItemID)
	}
	return item, nil
}

func (r *record) setItem(item model.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return errors.WithStack(err)
	}
	r.Payload = string(payload)
	return nil
}

// OpenSQLite opens a gorm database backed by the SQLite file at dsn.
func OpenSQLite(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=wal; PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}

// SQLStore implements Store on top of a gorm database.
type SQLStore struct {
	getDatabase func(ctx context.Context) (*gorm.DB, error)
	now         func() time.Time
}

// NewSQLStore creates a SQLStore. The schema is migrated on first use.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{
		getDatabase: createGetDatabase(db),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func createGetDatabase(db *gorm.DB) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			if err := db.AutoMigrate(&record{}); err != nil {
				migrateErr = errors.WithStack(err)
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db.WithContext(ctx), nil
	}
}

// List returns all items of a collection in insertion order.
func (s *SQLStore) List(ctx context.Context, collection string) ([]model.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var records []record
	if err := db.Where("collection = ?", collection).Order("seq asc").Find(&records).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	items := make([]model.Item, 0, len(records))
	for i := range records {
		item, err := records[i].item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (model.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	rec, err := findRecord(db, collection, id)
	if err != nil {
		return nil, err
	}

	return rec.item()
}

// Create adds a new item to the collection.
func (s *SQLStore) Create(ctx context.Context, collection string, item model.Item) (model.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if item == nil {
		return nil, errors.WithStack(ErrNilItem)
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	newItem := item.Clone()
	newItem.Stamp(uuid.New().String(), s.now())

	rec := record{
		Collection: collection,
		ItemID:     newItem.ID(),
	}
	if err := rec.setItem(newItem); err != nil {
		return nil, err
	}

	if err := db.Create(&rec).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return newItem, nil
}

// Update merges item into an existing item of the collection.
func (s *SQLStore) Update(ctx context.Context, collection, id string, item model.Item) (model.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if item == nil {
		return nil, errors.WithStack(ErrNilItem)
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var updated model.Item

	err = db.Transaction(func(tx *gorm.DB) error {
		rec, err := findRecord(tx, collection, id)
		if err != nil {
			return err
		}

		existing, err := rec.item()
		if err != nil {
			return err
		}

		updated = existing.Merge(item, s.now())
		if err := rec.setItem(updated); err != nil {
			return err
		}

		return errors.WithStack(tx.Model(rec).Update("payload", rec.Payload).Error)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an item from the collection by its ID.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	if id == "" {
		return ErrInvalidID
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	res := db.Where("collection = ? AND item_id = ?", collection, id).Delete(&record{})
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func findRecord(db *gorm.DB, collection, id string) (*record, error) {
	var rec record

	err := db.Where("collection = ? AND item_id = ?", collection, id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	return &rec, nil
}

var _ Store = (*SQLStore)(nil)
