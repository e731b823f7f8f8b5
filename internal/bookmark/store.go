// Package bookmark stores the hotels each user has saved.
package bookmark

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/apperr"
)

const keyPrefix = "bookmark:"

// Bookmark is one saved hotel.
type Bookmark struct {
	HotelID string    `json:"hotel_id"`
	AddedAt time.Time `json:"added_at"`
}

// Store persists bookmarks per user.
type Store interface {
	// List returns the user's bookmarks, oldest first.
	List(ctx context.Context, userID string) ([]Bookmark, error)
	// Add saves a hotel. Saving it again keeps the original timestamp.
	Add(ctx context.Context, userID, hotelID string) (Bookmark, error)
	// Remove deletes a hotel. Removing an unsaved hotel is not an error.
	Remove(ctx context.Context, userID, hotelID string) error
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens or creates the database at path. An empty path keeps
// everything in memory.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open bookmark db: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func userPrefix(userID string) []byte {
	return []byte(keyPrefix + userID + ":")
}

func key(userID, hotelID string) []byte {
	return []byte(keyPrefix + userID + ":" + hotelID)
}

func validate(userID, hotelID string) error {
	if userID == "" || strings.Contains(userID, ":") {
		return apperr.Invalid("invalid user id")
	}
	if strings.TrimSpace(hotelID) == "" {
		return apperr.Invalid("hotel_id is required")
	}
	return nil
}

// List returns the user's bookmarks, oldest first.
func (s *BadgerStore) List(ctx context.Context, userID string) ([]Bookmark, error) {
	if err := validate(userID, "-"); err != nil {
		return nil, err
	}

	bookmarks := []Bookmark{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var b Bookmark
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			})
			if err != nil {
				return fmt.Errorf("decode bookmark: %w", err)
			}
			bookmarks = append(bookmarks, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	slices.SortStableFunc(bookmarks, func(a, b Bookmark) int {
		return cmp.Compare(a.AddedAt.UnixNano(), b.AddedAt.UnixNano())
	})
	return bookmarks, nil
}

// Add saves a hotel for the user.
func (s *BadgerStore) Add(ctx context.Context, userID, hotelID string) (Bookmark, error) {
	if err := validate(userID, hotelID); err != nil {
		return Bookmark{}, err
	}

	var saved Bookmark
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(userID, hotelID)

		item, err := txn.Get(k)
		switch {
		case err == nil:
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &saved)
			})
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("get bookmark: %w", err)
		}

		saved = Bookmark{HotelID: hotelID, AddedAt: s.now().UTC()}
		data, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("marshal bookmark: %w", err)
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}
	return saved, nil
}

// Remove deletes a hotel from the user's bookmarks.
func (s *BadgerStore) Remove(ctx context.Context, userID, hotelID string) error {
	if err := validate(userID, hotelID); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(userID, hotelID))
	})
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}
