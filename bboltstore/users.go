package bboltstore

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/hypergopher/soundbite"
)

func (s *UserStore) Create(ctx context.Context, user *soundbite.User) (*soundbite.User, error) {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if b.Get([]byte(user.Username)) != nil {
			return soundbite.ErrUsernameTaken
		}

		userBytes, err := user.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize user: %w", err)
		}

		return b.Put([]byte(user.Username), userBytes)
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrUsernameTaken) {
			return nil, soundbite.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user %s in bolt: %w", user.Username, err)
	}

	return user, nil
}

func (s *UserStore) Update(ctx context.Context, user *soundbite.User) error {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if b.Get([]byte(user.Username)) == nil {
			return soundbite.ErrUserNotFound
		}

		userBytes, err := user.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize user: %w", err)
		}

		return b.Put([]byte(user.Username), userBytes)
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrUserNotFound) {
			return soundbite.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user %s in bolt: %w", user.Username, err)
	}

	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*soundbite.User, error) {
	var user *soundbite.User
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		userBytes := b.Get([]byte(username))
		if userBytes == nil {
			return soundbite.ErrUserNotFound
		}

		var err error
		user, err = soundbite.DeserializeUser(userBytes)
		if err != nil {
			return fmt.Errorf("error deserializing user: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrUserNotFound) {
			return nil, soundbite.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user %s: %w", username, err)
	}

	return user, nil
}

// CountFavoriters scans the users bucket counting favorites membership.
// This is a full scan on purpose: the favorites relation on users is the
// source of truth for a post's favorites count, never the cached counter.
func (s *UserStore) CountFavoriters(ctx context.Context, slug string) (int, error) {
	count := 0
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(_, userBytes []byte) error {
			user, err := soundbite.DeserializeUser(userBytes)
			if err != nil {
				return fmt.Errorf("error deserializing user: %w", err)
			}
			if user.IsFavorite(slug) {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("error counting favoriters of %s: %w", slug, err)
	}

	return count, nil
}
