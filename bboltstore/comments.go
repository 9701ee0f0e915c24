package bboltstore

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/hypergopher/soundbite"
)

func (s *CommentStore) Create(ctx context.Context, comment *soundbite.Comment) (*soundbite.Comment, error) {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		commentBytes, err := comment.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize comment: %w", err)
		}

		return b.Put([]byte(comment.ID), commentBytes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment %s in bolt: %w", comment.ID, err)
	}

	return comment, nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*soundbite.Comment, error) {
	var comment *soundbite.Comment
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		commentBytes := b.Get([]byte(id))
		if commentBytes == nil {
			return soundbite.ErrCommentNotFound
		}

		var err error
		comment, err = soundbite.DeserializeComment(commentBytes)
		if err != nil {
			return fmt.Errorf("error deserializing comment: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrCommentNotFound) {
			return nil, soundbite.ErrCommentNotFound
		}
		return nil, fmt.Errorf("error getting comment %s: %w", id, err)
	}

	return comment, nil
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if b.Get([]byte(id)) == nil {
			return soundbite.ErrCommentNotFound
		}

		return b.Delete([]byte(id))
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrCommentNotFound) {
			return soundbite.ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment %s in bolt: %w", id, err)
	}

	return nil
}

// DeleteByPost removes every comment owned by the given post slug in a
// single cursor pass.
func (s *CommentStore) DeleteByPost(ctx context.Context, slug string) error {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketComments))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		cursor := b.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			comment, err := soundbite.DeserializeComment(v)
			if err != nil {
				return fmt.Errorf("error deserializing comment: %w", err)
			}
			if comment.Post != slug {
				continue
			}
			if err := cursor.Delete(); err != nil {
				return fmt.Errorf("failed to delete comment %s: %w", comment.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete comments for post %s: %w", slug, err)
	}

	return nil
}
