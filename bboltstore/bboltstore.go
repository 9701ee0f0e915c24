// Package bboltstore implements the soundbite stores on top of a bbolt
// document store with a bleve index for post queries.
package bboltstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.etcd.io/bbolt"

	"github.com/hypergopher/soundbite"
)

const (
	bboltFile = "soundbite.db"
	bleveFile = "soundbite.bleve"

	bucketPosts    = "posts"
	bucketComments = "comments"
	bucketUsers    = "users"
	bucketTags     = "tags"
)

// Store owns the bbolt and bleve indexes behind the soundbite stores.
// Documents live in bbolt buckets keyed by their natural identifier (slug,
// username, comment ID); post listings go through the bleve index, which
// holds one document per post with exact-match author and tag fields. The
// per-entity stores returned by Posts, Users and Comments share this
// handle.
type Store struct {
	boltIndex  *bbolt.DB
	bleveIndex bleve.Index
	dataDir    string
	logger     *slog.Logger
	mu         sync.Mutex
}

// PostStore implements soundbite.PostStore.
type PostStore struct{ *Store }

// UserStore implements soundbite.UserStore.
type UserStore struct{ *Store }

// CommentStore implements soundbite.CommentStore.
type CommentStore struct{ *Store }

// Posts returns the post store view of this backend.
func (s *Store) Posts() *PostStore { return &PostStore{s} }

// Users returns the user store view of this backend.
func (s *Store) Users() *UserStore { return &UserStore{s} }

// Comments returns the comment store view of this backend.
func (s *Store) Comments() *CommentStore { return &CommentStore{s} }

// New creates a Store rooted at dataDir. Call Init before use.
func New(dataDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Store{
		dataDir: dataDir,
		logger:  logger,
	}
}

// Init opens the bbolt and bleve indexes, creating them if necessary.
func (s *Store) Init() error {
	// bbolt.Open does not create missing parent directories.
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir %s: %w", s.dataDir, err)
	}

	boltIndex, err := s.initBolt()
	if err != nil {
		return fmt.Errorf("failed to initialize bbolt: %w", err)
	}
	s.boltIndex = boltIndex

	bleveIndex, err := s.initBleve()
	if err != nil {
		return fmt.Errorf("failed to initialize bleve: %w", err)
	}
	s.bleveIndex = bleveIndex

	return nil
}

// Close closes both indexes.
func (s *Store) Close() error {
	if s.boltIndex != nil {
		if err := s.boltIndex.Close(); err != nil {
			return err
		}
	}

	if s.bleveIndex != nil {
		return s.bleveIndex.Close()
	}

	return nil
}

func (s *Store) initBolt() (*bbolt.DB, error) {
	boltPath := filepath.Join(s.dataDir, bboltFile)
	boltIndex, err := bbolt.Open(boltPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt index: %w", err)
	}

	err = boltIndex.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{bucketPosts, bucketComments, bucketUsers, bucketTags} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return boltIndex, nil
}

func (s *Store) initBleve() (bleve.Index, error) {
	blevePath := filepath.Join(s.dataDir, bleveFile)
	index, err := bleve.Open(blevePath)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		s.logger.Debug("creating new bleve index", slog.String("path", blevePath))
		index, err = bleve.NewUsing(blevePath, definePostMapping(), bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create bleve index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open bleve index: %w", err)
	}

	return index, nil
}

// definePostMapping maps the fields List queries against. Author, tag and
// slug fields use the keyword analyzer so filters are exact matches rather
// than tokenized ones.
func definePostMapping() *mapping.IndexMappingImpl {
	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("slug", keywordField)
	docMapping.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("author", keywordField)
	docMapping.AddFieldMappingsAt("tagList", keywordField)
	docMapping.AddFieldMappingsAt("createdAt", bleve.NewDateTimeFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelDebug,
		}))
}

var _ soundbite.PostStore = (*PostStore)(nil)
var _ soundbite.UserStore = (*UserStore)(nil)
var _ soundbite.CommentStore = (*CommentStore)(nil)
