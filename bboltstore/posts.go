package bboltstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.etcd.io/bbolt"

	"github.com/hypergopher/soundbite"
)

// postDoc is the bleve projection of a post: only the fields List filters
// and sorts on. The document ID is the slug.
func postDoc(post *soundbite.Post) map[string]any {
	return map[string]any{
		"slug":      post.Slug,
		"title":     post.Title,
		"author":    post.Author,
		"tagList":   post.TagList,
		"createdAt": post.CreatedAt,
	}
}

func (s *PostStore) Create(ctx context.Context, post *soundbite.Post) (*soundbite.Post, error) {
	post.TagList = soundbite.UniqueTags(post.TagList)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if b.Get([]byte(post.Slug)) != nil {
			return soundbite.ErrSlugTaken
		}

		postBytes, err := post.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize post: %w", err)
		}

		if err := b.Put([]byte(post.Slug), postBytes); err != nil {
			return fmt.Errorf("failed to put post in bucket: %w", err)
		}

		for _, tag := range soundbite.UniqueTags(post.TagList) {
			if err := updateTagCount(tx, tag, 1); err != nil {
				return fmt.Errorf("failed to update tag count for %s: %w", tag, err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrSlugTaken) {
			return nil, soundbite.ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create post %s in bolt: %w", post.Slug, err)
	}

	if err := s.bleveIndex.Index(post.Slug, postDoc(post)); err != nil {
		return nil, fmt.Errorf("failed to index post %s in bleve: %w", post.Slug, err)
	}

	return post, nil
}

func (s *PostStore) Update(ctx context.Context, post *soundbite.Post) error {
	post.TagList = soundbite.UniqueTags(post.TagList)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		oldBytes := b.Get([]byte(post.Slug))
		if oldBytes == nil {
			return soundbite.ErrPostNotFound
		}

		old, err := soundbite.DeserializePost(oldBytes)
		if err != nil {
			return fmt.Errorf("error deserializing post: %w", err)
		}

		postBytes, err := post.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize post: %w", err)
		}

		if err := b.Put([]byte(post.Slug), postBytes); err != nil {
			return fmt.Errorf("failed to put post in bucket: %w", err)
		}

		return retagCounts(tx, old.TagList, post.TagList)
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrPostNotFound) {
			return soundbite.ErrPostNotFound
		}
		return fmt.Errorf("failed to update post %s in bolt: %w", post.Slug, err)
	}

	if err := s.bleveIndex.Index(post.Slug, postDoc(post)); err != nil {
		return fmt.Errorf("failed to reindex post %s in bleve: %w", post.Slug, err)
	}

	return nil
}

func (s *PostStore) Delete(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		postBytes := b.Get([]byte(slug))
		if postBytes == nil {
			return soundbite.ErrPostNotFound
		}

		post, err := soundbite.DeserializePost(postBytes)
		if err != nil {
			return fmt.Errorf("error deserializing post: %w", err)
		}

		if err := b.Delete([]byte(slug)); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		for _, tag := range soundbite.UniqueTags(post.TagList) {
			if err := updateTagCount(tx, tag, -1); err != nil {
				return fmt.Errorf("failed to update tag count for %s: %w", tag, err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrPostNotFound) {
			return soundbite.ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post %s in bolt: %w", slug, err)
	}

	if err := s.bleveIndex.Delete(slug); err != nil {
		return fmt.Errorf("failed to delete post %s from bleve: %w", slug, err)
	}

	return nil
}

func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*soundbite.Post, error) {
	var post *soundbite.Post
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		postBytes := b.Get([]byte(slug))
		if postBytes == nil {
			return soundbite.ErrPostNotFound
		}

		var err error
		post, err = soundbite.DeserializePost(postBytes)
		if err != nil {
			return fmt.Errorf("error deserializing post: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, soundbite.ErrPostNotFound) {
			return nil, soundbite.ErrPostNotFound
		}
		return nil, fmt.Errorf("error getting post %s: %w", slug, err)
	}

	return post, nil
}

// List runs the filter as a bleve conjunction query sorted newest-first and
// resolves each hit back to the full document in bolt. The result total
// ignores paging, as required for the list count.
func (s *PostStore) List(ctx context.Context, opts soundbite.ListOptions) ([]*soundbite.Post, int, error) {
	// An empty, non-nil slug set can never match anything.
	if opts.Slugs != nil && len(opts.Slugs) == 0 {
		return []*soundbite.Post{}, 0, nil
	}

	var queries []query.Query

	if opts.Tag != "" {
		tagQuery := bleve.NewTermQuery(opts.Tag)
		tagQuery.SetField("tagList")
		queries = append(queries, tagQuery)
	}

	switch len(opts.Authors) {
	case 0:
	case 1:
		authorQuery := bleve.NewTermQuery(opts.Authors[0])
		authorQuery.SetField("author")
		queries = append(queries, authorQuery)
	default:
		authorQueries := make([]query.Query, 0, len(opts.Authors))
		for _, author := range opts.Authors {
			authorQuery := bleve.NewTermQuery(author)
			authorQuery.SetField("author")
			authorQueries = append(authorQueries, authorQuery)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(authorQueries...))
	}

	if len(opts.Slugs) > 0 {
		queries = append(queries, bleve.NewDocIDQuery(opts.Slugs))
	}

	var postsQuery query.Query
	if len(queries) == 0 {
		postsQuery = bleve.NewMatchAllQuery()
	} else {
		postsQuery = bleve.NewConjunctionQuery(queries...)
	}

	request := bleve.NewSearchRequestOptions(postsQuery, opts.Limit, opts.Offset, false)
	request.SortBy([]string{"-createdAt", "_id"})

	result, err := s.bleveIndex.SearchInContext(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching for posts: %w", err)
	}

	posts := make([]*soundbite.Post, 0, len(result.Hits))
	for _, hit := range result.Hits {
		post, err := s.GetBySlug(ctx, hit.ID)
		if errors.Is(err, soundbite.ErrPostNotFound) {
			// Index entry with no document; skip rather than fail the page.
			s.logger.Warn("post in bleve but not in bolt", "slug", hit.ID)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}

	return posts, int(result.Total), nil
}

// Tags returns the distinct tags with a live reference count, in key order.
func (s *PostStore) Tags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTags))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, _ []byte) error {
			tags = append(tags, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("error getting tags: %w", err)
	}

	return tags, nil
}

// retagCounts applies the tag counter delta between an old and new tag list.
func retagCounts(tx *bbolt.Tx, oldTags, newTags []string) error {
	old := make(map[string]struct{}, len(oldTags))
	for _, tag := range soundbite.UniqueTags(oldTags) {
		old[tag] = struct{}{}
	}

	for _, tag := range soundbite.UniqueTags(newTags) {
		if _, ok := old[tag]; ok {
			delete(old, tag)
			continue
		}
		if err := updateTagCount(tx, tag, 1); err != nil {
			return fmt.Errorf("failed to update tag count for %s: %w", tag, err)
		}
	}

	for tag := range old {
		if err := updateTagCount(tx, tag, -1); err != nil {
			return fmt.Errorf("failed to update tag count for %s: %w", tag, err)
		}
	}

	return nil
}

func updateTagCount(tx *bbolt.Tx, tag string, delta int) error {
	b := tx.Bucket([]byte(bucketTags))
	if b == nil {
		return fmt.Errorf("bucket not found")
	}

	count := 0
	key := []byte(tag)
	countBytes := b.Get(key)
	if countBytes != nil {
		count = int(binary.BigEndian.Uint64(countBytes))
	}

	count += delta
	if count <= 0 {
		return b.Delete(key)
	}

	newCount := make([]byte, 8)
	binary.BigEndian.PutUint64(newCount, uint64(count))
	return b.Put(key, newCount)
}
