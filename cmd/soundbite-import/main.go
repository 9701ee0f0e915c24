// Command soundbite-import bulk-imports markdown post files into the
// store, or exports stored posts back out as markdown with frontmatter.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hypergopher/soundbite"
	"github.com/hypergopher/soundbite/bboltstore"
	"github.com/hypergopher/soundbite/sqlitestore"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	dir := flag.String("dir", ".", "directory to read markdown files from (or write to with -export)")
	author := flag.String("author", "", "fallback author username for files without one in frontmatter")
	export := flag.Bool("export", false, "export stored posts to -dir instead of importing")
	format := flag.String("format", "yaml", "frontmatter format for export, yaml or toml")
	flag.Parse()

	if err := run(*configPath, *dir, *author, *export, *format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, dir, author string, export bool, format string) error {
	cfg, err := soundbite.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	service, closeStore, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	if export {
		ff := soundbite.FrontmatterFormat(format)
		if ff != soundbite.FrontmatterYAML && ff != soundbite.FrontmatterTOML {
			return fmt.Errorf("unknown frontmatter format %q (want yaml or toml)", format)
		}
		return exportPosts(ctx, service, dir, ff, logger)
	}
	return importPosts(ctx, service, dir, author, logger)
}

// importPosts walks dir for .md files and creates a post from each one.
// The author comes from the file's frontmatter, falling back to the
// -author flag, and must be an existing user.
func importPosts(ctx context.Context, service *soundbite.Soundbite, dir, fallbackAuthor string, logger *slog.Logger) error {
	parse := soundbite.DefaultMarkdownParser()

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		md, err := parse(content)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		username := md.Meta.Author
		if username == "" {
			username = fallbackAuthor
		}
		if username == "" {
			return fmt.Errorf("%s: no author in frontmatter and no -author flag", path)
		}
		author, err := service.GetUser(ctx, username)
		if err != nil {
			return fmt.Errorf("%s: author %s: %w", path, username, err)
		}

		title := md.Meta.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), ".md")
		}

		post, err := service.CreatePost(ctx, author, soundbite.PostFields{
			Title:       title,
			Description: md.Meta.Description,
			Body:        md.Body,
			TagList:     md.Meta.Tags,
		})
		if err != nil {
			return fmt.Errorf("failed to create post from %s: %w", path, err)
		}

		logger.Info("imported post", "file", path, "slug", post.Slug)
		return nil
	})
}

// exportPosts writes every stored post to dir as <slug>.md with
// frontmatter in the chosen format.
func exportPosts(ctx context.Context, service *soundbite.Soundbite, dir string, format soundbite.FrontmatterFormat, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	offset := 0
	for {
		posts, total, err := service.ListPosts(ctx, soundbite.ListQuery{
			Limit:  soundbite.DefaultPageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		if len(posts) == 0 {
			return nil
		}

		for _, post := range posts {
			meta := &soundbite.PostMeta{
				Title:       post.Title,
				Description: post.Description,
				Author:      post.Author,
				Tags:        post.TagList,
				Published:   post.CreatedAt,
			}
			content, err := soundbite.ComposePostFile(meta, post.Body, format)
			if err != nil {
				return fmt.Errorf("failed to compose %s: %w", post.Slug, err)
			}

			path := filepath.Join(dir, post.Slug+".md")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			logger.Info("exported post", "slug", post.Slug, "file", path)
		}

		offset += len(posts)
		if offset >= total {
			return nil
		}
	}
}

func buildService(cfg soundbite.Config, logger *slog.Logger) (*soundbite.Soundbite, func(), error) {
	switch cfg.Store {
	case soundbite.StoreBBolt:
		store := bboltstore.New(cfg.DataDir, logger)
		if err := store.Init(); err != nil {
			return nil, nil, fmt.Errorf("failed to init bbolt store: %w", err)
		}
		return soundbite.New(store.Posts(), store.Users(), store.Comments(), logger),
			func() { _ = store.Close() }, nil

	case soundbite.StoreSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		store, err := sqlitestore.Open(filepath.Join(cfg.DataDir, "soundbite.sqlite"), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := store.Init(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to init sqlite store: %w", err)
		}
		return soundbite.New(store.Posts(), store.Users(), store.Comments(), logger),
			func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
