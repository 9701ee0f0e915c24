package soundbite

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.abhg.dev/goldmark/frontmatter"
	"gopkg.in/yaml.v3"
)

// FrontmatterFormat selects how post frontmatter is written on export.
type FrontmatterFormat string

const (
	FrontmatterYAML FrontmatterFormat = "yaml"
	FrontmatterTOML FrontmatterFormat = "toml"
)

// PostMeta is the frontmatter of a markdown post file used by the bulk
// import/export tooling.
type PostMeta struct {
	Title       string    `yaml:"title,omitempty" toml:"title,omitempty"`
	Description string    `yaml:"description,omitempty" toml:"description,omitempty"`
	Author      string    `yaml:"author,omitempty" toml:"author,omitempty"`
	Tags        []string  `yaml:"tags,omitempty" toml:"tags,omitempty"`
	Published   time.Time `yaml:"published,omitempty" toml:"published,omitempty"`
}

// MarkdownPost is a parsed markdown file: its frontmatter and the rendered
// HTML body.
type MarkdownPost struct {
	Meta PostMeta
	Body string
}

type MarkdownParserFunc func(input []byte) (*MarkdownPost, error)

// DefaultMarkdownParser returns a MarkdownParserFunc using goldmark with
// GFM, Typographer, Footnote and Frontmatter extensions, AutoHeadingID and
// Attribute parser options.
func DefaultMarkdownParser() MarkdownParserFunc {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			extension.Footnote,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
	)

	return func(input []byte) (*MarkdownPost, error) {
		return MarkdownToPost(md, input)
	}
}

// MarkdownToPost converts a markdown file to a MarkdownPost. Frontmatter
// may be YAML (---) or TOML (+++); a file without frontmatter yields an
// empty PostMeta.
func MarkdownToPost(md goldmark.Markdown, content []byte) (*MarkdownPost, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	post := &MarkdownPost{Body: buf.String()}

	data := frontmatter.Get(ctx)
	if data == nil {
		return post, nil
	}
	if err := data.Decode(&post.Meta); err != nil {
		return post, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	return post, nil
}

// GenerateFrontmatter marshals post metadata in the requested format.
func GenerateFrontmatter(meta *PostMeta, format FrontmatterFormat) (string, error) {
	if meta == nil {
		return "", nil
	}

	var frontmatter strings.Builder
	switch format {
	case FrontmatterYAML:
		yamlData, err := yaml.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML frontmatter: %w", err)
		}
		frontmatter.Write(yamlData)

	case FrontmatterTOML:
		encoder := toml.NewEncoder(&frontmatter)
		if err := encoder.Encode(meta); err != nil {
			return "", fmt.Errorf("failed to marshal TOML frontmatter: %w", err)
		}

	default:
		return "", fmt.Errorf("unsupported frontmatter format: %s", format)
	}

	return frontmatter.String(), nil
}

// ComposePostFile combines frontmatter and body into a markdown file.
func ComposePostFile(meta *PostMeta, body string, format FrontmatterFormat) (string, error) {
	fm, err := GenerateFrontmatter(meta, format)
	if err != nil {
		return "", err
	}

	switch format {
	case FrontmatterYAML:
		return fmt.Sprintf("---\n%s---\n\n%s", fm, body), nil
	case FrontmatterTOML:
		return fmt.Sprintf("+++\n%s+++\n\n%s", fm, body), nil
	default:
		return "", fmt.Errorf("unsupported frontmatter format: %s", format)
	}
}
