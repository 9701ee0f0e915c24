package soundbite_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
)

const sampleMarkdown = `---
title: First Take
description: a short one
author: jake
tags:
  - demo
  - lofi
---

# First Take

Recorded in one sitting.
`

func TestDefaultMarkdownParser(t *testing.T) {
	parse := soundbite.DefaultMarkdownParser()

	t.Run("parses frontmatter and renders body", func(t *testing.T) {
		post, err := parse([]byte(sampleMarkdown))
		require.NoError(t, err)

		assert.Equal(t, "First Take", post.Meta.Title)
		assert.Equal(t, "a short one", post.Meta.Description)
		assert.Equal(t, "jake", post.Meta.Author)
		assert.Equal(t, []string{"demo", "lofi"}, post.Meta.Tags)
		assert.Contains(t, post.Body, "<h1")
		assert.Contains(t, post.Body, "Recorded in one sitting.")
		assert.NotContains(t, post.Body, "title: First Take")
	})

	t.Run("file without frontmatter yields empty meta", func(t *testing.T) {
		post, err := parse([]byte("just a paragraph\n"))
		require.NoError(t, err)
		assert.Empty(t, post.Meta.Title)
		assert.Contains(t, post.Body, "just a paragraph")
	})
}

func TestComposePostFile(t *testing.T) {
	meta := &soundbite.PostMeta{
		Title:     "First Take",
		Author:    "jake",
		Tags:      []string{"demo"},
		Published: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("yaml", func(t *testing.T) {
		content, err := soundbite.ComposePostFile(meta, "# First Take\n", soundbite.FrontmatterYAML)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(content, "---\n"))
		assert.Contains(t, content, "title: First Take")

		post, err := soundbite.DefaultMarkdownParser()([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, meta.Title, post.Meta.Title)
		assert.Equal(t, meta.Tags, post.Meta.Tags)
	})

	t.Run("toml", func(t *testing.T) {
		content, err := soundbite.ComposePostFile(meta, "# First Take\n", soundbite.FrontmatterTOML)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(content, "+++\n"))
		assert.Contains(t, content, `title = "First Take"`)

		post, err := soundbite.DefaultMarkdownParser()([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, meta.Title, post.Meta.Title)
		assert.Equal(t, meta.Author, post.Meta.Author)
	})

	t.Run("unknown format rejected", func(t *testing.T) {
		_, err := soundbite.ComposePostFile(meta, "", soundbite.FrontmatterFormat("ini"))
		assert.Error(t, err)
	})
}
