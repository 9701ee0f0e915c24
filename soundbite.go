package soundbite

import "log/slog"

// Soundbite is the main entry point for the social blogging core. It
// composes the three stores and implements the post, comment and user
// operations on top of them. Stores are injected explicitly; nothing is
// resolved from ambient global state.
type Soundbite struct {
	posts    PostStore
	users    UserStore
	comments CommentStore
	logger   *slog.Logger
}

func New(posts PostStore, users UserStore, comments CommentStore, logger *slog.Logger) *Soundbite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Soundbite{
		posts:    posts,
		users:    users,
		comments: comments,
		logger:   logger,
	}
}
