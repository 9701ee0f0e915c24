package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hypergopher/soundbite"
)

type postBody struct {
	Post soundbite.PostView `json:"post"`
}

type postsBody struct {
	Posts      []soundbite.PostView `json:"posts"`
	PostsCount int                  `json:"postsCount"`
}

// loadPost resolves the {slug} path parameter before the handler body
// runs, short-circuiting to 404 for unknown slugs.
func (a *API) loadPost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, err := a.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPost, post)))
	})
}

func loadedPost(r *http.Request) *soundbite.Post {
	post, _ := r.Context().Value(ctxPost).(*soundbite.Post)
	return post
}

func (a *API) handleListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := pagination(r)

	posts, total, err := a.service.ListPosts(r.Context(), soundbite.ListQuery{
		Tag:         query.Get("tag"),
		Author:      query.Get("author"),
		FavoritedBy: query.Get("favorited"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respondPosts(w, r, posts, total)
}

func (a *API) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	posts, total, err := a.service.Feed(r.Context(), currentUser(r), limit, offset)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respondPosts(w, r, posts, total)
}

func (a *API) respondPosts(w http.ResponseWriter, r *http.Request, posts []*soundbite.Post, total int) {
	views, err := a.service.PostViews(r.Context(), posts, currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, postsBody{Posts: views, PostsCount: total})
}

func (a *API) handleGetPost(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.PostView(r.Context(), loadedPost(r), currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, postBody{Post: view})
}

func (a *API) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Post soundbite.PostFields `json:"post"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	post, err := a.service.CreatePost(r.Context(), currentUser(r), req.Post)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	view, err := a.service.PostView(r.Context(), post, currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, postBody{Post: view})
}

func (a *API) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Post soundbite.PostPatch `json:"post"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	post, err := a.service.UpdatePost(r.Context(), loadedPost(r), req.Post, currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	view, err := a.service.PostView(r.Context(), post, currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, postBody{Post: view})
}

func (a *API) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeletePost(r.Context(), loadedPost(r), currentUser(r)); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleFavorite(w http.ResponseWriter, r *http.Request) {
	a.setFavorite(w, r, a.service.FavoritePost)
}

func (a *API) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	a.setFavorite(w, r, a.service.UnfavoritePost)
}

func (a *API) setFavorite(w http.ResponseWriter, r *http.Request,
	op func(context.Context, *soundbite.Post, *soundbite.User) (*soundbite.Post, error)) {
	post, err := op(r.Context(), loadedPost(r), currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	view, err := a.service.PostView(r.Context(), post, currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, postBody{Post: view})
}

func (a *API) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.service.Tags(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, struct {
		Tags []string `json:"tags"`
	}{Tags: tags})
}

// pagination reads limit and offset query parameters. Values that do not
// parse fall back to the defaults.
func pagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	limit = soundbite.DefaultPageSize
	if raw := query.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
