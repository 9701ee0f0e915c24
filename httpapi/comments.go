package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hypergopher/soundbite"
)

type commentBody struct {
	Comment soundbite.CommentView `json:"comment"`
}

type commentsBody struct {
	Comments []soundbite.CommentView `json:"comments"`
}

// loadComment resolves the {commentID} path parameter against the already
// loaded post, short-circuiting to 404 when the comment is unknown or
// belongs to a different post.
func (a *API) loadComment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comment, err := a.service.GetComment(r.Context(), loadedPost(r), chi.URLParam(r, "commentID"))
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxComment, comment)))
	})
}

func loadedComment(r *http.Request) *soundbite.Comment {
	comment, _ := r.Context().Value(ctxComment).(*soundbite.Comment)
	return comment
}

func (a *API) handleListComments(w http.ResponseWriter, r *http.Request) {
	views, err := a.service.Comments(r.Context(), loadedPost(r), currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, commentsBody{Comments: views})
}

func (a *API) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment struct {
			Body string `json:"body"`
		} `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	caller := currentUser(r)
	comment, err := a.service.AddComment(r.Context(), loadedPost(r), caller, req.Comment.Body)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, commentBody{Comment: soundbite.CommentView{
		ID:        comment.ID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		Author:    caller.ProfileFor(caller),
	}})
}

func (a *API) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	err := a.service.DeleteComment(r.Context(), loadedPost(r), loadedComment(r), currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusNoContent, nil)
}
