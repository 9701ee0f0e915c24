package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hypergopher/soundbite"
)

// userView is the authenticated-account projection, token included. It is
// only ever returned to the account owner.
type userView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Token    string `json:"token"`
}

type userBody struct {
	User userView `json:"user"`
}

type profileBody struct {
	Profile soundbite.Profile `json:"profile"`
}

func (a *API) respondUser(w http.ResponseWriter, r *http.Request, status int, user *soundbite.User) {
	token, err := a.IssueToken(user.Username)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, status, userBody{User: userView{
		Username: user.Username,
		Email:    user.Email,
		Bio:      user.Bio,
		Image:    user.Image,
		Token:    token,
	}})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	user, err := a.service.Register(r.Context(), req.User.Username, req.User.Email, req.User.Password)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondUser(w, r, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	user, err := a.service.Authenticate(r.Context(), req.User.Username, req.User.Password)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondUser(w, r, http.StatusOK, user)
}

func (a *API) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	a.respondUser(w, r, http.StatusOK, currentUser(r))
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.service.ProfileView(r.Context(), chi.URLParam(r, "username"), currentUser(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, profileBody{Profile: profile})
}

func (a *API) handleFollow(w http.ResponseWriter, r *http.Request) {
	a.setFollow(w, r, a.service.FollowUser)
}

func (a *API) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	a.setFollow(w, r, a.service.UnfollowUser)
}

func (a *API) setFollow(w http.ResponseWriter, r *http.Request,
	op func(context.Context, *soundbite.User, string) (soundbite.Profile, error)) {
	profile, err := op(r.Context(), currentUser(r), chi.URLParam(r, "username"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, profileBody{Profile: profile})
}
