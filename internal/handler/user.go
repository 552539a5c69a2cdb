package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/glencoden/cards-api/internal/model"
)

// UserService is what UserHandler needs from the service layer. Declaring it
// here keeps the handler testable with a plain fake.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int32) (*model.User, error)
	Create(ctx context.Context, nu model.NewUser) (*model.User, error)
}

// UserHandler serves /users.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleList returns every user.
//
// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate stores a user and echoes the stored row, id included.
//
// HTTP: POST /users
// REQUEST BODY: {"name": "ann", "first": "Ann", "last": "Lee", "email": "ann@x.io"}
//
// Responds 200 rather than 201; existing clients expect it.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid user request", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.svc.Create(r.Context(), req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
