package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
)

// maxBodyBytes caps request bodies at 1 MiB.
const maxBodyBytes = 1 << 20

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves every request.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON name ("user_id", not "UserID")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WIRE SHAPES:
// Request fields are pointers so that a missing field (nil) can be told
// apart from a present zero value: {"rating": 0} is valid, {} is not.
// Unknown fields are ignored.

type createUserRequest struct {
	Name  *string `json:"name" validate:"required"`
	First *string `json:"first" validate:"required"`
	Last  *string `json:"last" validate:"required"`
	Email *string `json:"email" validate:"required"`
}

func (r createUserRequest) toModel() model.NewUser {
	return model.NewUser{
		Name:  *r.Name,
		First: *r.First,
		Last:  *r.Last,
		Email: *r.Email,
	}
}

type createDeckRequest struct {
	UserID *int32           `json:"user_id" validate:"required"`
	From   *string          `json:"from" validate:"required"`
	To     *string          `json:"to" validate:"required"`
	SeenAt *model.Timestamp `json:"seen_at" validate:"required"`
}

func (r createDeckRequest) toModel() model.NewDeck {
	return model.NewDeck{
		UserID: *r.UserID,
		From:   *r.From,
		To:     *r.To,
		SeenAt: *r.SeenAt,
	}
}

type createCardRequest struct {
	UserID     *int32           `json:"user_id" validate:"required"`
	DeckID     *int32           `json:"deck_id" validate:"required"`
	From       *string          `json:"from" validate:"required"`
	To         *string          `json:"to" validate:"required"`
	Example    *string          `json:"example" validate:"required"`
	AudioURL   *string          `json:"audio_url" validate:"required"`
	SeenAt     *model.Timestamp `json:"seen_at" validate:"required"`
	SeenFor    *int32           `json:"seen_for" validate:"required"`
	Rating     *int32           `json:"rating" validate:"required"`
	PrevRating *int32           `json:"prev_rating" validate:"required"`
	Related    []int32          `json:"related" validate:"required"` // nil when absent or null; [] is valid
}

func (r createCardRequest) toModel() model.NewCard {
	return model.NewCard{
		UserID:     *r.UserID,
		DeckID:     *r.DeckID,
		From:       *r.From,
		To:         *r.To,
		Example:    *r.Example,
		AudioURL:   *r.AudioURL,
		SeenAt:     *r.SeenAt,
		SeenFor:    *r.SeenFor,
		Rating:     *r.Rating,
		PrevRating: *r.PrevRating,
		Related:    r.Related,
	}
}

// decodeJSON reads exactly one JSON object from the body into dst and
// validates it. Every failure is an apperror.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return apperror.ValidationFailed(field, fmt.Sprintf("missing field %q", field))
		}
		return apperror.ValidationFailed("", err.Error())
	}
	return nil
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return apperror.ValidationFailed("", "request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.ValidationFailed("", "request body contains malformed JSON")
	case errors.As(err, &syntaxErr):
		return apperror.ValidationFailed("", fmt.Sprintf("request body contains malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return apperror.ValidationFailed("", "request body must be a JSON object")
		}
		return apperror.ValidationFailed(typeErr.Field,
			fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type))
	case errors.As(err, &sizeErr):
		return apperror.ValidationFailed("", fmt.Sprintf("request body must not exceed %d bytes", sizeErr.Limit))
	default:
		// e.g. an unparseable timestamp reported by model.Timestamp
		return apperror.ValidationFailed("", err.Error())
	}
}

// parseID reads the {id} path parameter. Only positive 32-bit integers
// written as plain decimal digits are accepted; signs are rejected.
func parseID(r *http.Request) (int32, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 || !isDigits(raw) {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("invalid id %q: must be a positive integer", raw))
	}
	return int32(id), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
