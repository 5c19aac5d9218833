package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aramunz/bazar-backend/api/responses"
	"github.com/aramunz/bazar-backend/api/validators"
	contentsvc "github.com/aramunz/bazar-backend/internal/sitecontent"
	"github.com/aramunz/bazar-backend/pkg/logger"
)

type upsertContentRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=20000"`
}

// PublicGetContent serves one keyed text block to the storefront.
func PublicGetContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := svc.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, content)
	}
}

func ListContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contents, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, contents)
	}
}

func UpsertContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertContentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		content, err := svc.Upsert(r.Context(), chi.URLParam(r, "key"), contentsvc.UpsertContentInput{
			Title: validators.SanitizeString(payload.Title, 200),
			Body:  payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, content)
	}
}

func DeleteContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
