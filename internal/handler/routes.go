package handler

import (
	"net/http"

	appmiddleware "oversite-cms/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures a new chi router. corsOrigin pins the
// single admin client allowed to call the API cross-origin.
func NewRouter(contentHandler *ContentHandler, publishHandler *PublishHandler, errorMiddleware func(appmiddleware.AppHandler) http.Handler, corsOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		// Publish workflow. Static segments, so these win over the
		// generic content-type routes below.
		r.Method(http.MethodGet, "/git/status", errorMiddleware(publishHandler.statusHandler))
		r.Method(http.MethodPost, "/git/pull", errorMiddleware(publishHandler.pullHandler))
		r.Method(http.MethodPost, "/git/push", errorMiddleware(publishHandler.pushHandler))
		r.Method(http.MethodPost, "/git/undo", errorMiddleware(publishHandler.undoHandler))

		// Content CRUD
		r.Method(http.MethodGet, "/{contentType}", errorMiddleware(contentHandler.listHandler))
		r.Method(http.MethodPost, "/{contentType}", errorMiddleware(contentHandler.createHandler))
		r.Method(http.MethodPost, "/{contentType}/bulk-featured", errorMiddleware(contentHandler.bulkFeaturedHandler))
		r.Method(http.MethodGet, "/{contentType}/{id}", errorMiddleware(contentHandler.getHandler))
		r.Method(http.MethodPut, "/{contentType}/{id}", errorMiddleware(contentHandler.updateHandler))
		r.Method(http.MethodDelete, "/{contentType}/{id}", errorMiddleware(contentHandler.deleteHandler))

		// Media
		r.Method(http.MethodPost, "/{contentType}/{id}/upload", errorMiddleware(contentHandler.uploadHandler))
		r.Method(http.MethodGet, "/{contentType}/{id}/images", errorMiddleware(contentHandler.listImagesHandler))
		r.Method(http.MethodDelete, "/{contentType}/{id}/images/{filename}", errorMiddleware(contentHandler.deleteImageHandler))
	})

	return r
}
