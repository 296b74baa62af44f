// Package router registers resumatch's HTTP routes, grounded on the
// teacher's router.go (h.Group("/api/v1"), one handler struct threaded
// through every route).
package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"resumatch/internal/api/handler"
)

// Register wires every spec.md §6 endpoint plus the two supplemented
// endpoints from SPEC_FULL.md §8 onto h.
func Register(h *server.Hertz, hdlr *handler.Handler) {
	api := h.Group("/api/v1")

	api.POST("/upload", hdlr.Upload)

	analysis := api.Group("/analysis")
	analysis.GET("/documents", hdlr.ListDocuments)
	analysis.GET("/documents/:file_id", hdlr.DocumentStatus)
	analysis.DELETE("/documents/:file_id", hdlr.DeleteDocument)
	analysis.POST("/match", hdlr.Match)
	analysis.POST("/gap-analysis", hdlr.GapAnalysis)

	api.POST("/roadmap/generate", hdlr.Roadmap)

	catalogGroup := api.Group("/catalog")
	catalogGroup.GET("/resources", hdlr.CatalogResources)

	h.GET("/health", hdlr.Health)
	h.GET("/healthz", hdlr.Health)
}
