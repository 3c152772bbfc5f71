package handlers

import (
	"net/http"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// RootMessage is the plain-text body served at /
const RootMessage = "API Working!"

// Root answers the bare liveness check used by the frontend
func Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(RootMessage))
}

// Disclaimer serves the site notice
func Disclaimer(w http.ResponseWriter, _ *http.Request) error {
	respondJSON(w, http.StatusOK, models.SiteDisclaimer)
	return nil
}

// NotFound turns unmatched routes into the JSON error envelope
func NotFound(_ http.ResponseWriter, _ *http.Request) error {
	return apperror.NotFound("Route not found")
}
