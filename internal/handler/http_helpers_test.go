package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"neemee-server/internal/domain"

	pkgerrors "neemee-server/pkg/errors"
)

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Field: "page_url", Message: "must be a valid absolute URL"}, http.StatusBadRequest},
		{domain.ErrHighlightNotFound, http.StatusNotFound},
		{domain.ErrInvalidAPIKey, http.StatusUnauthorized},
		{domain.ErrAccessDenied, http.StatusForbidden},
		{domain.ErrConcurrentUpdate, http.StatusConflict},
		{domain.ErrInvalidStatusTransition, http.StatusConflict},
		{pkgerrors.NewInternalError("boom", nil), http.StatusInternalServerError},
		{pkgerrors.NewNetworkError("backend down", nil), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		respondError(rr, tc.err)
		if rr.Code != tc.want {
			t.Errorf("respondError(%v): expected status %d, got %d", tc.err, tc.want, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
	}
}
