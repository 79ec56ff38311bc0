package http

import (
	"errors"
	"net/http"

	apierrors "mktpulse/internal/errors"
	"mktpulse/internal/services"
)

// handleServiceError maps service-level input errors to 400 and leaves
// everything else to the error handler.
func handleServiceError(eh *apierrors.ErrorHandler, w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrInvalidInput) {
		err = apierrors.InvalidRequestWithError(err)
	}
	eh.HandleError(w, r, err)
}
