package server

import (
	"errors"
	"net/http"

	"github.com/startupverse/dashboard/pkg/sdk"
)

const genericBackendMessage = "The service is unavailable right now. Please try again."

// backendError turns a failed backend call into the inline message and the
// status the page responds with.
func backendError(what string, err error) (string, int) {
	var netErr *sdk.NetworkError
	if !errors.As(err, &netErr) {
		return "Could not load " + what + ". " + genericBackendMessage, http.StatusBadGateway
	}

	switch {
	case netErr.StatusCode == http.StatusNotFound:
		return "We could not find that " + what + ".", http.StatusNotFound
	case sdk.IsForbidden(err):
		return "You do not have access to " + what + ".", http.StatusForbidden
	case netErr.Detail != "":
		return "Could not load " + what + ": " + netErr.Detail, http.StatusBadGateway
	default:
		return "Could not load " + what + ". " + genericBackendMessage, http.StatusBadGateway
	}
}

// submitError is backendError for writes.
func submitError(what string, err error) (string, int) {
	var netErr *sdk.NetworkError
	if errors.As(err, &netErr) && netErr.Detail != "" {
		return "Could not " + what + ": " + netErr.Detail, http.StatusBadGateway
	}
	return "Could not " + what + ". " + genericBackendMessage, http.StatusBadGateway
}
