package cluster

import (
	"fmt"
	"net/http"
)

// NewBasicHealthHandler returns the liveness handler consul polls. It only
// confirms the process is up and serving HTTP.
func NewBasicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Service is alive.")
	}
}
