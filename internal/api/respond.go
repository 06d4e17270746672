package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/queryhub-ai/queryhub/internal/core"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.WithError(err).Warn("Failed to encode JSON response")
		}
	}
}

// errorKinds maps the core taxonomy to HTTP statuses and coarse kind names.
// Only the sentinel text reaches the client; the wrapped upstream cause is
// logged server-side and never echoed back.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{core.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{core.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{core.ErrForbidden, http.StatusForbidden, "forbidden"},
	{core.ErrUnsupportedMediaType, http.StatusBadRequest, "unsupported_media_type"},
	{core.ErrCorruptDocument, http.StatusInternalServerError, "corrupt_document"},
	{core.ErrIngestionFailed, http.StatusInternalServerError, "ingestion_failed"},
	{core.ErrIndexUnavailable, http.StatusInternalServerError, "index_unavailable"},
	{core.ErrUpstreamTimeout, http.StatusInternalServerError, "upstream_timeout"},
	{core.ErrAgentError, http.StatusInternalServerError, "agent_error"},
}

func writeError(w http.ResponseWriter, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			if k.status >= 500 {
				log.WithError(err).Error("Request failed")
			}
			writeJSON(w, k.status, errorBody{Error: k.kind, Message: k.err.Error()})
			return
		}
	}
	log.WithError(err).Error("Unclassified request failure")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
}
