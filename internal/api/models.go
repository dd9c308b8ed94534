package api

import (
	"net/http"
	"time"

	"github.com/snarg/whisper-serve/internal/engine"
)

// ModelsHandler serves the model listing for OpenAI-compatible clients.
type ModelsHandler struct {
	modelName string
}

func NewModelsHandler(modelName string) *ModelsHandler {
	return &ModelsHandler{modelName: modelName}
}

// List handles GET /v1/models. Exactly one model is ever configured.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, modelList{
		Object: "list",
		Data: []modelEntry{{
			ID:      h.modelName,
			Object:  "model",
			OwnedBy: "local",
		}},
	})
}

// HealthHandler reports process liveness and engine readiness.
type HealthHandler struct {
	gateway   *engine.Gateway
	version   string
	startTime time.Time
}

func NewHealthHandler(gateway *engine.Gateway, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{gateway: gateway, version: version, startTime: startTime}
}

type healthResponse struct {
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	EngineLoaded  bool         `json:"engine_loaded"`
	Engine        engine.Stats `json:"engine"`
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.gateway.Ready() {
		status = "degraded"
	}
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		EngineLoaded:  h.gateway.Ready(),
		Engine:        h.gateway.Stats(),
	})
}
