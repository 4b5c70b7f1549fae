package api

import (
	"net/http"
	"os"
	"path/filepath"
)

type HealthHandler struct {
	dataDir string
	env     string
	version string
}

func NewHealthHandler(dataDir, env, version string) *HealthHandler {
	return &HealthHandler{
		dataDir: dataDir,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	// The only dependency is the data directory: readiness means we can
	// persist documents into it.
	probe := filepath.Join(h.dataDir, ".ready-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		deps["data_dir"] = "down"
		status = "error"
	} else {
		os.Remove(probe)
		deps["data_dir"] = "ok"
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
