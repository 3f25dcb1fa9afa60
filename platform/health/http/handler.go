package http

import (
	"encoding/json"
	"net/http"
)

// Handler возвращает health endpoint.
// 200 {"status":"ok"} если readiness не задана или вернула true,
// 503 {"status":"not ready"} иначе.
func Handler(readiness func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if readiness != nil && !readiness() {
			status, code = "not ready", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
