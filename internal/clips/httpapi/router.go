package httpapi

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /jobs", h.SubmitJob)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)
	mux.HandleFunc("DELETE /jobs/{id}", h.DeleteJob)
	mux.HandleFunc("POST /jobs/{id}/retry", h.RetryJob)
	mux.HandleFunc("GET /jobs/{id}/clips", h.ListJobClips)

	mux.HandleFunc("GET /clips/{id}", h.GetClip)
	mux.HandleFunc("DELETE /clips/{id}", h.DeleteClip)
	mux.HandleFunc("GET /clips/{id}/download", h.DownloadClip)
	mux.HandleFunc("POST /clips/{id}/view", h.ViewClip)

	mux.HandleFunc("GET /users/{id}/jobs", h.ListUserJobs)
	mux.HandleFunc("GET /users/{id}/stats", h.UserStats)

	return mux
}
