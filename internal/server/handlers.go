package server

import (
	"net/http"
)

func (s Server) health() http.HandlerFunc {
	type response struct {
		Status            string `json:"status"`
		MonitoringRunning bool   `json:"monitoring_running"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJsonResponse(w, response{
			Status:            "ok",
			MonitoringRunning: s.Monitor.Running(),
		}, http.StatusOK)
	}
}

// metricsGet refreshes the database-backed gauges before snapshotting so the
// reported watch and user counts are current even between sweeps.
func (s Server) metricsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, active, err := s.DB.WatchesCount(r.Context())
		if err != nil {
			s.Logger.Errorf("metricsGet: Error counting Watches, err: %v, TraceID: %s", err, getTraceContext(r.Context()).traceID)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Metrics.UpdateWatchCounts(total, active)

		users, err := s.DB.UsersCount(r.Context())
		if err != nil {
			s.Logger.Errorf("metricsGet: Error counting Users, err: %v, TraceID: %s", err, getTraceContext(r.Context()).traceID)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Metrics.UpdateUserCount(users)

		s.writeJsonResponse(w, s.Metrics.Snapshot(), http.StatusOK)
	}
}

func (s Server) monitorStart() http.HandlerFunc {
	type response struct {
		Running bool `json:"running"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.Monitor.Start()
		s.writeJsonResponse(w, response{Running: s.Monitor.Running()}, http.StatusOK)
	}
}

func (s Server) monitorStop() http.HandlerFunc {
	type response struct {
		Running bool `json:"running"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.Monitor.Stop()
		s.writeJsonResponse(w, response{Running: s.Monitor.Running()}, http.StatusOK)
	}
}
