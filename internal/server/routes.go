package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.maxBytesMw, s.loggingMw)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.health()).Methods(http.MethodGet)
	api.HandleFunc("/user/register", s.userRegister()).Methods(http.MethodPost)

	watchAPI := api.PathPrefix("/watch").Subrouter()
	watchAPI.Use(s.authMw)
	watchAPI.HandleFunc("/add", s.watchAdd()).Methods(http.MethodPost)
	watchAPI.HandleFunc("/update", s.watchUpdate()).Methods(http.MethodPost)
	watchAPI.HandleFunc("/remove", s.watchRemove()).Methods(http.MethodPost)
	watchAPI.HandleFunc("/get/{watchID}", s.watchGetOne()).Methods(http.MethodGet)
	watchAPI.HandleFunc("/get", s.watchGetAll()).Methods(http.MethodGet)
	watchAPI.PathPrefix("").Handler(http.NotFoundHandler())

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw, s.adminMw)
	adminAPI.HandleFunc("/metrics", s.metricsGet()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/monitor/start", s.monitorStart()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/monitor/stop", s.monitorStop()).Methods(http.MethodPost)
	adminAPI.PathPrefix("").Handler(http.NotFoundHandler())

	return r
}
