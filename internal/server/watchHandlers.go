package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"vintedwatch/internal/database"
	"vintedwatch/internal/model"
)

// validWatchURL accepts only marketplace catalog search URLs. The query
// parameters are kept as-is; the client rewrites them onto the API endpoint
// when the watch is checked.
func validWatchURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	return strings.Contains(u.Hostname(), "vinted.")
}

func (s Server) watchAdd() http.HandlerFunc {
	type request struct {
		Name           string   `json:"name"`
		URL            string   `json:"url"`
		BannedKeywords []string `json:"banned_keywords"`
	}
	type response struct {
		Success bool   `json:"success"`
		WatchID string `json:"watch_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("watchAdd: Error getting UserContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("watchAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Missing name", http.StatusBadRequest)
			return
		}
		if !validWatchURL(req.URL) {
			s.Logger.Debugf("watchAdd: Invalid watch URL: %s", req.URL)
			http.Error(w, "Invalid watch URL", http.StatusBadRequest)
			return
		}
		if req.BannedKeywords == nil {
			req.BannedKeywords = []string{}
		}

		id, err := s.DB.WatchInsert(r.Context(), model.Watch{
			UserID:         uc.user.ID,
			URL:            req.URL,
			Name:           req.Name,
			BannedKeywords: req.BannedKeywords,
		})
		if err != nil {
			if errors.Is(err, database.ErrWatchLimitReached) {
				s.Logger.Debugf("watchAdd: Watch limit reached for User: %s", uc.user.ID.Hex())
				http.Error(w, "Watch limit reached", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("watchAdd: Error inserting Watch for User: %s, err: %v", uc.user.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("watchAdd: Added Watch: %s for User: %s", id, uc.user.ID.Hex())
		s.writeJsonResponse(w, response{Success: true, WatchID: id}, http.StatusCreated)
	}
}

// findOwnedWatch resolves the watch and enforces that it belongs to the
// requesting user. Watches owned by someone else are reported as not found.
func (s Server) findOwnedWatch(r *http.Request, watchIDHex string) (model.Watch, int, error) {
	uc, err := getUserContext(r.Context())
	if err != nil {
		return model.Watch{}, http.StatusInternalServerError, err
	}
	watchID, err := primitive.ObjectIDFromHex(watchIDHex)
	if err != nil {
		return model.Watch{}, http.StatusBadRequest, errors.Wrapf(err, "invalid watch ID: %s", watchIDHex)
	}
	watch, err := s.DB.WatchFind(r.Context(), watchID)
	if err != nil {
		if errors.Is(errors.Cause(err), mongo.ErrNoDocuments) {
			return model.Watch{}, http.StatusNotFound, err
		}
		return model.Watch{}, http.StatusInternalServerError, err
	}
	if watch.UserID != uc.user.ID {
		return model.Watch{}, http.StatusNotFound, errors.Errorf("Watch: %s not owned by User: %s", watchIDHex, uc.user.ID.Hex())
	}
	return watch, http.StatusOK, nil
}

func (s Server) watchUpdate() http.HandlerFunc {
	type request struct {
		WatchID        string   `json:"watch_id"`
		Name           string   `json:"name"`
		URL            string   `json:"url"`
		Active         bool     `json:"active"`
		BannedKeywords []string `json:"banned_keywords"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("watchUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Missing name", http.StatusBadRequest)
			return
		}
		if !validWatchURL(req.URL) {
			s.Logger.Debugf("watchUpdate: Invalid watch URL: %s", req.URL)
			http.Error(w, "Invalid watch URL", http.StatusBadRequest)
			return
		}

		watch, status, err := s.findOwnedWatch(r, req.WatchID)
		if err != nil {
			s.Logger.Debugf("watchUpdate: Error finding Watch: %s, err: %v", req.WatchID, err)
			http.Error(w, http.StatusText(status), status)
			return
		}

		if err = s.DB.WatchUpdate(r.Context(), watch.ID, req.Name, req.URL, req.Active, req.BannedKeywords); err != nil {
			s.Logger.Errorf("watchUpdate: Error updating Watch: %s, err: %v", watch.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) watchRemove() http.HandlerFunc {
	type request struct {
		WatchID string `json:"watch_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("watchRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		watch, status, err := s.findOwnedWatch(r, req.WatchID)
		if err != nil {
			s.Logger.Debugf("watchRemove: Error finding Watch: %s, err: %v", req.WatchID, err)
			http.Error(w, http.StatusText(status), status)
			return
		}

		if err = s.DB.WatchDelete(r.Context(), watch.ID); err != nil {
			s.Logger.Errorf("watchRemove: Error deleting Watch: %s, err: %v", watch.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("watchRemove: Removed Watch: %s", watch.ID.Hex())
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) watchGetOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		watch, status, err := s.findOwnedWatch(r, mux.Vars(r)["watchID"])
		if err != nil {
			s.Logger.Debugf("watchGetOne: Error finding Watch: %s, err: %v", mux.Vars(r)["watchID"], err)
			http.Error(w, http.StatusText(status), status)
			return
		}
		s.writeJsonResponse(w, watch, http.StatusOK)
	}
}

func (s Server) watchGetAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("watchGetAll: Error getting UserContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		watches, err := s.DB.WatchesFindByUserID(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("watchGetAll: Error finding Watches for User: %s, err: %v", uc.user.ID.Hex(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if watches == nil {
			watches = []model.Watch{}
		}
		s.writeJsonResponse(w, watches, http.StatusOK)
	}
}
