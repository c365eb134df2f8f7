package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"vintedwatch/internal/model"
)

const accessTokenLifetime = 30 * 24 * time.Hour

func (s Server) createAccessToken(userID string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(accessTokenLifetime)).
		Build()
	if err != nil {
		return "", errors.Wrap(err, "error building access token")
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", errors.Wrap(err, "error signing access token")
	}
	return string(signed), nil
}

func (s Server) isAdminTelegramID(telegramID string) bool {
	for _, id := range s.AdminTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (s Server) userRegister() http.HandlerFunc {
	type request struct {
		TelegramID string `json:"telegram_id"`
		Username   string `json:"username"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Language   string `json:"language"`
	}
	type response struct {
		Success     bool   `json:"success"`
		AccessToken string `json:"access_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userRegister: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.TelegramID == "" {
			s.Logger.Debug("userRegister: Missing telegram_id")
			http.Error(w, "Missing telegram_id", http.StatusBadRequest)
			return
		}
		if req.Language == "" {
			req.Language = "en"
		}

		u := model.User{
			TelegramID: req.TelegramID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Preferences: model.Preferences{
				Language:      req.Language,
				Notifications: true,
			},
			MaxWatches: s.MaxWatchesDefault,
			IsAdmin:    s.isAdminTelegramID(req.TelegramID),
		}

		id, err := s.DB.UserInsert(r.Context(), u)
		if err != nil {
			if mongo.IsDuplicateKeyError(errors.Cause(err)) {
				s.Logger.Debugf("userRegister: Error duplicate key when inserting User, err: %v", err)
				http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("userRegister: Error inserting User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		at, err := s.createAccessToken(id)
		if err != nil {
			s.Logger.Errorf("userRegister: Error creating access token for User: %s, err: %v", id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("userRegister: Registered User: %s with TelegramID: %s", id, req.TelegramID)
		s.writeJsonResponse(w, response{
			Success:     true,
			AccessToken: at,
		}, http.StatusCreated)
	}
}
