package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/giladwin/chat/internal/chaterr"
	"github.com/giladwin/chat/internal/users"
)

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type signinRequest struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func SignupHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload signupRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[SIGNUP] decode error: %v", err)
			writeError(w, chaterr.New(chaterr.KindValidation, "invalid request body"))
			return
		}

		token, err := svc.Register(r.Context(), payload.Username, payload.Email, payload.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

func SigninHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload signinRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[SIGNIN] decode error: %v", err)
			writeError(w, chaterr.New(chaterr.KindValidation, "invalid request body"))
			return
		}

		token, err := svc.Authenticate(r.Context(), payload.Email, payload.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

func StatusHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] encode error: %v", err)
	}
}

// writeError translates a domain error to its fixed transport shape. Known
// kinds return their message; unanticipated failures are downgraded to a
// bare 500 with the detail kept in the log.
func writeError(w http.ResponseWriter, err error) {
	kind := chaterr.KindOf(err)
	status := chaterr.HTTPStatus(kind)

	switch kind {
	case chaterr.KindInternal:
		log.Printf("[API] internal error: %v", err)
		w.WriteHeader(status)
	case chaterr.KindAuth:
		w.WriteHeader(status)
	default:
		writeJSON(w, status, messageResponse{Message: err.Error()})
	}
}
