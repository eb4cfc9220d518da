package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avoronov/secretwall/internal/common"
)

// handleRegister creates a local account and signs it straight in. A taken
// username sends the user back to the registration form to pick another.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	_, token, err := s.gateway.Register(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			http.Redirect(w, r, "/register", http.StatusSeeOther)
			return
		}
		s.logger.Error(r.Context(), "registration failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

// handleLogin verifies local credentials. Every verification failure looks
// the same from the outside: back to the login form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	token, err := s.gateway.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

// handleFederatedCallback consumes the validated-assertion leg of the
// provider handoff. The handshake itself happened on the provider's side;
// this endpoint only receives the signed ID token.
func (s *Server) handleFederatedCallback(w http.ResponseWriter, r *http.Request) {
	assertion := r.URL.Query().Get("assertion")
	if assertion == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, err := s.gateway.FederatedCallback(r.Context(), assertion)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.logger.Error(r.Context(), "federated callback failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		s.gateway.Logout(token)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSecrets lists the shared secrets. Deliberately public: reading the
// wall requires no account.
func (s *Server) handleSecrets(w http.ResponseWriter, r *http.Request) {
	list, err := s.secrets.ListShared(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "secret listing failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"secrets": list})
}

// handleSubmitForm is the guarded GET: it only confirms the caller may
// submit. Rendering is not this server's job.
func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": user.ID})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	secret := r.PostFormValue("secret")
	if secret == "" {
		http.Error(w, "secret is required", http.StatusBadRequest)
		return
	}

	if err := s.secrets.Submit(r.Context(), user.ID, secret); err != nil {
		s.logger.Error(r.Context(), "secret submit failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("SecretWall"))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
