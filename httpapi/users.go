package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	petstore "github.com/afinana/go-server-petstore"
)

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var doc petstore.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse JSON"})
		return
	}
	if err := s.store.Insert(r.Context(), usersCollection, doc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.message(w, "User created successfully")
}

func (s *Server) allUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.FindAll(r.Context(), usersCollection)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = s.rd.JSON(w, http.StatusOK, docs)
}

// getUser answers GET /v2/user/{username} with the list of users holding
// that username, resolved through the username index.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	docs, err := s.store.Find(r.Context(), usersCollection, usernameQuery(username))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = s.rd.JSON(w, http.StatusOK, docs)
}

// deleteUser resolves the username to its document id first; deleting then
// goes through the usual read-current-state delete path.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	docs, err := s.store.Find(r.Context(), usersCollection, usernameQuery(username))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(docs) == 0 {
		_ = s.rd.JSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	for _, doc := range docs {
		id, err := doc.IDString()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.store.Delete(r.Context(), usersCollection, id); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.message(w, "User deleted successfully")
}

func usernameQuery(username string) petstore.Query {
	return petstore.Query{
		Operator: "eq",
		Field:    usersCollection + ":username",
		Value:    username,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login only knows the builtin admin account; real authentication is a
// different service's problem. A successful login gets a session token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse JSON"})
		return
	}
	if creds.Username == "" || creds.Password == "" {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "missing username or password"})
		return
	}
	if creds.Username != "admin" || creds.Password != "admin" {
		_ = s.rd.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
		return
	}
	token := uuid.NewString()
	s.sessions.Store(token, creds.Username)
	s.log.InfoCtx(r.Context(), "user logged in", "username", creds.Username)
	_ = s.rd.JSON(w, http.StatusOK, map[string]string{
		"message": "User logged in successfully",
		"token":   token,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to logout user"})
		return
	}
	s.sessions.Range(func(token, user string) bool {
		if user == username {
			s.sessions.Delete(token)
		}
		return true
	})
	s.message(w, "User logged out successfully")
}
