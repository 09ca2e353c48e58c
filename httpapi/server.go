// Package httpapi is the thin HTTP face of the document store: JSON in,
// JSON out, store errors mapped to status codes. All indexing logic lives
// in the petstore package.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/unrolled/render"

	petstore "github.com/afinana/go-server-petstore"
	"github.com/afinana/go-server-petstore/utils"
)

const (
	petsCollection  = "pets"
	usersCollection = "users"
)

type Server struct {
	store *petstore.Store
	log   utils.Logger
	rd    *render.Render

	// sessions maps a login token to its username
	sessions *xsync.MapOf[string, string]

	router *mux.Router
}

func NewServer(store *petstore.Store, log utils.Logger) *Server {
	s := &Server{
		store:    store,
		log:      log,
		rd:       render.New(),
		sessions: xsync.NewMapOf[string, string](),
	}

	r := mux.NewRouter()
	v2 := r.PathPrefix("/v2").Subrouter()

	v2.HandleFunc("/pet", s.createPet).Methods("POST")
	v2.HandleFunc("/pet", s.updatePet).Methods("PUT")
	v2.HandleFunc("/pet/findByStatus", s.findPetsByStatus).Methods("GET")
	v2.HandleFunc("/pet/findByTags", s.findPetsByTags).Methods("GET")
	v2.HandleFunc("/pet/{id}", s.getPet).Methods("GET")
	v2.HandleFunc("/pet/{id}", s.deletePet).Methods("DELETE")

	v2.HandleFunc("/user", s.createUser).Methods("POST")
	v2.HandleFunc("/user", s.allUsers).Methods("GET")
	v2.HandleFunc("/user/login", s.login).Methods("POST")
	v2.HandleFunc("/user/logout", s.logout).Methods("POST")
	v2.HandleFunc("/user/{username}", s.getUser).Methods("GET")
	v2.HandleFunc("/user/{username}", s.deleteUser).Methods("DELETE")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) message(w http.ResponseWriter, msg string) {
	_ = s.rd.JSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, petstore.ErrInvalidDocument), errors.Is(err, petstore.ErrInvalidQuery):
		code = http.StatusBadRequest
	case errors.Is(err, petstore.ErrNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		s.log.ErrorCtx(r.Context(), "request failed",
			"method", r.Method, "url", r.URL.Path, "err", err)
	}
	_ = s.rd.JSON(w, code, map[string]string{"error": err.Error()})
}
