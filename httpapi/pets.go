package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	petstore "github.com/afinana/go-server-petstore"
)

func (s *Server) createPet(w http.ResponseWriter, r *http.Request) {
	var doc petstore.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse JSON"})
		return
	}
	if err := s.store.Insert(r.Context(), petsCollection, doc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.message(w, "Pet created successfully")
}

func (s *Server) updatePet(w http.ResponseWriter, r *http.Request) {
	var doc petstore.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse JSON"})
		return
	}
	if err := s.store.Update(r.Context(), petsCollection, doc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.message(w, "Pet updated successfully")
}

func (s *Server) deletePet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Delete(r.Context(), petsCollection, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.message(w, "Pet deleted successfully")
}

func (s *Server) getPet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := s.store.FindOne(r.Context(), petsCollection, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = s.rd.JSON(w, http.StatusOK, doc)
}

// findPetsByStatus handles GET /v2/pet/findByStatus?status=available,sold.
// The comma-separated statuses become one multi-value equality query.
func (s *Server) findPetsByStatus(w http.ResponseWriter, r *http.Request) {
	s.findPets(w, r, "status", r.URL.Query().Get("status"))
}

// findPetsByTags handles GET /v2/pet/findByTags?tags=dog,cat.
func (s *Server) findPetsByTags(w http.ResponseWriter, r *http.Request) {
	s.findPets(w, r, petstore.TagsField, r.URL.Query().Get("tags"))
}

func (s *Server) findPets(w http.ResponseWriter, r *http.Request, field, raw string) {
	values := splitValues(raw)
	if len(values) == 0 {
		_ = s.rd.JSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + field + " parameter"})
		return
	}
	q := petstore.Query{
		Operator: "eq",
		Field:    petsCollection + ":" + field,
		Value:    values,
	}
	docs, err := s.store.Find(r.Context(), petsCollection, q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = s.rd.JSON(w, http.StatusOK, docs)
}

func splitValues(raw string) []string {
	parts := strings.Split(raw, ",")
	values := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
