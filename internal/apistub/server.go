// Package apistub is an in-memory implementation of the activities REST API.
// It backs the integration tests and cmd/devapi for local development.
package apistub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"activities-web/internal/domain"
	apperrors "activities-web/pkg/errors"
)

// Server holds the activities in their listing order.
type Server struct {
	mu         sync.Mutex
	order      []string
	activities map[string]*domain.Activity
}

// DefaultCatalog returns the sample activities the development API starts with.
func DefaultCatalog() domain.Catalog {
	return domain.Catalog{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}

// New creates a server seeded with catalog. The catalog is copied.
func New(catalog domain.Catalog) *Server {
	s := &Server{activities: make(map[string]*domain.Activity, len(catalog))}
	for _, a := range catalog {
		a := a
		a.Participants = append([]string{}, a.Participants...)
		s.order = append(s.order, a.Name)
		s.activities[a.Name] = &a
	}
	return s
}

// Handler returns the chi router serving the three API endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/activities", s.list)
	r.Post("/activities/{name}/signup", s.signup)
	r.Delete("/activities/{name}/participants", s.unregister)
	return r
}

// Participants returns a copy of the named activity's participants.
func (s *Server) Participants(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.activities[name]; ok {
		return append([]string{}, a.Participants...)
	}
	return nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Written by hand so the object keys keep the listing order.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{"))
	for i, name := range s.order {
		if i > 0 {
			_, _ = w.Write([]byte(","))
		}
		key, _ := json.Marshal(name)
		value, _ := json.Marshal(s.activities[name])
		_, _ = w.Write(key)
		_, _ = w.Write([]byte(":"))
		_, _ = w.Write(value)
	}
	_, _ = w.Write([]byte("}"))
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	message, err := s.Signup(activityName(r), r.URL.Query().Get("email"))
	if err != nil {
		writeDetail(w, err.StatusCode, err.Message)
		return
	}
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: message})
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	message, err := s.Unregister(activityName(r), r.URL.Query().Get("email"))
	if err != nil {
		writeDetail(w, err.StatusCode, err.Message)
		return
	}
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: message})
}

// Signup adds email to the named activity.
func (s *Server) Signup(name, email string) (string, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return "", apperrors.NewNotFoundError("Activity not found")
	}
	for _, p := range activity.Participants {
		if p == email {
			return "", apperrors.NewValidationError("Student is already signed up")
		}
	}
	if len(activity.Participants) >= activity.MaxParticipants {
		return "", apperrors.NewValidationError("Activity is full")
	}

	activity.Participants = append(activity.Participants, email)
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the named activity.
func (s *Server) Unregister(name, email string) (string, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return "", apperrors.NewNotFoundError("Activity not found")
	}
	for i, p := range activity.Participants {
		if p == email {
			activity.Participants = append(activity.Participants[:i], activity.Participants[i+1:]...)
			return fmt.Sprintf("Unregistered %s from %s", email, name), nil
		}
	}
	return "", apperrors.NewNotFoundError("Student is not signed up for this activity")
}

// activityName returns the decoded {name} path segment.
func activityName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(name); err == nil {
			return decoded
		}
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, domain.DetailResponse{Detail: detail})
}
