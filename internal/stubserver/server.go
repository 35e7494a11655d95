// Package stubserver is a self-contained stand-in for the RunDown backend.
// It implements the full client-facing API with canned data so the terminal
// client can be developed and demoed without Google accounts or an LLM.
package stubserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/util"
)

// Config carries the stub server settings.
type Config struct {
	JWTSecret  []byte
	SessionTTL time.Duration
	// User is the identity every login receives.
	User string
}

// Server holds the in-memory calendar and suggestion state.
type Server struct {
	cfg     Config
	metrics *Metrics

	mu          sync.Mutex
	events      []models.CalendarEvent
	suggestions []models.Suggestion
	pending     *models.EventSuggestion
}

// New builds a stub server with a seeded calendar and inbox.
func New(cfg Config) *Server {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.User == "" {
		cfg.User = "demo"
	}
	s := &Server{cfg: cfg, metrics: NewMetrics("rundown_stub")}
	s.seed()
	return s
}

func (s *Server) seed() {
	s.events = []models.CalendarEvent{
		newEvent("Team standup", time.Now().Add(18*time.Hour), ""),
		newEvent("Quarterly review prep", time.Now().Add(3*24*time.Hour), "email-1001"),
	}
	s.suggestions = []models.Suggestion{
		{
			Text:      "RSVP to the engineering offsite",
			Deadline:  "Friday",
			Location:  "Lisbon",
			EmailID:   "email-2001",
			EventDate: time.Now().Add(5 * 24 * time.Hour).Format(time.RFC3339),
			Urgent:    true,
		},
		{
			Text:      "Renew your domain registration",
			Deadline:  "next week",
			EmailID:   "email-2002",
			EventDate: time.Now().Add(8 * 24 * time.Hour).Format(time.RFC3339),
		},
		{
			Text:      "Schedule a dentist appointment",
			EmailID:   "email-2003",
			EventDate: time.Now().Add(12 * 24 * time.Hour).Format(time.RFC3339),
		},
	}
}

func newEvent(summary string, start time.Time, emailID string) models.CalendarEvent {
	id := util.GenerateEventID()
	return models.CalendarEvent{
		Summary:  summary,
		Start:    models.EventTime{DateTime: start.Format(time.RFC3339)},
		HTMLLink: "https://calendar.google.com/calendar/event?eid=" + id,
		ID:       id,
		EmailID:  emailID,
	}
}

// Router assembles the HTTP API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countRequests)

	r.Post("/login", s.handleLogin)
	r.Get("/api/session", s.handleSession)
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/chat", s.handleChat)
		r.Post("/addtask", s.handleAddTask)
		r.Get("/calendar", s.handleCalendar)
		r.Post("/addsuggestion", s.handleSuggestions)
		r.Post("/calendar/delete", s.handleDeleteEvent)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}).Handler(r)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.Requests.WithLabelValues(r.URL.Path, fmt.Sprintf("%d", rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionUser(r, s.cfg.JWTSecret); !ok {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
				Error:    "Authentication required",
				Redirect: models.DefaultLoginRedirect,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, err := generateToken(s.cfg.JWTSecret, s.cfg.User, s.cfg.SessionTTL)
	if err != nil {
		slog.Error("Failed to sign session token", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create session"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.cfg.SessionTTL),
	})
	writeJSON(w, http.StatusOK, map[string]any{"logged_in": true, "user_id": s.cfg.User})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(r, s.cfg.JWTSecret)
	if !ok {
		writeJSON(w, http.StatusOK, models.SessionStatus{
			Authenticated: false,
			Redirect:      models.DefaultLoginRedirect,
		})
		return
	}
	writeJSON(w, http.StatusOK, models.SessionStatus{Authenticated: true, UserID: userID})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	s.metrics.ChatMessages.Inc()

	resp := s.respond(req)
	writeJSON(w, http.StatusOK, resp)
}

// respond is a tiny deterministic imitation of the assistant.
func (s *Server) respond(req models.ChatRequest) models.ChatResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := strings.TrimSpace(req.Message)
	lower := strings.ToLower(message)

	if req.FollowUp {
		if req.Action == models.FollowUpActionAdd && s.pending != nil {
			event := s.createEventLocked(s.pending.Title, s.pending.Date+"T"+s.pending.StartTime+":00Z", "")
			s.pending = nil
			return models.ChatResponse{
				Response:        "Done! I've added **" + event.Summary + "** to your calendar.",
				CommandDetected: true,
				EventData: &models.EventData{
					Title:    event.Summary,
					DateTime: event.Start.DateTime,
					Link:     event.HTMLLink,
					EventID:  event.ID,
				},
			}
		}
		s.pending = nil
		return models.ChatResponse{Response: "No problem, I won't add it."}
	}

	switch {
	case strings.HasPrefix(lower, "@help"):
		return models.ChatResponse{
			Response: "You can use:\n**@add** `task, time` to create an event\n" +
				"**@remove** `task` to delete one\n**@list** to see what's coming up",
			CommandDetected: true,
		}
	case strings.HasPrefix(lower, "@list"):
		var b strings.Builder
		b.WriteString("Here's what's coming up:\n")
		for _, ev := range s.events {
			fmt.Fprintf(&b, "- **%s** at %s\n", ev.Summary, ev.Start.DateTime)
		}
		return models.ChatResponse{Response: b.String(), CommandDetected: true}
	case strings.HasPrefix(lower, "@add "):
		title := strings.TrimSpace(message[len("@add "):])
		event := s.createEventLocked(title, time.Now().Add(24*time.Hour).Format(time.RFC3339), "")
		return models.ChatResponse{
			Response:        "Added **" + title + "** to your calendar.",
			CommandDetected: true,
			EventData: &models.EventData{
				Title:    event.Summary,
				DateTime: event.Start.DateTime,
				Link:     event.HTMLLink,
				EventID:  event.ID,
			},
		}
	case strings.Contains(lower, "email"):
		suggestion := models.EventSuggestion{
			Title:     "Call with the landlord",
			Date:      time.Now().Add(48 * time.Hour).Format("2006-01-02"),
			StartTime: "10:00",
			EndTime:   "10:30",
		}
		s.pending = &suggestion
		return models.ChatResponse{
			Response:        "I found an email about a call with your landlord. Want me to put it on your calendar?",
			AskFollowUp:     true,
			EventSuggestion: &suggestion,
		}
	default:
		return models.ChatResponse{Response: "I can help with your tasks and calendar. Try *@help* to see commands."}
	}
}

func (s *Server) createEventLocked(title, dateTime, emailID string) models.CalendarEvent {
	start, err := time.Parse(time.RFC3339, dateTime)
	if err != nil {
		start = time.Now().Add(24 * time.Hour)
	}
	event := newEvent(title, start, emailID)
	s.events = append(s.events, event)
	s.metrics.EventsCreated.Inc()
	return event
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req models.AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	var emailID string
	for _, suggestion := range s.suggestions {
		if models.NormalizeText(suggestion.Text) == models.NormalizeText(req.TaskText) {
			emailID = suggestion.EmailID
			break
		}
	}
	event := s.createEventLocked(req.TaskText, req.EventDate, emailID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.AddTaskResponse{
		Response: event.Summary,
		Event:    event.HTMLLink,
		Deadline: req.DisplayDate,
		EmailID:  emailID,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := make([]models.CalendarEvent, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.CalendarResponse{Events: events})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}
	if !models.IsValidTimePeriod(req.TimePeriod) {
		req.TimePeriod = models.DefaultTimePeriod
	}

	s.mu.Lock()
	suggestions := make([]models.Suggestion, len(s.suggestions))
	copy(suggestions, s.suggestions)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.SuggestionsResponse{Suggestions: suggestions})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	found := false
	for i, ev := range s.events {
		if ev.ID == req.EventID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "event not found"})
		return
	}
	s.metrics.EventsDeleted.Inc()
	writeJSON(w, http.StatusOK, models.DeleteEventResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
