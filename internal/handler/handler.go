package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/binwin/binwin-service/internal/models"
	"github.com/binwin/binwin-service/internal/repository"
	"github.com/binwin/binwin-service/internal/service"
	"github.com/sirupsen/logrus"
)

// ScheduleService is the slice of the service layer the HTTP
// handlers need.
type ScheduleService interface {
	Register(name, email, password, confirmPassword, role string) (*models.User, error)
	Login(email, password, role string) (*models.User, string, error)
	SaveCompanyProfile(p *models.CompanyProfile) error
	CreateSchedule(ctx context.Context, userID, companyID int64, date, timeOfDay string) (*models.ScheduleProposal, error)
	UserSchedules(userID int64) ([]models.ScheduleProposal, error)
	CompanySchedules(companyID int64) ([]models.ScheduleProposal, error)
	AcceptSchedule(scheduleID, userID, companyID int64) error
	DeclineSchedule(scheduleID, userID int64, reason, requestedDate string) error
	RemindUpcoming() (int, error)
}

type Handler struct {
	svc ScheduleService
	log *logrus.Logger
}

func NewHandler(svc ScheduleService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.svc.Register(req.Name, req.Email, req.Password, req.ConfirmPassword, req.Role); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account created successfully."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login handles user authentication. Failures use a "message" key;
// that is what the login screen has always read.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	user, token, err := h.svc.Login(req.Email, req.Password, req.Role)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		},
		"token": token,
	})
}

// SaveCompanyProfile stores a recycling center profile.
func (h *Handler) SaveCompanyProfile(w http.ResponseWriter, r *http.Request) {
	var p models.CompanyProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	if err := h.svc.SaveCompanyProfile(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile saved successfully!"})
}

type companyScheduleRequest struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// CompanySchedule creates a pending pickup proposal.
func (h *Handler) CompanySchedule(w http.ResponseWriter, r *http.Request) {
	var req companyScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	schedule, err := h.svc.CreateSchedule(r.Context(), req.UserID, req.CompanyID, req.Date, req.Time)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Pickup scheduled successfully!",
		"schedule_id": schedule.ScheduleID,
	})
}

// DisplayUserSchedule lists pending proposals for a user.
func (h *Handler) DisplayUserSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.queryUserID(w, r)
	if !ok {
		return
	}
	schedules, err := h.svc.UserSchedules(userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.ScheduleProposal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": schedules})
}

// DisplayCompanySchedule lists every proposal a company has created.
func (h *Handler) DisplayCompanySchedule(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.queryUserID(w, r)
	if !ok {
		return
	}
	schedules, err := h.svc.CompanySchedules(companyID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.ScheduleProposal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": schedules})
}

type acceptScheduleRequest struct {
	UserID    int64 `json:"user_id"`
	CompanyID int64 `json:"company_id"`
	ID        int64 `json:"id"`
}

// AcceptSchedule marks a pending proposal accepted.
func (h *Handler) AcceptSchedule(w http.ResponseWriter, r *http.Request) {
	var req acceptScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.AcceptSchedule(req.ID, req.UserID, req.CompanyID); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

type declineScheduleRequest struct {
	UserID  int64  `json:"user_id"`
	ID      int64  `json:"id"`
	Reason  string `json:"reason"`
	NewDate string `json:"new_date"`
}

// DeclineSchedule marks a pending proposal rejected.
func (h *Handler) DeclineSchedule(w http.ResponseWriter, r *http.Request) {
	var req declineScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.DeclineSchedule(req.ID, req.UserID, req.Reason, req.NewDate); err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

// Remind triggers the pickup-reminder job on demand.
func (h *Handler) Remind(w http.ResponseWriter, r *http.Request) {
	sent, err := h.svc.RemindUpcoming()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "user_id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "schedule not found")
	case errors.Is(err, repository.ErrAlreadyDecided):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
