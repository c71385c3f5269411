package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/binwin/binwin-service/internal/models"
	"github.com/binwin/binwin-service/internal/repository"
	"github.com/binwin/binwin-service/internal/service"
	"github.com/sirupsen/logrus"
)

type fakeService struct {
	userSchedules    []models.ScheduleProposal
	companySchedules []models.ScheduleProposal
	acceptErr        error
	declineErr       error
	createErr        error
	loginUser        *models.User
	loginErr         error

	accepted [3]int64
}

func (f *fakeService) Register(name, email, password, confirmPassword, role string) (*models.User, error) {
	if email == "" {
		return nil, service.NewValidationError("all fields are required")
	}
	return &models.User{ID: 1, Email: email, Role: role}, nil
}

func (f *fakeService) Login(email, password, role string) (*models.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	return f.loginUser, "tok", nil
}

func (f *fakeService) SaveCompanyProfile(p *models.CompanyProfile) error { return nil }

func (f *fakeService) CreateSchedule(ctx context.Context, userID, companyID int64, date, timeOfDay string) (*models.ScheduleProposal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.ScheduleProposal{ScheduleID: 11, UserID: userID, CompanyID: companyID, Date: date, Time: timeOfDay, Status: models.StatusPending}, nil
}

func (f *fakeService) UserSchedules(userID int64) ([]models.ScheduleProposal, error) {
	return f.userSchedules, nil
}

func (f *fakeService) CompanySchedules(companyID int64) ([]models.ScheduleProposal, error) {
	return f.companySchedules, nil
}

func (f *fakeService) AcceptSchedule(scheduleID, userID, companyID int64) error {
	f.accepted = [3]int64{scheduleID, userID, companyID}
	return f.acceptErr
}

func (f *fakeService) DeclineSchedule(scheduleID, userID int64, reason, requestedDate string) error {
	return f.declineErr
}

func (f *fakeService) RemindUpcoming() (int, error) { return 2, nil }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDisplayUserScheduleContract(t *testing.T) {
	svc := &fakeService{userSchedules: []models.ScheduleProposal{{
		ScheduleID: 7, UserID: 42, CompanyID: 2,
		Date: "2024-09-01", Time: "09:00:00",
		Status: models.StatusPending, Price: 15,
		CompanyName: "GreenTech Recycle",
	}}}
	h := NewHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/displayuserSchedule?user_id=42", nil)
	rec := httptest.NewRecorder()
	h.DisplayUserSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Schedules []models.ScheduleProposal `json:"schedules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Schedules) != 1 {
		t.Fatalf("schedules = %d, want 1", len(body.Schedules))
	}
	s := body.Schedules[0]
	if s.ScheduleID != 7 || s.Status != models.StatusPending || s.Price != 15 {
		t.Errorf("schedule = %+v", s)
	}
}

func TestDisplayUserScheduleRejectsBadID(t *testing.T) {
	h := NewHandler(&fakeService{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/displayuserSchedule?user_id=abc", nil)
	rec := httptest.NewRecorder()
	h.DisplayUserSchedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEmptyScheduleListIsAnArray(t *testing.T) {
	h := NewHandler(&fakeService{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/displayCompanySchedule?user_id=2", nil)
	rec := httptest.NewRecorder()
	h.DisplayCompanySchedule(rec, req)

	if !strings.Contains(rec.Body.String(), `"schedules":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAcceptSchedule(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/acceptSchedule",
		strings.NewReader(`{"user_id":42,"company_id":2,"id":7}`))
	rec := httptest.NewRecorder()
	h.AcceptSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.accepted != [3]int64{7, 42, 2} {
		t.Errorf("accepted = %v", svc.accepted)
	}
}

func TestAcceptScheduleConflict(t *testing.T) {
	svc := &fakeService{acceptErr: repository.ErrAlreadyDecided}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/acceptSchedule",
		strings.NewReader(`{"user_id":42,"company_id":2,"id":7}`))
	rec := httptest.NewRecorder()
	h.AcceptSchedule(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "schedule already accepted or rejected" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestAcceptScheduleNotFound(t *testing.T) {
	svc := &fakeService{acceptErr: repository.ErrNotFound}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/acceptSchedule",
		strings.NewReader(`{"user_id":1,"company_id":2,"id":99}`))
	rec := httptest.NewRecorder()
	h.AcceptSchedule(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCompanyScheduleValidationIsClientError(t *testing.T) {
	svc := &fakeService{createErr: service.NewValidationError(`invalid date "garbage", expected YYYY-MM-DD`)}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/companySchedule",
		strings.NewReader(`{"user_id":1,"company_id":2,"date":"garbage","time":"09:00:00"}`))
	rec := httptest.NewRecorder()
	h.CompanySchedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompanyScheduleSuccessMessage(t *testing.T) {
	h := NewHandler(&fakeService{}, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/companySchedule",
		strings.NewReader(`{"user_id":1,"company_id":2,"date":"2024-09-01","time":"09:00:00"}`))
	rec := httptest.NewRecorder()
	h.CompanySchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Message    string `json:"message"`
		ScheduleID int64  `json:"schedule_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Pickup scheduled successfully!" || body.ScheduleID != 11 {
		t.Errorf("body = %+v", body)
	}
}

func TestLoginResponseShape(t *testing.T) {
	svc := &fakeService{loginUser: &models.User{ID: 5, Role: models.RolePublic}}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"a@b.c","password":"pw","role":"Public"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	var body struct {
		User struct {
			UserID int64  `json:"user_id"`
			Role   string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User.UserID != 5 || body.User.Role != models.RolePublic || body.Token != "tok" {
		t.Errorf("body = %+v", body)
	}
}

func TestLoginErrorUsesMessageKey(t *testing.T) {
	svc := &fakeService{loginErr: errors.New("invalid credentials")}
	h := NewHandler(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"a@b.c","password":"bad","role":"Public"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"invalid credentials"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
