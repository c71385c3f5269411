package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/binwin/binwin-service/internal/config"
	"github.com/binwin/binwin-service/internal/models"
	"github.com/binwin/binwin-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ValidationError marks rejected input so handlers can answer with a
// client error instead of a server one.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// RateSource supplies a market price per kilogram for recyclable
// waste, used when a company profile carries no rate of its own.
type RateSource interface {
	RatePerKg(ctx context.Context, material string) (float64, error)
}

// Notifier sends pickup-related messages to users.
type Notifier interface {
	SendPickupReminder(to, username, companyName, date, timeOfDay string) error
	SendScheduleProposed(to, username, companyName, date, timeOfDay string) error
}

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	log      *logrus.Logger
	config   *config.Config
	rates    RateSource
	notifier Notifier
}

// NewService initializes a new service. rates and notifier are
// optional; without them schedule creation skips the market-rate
// lookup and reminders are logged only.
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, rates RateSource, notifier Notifier) *Service {
	return &Service{repo: repo, log: log, config: cfg, rates: rates, notifier: notifier}
}

// Register creates a new user with hashed password
func (s *Service) Register(name, email, password, confirmPassword, role string) (*models.User, error) {
	if email == "" || password == "" || confirmPassword == "" || role == "" {
		return nil, errValidation("all fields are required")
	}
	if password != confirmPassword {
		return nil, errValidation("passwords do not match")
	}
	if role != models.RolePublic && role != models.RoleCompany {
		return nil, errValidation("unknown role: %s", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s (%s)", user.Email, user.Role)
	return user, nil
}

// Login authenticates a user and returns the user with a JWT token
func (s *Service) Login(email, password, role string) (*models.User, string, error) {
	user, err := s.repo.FindUserByEmail(email, role)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s (%s)", user.Email, user.Role)
	return user, tokenString, nil
}

// SaveCompanyProfile stores a recycling center profile.
func (s *Service) SaveCompanyProfile(p *models.CompanyProfile) error {
	if p.CompanyName == "" {
		return errValidation("company name is required")
	}
	if err := s.repo.SaveCompanyProfile(p); err != nil {
		return err
	}
	s.log.Infof("Company profile saved for user %d", p.UserID)
	return nil
}

// CreateSchedule creates a pending pickup proposal from a company to
// a user. The proposal captures the company's rate per kilogram at
// creation time; when the profile has no rate, the scrap-index feed
// supplies a market rate. A proposal may still be stored with a zero
// price, in which case clients apply their own display default.
func (s *Service) CreateSchedule(ctx context.Context, userID, companyID int64, date, timeOfDay string) (*models.ScheduleProposal, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, errValidation("invalid date %q, expected YYYY-MM-DD", date)
	}
	if _, err := time.Parse("15:04:05", timeOfDay); err != nil {
		return nil, errValidation("invalid time %q, expected HH:MM:SS", timeOfDay)
	}

	price := 0.0
	profile, err := s.repo.FindCompanyProfile(companyID)
	switch {
	case err == nil:
		price = profile.Price
	case errors.Is(err, repository.ErrNotFound):
		s.log.Warnf("No profile for company %d, schedule priced from market rate", companyID)
	default:
		return nil, err
	}

	if price == 0 && s.rates != nil {
		rate, err := s.rates.RatePerKg(ctx, "mixed")
		if err != nil {
			s.log.Warnf("Scrap index unavailable: %v", err)
		} else {
			price = rate
		}
	}

	schedule := &models.ScheduleProposal{
		UserID:    userID,
		CompanyID: companyID,
		Date:      date,
		Time:      timeOfDay,
		Price:     price,
	}
	if err := s.repo.CreateSchedule(schedule); err != nil {
		return nil, err
	}

	s.log.Infof("Schedule %d created: company %d -> user %d on %s %s",
		schedule.ScheduleID, companyID, userID, date, timeOfDay)

	if s.notifier != nil {
		s.notifyProposed(schedule, profile)
	}
	return schedule, nil
}

// notifyProposed emails the target user about the new proposal. The
// proposal is already stored, so failures only get logged.
func (s *Service) notifyProposed(schedule *models.ScheduleProposal, profile *models.CompanyProfile) {
	user, err := s.repo.FindUserByID(schedule.UserID)
	if err != nil {
		s.log.Warnf("Cannot notify user %d about schedule %d: %v", schedule.UserID, schedule.ScheduleID, err)
		return
	}
	companyName := ""
	if profile != nil {
		companyName = profile.CompanyName
	}
	if err := s.notifier.SendScheduleProposed(user.Email, user.Name, companyName, schedule.Date, schedule.Time); err != nil {
		s.log.Errorf("Failed to send proposal notification for schedule %d: %v", schedule.ScheduleID, err)
	}
}

// UserSchedules lists pending proposals for a user.
func (s *Service) UserSchedules(userID int64) ([]models.ScheduleProposal, error) {
	return s.repo.UserSchedules(userID)
}

// CompanySchedules lists every proposal a company has created.
func (s *Service) CompanySchedules(companyID int64) ([]models.ScheduleProposal, error) {
	return s.repo.CompanySchedules(companyID)
}

// AcceptSchedule transitions a pending proposal to accepted.
func (s *Service) AcceptSchedule(scheduleID, userID, companyID int64) error {
	if err := s.repo.AcceptSchedule(scheduleID, userID, companyID); err != nil {
		return err
	}
	s.log.Infof("Schedule %d accepted by user %d", scheduleID, userID)
	return nil
}

// DeclineSchedule transitions a pending proposal to rejected,
// recording the reason and the user's requested replacement date.
func (s *Service) DeclineSchedule(scheduleID, userID int64, reason, requestedDate string) error {
	if reason == "" || requestedDate == "" {
		return errValidation("reason and new collection date are required")
	}
	if err := s.repo.DeclineSchedule(scheduleID, userID, reason, requestedDate); err != nil {
		return err
	}
	s.log.Infof("Schedule %d declined by user %d: %s", scheduleID, userID, reason)
	return nil
}

// RemindUpcoming emails every user with a pickup accepted for
// tomorrow. It returns how many reminders were sent; individual send
// failures are logged and skipped.
func (s *Service) RemindUpcoming() (int, error) {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	pickups, err := s.repo.UpcomingPickups(tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range pickups {
		if s.notifier == nil {
			s.log.Infof("Reminder (no notifier): schedule %d for %s on %s", p.ScheduleID, p.Email, p.Date)
			continue
		}
		if err := s.notifier.SendPickupReminder(p.Email, p.UserName, p.CompanyName, p.Date, p.Time); err != nil {
			s.log.Errorf("Failed to send reminder for schedule %d: %v", p.ScheduleID, err)
			continue
		}
		sent++
	}
	s.log.Infof("Pickup reminders sent: %d of %d", sent, len(pickups))
	return sent, nil
}
