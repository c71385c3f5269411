package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/binwin/binwin-service/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDecided is returned when a schedule is no longer pending.
	ErrAlreadyDecided = errors.New("schedule already accepted or rejected")
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the schema and tables if they do not exist.
func (r *Repository) Migrate() error {
	schema := `
	CREATE SCHEMA IF NOT EXISTS binwin;

	CREATE TABLE IF NOT EXISTS binwin.users (
		user_id SERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		mobile TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (email, role)
	);

	CREATE TABLE IF NOT EXISTS binwin.company_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES binwin.users(user_id),
		company_name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		contact_number TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		profile_image TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS binwin.schedules (
		schedule_id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES binwin.users(user_id),
		company_id BIGINT NOT NULL REFERENCES binwin.users(user_id),
		date DATE NOT NULL,
		time TIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'no',
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		requested_date TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_user_status ON binwin.schedules(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_schedules_company ON binwin.schedules(company_id);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO binwin.users (name, email, password_hash, role, mobile, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING user_id, created_at`
	err := r.db.QueryRow(query, user.Name, user.Email, user.PasswordHash, user.Role, user.Mobile).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email and role
func (r *Repository) FindUserByEmail(email, role string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, name, email, password_hash, role, mobile, created_at
		FROM binwin.users
		WHERE email = $1 AND role = $2`
	err := r.db.QueryRow(query, email, role).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Mobile, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, name, email, password_hash, role, mobile, created_at
		FROM binwin.users
		WHERE user_id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Mobile, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SaveCompanyProfile inserts or updates a recycling center profile.
func (r *Repository) SaveCompanyProfile(p *models.CompanyProfile) error {
	query := `
		INSERT INTO binwin.company_profiles (user_id, company_name, location, contact_number, price, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			location = EXCLUDED.location,
			contact_number = EXCLUDED.contact_number,
			price = EXCLUDED.price,
			profile_image = EXCLUDED.profile_image`
	if _, err := r.db.Exec(query, p.UserID, p.CompanyName, p.Location, p.ContactNumber, p.Price, p.ProfileImage); err != nil {
		return fmt.Errorf("failed to save company profile: %w", err)
	}
	return nil
}

// FindCompanyProfile retrieves a recycling center profile by user id.
func (r *Repository) FindCompanyProfile(userID int64) (*models.CompanyProfile, error) {
	p := &models.CompanyProfile{}
	query := `
		SELECT user_id, company_name, location, contact_number, price, profile_image
		FROM binwin.company_profiles
		WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).
		Scan(&p.UserID, &p.CompanyName, &p.Location, &p.ContactNumber, &p.Price, &p.ProfileImage)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company profile: %w", err)
	}
	return p, nil
}

// CreateSchedule persists a new pickup proposal with pending status.
func (r *Repository) CreateSchedule(s *models.ScheduleProposal) error {
	query := `
		INSERT INTO binwin.schedules (user_id, company_id, date, time, status, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING schedule_id`
	err := r.db.QueryRow(query, s.UserID, s.CompanyID, s.Date, s.Time, models.StatusPending, s.Price).
		Scan(&s.ScheduleID)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	s.Status = models.StatusPending
	return nil
}

// UserSchedules lists pending proposals for a user, newest pickup date
// first, with the proposing company's profile denormalized in.
func (r *Repository) UserSchedules(userID int64) ([]models.ScheduleProposal, error) {
	query := `
		SELECT s.schedule_id, s.user_id, s.company_id,
		       to_char(s.date, 'YYYY-MM-DD'), to_char(s.time, 'HH24:MI:SS'),
		       s.status, s.price,
		       COALESCE(c.company_name, ''), COALESCE(c.profile_image, ''),
		       COALESCE(c.contact_number, ''), COALESCE(c.location, '')
		FROM binwin.schedules s
		LEFT JOIN binwin.company_profiles c ON c.user_id = s.company_id
		WHERE s.user_id = $1 AND s.status = $2
		ORDER BY s.date, s.time`
	rows, err := r.db.Query(query, userID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list user schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.ScheduleProposal
	for rows.Next() {
		var s models.ScheduleProposal
		if err := rows.Scan(&s.ScheduleID, &s.UserID, &s.CompanyID, &s.Date, &s.Time,
			&s.Status, &s.Price, &s.CompanyName, &s.ProfileImage, &s.ContactNumber, &s.Location); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}
	return schedules, nil
}

// CompanySchedules lists every proposal a company has created, with
// the target user's display name joined in.
func (r *Repository) CompanySchedules(companyID int64) ([]models.ScheduleProposal, error) {
	query := `
		SELECT s.schedule_id, s.user_id, s.company_id,
		       to_char(s.date, 'YYYY-MM-DD'), to_char(s.time, 'HH24:MI:SS'),
		       s.status, s.price, s.reason, COALESCE(u.name, '')
		FROM binwin.schedules s
		LEFT JOIN binwin.users u ON u.user_id = s.user_id
		WHERE s.company_id = $1
		ORDER BY s.date DESC, s.time DESC`
	rows, err := r.db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.ScheduleProposal
	for rows.Next() {
		var s models.ScheduleProposal
		if err := rows.Scan(&s.ScheduleID, &s.UserID, &s.CompanyID, &s.Date, &s.Time,
			&s.Status, &s.Price, &s.Reason, &s.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}
	return schedules, nil
}

// AcceptSchedule marks a pending proposal accepted. Only the pending
// state may transition; anything else is reported as already decided.
func (r *Repository) AcceptSchedule(scheduleID, userID, companyID int64) error {
	res, err := r.db.Exec(`
		UPDATE binwin.schedules
		SET status = $1
		WHERE schedule_id = $2 AND user_id = $3 AND company_id = $4 AND status = $5`,
		models.StatusAccepted, scheduleID, userID, companyID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to accept schedule: %w", err)
	}
	return r.checkDecided(res, scheduleID)
}

// DeclineSchedule marks a pending proposal rejected, storing the
// user's reason and requested replacement date.
func (r *Repository) DeclineSchedule(scheduleID, userID int64, reason, requestedDate string) error {
	res, err := r.db.Exec(`
		UPDATE binwin.schedules
		SET status = $1, reason = $2, requested_date = $3
		WHERE schedule_id = $4 AND user_id = $5 AND status = $6`,
		models.StatusRejected, reason, requestedDate, scheduleID, userID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to decline schedule: %w", err)
	}
	return r.checkDecided(res, scheduleID)
}

func (r *Repository) checkDecided(res sql.Result, scheduleID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n > 0 {
		return nil
	}
	var status string
	err = r.db.QueryRow(`SELECT status FROM binwin.schedules WHERE schedule_id = $1`, scheduleID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check schedule status: %w", err)
	}
	return ErrAlreadyDecided
}

// UpcomingPickups lists accepted pickups on the given date together
// with the contact details the reminder job needs.
func (r *Repository) UpcomingPickups(date string) ([]models.UpcomingPickup, error) {
	query := `
		SELECT s.schedule_id, COALESCE(u.name, ''), u.email,
		       COALESCE(c.company_name, ''),
		       to_char(s.date, 'YYYY-MM-DD'), to_char(s.time, 'HH24:MI:SS')
		FROM binwin.schedules s
		JOIN binwin.users u ON u.user_id = s.user_id
		LEFT JOIN binwin.company_profiles c ON c.user_id = s.company_id
		WHERE s.status = $1 AND s.date = $2`
	rows, err := r.db.Query(query, models.StatusAccepted, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming pickups: %w", err)
	}
	defer rows.Close()

	var pickups []models.UpcomingPickup
	for rows.Next() {
		var p models.UpcomingPickup
		if err := rows.Scan(&p.ScheduleID, &p.UserName, &p.Email, &p.CompanyName, &p.Date, &p.Time); err != nil {
			return nil, fmt.Errorf("failed to scan pickup: %w", err)
		}
		pickups = append(pickups, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pickups: %w", err)
	}
	return pickups, nil
}
