package models

// ScheduleStatus is the lifecycle state of a pickup proposal.
// The backend stores "no" for pending, matching what the mobile
// clients have always displayed.
type ScheduleStatus string

const (
	StatusPending  ScheduleStatus = "no"
	StatusAccepted ScheduleStatus = "accepted"
	StatusRejected ScheduleStatus = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ScheduleProposal is a company-initiated pickup request for a user.
// Company profile fields are denormalized into the proposal so list
// screens can render a card without extra lookups. Price is the
// company's rate per kilogram at creation time; zero means the
// company carries no rate and clients substitute their own default.
type ScheduleProposal struct {
	ScheduleID    int64          `json:"schedule_id"`
	UserID        int64          `json:"user_id"`
	CompanyID     int64          `json:"company_id"`
	Date          string         `json:"date"` // YYYY-MM-DD
	Time          string         `json:"time"` // HH:MM:SS
	Status        ScheduleStatus `json:"status"`
	Price         float64        `json:"price,omitempty"`
	CompanyName   string         `json:"company_name,omitempty"`
	ProfileImage  string         `json:"profile_image,omitempty"`
	ContactNumber string         `json:"contact_number,omitempty"`
	Location      string         `json:"location,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	// UserName is the target user's display name, filled on the
	// company-facing listing.
	UserName string `json:"name,omitempty"`
}

// UpcomingPickup is a reminder-job row: an accepted pickup joined
// with the contact details needed to notify the user.
type UpcomingPickup struct {
	ScheduleID  int64
	UserName    string
	Email       string
	CompanyName string
	Date        string
	Time        string
}

// Pending reports whether the proposal is still awaiting a user decision.
func (p *ScheduleProposal) Pending() bool {
	return p.Status == StatusPending
}
