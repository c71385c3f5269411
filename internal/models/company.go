package models

// CompanyProfile is the recycling center profile a company account
// fills in after signup. Price is the rate per kilogram offered for
// collected waste; zero means no rate has been set yet.
type CompanyProfile struct {
	UserID        int64   `json:"user_id"`
	CompanyName   string  `json:"company_name"`
	Location      string  `json:"location"`
	ContactNumber string  `json:"contact_number"`
	Price         float64 `json:"price"`
	ProfileImage  string  `json:"profile_image"`
}
