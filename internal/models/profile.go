package models

// Profile is the applicant data returned by the User-Profile service.
type Profile struct {
	UserID      string            `json:"userId"`
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Location    string            `json:"location,omitempty"`
	ResumeURL   string            `json:"resumeUrl,omitempty"`
	LinkedInURL string            `json:"linkedinUrl,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}
