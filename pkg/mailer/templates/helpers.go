package templates

import "time"

// Settings carries the branding fields shared by every email.
type Settings struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
	AppURL         string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithAppURL(url string) Option { return func(d *EmailData) { d.AppURL = url } }

// NewBaseEmailData fills the common fields from settings then applies options
func NewBaseEmailData(s Settings, typ, email string, opts ...Option) EmailData {
	d := EmailData{
		Email: email,
		Type:  typ,

		CompanyName:    s.CompanyName,
		CompanyAddress: s.CompanyAddress,
		AppName:        s.AppName,

		LogoURL:    s.LogoURL,
		SupportURL: s.SupportURL,
		AppURL:     s.AppURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewRoleAssignedData(s Settings, email, role, assignedBy string, opts ...Option) map[string]any {
	d := NewBaseEmailData(s, RoleAssigned, email, opts...)
	d.Role = role
	d.AssignedBy = assignedBy
	return ToMap(d)
}
