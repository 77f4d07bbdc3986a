package mailer

// EmailJob is the message carried on the email queue. Either Template (with
// Data) or the literal Subject/Text/HTML fields describe the body; a template
// wins when both are set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "role_assigned"
	Data     map[string]any `json:"data,omitempty"`
}

