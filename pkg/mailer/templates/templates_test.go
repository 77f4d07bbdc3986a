package templates

import (
	"strings"
	"testing"
	"time"
)

func TestRenderRoleAssigned(t *testing.T) {
	s := Settings{AppName: "Tasks", CompanyName: "Acme", AppURL: "https://tasks.example.com"}
	data := NewRoleAssignedData(s, "ana@example.com", "admin", "root@example.com",
		WithTime(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))

	subject, text, html, err := Render(RoleAssigned, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Tasks: your role is now admin" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"ana@example.com", `"admin"`, "root@example.com", "01 March 2024, 09:30", "https://tasks.example.com"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(html, "<strong>admin</strong>") {
		t.Errorf("html missing role:\n%s", html)
	}
}

func TestRenderFallsBackToDefaults(t *testing.T) {
	data := NewRoleAssignedData(Settings{}, "bo@example.com", "user", "")
	subject, text, _, err := Render(RoleAssigned, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Task Manager: your role is now user" {
		t.Errorf("subject = %q", subject)
	}
	if strings.Contains(text, " by ") {
		t.Errorf("text should not name an assigner:\n%s", text)
	}
	if !strings.Contains(text, "just now") {
		t.Errorf("text should fall back to 'just now':\n%s", text)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, _, err := Render("nope", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
