package identity

import (
	"net/http/httptest"
	"testing"
)

func TestHeaderProvider(t *testing.T) {
	p := NewHeaderProvider()

	tests := []struct {
		name    string
		email   string
		role    string
		wantErr bool
	}{
		{"both present", "ceo@plant.example", "CEO", false},
		{"missing email", "", "CEO", true},
		{"missing role", "ceo@plant.example", "", true},
		{"whitespace only", "   ", "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/tasks", nil)
			r.Header.Set("X-User-Email", tt.email)
			r.Header.Set("X-User-Role", tt.role)

			actor, err := p.CurrentUser(r)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CurrentUser() error: %v", err)
			}
			if actor.Email != tt.email || actor.Role != tt.role {
				t.Errorf("actor = %+v", actor)
			}
		})
	}
}

func TestHeaderProvider_TrimsWhitespace(t *testing.T) {
	p := NewHeaderProvider()
	r := httptest.NewRequest("GET", "/api/tasks", nil)
	r.Header.Set("X-User-Email", " ceo@plant.example ")
	r.Header.Set("X-User-Role", " CEO ")

	actor, err := p.CurrentUser(r)
	if err != nil {
		t.Fatalf("CurrentUser() error: %v", err)
	}
	if actor.Email != "ceo@plant.example" || actor.Role != "CEO" {
		t.Errorf("actor = %+v", actor)
	}
}
