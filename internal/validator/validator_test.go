package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acchub/acchub/internal/models"
)

func TestEmailFormat(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"plain address", "user@domain.com", true},
		{"dots and plus", "first.last+tag@sub.domain.io", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"missing at", "userdomain.com", false},
		{"missing tld", "user@domain", false},
		{"one letter tld", "user@domain.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EmailFormat(tt.email)
			assert.Equal(t, tt.valid, r.Valid, r.Message)
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	assert.False(t, PasswordStrength("").Valid)
	assert.False(t, PasswordStrength("ab").Valid)
	assert.True(t, PasswordStrength("abc").Valid)
	assert.False(t, PasswordStrength(string(long)).Valid)
}

func TestPlausibility(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		valid    bool
	}{
		{"password equals email", "test@example.com", "test@example.com", false},
		{"strong password", "real@domain.com", "Xk29!qPz", true},
		{"example domain", "someone@example.com", "Xk29!qPz", false},
		{"test domain", "someone@test.com", "Xk29!qPz", false},
		{"password equals local part", "john@domain.com", "john", false},
		{"short password", "real@domain.com", "abc", false},
		{"weak password", "real@domain.com", "password123", false},
		{"weak password upper", "real@domain.com", "PASSWORD", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Plausibility(tt.email, tt.password)
			assert.Equal(t, tt.valid, r.Valid, r.Message)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		category string
		status   models.ValidationStatus
	}{
		{"bad email short circuits", "nope", "Xk29!qPz", "Netflix", models.ValidationInvalid},
		{"weak password short circuits", "real@domain.com", "admin", "Netflix", models.ValidationInvalid},
		{"steam unknown domain", "real@domain.com", "Xk29!qPz", "Steam Premium", models.ValidationUnknown},
		{"steam native domain", "real@steampowered.com", "Xk29!qPz", "Steam Premium", models.ValidationValid},
		{"github noreply", "u123@users.noreply.github.com", "Xk29!qPz", "GitHub Pro", models.ValidationValid},
		{"github other", "real@domain.com", "Xk29!qPz", "GitHub Pro", models.ValidationUnknown},
		{"known mail provider", "real@gmail.com", "Xk29!qPz", "Gmail Accounts", models.ValidationValid},
		{"unknown mail provider", "real@tiny-host.dev", "Xk29!qPz", "Mail Bundle", models.ValidationUnknown},
		{"generic service passes", "real@domain.com", "Xk29!qPz", "Netflix", models.ValidationValid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.email, tt.password, tt.category)
			assert.Equal(t, tt.status, r.Status, r.Message)
		})
	}
}
