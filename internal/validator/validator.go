// Package validator holds advisory credential checks. Everything here is a
// pure function: no network calls, no authoritative verification of real
// third-party credentials.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/acchub/acchub/internal/models"
)

type Result struct {
	Valid   bool                    `json:"valid"`
	Status  models.ValidationStatus `json:"status"`
	Message string                  `json:"message"`
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

var weakPasswords = map[string]bool{
	"password":    true,
	"123456":      true,
	"password123": true,
	"admin":       true,
	"test":        true,
}

func EmailFormat(email string) Result {
	if strings.TrimSpace(email) == "" {
		return invalid("Email is required")
	}
	if !emailRe.MatchString(email) {
		return invalid("Invalid email format")
	}
	return valid("Email format is valid")
}

func PasswordStrength(password string) Result {
	if len(password) < 3 {
		return invalid("Password must be at least 3 characters long")
	}
	if len(password) > 100 {
		return invalid("Password is too long (max 100 characters)")
	}
	return valid("Password format is valid")
}

// Plausibility flags credentials that cannot belong to a real account:
// placeholder domains, passwords derived from the email, and the usual
// weak-password suspects.
func Plausibility(email, password string) Result {
	if strings.Contains(email, "example.com") || strings.Contains(email, "test.com") {
		return invalid("Email appears to be a test/example email")
	}
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	if password == email || password == local {
		return invalid("Password is too similar to email")
	}
	if len(password) < 4 {
		return invalid("Password is too short")
	}
	if weakPasswords[strings.ToLower(password)] {
		return invalid("Password is too weak/common")
	}
	return valid("Account credentials appear plausible")
}

// Classify runs the full advisory pipeline for an account in the named
// category. Service-specific branches only refine the message; credentials
// that survive the generic checks for a service we cannot probe come back
// as unknown rather than valid.
func Classify(email, password, categoryName string) Result {
	if r := EmailFormat(email); !r.Valid {
		return r
	}
	if r := PasswordStrength(password); !r.Valid {
		return r
	}
	if r := Plausibility(email, password); !r.Valid {
		return r
	}

	service := strings.ToLower(categoryName)
	domain := ""
	if at := strings.Index(email, "@"); at >= 0 {
		domain = strings.ToLower(email[at+1:])
	}

	switch {
	case strings.Contains(service, "steam"):
		if domain == "steampowered.com" || domain == "steamcommunity.com" || domain == "valvesoftware.com" {
			return valid("Steam email format is valid. Manual login test recommended.")
		}
		return unknown("Steam account validation requires manual testing")
	case strings.Contains(service, "github") || strings.Contains(service, "git"):
		if strings.HasSuffix(strings.ToLower(email), "@users.noreply.github.com") {
			return valid("GitHub noreply email format detected")
		}
		return unknown("GitHub account validation requires manual testing")
	case strings.Contains(service, "gmail") || strings.Contains(service, "outlook") ||
		strings.Contains(service, "email") || strings.Contains(service, "mail"):
		if knownMailProviders[domain] {
			return valid(fmt.Sprintf("Email domain %s is a known provider", domain))
		}
		return unknown(fmt.Sprintf("Email domain %s needs manual verification", domain))
	}

	return valid("Account passed all automated checks. Manual login test recommended.")
}

var knownMailProviders = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"icloud.com":     true,
	"protonmail.com": true,
	"mail.com":       true,
}

func valid(msg string) Result {
	return Result{Valid: true, Status: models.ValidationValid, Message: msg}
}

func invalid(msg string) Result {
	return Result{Valid: false, Status: models.ValidationInvalid, Message: msg}
}

func unknown(msg string) Result {
	return Result{Valid: false, Status: models.ValidationUnknown, Message: msg}
}
