package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// RegionRegex validates region identifiers such as us-east-1.
	RegionRegex = regexp.MustCompile(`^[a-z]{2}-[a-z]+-\d+$`)

	// AttendeeIDRegex validates attendee identifier format, allowing the
	// content-modality suffix.
	AttendeeIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+(#[a-z]+)?$`)
)

// ValidateTitle validates a meeting title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > 64 {
		return fmt.Errorf("title is too long (max 64 characters)")
	}
	return nil
}

// ValidateDisplayName validates an attendee display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > 64 {
		return fmt.Errorf("name is too long (max 64 characters)")
	}
	return nil
}

// ValidateRegion validates a region identifier.
func ValidateRegion(region string) error {
	if region == "" {
		return fmt.Errorf("region is required")
	}
	if !RegionRegex.MatchString(region) {
		return fmt.Errorf("invalid region format: %s", region)
	}
	return nil
}

// ValidateRole validates a classroom role.
func ValidateRole(role string) error {
	switch role {
	case "teacher", "student":
		return nil
	case "":
		return fmt.Errorf("role is required")
	default:
		return fmt.Errorf("unknown role: %s", role)
	}
}

// ValidateJoinParams validates the full parameter set required to join a
// room. All four must be present before any request is issued.
func ValidateJoinParams(title, name, region, role string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateDisplayName(name); err != nil {
		return err
	}
	if err := ValidateRegion(region); err != nil {
		return err
	}
	return ValidateRole(role)
}

// ValidateAttendeeID validates an attendee identifier.
func ValidateAttendeeID(id string) error {
	if id == "" {
		return fmt.Errorf("attendee id is required")
	}
	if !AttendeeIDRegex.MatchString(id) {
		return fmt.Errorf("invalid attendee id format")
	}
	return nil
}
