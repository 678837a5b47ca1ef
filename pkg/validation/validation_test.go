package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJoinParams(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		dname   string
		region  string
		role    string
		wantErr string
	}{
		{"valid teacher", "math101", "Alice", "us-east-1", "teacher", ""},
		{"valid student", "math101", "Bob", "eu-west-2", "student", ""},
		{"missing title", "", "Alice", "us-east-1", "teacher", "title is required"},
		{"missing name", "math101", "", "us-east-1", "teacher", "name is required"},
		{"missing region", "math101", "Alice", "", "teacher", "region is required"},
		{"missing role", "math101", "Alice", "us-east-1", "", "role is required"},
		{"bad region", "math101", "Alice", "mars-1", "teacher", "invalid region"},
		{"bad role", "math101", "Alice", "us-east-1", "admin", "unknown role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateJoinParams(tc.title, tc.dname, tc.region, tc.role)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateTitle_Length(t *testing.T) {
	assert.NoError(t, ValidateTitle(strings.Repeat("a", 64)))
	assert.Error(t, ValidateTitle(strings.Repeat("a", 65)))
}

func TestValidateAttendeeID(t *testing.T) {
	assert.NoError(t, ValidateAttendeeID("attendee-1"))
	assert.NoError(t, ValidateAttendeeID("attendee-1#content"))
	assert.Error(t, ValidateAttendeeID(""))
	assert.Error(t, ValidateAttendeeID("bad id with spaces"))
}
