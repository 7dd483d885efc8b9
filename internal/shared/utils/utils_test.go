package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		wantErr  bool
	}{
		{"required empty", "", true, true},
		{"optional empty", "", false, false},
		{"ok", "hello", true, false},
		{"too long", strings.Repeat("x", 11), true, true},
		{"null byte", "a\x00b", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateString(tt.value, "field", 1, 10, tt.required)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("hi there"))
	assert.ErrorIs(t, ValidateMessage("   "), ErrInvalid)
	assert.ErrorIs(t, ValidateMessage(strings.Repeat("a", MaxMessageSize+1)), ErrInvalid)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("skill-1", "id"))
	assert.Error(t, ValidateID("../etc", "id"))
	assert.Error(t, ValidateID("", "id"))
}

func TestValidateTimeOfDay(t *testing.T) {
	assert.NoError(t, ValidateTimeOfDay(""))
	assert.NoError(t, ValidateTimeOfDay("09:30"))
	assert.Error(t, ValidateTimeOfDay("9.30am"))
}

func TestHashJSONStable(t *testing.T) {
	type point struct{ X, Y int }

	a, err := HashJSON(point{1, 2})
	assert.NoError(t, err)
	b, _ := HashJSON(point{1, 2})
	c, _ := HashJSON(point{2, 1})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, `"`+a[:16]+`"`, ETag(a))
}
