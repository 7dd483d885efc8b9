package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Size limits for client supplied text
const (
	MaxBodySize     = 64 * 1024 // request body limit
	MaxMessageSize  = 4 * 1024  // chat message
	MaxCommandSize  = 512       // terminal command line
	MaxTitleLength  = 128       // calendar event title
	MaxPatternSize  = 256       // files glob pattern
	MaxIDLength     = 64
	TimeOfDayLayout = "15:04"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid input")

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, fieldName)
	}

	if value == "" && !required {
		return nil
	}

	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalid, fieldName)
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalid, fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalid, fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalid, fieldName)
	}

	return nil
}

// ValidateID validates a seed item id such as a skill or agent id
func ValidateID(id, fieldName string) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, true); err != nil {
		return err
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalid, fieldName)
	}
	return nil
}

// ValidateMessage validates a chat message
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	return ValidateString(message, "message", 1, MaxMessageSize, true)
}

// ValidateCommand validates a terminal command line
func ValidateCommand(command string) error {
	return ValidateString(command, "command", 0, MaxCommandSize, false)
}

// ValidateTimeOfDay validates an optional HH:MM time
func ValidateTimeOfDay(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(TimeOfDayLayout, value); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalid)
	}
	return nil
}
