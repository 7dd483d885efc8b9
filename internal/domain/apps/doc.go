// Package apps is the static application registry of the desktop.
//
// The set of applications is closed: every ID has a default window title
// and size, and dock metadata (icon and gradient colours). Lookups of IDs
// outside the set fail loudly with a ConfigurationError because they can
// only come from a programming error or a malformed client request.
//
// Example Usage:
//
//	defaults, err := apps.DefaultsFor(apps.Terminal)
//	// defaults.Title == "Terminal", defaults.Width == 700
package apps
