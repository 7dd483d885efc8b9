package apps

import (
	"errors"
	"fmt"
)

// ID identifies an application
type ID string

const (
	Chat     ID = "chat"
	Store    ID = "apps"
	Skills   ID = "skills"
	Monitor  ID = "monitor"
	Terminal ID = "terminal"
	Files    ID = "files"
	Calendar ID = "calendar"
	Mail     ID = "mail"
	Agents   ID = "agents"
	Settings ID = "settings"
)

// ErrUnknownApp is matched by every ConfigurationError
var ErrUnknownApp = errors.New("unknown application")

// ConfigurationError reports a lookup of an application that is not registered
type ConfigurationError struct {
	AppID ID
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: application %q is not registered", string(e.AppID))
}

// Is lets errors.Is match ErrUnknownApp
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrUnknownApp
}

// Defaults holds the initial window properties for an application
type Defaults struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Info describes how an application is presented in the dock
type Info struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	GradientFrom string `json:"gradient_from"`
	GradientTo   string `json:"gradient_to"`
}

type entry struct {
	defaults Defaults
	info     Info
}

// dock order
var order = []ID{Chat, Store, Skills, Monitor, Terminal, Files, Calendar, Mail, Agents, Settings}

var registry = map[ID]entry{
	Chat:     {Defaults{"Chat", 500, 600}, Info{Chat, "Chat", "message-square", "#1E90FF", "#0066CC"}},
	Store:    {Defaults{"App Store", 800, 600}, Info{Store, "Apps", "layout-grid", "#00D4FF", "#0099CC"}},
	Skills:   {Defaults{"Skills", 700, 550}, Info{Skills, "Skills", "sparkles", "#FF6B9D", "#C44569"}},
	Monitor:  {Defaults{"Monitor", 650, 500}, Info{Monitor, "Monitor", "activity", "#FF6B35", "#CC4400"}},
	Terminal: {Defaults{"Terminal", 700, 450}, Info{Terminal, "Terminal", "terminal", "#2D2D2D", "#1A1A1A"}},
	Files:    {Defaults{"Files", 750, 500}, Info{Files, "Files", "folder-open", "#5AC8FA", "#007AFF"}},
	Calendar: {Defaults{"Calendar", 600, 550}, Info{Calendar, "Calendar", "calendar", "#FF3B30", "#CC2D24"}},
	Mail:     {Defaults{"Mail", 800, 550}, Info{Mail, "Mail", "mail", "#5856D6", "#3634A3"}},
	Agents:   {Defaults{"Agents", 700, 500}, Info{Agents, "Agents", "bot", "#34C759", "#248A3D"}},
	Settings: {Defaults{"Settings", 650, 500}, Info{Settings, "Settings", "settings", "#8E8E93", "#636366"}},
}

// All returns every registered application in dock order
func All() []ID {
	out := make([]ID, len(order))
	copy(out, order)
	return out
}

// Valid reports whether id is a registered application
func (id ID) Valid() bool {
	_, ok := registry[id]
	return ok
}

func (id ID) String() string {
	return string(id)
}

// Parse converts a client supplied identifier into an ID
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", &ConfigurationError{AppID: id}
	}
	return id, nil
}

// DefaultsFor returns the default window title and size for id
func DefaultsFor(id ID) (Defaults, error) {
	e, ok := registry[id]
	if !ok {
		return Defaults{}, &ConfigurationError{AppID: id}
	}
	return e.defaults, nil
}

// Lookup returns the dock metadata for id
func Lookup(id ID) (Info, error) {
	e, ok := registry[id]
	if !ok {
		return Info{}, &ConfigurationError{AppID: id}
	}
	return e.info, nil
}

// Catalog returns dock metadata for every application in dock order
func Catalog() []Info {
	out := make([]Info, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id].info)
	}
	return out
}
