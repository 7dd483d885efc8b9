package installer

import "errors"

var (
	ErrUnknownMethod = errors.New("unknown install method")
	ErrNotInstalled  = errors.New("moltbot is not installed")
	ErrBusy          = errors.New("installation already in progress")
	ErrNotConnected  = errors.New("gateway is not connected")
)
