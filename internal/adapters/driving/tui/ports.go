// Package tui provides an interactive terminal browser for the grid.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"errors"

	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Grid is the dashboard mutation API.
	Grid driving.GridService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(grid driving.GridService, settings driving.SettingsService) *Ports {
	return &Ports{
		Grid:     grid,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Grid == nil {
		return errors.New("grid service is required")
	}
	if p.Settings == nil {
		return errors.New("settings service is required")
	}
	return nil
}
