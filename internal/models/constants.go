// Package models contains data types and constants for the hosted assistant service.
package models

import "time"

// Environment variables holding the service secrets
const (
	EnvAPIKey   = "AZURE_OAI_KEY"
	EnvEndpoint = "AZURE_OAI_ENDPOINT"
)

// Request contract with the hosted service
const (
	DefaultAPIVersion = "2024-05-01-preview"
	DefaultModel      = "gpt-4o-mini"
)

// Run polling defaults
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPollTimeout  = 3 * time.Minute
)

// Model describes an assistant model identifier accepted by the service
type Model struct {
	Name        string
	Description string
}

// Available models
var (
	ModelGPT4oMini = Model{
		Name:        "gpt-4o-mini",
		Description: "Small, fast and inexpensive (default)",
	}

	ModelGPT4o = Model{
		Name:        "gpt-4o",
		Description: "Higher quality, slower",
	}
)

// AllModels returns the models offered in the CLI help and config output
func AllModels() []Model {
	return []Model{ModelGPT4oMini, ModelGPT4o}
}

// ModelFromName returns a Model by its deployment name.
// Unknown names are passed through unchanged because Azure deployments can be
// named freely.
func ModelFromName(name string) Model {
	switch name {
	case "", ModelGPT4oMini.Name:
		return ModelGPT4oMini
	case ModelGPT4o.Name:
		return ModelGPT4o
	default:
		return Model{Name: name}
	}
}
