package handlers

import (
	"github.com/rs/zerolog"

	"keygate-server/internal/config"
	domain "keygate-server/internal/domain/accesskey"
)

// Provider wires HTTP handlers.
type Provider struct {
	Keys       *KeyHandler
	Validation *ValidationHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Keys:       NewKeyHandler(cfg, service, log),
		Validation: NewValidationHandler(service, log),
	}
}
