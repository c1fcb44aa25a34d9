package api

import (
	"context"
	"errors"
	"github.com/skybi/restkit/internal/api/portal"
	"github.com/skybi/restkit/internal/config"
	"github.com/skybi/restkit/internal/message"
	"github.com/skybi/restkit/internal/storage"
	"net/http"
)

// Service represents the API service
type Service struct {
	Config  *config.Config
	Storage storage.Driver
	Mailer  message.Mailer
	SMS     message.SMSSender
	portal  *portal.Service
}

// Startup starts up the API in the background; errors that occur while serving are sent to errs
func (service *Service) Startup(ctx context.Context, errs chan<- error) {
	portalService := &portal.Service{
		Config:  service.Config,
		Storage: service.Storage,
		Mailer:  service.Mailer,
		SMS:     service.SMS,
	}
	service.portal = portalService
	go func() {
		if err := portalService.Startup(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown gracefully shuts down the API
func (service *Service) Shutdown(ctx context.Context) {
	if service.portal != nil {
		service.portal.Shutdown(ctx)
		service.portal = nil
	}
}
