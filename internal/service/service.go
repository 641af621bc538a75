// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/aksellund/geoaddr/internal/config"
	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/i18n"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/permission"
	"github.com/aksellund/geoaddr/internal/position"
	"github.com/aksellund/geoaddr/internal/presenter"
	"github.com/aksellund/geoaddr/internal/proximity"
)

// Outcome is the result of a permission-gated lookup. PermissionDenied is a
// regular outcome, not an error: callers must check it before touching
// Address or Position.
type Outcome struct {
	Address          *geocode.AddressComponent
	Position         geo.Position
	PermissionDenied bool
}

// Service ties the permission gate, position backend, geocoder and presenter
// together and exposes the user-facing lookup operations.
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	localizer *spreak.Localizer

	gate      *permission.Gate
	positions position.Provider
	resolver  *geocode.Resolver
	ranker    *proximity.Ranker
	presenter *presenter.Presenter
	scheduler gocron.Scheduler
}

func New(conf *config.Config, log *logger.Logger, localizer *spreak.Localizer) (*Service, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	lang := i18n.Language(conf.Locale)
	httpClient := http.New(log)

	positions, err := position.NewPlatformProvider(conf, log, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create position provider: %w", err)
	}

	geocoder, err := selectGeocodeProvider(conf, log, lang)
	if err != nil {
		return nil, err
	}

	gate := permission.NewGate(permission.NewPortalClient(config.DesktopID, log),
		selectNotifier(conf), localizer, log)

	return &Service{
		config:    conf,
		logger:    log,
		localizer: localizer,
		gate:      gate,
		positions: positions,
		resolver:  geocode.NewResolver(geocoder, log),
		ranker:    proximity.NewRanker(positions, log),
		presenter: presenter.New(localizer, i18n.NewHumanizer(lang)),
		scheduler: scheduler,
	}, nil
}

// Presenter returns the output formatter sharing the service's locale.
func (s *Service) Presenter() *presenter.Presenter {
	return s.presenter
}

// AddressFromGPS resolves the device's current position into a postal
// address. A denied permission yields a tagged outcome and fires an
// unawaited background re-request before returning.
func (s *Service) AddressFromGPS(ctx context.Context) (Outcome, error) {
	if !s.gate.Ensure(ctx) {
		s.gate.RequestIgnored(ctx)
		return Outcome{PermissionDenied: true}, nil
	}

	pos, err := s.positions.Current(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to determine current position: %w", err)
	}

	component, err := s.resolver.FromPosition(ctx, pos)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve address for current position: %w", err)
	}
	return Outcome{Address: &component, Position: pos}, nil
}

// AddressFromCoordinates resolves caller-supplied coordinates into a postal
// address. It is gated the same way as AddressFromGPS even though no device
// position is read.
func (s *Service) AddressFromCoordinates(ctx context.Context, lat, lon float64) (Outcome, error) {
	if !s.gate.Ensure(ctx) {
		s.gate.RequestIgnored(ctx)
		return Outcome{PermissionDenied: true}, nil
	}

	pos := position.FromCoordinates(lat, lon)
	component, err := s.resolver.FromPosition(ctx, pos)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve address for coordinates: %w", err)
	}
	return Outcome{Address: &component, Position: pos}, nil
}

// DecodeAddress turns a free-form address string into a structured address
// with coordinates. It needs no location permission and passes resolver
// errors through unchanged so callers can match the sentinel errors.
func (s *Service) DecodeAddress(ctx context.Context, address string) (geocode.AddressComponent, error) {
	return s.resolver.FromAddress(ctx, address)
}

// AddressesByDistance ranks the given addresses by their distance from the
// device's current position, nearest first.
func (s *Service) AddressesByDistance(ctx context.Context, addresses []*geocode.AddressComponent) (proximity.Ranking, error) {
	return s.ranker.Rank(ctx, addresses)
}

// Watch re-resolves the current address on the configured interval and
// writes each result to out until the context is cancelled.
func (s *Service) Watch(ctx context.Context, out io.Writer) error {
	interval, err := time.ParseDuration(s.config.Intervals.Watch)
	if err != nil {
		return fmt.Errorf("failed to parse watch interval: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(jobCtx context.Context) { s.watchLocate(jobCtx, out) }),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("watch_locate_job"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create watch_locate_job: %w", err)
	}
	s.scheduler.Start()

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

func (s *Service) watchLocate(ctx context.Context, out io.Writer) {
	outcome, err := s.AddressFromGPS(ctx)
	if err != nil {
		s.logger.Error("failed to resolve current address", logger.Err(err))
		return
	}
	if outcome.PermissionDenied {
		fmt.Fprintln(out, s.localizer.Get("Location permission denied"))
		return
	}
	fmt.Fprintln(out, s.presenter.FormatAddress(*outcome.Address))
}
