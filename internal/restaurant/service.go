// Package restaurant implements the operations of the API: looking up, listing, adding and
// deleting restaurants, and enriching them with the current temperature and local time.
//
// Enrichment policy: temperature and local time are best effort.  If any upstream call
// needed for a value fails the value is left nil (GraphQL null) and the failure is logged;
// a read never fails because of enrichment.
package restaurant

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrewwphillips/restaurantql/internal/metrics"
	"github.com/andrewwphillips/restaurantql/internal/model"
	"github.com/andrewwphillips/restaurantql/internal/store"
	"github.com/andrewwphillips/restaurantql/internal/upstream"
)

const defaultConcurrency = 8

// phonePattern is the accepted international (E.164) format: "+", country code, subscriber number
var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Upstream is the set of third-party lookups used by the Service (see upstream.Client).
type Upstream interface {
	ValidatePhone(ctx context.Context, number string) (upstream.PhoneResult, error)
	ResolveCountry(ctx context.Context, name string) (upstream.Country, error)
	GeocodeCity(ctx context.Context, city string) (upstream.Coordinates, error)
	FetchTemperature(ctx context.Context, at upstream.Coordinates) (float64, error)
	FetchLocalTime(ctx context.Context, at upstream.Coordinates) (string, error)
}

type (
	// Service implements the restaurant operations.  It holds no per-request state so
	// one instance serves all requests concurrently.
	Service struct {
		store       store.Store
		upstream    Upstream
		logger      *zap.Logger
		concurrency int
	}

	// Input holds the client supplied fields of a new restaurant.
	Input struct {
		Name, Address, City, Phone string
	}

	// View is a restaurant as returned to clients: the stored fields plus derived and
	// enrichment values.  Temperature and LocalTime are nil unless enrichment was requested
	// and succeeded.
	View struct {
		ID          string
		Name        string
		Address     string
		City        string
		Country     string
		Phone       string
		FullAddress string
		Temperature *float64
		LocalTime   *string
	}
)

// EnrichConcurrency limits how many restaurants of a list are enriched at the same time.
func EnrichConcurrency(n int) func(*Service) {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates a Service on top of a store and the upstream APIs.
func New(st store.Store, up Upstream, logger *zap.Logger, options ...func(*Service)) *Service {
	s := &Service{
		store:       st,
		upstream:    up,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func newView(r *model.Restaurant) *View {
	return &View{
		ID:          r.ID.Hex(),
		Name:        r.Name,
		Address:     r.Address,
		City:        r.City,
		Country:     r.Country,
		Phone:       r.Phone,
		FullAddress: r.Address + ", " + r.City + ", " + r.Country,
	}
}

// GetRestaurant returns the restaurant with the given id (KindNotFound if there is none).
func (s *Service) GetRestaurant(ctx context.Context, id string, enrich bool) (*View, error) {
	r, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "restaurant not found", err)
	}
	if err != nil {
		return nil, s.internal("get restaurant", err)
	}
	v := newView(r)
	if enrich {
		s.enrich(ctx, v)
	}
	return v, nil
}

// GetRestaurants returns all restaurants in city (possibly none).
func (s *Service) GetRestaurants(ctx context.Context, city string, enrich bool) ([]*View, error) {
	list, err := s.store.FindByFilter(ctx, store.Filter{model.FieldCity: city})
	if err != nil {
		return nil, s.internal("get restaurants", err)
	}
	views := make([]*View, len(list))
	for i := range list {
		views[i] = newView(&list[i])
	}
	if !enrich || len(views) == 0 {
		return views, nil
	}

	// Restaurants are independent of each other so are enriched in parallel
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, v := range views {
		g.Go(func() error {
			s.enrich(gctx, v)
			return nil
		})
	}
	_ = g.Wait() // enrich never fails
	return views, nil
}

// AddRestaurant validates the phone number, derives the country from it, stores the new
// restaurant and returns it.
func (s *Service) AddRestaurant(ctx context.Context, in Input, enrich bool) (*View, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	switch {
	case in.Name == "":
		return nil, newError(KindInvalidInput, "name must not be empty", nil)
	case in.Address == "":
		return nil, newError(KindInvalidInput, "address must not be empty", nil)
	case in.City == "":
		return nil, newError(KindInvalidInput, "city must not be empty", nil)
	case !phonePattern.MatchString(in.Phone):
		return nil, newError(KindInvalidInput, "phone must be in international format, eg +34911234567", nil)
	}

	phone, err := s.upstream.ValidatePhone(ctx, in.Phone)
	if err != nil {
		return nil, newError(KindUpstream, "phone validation service failed", err)
	}
	if !phone.Valid {
		return nil, newError(KindInvalidPhone, "phone number is not valid", nil)
	}

	existing, err := s.store.FindByFilter(ctx, store.Filter{model.FieldPhone: in.Phone})
	if err != nil {
		return nil, s.internal("check phone", err)
	}
	if len(existing) > 0 {
		return nil, newError(KindDuplicatePhone, "phone number already registered", nil)
	}

	country, err := s.upstream.ResolveCountry(ctx, phone.Country)
	if errors.Is(err, upstream.ErrNoResult) {
		return nil, newError(KindNotFound, "country not found", err)
	}
	if err != nil {
		return nil, newError(KindUpstream, "country lookup service failed", err)
	}

	r := &model.Restaurant{
		Name:    in.Name,
		Address: in.Address,
		City:    in.City,
		Country: country.Name,
		Phone:   in.Phone,
	}
	// The store also enforces uniqueness, which catches a concurrent insert of the same phone
	if _, err := s.store.Insert(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, newError(KindDuplicatePhone, "phone number already registered", err)
		}
		return nil, s.internal("insert restaurant", err)
	}
	s.logger.Info("restaurant added", zap.String("id", r.ID.Hex()), zap.String("city", r.City), zap.String("country", r.Country))

	v := newView(r)
	if enrich {
		s.enrich(ctx, v)
	}
	return v, nil
}

// DeleteRestaurant removes a restaurant, returning false if there was none with that id.
func (s *Service) DeleteRestaurant(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, s.internal("delete restaurant", err)
	}
	if deleted {
		s.logger.Info("restaurant deleted", zap.String("id", id))
	}
	return deleted, nil
}

// enrich fills in the temperature and local time of v: geocode, then weather, then time.
func (s *Service) enrich(ctx context.Context, v *View) {
	at, err := s.upstream.GeocodeCity(ctx, v.City)
	if err != nil {
		s.enrichFailed(v, "temperature", err)
		s.enrichFailed(v, "localTime", err)
		return
	}
	if temp, err := s.upstream.FetchTemperature(ctx, at); err != nil {
		s.enrichFailed(v, "temperature", err)
	} else {
		v.Temperature = &temp
	}
	if hhmm, err := s.upstream.FetchLocalTime(ctx, at); err != nil {
		s.enrichFailed(v, "localTime", err)
	} else {
		v.LocalTime = &hhmm
	}
}

func (s *Service) enrichFailed(v *View, field string, err error) {
	metrics.EnrichmentFailures.WithLabelValues(field).Inc()
	s.logger.Warn("enrichment unavailable",
		zap.String("field", field), zap.String("id", v.ID), zap.String("city", v.City), zap.Error(err))
}

// internal logs an unexpected (eg storage) error and hides its details from the client.
func (s *Service) internal(op string, err error) error {
	s.logger.Error(op+" failed", zap.Error(err))
	return newError(KindInternal, "internal error", err)
}
