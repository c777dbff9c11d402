package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/ports"
	"delivtrack/internal/store"

	"github.com/google/uuid"
)

var (
	ErrInvalidWorkEndTime = errors.New("work_end_time must be HH:MM")
	ErrInvalidPlace       = errors.New("saved place needs a name and an address")
	ErrScheduleExceeded   = errors.New("schedule exceeded")
	ErrGeocode            = errors.New("address could not be geocoded")
)

// ScheduleExceededError is returned by AddStop when the new stop would run
// past the end of shift and the caller did not confirm.
type ScheduleExceededError struct {
	Advisory domain.ScheduleAdvisory
	Estimate domain.Estimate
}

func (e *ScheduleExceededError) Error() string {
	if e.Advisory.ProjectedEnd == nil {
		return ErrScheduleExceeded.Error()
	}
	return fmt.Sprintf("%v: projected end %s", ErrScheduleExceeded, e.Advisory.ProjectedEnd.Format("15:04"))
}

func (e *ScheduleExceededError) Unwrap() error { return ErrScheduleExceeded }

// Preview is the outcome of pricing a draft stop without committing it.
type Preview struct {
	Coordinates domain.Coordinates      `json:"coordinates"`
	Estimate    domain.Estimate         `json:"estimate"`
	Advisory    domain.ScheduleAdvisory `json:"advisory"`
}

// DriverUpdate is a GPS fix. SpeedMps is meters per second; Heading keeps its
// previous value when nil.
type DriverUpdate struct {
	Coordinates domain.Coordinates
	Heading     *float64
	SpeedMps    *float64
	At          time.Time
}

// RouteService binds the route engine to the delivery store. Every mutation
// runs estimate -> sequence -> aggregate against one consistent snapshot.
type RouteService struct {
	Store     *store.DeliveryStore
	Estimator *Estimator
	Geocoder  ports.Geocoder
	Notifier  ports.RouteNotifier
	Now       func() time.Time
	NewID     func() string
}

func NewRouteService(s *store.DeliveryStore, estimator *Estimator) *RouteService {
	return &RouteService{
		Store:     s,
		Estimator: estimator,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

func (r *RouteService) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *RouteService) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// State returns the current route.
func (r *RouteService) State(ctx context.Context) domain.RouteSnapshot {
	return snapshotOf(r.Store.Snapshot())
}

// Preview resolves the draft's position, estimates the leg from the driver and
// runs the schedule check against the current totals.
func (r *RouteService) Preview(ctx context.Context, draft domain.Draft) (Preview, error) {
	st := r.Store.Snapshot()

	coords, err := r.resolveCoordinates(ctx, st, draft)
	if err != nil {
		return Preview{}, fmt.Errorf("preview stop: %w", err)
	}

	est := r.Estimator.Estimate(ctx, st.Driver.Coordinates, coords)
	current := RouteMetricsFor(st.Stops, st.Config)

	return Preview{
		Coordinates: coords,
		Estimate:    est,
		Advisory:    CheckConstraint(current, est.DurationMinutes, st.Config.WorkEndTime, r.now()),
	}, nil
}

// AddStop commits a new pending stop and re-sequences the route. When the
// schedule check says the stop would run past the end of shift, the stop is
// only added if confirmed is true; otherwise a *ScheduleExceededError is
// returned and nothing changes.
//
// The leg is estimated outside the store lock, but the schedule check runs
// again on the state being committed so concurrent adds see each other.
func (r *RouteService) AddStop(
	ctx context.Context,
	draft domain.Draft,
	confirmed bool,
) (domain.Stop, domain.RouteSnapshot, error) {
	p, err := r.Preview(ctx, draft)
	if err != nil {
		return domain.Stop{}, domain.RouteSnapshot{}, fmt.Errorf("add stop: %w", err)
	}

	now := r.now()
	stop := domain.Stop{
		ID:           r.newID(),
		Address:      strings.TrimSpace(draft.Address),
		CustomerName: strings.TrimSpace(draft.CustomerName),
		Phone:        strings.TrimSpace(draft.Phone),
		Notes:        strings.TrimSpace(draft.Notes),
		Coordinates:  p.Coordinates,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	}
	stop.ApplyEstimate(p.Estimate)

	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		current := RouteMetricsFor(s.Stops, s.Config)
		advisory := CheckConstraint(current, p.Estimate.DurationMinutes, s.Config.WorkEndTime, now)
		if advisory.Exceeds && !confirmed {
			return &ScheduleExceededError{Advisory: advisory, Estimate: p.Estimate}
		}
		s.Stops = append(s.Stops, stop)
		s.Stops = SequenceStops(s.Stops, s.Driver.Coordinates)
		return nil
	})
	if err != nil {
		var exceeded *ScheduleExceededError
		if errors.As(err, &exceeded) {
			return domain.Stop{}, domain.RouteSnapshot{}, exceeded
		}
		return domain.Stop{}, domain.RouteSnapshot{}, fmt.Errorf("add stop: %w", err)
	}

	if i := st.FindStop(stop.ID); i >= 0 {
		stop = st.Stops[i]
	}
	return stop, r.publish(st), nil
}

// RemoveStop deletes a stop and re-sequences what is left.
func (r *RouteService) RemoveStop(ctx context.Context, id string) (domain.RouteSnapshot, error) {
	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		i := s.FindStop(id)
		if i < 0 {
			return fmt.Errorf("%w: %q", domain.ErrStopNotFound, id)
		}
		s.Stops = append(s.Stops[:i], s.Stops[i+1:]...)
		s.Stops = SequenceStops(s.Stops, s.Driver.Coordinates)
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("remove stop: %w", err)
	}
	return r.publish(st), nil
}

// SetStatus moves a stop through its lifecycle and re-sequences the route.
func (r *RouteService) SetStatus(ctx context.Context, id string, status domain.Status) (domain.RouteSnapshot, error) {
	now := r.now()
	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		i := s.FindStop(id)
		if i < 0 {
			return fmt.Errorf("%w: %q", domain.ErrStopNotFound, id)
		}
		if err := s.Stops[i].Transition(status, now); err != nil {
			return err
		}
		s.Stops = SequenceStops(s.Stops, s.Driver.Coordinates)
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("set status: %w", err)
	}
	return r.publish(st), nil
}

// Reconfigure replaces the end location and work end time. Either may be
// cleared by passing the zero value.
func (r *RouteService) Reconfigure(ctx context.Context, cfg domain.RouteConfig) (domain.RouteSnapshot, error) {
	cfg.WorkEndTime = strings.TrimSpace(cfg.WorkEndTime)
	if cfg.WorkEndTime != "" {
		if _, _, err := ParseWorkEndTime(cfg.WorkEndTime); err != nil {
			return domain.RouteSnapshot{}, fmt.Errorf("reconfigure: %w: %q", ErrInvalidWorkEndTime, cfg.WorkEndTime)
		}
	}
	if cfg.EndLocation != nil {
		if err := cfg.EndLocation.Validate(); err != nil {
			return domain.RouteSnapshot{}, fmt.Errorf("reconfigure: end location: %w", err)
		}
	}

	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		s.Config = cfg
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("reconfigure: %w", err)
	}
	return r.publish(st), nil
}

// UpdateDriverLocation records a GPS fix. The route is not re-sequenced; the
// next mutation or Optimize call starts from the new position.
func (r *RouteService) UpdateDriverLocation(ctx context.Context, u DriverUpdate) (domain.RouteSnapshot, error) {
	if err := u.Coordinates.Validate(); err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("update driver location: %w", err)
	}

	at := u.At
	if at.IsZero() {
		at = r.now()
	}

	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		d := s.Driver
		d.Coordinates = u.Coordinates
		if u.Heading != nil {
			d.Heading = *u.Heading
		}
		d.Speed = 0
		if u.SpeedMps != nil {
			d.Speed = *u.SpeedMps * 3.6
		}
		d.LastUpdated = at
		s.Driver = d
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("update driver location: %w", err)
	}
	return r.publish(st), nil
}

// Optimize re-sequences the active stops from the current driver position.
func (r *RouteService) Optimize(ctx context.Context) (domain.RouteSnapshot, error) {
	st, err := r.Store.Mutate(ctx, func(s *store.State) error {
		s.Stops = SequenceStops(s.Stops, s.Driver.Coordinates)
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("optimize: %w", err)
	}
	return r.publish(st), nil
}

// RefreshEstimates re-sequences the route and re-estimates every active leg
// along it (driver -> first stop -> second stop ...). Legs are estimated
// concurrently outside the store lock; stops whose position or status changed
// in the meantime keep their previous values.
func (r *RouteService) RefreshEstimates(ctx context.Context) (domain.RouteSnapshot, error) {
	st := r.Store.Snapshot()
	ordered := ActiveInOrder(SequenceStops(st.Stops, st.Driver.Coordinates))

	legs := make([]Leg, 0, len(ordered))
	prev := st.Driver.Coordinates
	for _, s := range ordered {
		legs = append(legs, Leg{Origin: prev, Destination: s.Coordinates})
		prev = s.Coordinates
	}

	estimates := r.Estimator.EstimateLegs(ctx, legs)

	committed, err := r.Store.Mutate(ctx, func(s *store.State) error {
		for i, stop := range ordered {
			j := s.FindStop(stop.ID)
			if j < 0 || !s.Stops[j].Status.Active() || s.Stops[j].Coordinates != stop.Coordinates {
				continue
			}
			s.Stops[j].ApplyEstimate(estimates[i])
		}
		s.Stops = SequenceStops(s.Stops, s.Driver.Coordinates)
		return nil
	})
	if err != nil {
		return domain.RouteSnapshot{}, fmt.Errorf("refresh estimates: %w", err)
	}
	return r.publish(committed), nil
}

// SavedPlaces lists the driver's favorite addresses.
func (r *RouteService) SavedPlaces(ctx context.Context) []domain.SavedPlace {
	return r.Store.Snapshot().SavedPlaces
}

func (r *RouteService) AddSavedPlace(
	ctx context.Context,
	name string,
	address string,
	coords domain.Coordinates,
) (domain.SavedPlace, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return domain.SavedPlace{}, fmt.Errorf("add saved place: %w", ErrInvalidPlace)
	}
	if err := coords.Validate(); err != nil {
		return domain.SavedPlace{}, fmt.Errorf("add saved place: %w", err)
	}

	place := domain.SavedPlace{ID: r.newID(), Name: name, Address: address, Coordinates: coords}
	_, err := r.Store.Mutate(ctx, func(s *store.State) error {
		s.SavedPlaces = append(s.SavedPlaces, place)
		return nil
	})
	if err != nil {
		return domain.SavedPlace{}, fmt.Errorf("add saved place: %w", err)
	}
	return place, nil
}

func (r *RouteService) RemoveSavedPlace(ctx context.Context, id string) error {
	_, err := r.Store.Mutate(ctx, func(s *store.State) error {
		i := s.FindPlace(id)
		if i < 0 {
			return fmt.Errorf("%w: %q", domain.ErrPlaceNotFound, id)
		}
		s.SavedPlaces = append(s.SavedPlaces[:i], s.SavedPlaces[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove saved place: %w", err)
	}
	return nil
}

// resolveCoordinates picks the stop position: explicit coordinates, then a
// saved place, then the geocoded address, then the driver's position.
func (r *RouteService) resolveCoordinates(ctx context.Context, st store.State, draft domain.Draft) (domain.Coordinates, error) {
	if draft.Coordinates != nil {
		if err := draft.Coordinates.Validate(); err != nil {
			return domain.Coordinates{}, err
		}
		return *draft.Coordinates, nil
	}

	if draft.PlaceID != "" {
		i := st.FindPlace(draft.PlaceID)
		if i < 0 {
			return domain.Coordinates{}, fmt.Errorf("%w: %q", domain.ErrPlaceNotFound, draft.PlaceID)
		}
		return st.SavedPlaces[i].Coordinates, nil
	}

	if addr := strings.TrimSpace(draft.Address); addr != "" && r.Geocoder != nil {
		c, err := r.Geocoder.Geocode(ctx, addr)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("%w: %q: %v", ErrGeocode, addr, err)
		}
		return c, nil
	}

	return st.Driver.Coordinates, nil
}

func (r *RouteService) publish(st store.State) domain.RouteSnapshot {
	snap := snapshotOf(st)
	if r.Notifier != nil {
		r.Notifier.Publish(snap)
	}
	return snap
}

func snapshotOf(st store.State) domain.RouteSnapshot {
	stops := st.Stops
	if stops == nil {
		stops = []domain.Stop{}
	}
	return domain.RouteSnapshot{
		Stops:   stops,
		Metrics: RouteMetricsFor(st.Stops, st.Config),
		Summary: domain.Summarize(st.Stops),
		Config:  st.Config,
		Driver:  st.Driver,
		Version: st.Version,
	}
}
