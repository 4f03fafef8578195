package monitoring

import (
	"context"
	"errors"

	"github.com/aalemi-dev/sqlguard/database"
)

// CompositeObserver drives several observers as one.
type CompositeObserver []database.Observer

// Register registers every observer and joins their errors.
func (c CompositeObserver) Register(ctx context.Context) error {
	var errs []error
	for _, o := range c {
		errs = append(errs, o.Register(ctx))
	}
	return errors.Join(errs...)
}

// Unregister unregisters every observer and joins their errors.
func (c CompositeObserver) Unregister(ctx context.Context) error {
	var errs []error
	for _, o := range c {
		errs = append(errs, o.Unregister(ctx))
	}
	return errors.Join(errs...)
}

// Close closes every observer and joins their errors.
func (c CompositeObserver) Close() error {
	var errs []error
	for _, o := range c {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}

// ComposeBuilders returns a builder producing a CompositeObserver from the
// non-nil builders. With a single builder its observer is returned as is.
func ComposeBuilders(builders ...database.ObserverBuilder) database.ObserverBuilder {
	var active []database.ObserverBuilder
	for _, b := range builders {
		if b != nil {
			active = append(active, b)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(source database.EventSource) database.Observer {
		composite := make(CompositeObserver, 0, len(active))
		for _, b := range active {
			composite = append(composite, b(source))
		}
		return composite
	}
}
