package fluo

import "github.com/google/uuid"

// RegistrationKey identifies one route, handler or mapping registration
type RegistrationKey = uuid.UUID

func newRegistrationKey() RegistrationKey {
	return uuid.New()
}

// Disposable removes the registration it was returned for.
// Dispose reports false when the registration was already removed.
type Disposable interface {
	Dispose() bool
	IsDisposed() bool
}

type disposer struct {
	disposed bool
	fn       func()
}

func newDisposer(fn func()) *disposer {
	return &disposer{fn: fn}
}

func (d *disposer) Dispose() bool {
	if d.disposed {
		return false
	}
	d.disposed = true
	if d.fn != nil {
		d.fn()
	}
	return true
}

func (d *disposer) IsDisposed() bool {
	return d.disposed
}

// compositeDisposable disposes a bundle of registrations together
type compositeDisposable struct {
	disposed bool
	members  []Disposable
}

func newCompositeDisposable(members ...Disposable) *compositeDisposable {
	return &compositeDisposable{members: members}
}

func (c *compositeDisposable) Dispose() bool {
	if c.disposed {
		return false
	}
	c.disposed = true
	for _, member := range c.members {
		member.Dispose()
	}
	return true
}

func (c *compositeDisposable) IsDisposed() bool {
	return c.disposed
}
