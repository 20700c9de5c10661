package chrono

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// the portal reports every date in Indian Standard Time regardless of where we run.
const portalTimezone = "Asia/Kolkata"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	// Location is the timezone of the upstream portal.
	Location() *time.Location
	// After waits for the duration to elapse and then sends the current time on the returned channel.
	After(d time.Duration) <-chan time.Time
}

type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation(portalTimezone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

func (s StandardImpl) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// FakeImpl is a manually driven clock, After advances the clock by the
// given duration immediately instead of waiting.
type FakeImpl struct {
	lock     sync.Mutex
	now      time.Time
	location *time.Location
	waits    []time.Duration
}

func NewFakeImpl(now time.Time) *FakeImpl {
	return &FakeImpl{now: now, location: now.Location()}
}

func (f *FakeImpl) Now() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.now
}

func (f *FakeImpl) Location() *time.Location {
	return f.location
}

func (f *FakeImpl) Advance(d time.Duration) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.now = f.now.Add(d)
}

func (f *FakeImpl) After(d time.Duration) <-chan time.Time {
	f.lock.Lock()
	f.now = f.now.Add(d)
	f.waits = append(f.waits, d)
	now := f.now
	f.lock.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns every duration passed to After so far.
func (f *FakeImpl) Waits() []time.Duration {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]time.Duration(nil), f.waits...)
}
