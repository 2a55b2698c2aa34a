// Package pricing resolves current market prices for ledger codes: a
// chain of quote sources behind a TTL cache shared by every request.
package pricing

import "time"

// Clock supplies the current time; tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

const (
	sessionOpen  = 9 * 60
	sessionClose = 13*60 + 30
)

// Session describes the regular trading session of the Taiwan market:
// 09:00 to 13:30 inclusive, Monday to Friday, in the market timezone.
// Exchange holidays are not modelled.
type Session struct {
	Location *time.Location
}

// NewSession returns a session in loc (UTC when nil).
func NewSession(loc *time.Location) Session {
	if loc == nil {
		loc = time.UTC
	}
	return Session{Location: loc}
}

// IsTradingDay reports whether t falls on a weekday in the market timezone.
func (s Session) IsTradingDay(t time.Time) bool {
	wd := t.In(s.Location).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// InSession reports whether t is within trading hours.
func (s Session) InSession(t time.Time) bool {
	if !s.IsTradingDay(t) {
		return false
	}
	local := t.In(s.Location)
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= sessionOpen && minutes <= sessionClose
}

// TTLPolicy decides how long a quote fetched at now stays fresh.
type TTLPolicy interface {
	TTL(now time.Time) time.Duration
}

// FixedTTL is a constant TTL.
type FixedTTL time.Duration

// TTL returns the fixed duration.
func (f FixedTTL) TTL(time.Time) time.Duration { return time.Duration(f) }

// SessionTTL keeps quotes for InSession during trading hours, for
// OffSession on trading days outside them and for Closed on weekends.
type SessionTTL struct {
	Session    Session
	InSession  time.Duration
	OffSession time.Duration
	Closed     time.Duration
}

// NewSessionTTL returns the default session-aware policy: 60s, 1h and 24h.
func NewSessionTTL(s Session) SessionTTL {
	return SessionTTL{
		Session:    s,
		InSession:  time.Minute,
		OffSession: time.Hour,
		Closed:     24 * time.Hour,
	}
}

// TTL picks the duration for now.
func (p SessionTTL) TTL(now time.Time) time.Duration {
	switch {
	case p.Session.InSession(now):
		return p.InSession
	case p.Session.IsTradingDay(now):
		return p.OffSession
	default:
		return p.Closed
	}
}
