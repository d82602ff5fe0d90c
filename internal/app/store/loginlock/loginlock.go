// internal/app/store/loginlock/loginlock.go
package loginlock

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "login_attempts"

// record is keyed by the folded login id.
type record struct {
	ID          string     `bson:"_id"`
	Failures    int        `bson:"failures"`
	WindowStart time.Time  `bson:"window_start"`
	LockedUntil *time.Time `bson:"locked_until,omitempty"`
	LastAttempt time.Time  `bson:"last_attempt"`
}

// Policy is the lockout configuration.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Status describes whether a login may be attempted.
type Status struct {
	Allowed     bool
	Remaining   int
	LockedUntil time.Time
}

// Store locks a login id after too many failed password attempts.
type Store struct {
	c      *mongo.Collection
	policy Policy
	now    func() time.Time
}

func New(db *mongo.Database, p Policy) *Store {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Window <= 0 {
		p.Window = 15 * time.Minute
	}
	if p.Lockout <= 0 {
		p.Lockout = 15 * time.Minute
	}
	return &Store{c: db.Collection(collection), policy: p, now: time.Now}
}

func (s *Store) load(ctx context.Context, id string) (record, bool, error) {
	var r record
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r, false, nil
	}
	return r, err == nil, err
}

// Check reports whether loginID may try a password now.
func (s *Store) Check(ctx context.Context, loginID string) (Status, error) {
	now := s.now()
	r, ok, err := s.load(ctx, normalize.Email(loginID))
	if err != nil || !ok {
		return Status{Allowed: true, Remaining: s.policy.MaxAttempts}, err
	}
	if r.LockedUntil != nil && now.Before(*r.LockedUntil) {
		return Status{Allowed: false, LockedUntil: *r.LockedUntil}, nil
	}
	if now.After(r.WindowStart.Add(s.policy.Window)) || r.LockedUntil != nil {
		return Status{Allowed: true, Remaining: s.policy.MaxAttempts}, nil
	}
	return Status{Allowed: true, Remaining: max(s.policy.MaxAttempts-r.Failures, 0)}, nil
}

// Fail records a failed attempt and returns the resulting status. The
// attempt that reaches MaxAttempts starts the lockout.
func (s *Store) Fail(ctx context.Context, loginID string) (Status, error) {
	now := s.now()
	id := normalize.Email(loginID)
	r, ok, err := s.load(ctx, id)
	if err != nil {
		return Status{Allowed: true}, err
	}

	expired := ok && (now.After(r.WindowStart.Add(s.policy.Window)) ||
		(r.LockedUntil != nil && !now.Before(*r.LockedUntil)))
	if !ok || expired {
		r = record{ID: id, WindowStart: now}
	}
	r.Failures++
	r.LastAttempt = now
	r.LockedUntil = nil

	st := Status{Allowed: true, Remaining: s.policy.MaxAttempts - r.Failures}
	if r.Failures >= s.policy.MaxAttempts {
		until := now.Add(s.policy.Lockout)
		r.LockedUntil = &until
		st = Status{Allowed: false, LockedUntil: until}
	}

	_, err = s.c.ReplaceOne(ctx, bson.M{"_id": id}, r, options.Replace().SetUpsert(true))
	return st, err
}

// Clear forgets the failures for loginID after a successful login.
func (s *Store) Clear(ctx context.Context, loginID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": normalize.Email(loginID)})
	return err
}
