package registrationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/app/system/txn"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrRegistrationClosed is returned after the event's registration
	// deadline or once the event has started.
	ErrRegistrationClosed = errors.New("registration for this event has closed")
	// ErrEventFull is returned when a capped event has no slots left.
	ErrEventFull = eventstore.ErrEventFull
)

// Registrar takes event sign-ups. It owns the capacity bookkeeping so the
// registration insert and the capacity decrement move together.
type Registrar struct {
	db     *mongo.Database
	events *eventstore.Store
	regs   *Store
	log    *zap.Logger
	now    func() time.Time
}

// NewRegistrar creates a Registrar over db.
func NewRegistrar(db *mongo.Database, log *zap.Logger) *Registrar {
	return &Registrar{
		db:     db,
		events: eventstore.New(db),
		regs:   New(db),
		log:    log,
		now:    time.Now,
	}
}

// Attendee holds the validated registration form.
type Attendee struct {
	Name         string
	Email        string
	Phone        string
	Organization string
	Dietary      string
	SpecialNeeds string
}

// Register signs an attendee up for ev.
//
// Checks run in order: start time and deadline, capacity, duplicate email. The insert and
// the capacity decrement run in one transaction. Without transaction
// support the insert is deleted again when the decrement finds the event
// full, so a failed registration never leaves a document behind.
func (g *Registrar) Register(ctx context.Context, ev models.Event, a Attendee) (models.Registration, error) {
	now := g.now()
	if !ev.Upcoming(now) || ev.DeadlinePassed(now) {
		return models.Registration{}, ErrRegistrationClosed
	}
	if ev.Full() {
		return models.Registration{}, ErrEventFull
	}
	exists, err := g.regs.Exists(ctx, ev.ID, a.Email)
	if err != nil {
		return models.Registration{}, err
	}
	if exists {
		return models.Registration{}, ErrAlreadyRegistered
	}

	reg := models.Registration{
		EventID:          ev.ID,
		Name:             normalize.Name(a.Name),
		Email:            a.Email,
		Phone:            a.Phone,
		Organization:     a.Organization,
		Dietary:          a.Dietary,
		SpecialNeeds:     a.SpecialNeeds,
		Status:           models.RegistrationPending,
		ConfirmationCode: confirmationCode(),
	}

	insertAndClaim := func(ctx context.Context) error {
		r := reg
		if err := g.regs.Insert(ctx, &r); err != nil {
			return err
		}
		if !ev.Uncapped() {
			if err := g.events.DecrementCapacity(ctx, ev.ID); err != nil {
				return err
			}
		}
		reg = r
		return nil
	}

	compensating := func(ctx context.Context) error {
		r := reg
		if err := g.regs.Insert(ctx, &r); err != nil {
			return err
		}
		if !ev.Uncapped() {
			if err := g.events.DecrementCapacity(ctx, ev.ID); err != nil {
				if delErr := g.regs.Delete(ctx, r.ID); delErr != nil && g.log != nil {
					g.log.Error("failed to remove registration after capacity check",
						zap.String("registration_id", r.ID.Hex()), zap.Error(delErr))
				}
				return err
			}
		}
		reg = r
		return nil
	}

	if err := txn.RunWithFallback(ctx, g.db, g.log, insertAndClaim, compensating); err != nil {
		return models.Registration{}, err
	}
	return reg, nil
}

// Cancel removes a registration and gives its slot back to the event.
func (g *Registrar) Cancel(ctx context.Context, regID primitive.ObjectID) error {
	r, err := g.regs.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	return txn.Run(ctx, g.db, g.log, func(ctx context.Context) error {
		if err := g.regs.Delete(ctx, r.ID); err != nil {
			return err
		}
		return g.events.IncrementCapacity(ctx, r.EventID)
	})
}

// confirmationCode returns the first block of a random UUID, upper-cased.
func confirmationCode() string {
	id := uuid.NewString()
	return strings.ToUpper(id[:8])
}
