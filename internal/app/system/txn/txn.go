// Package txn runs multi-document MongoDB writes in a transaction when the
// deployment supports it.
//
// A standalone mongod cannot run transactions. On such servers Run executes
// the function directly and RunWithFallback executes the caller's fallback,
// which is where compensating writes belong.
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if _, err := faqs.UpdateByID(ctx, a, setOrder(2)); err != nil {
//	        return err
//	    }
//	    _, err := faqs.UpdateByID(ctx, b, setOrder(1))
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. Use the ctx it receives for every database
// call so the calls join the session when one is active.
type Func func(ctx context.Context) error

// Run executes fn inside a transaction, or directly when transactions are
// not supported. An error returned by fn aborts the transaction and is
// returned unchanged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	return RunWithFallback(ctx, db, log, fn, fn)
}

// RunWithFallback executes txnFn inside a transaction. If the deployment
// cannot run transactions, fallbackFn runs instead without one.
func RunWithFallback(ctx context.Context, db *mongo.Database, log *zap.Logger, txnFn, fallbackFn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		warn(log, "failed to start session, using fallback", err)
		return fallbackFn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, txnFn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warn(log, "transactions not supported, using fallback", err)
		return fallbackFn(ctx)
	}
	return err
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Warn(msg, zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions.
//
// Known codes: 20 (IllegalOperation on standalone), 51, 263.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// DocumentDB and older servers only describe the failure in the message.
	// Two keyword hits keep ordinary errors that mention "session" from matching.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
