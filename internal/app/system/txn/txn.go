// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// ErrNotSupported is returned when the deployment cannot run multi-document
// transactions (standalone mongod, some DocumentDB versions). Callers that
// need atomicity must fail rather than fall back to unguarded writes.
var ErrNotSupported = errors.New("transactions not supported by this deployment")

// Run executes fn inside a snapshot transaction with majority write concern.
// The context handed to fn carries the session; every store call that must be
// part of the transaction has to use it.
//
// The driver retries fn on transient transaction errors, so fn must not have
// side effects outside the database.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Error("transaction rejected by deployment", zap.Error(err))
			}
			return fmt.Errorf("%w: %v", ErrNotSupported, err)
		}
		return err
	}
	return nil
}

// Runner binds Run to a database so services can take it as a dependency.
type Runner struct {
	db  *mongo.Database
	log *zap.Logger
}

// NewRunner returns a Runner for db.
func NewRunner(db *mongo.Database, log *zap.Logger) *Runner {
	return &Runner{db: db, log: log}
}

// Run executes fn in a transaction on the bound database.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, r.log, fn)
}

// IsNotSupported reports whether err indicates that sessions or transactions
// are unavailable on the server.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// IllegalOperation, not a replica set member on some versions,
		// OperationNotSupportedInTransaction.
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}
