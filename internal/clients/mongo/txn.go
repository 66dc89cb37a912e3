package mongo

import (
	"context"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// 0 = stand-alone, 1 = replica set
var isReplicaSet atomic.Bool

// IsReplicaSet reports whether the current deployment is a replica set.
// Callers MUST treat the result as a hint (cached at connect time).
func IsReplicaSet() bool { return isReplicaSet.Load() }

// Txn implements the notes.Transactor contract. On replica-set deployments
// the function runs inside a causally-consistent multi-document transaction;
// on stand-alone servers, where Mongo offers none, it runs sequentially and
// the single in-flight mutation per user keeps reconciliation consistent.
type Txn struct {
	client *mongo.Client
}

// NewTxn creates a transaction runner bound to the given client.
func NewTxn(client *mongo.Client) *Txn {
	return &Txn{client: client}
}

// InTransaction runs fn atomically when the deployment supports it.
func (t *Txn) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !IsReplicaSet() {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
