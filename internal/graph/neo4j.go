// Package graph narrows the Neo4j driver to what careerpilot uses so it can
// be mocked.
package graph

//go:generate mockgen -destination=../../mocks/mock_graph.go -package=mocks careerpilot/internal/graph DriverSessioner,SessionRunner

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SessionRunner abstracts neo4j.SessionWithContext.
type SessionRunner interface {
	ExecuteRead(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	Close(ctx context.Context) error
}

// DriverSessioner abstracts neo4j.DriverWithContext.
type DriverSessioner interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner
	Close(ctx context.Context) error
}

// Driver adapts a real driver to DriverSessioner.
type Driver struct {
	driver neo4j.DriverWithContext
}

// Connect opens a driver with basic auth and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (*Driver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	return &Driver{driver: d}, nil
}

// NewSession implements DriverSessioner.
func (d *Driver) NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner {
	return d.driver.NewSession(ctx, config)
}

// Close implements DriverSessioner.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
