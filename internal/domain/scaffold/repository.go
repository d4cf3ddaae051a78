package scaffold

import (
	"context"
	"time"
)

// Repository defines the persistence contract for NetworkRecord aggregates.
type Repository interface {
	// Save persists a new record.
	// Returns errors.CodeConflict if a record with the same ID already exists.
	Save(ctx context.Context, rec *NetworkRecord) error

	// FindByID retrieves a record by its identifier.
	// Returns errors.ErrCodeNetworkNotFound if no record exists.
	FindByID(ctx context.Context, id string) (*NetworkRecord, error)

	// FindByFingerprint retrieves the newest record built from the same
	// inputs and settings.
	// Returns errors.ErrCodeNetworkNotFound if none exists.
	FindByFingerprint(ctx context.Context, fingerprint string) (*NetworkRecord, error)

	// List returns records ordered by descending creation time.
	List(ctx context.Context, limit, offset int) ([]*NetworkRecord, error)

	// Delete removes a record.
	// Returns errors.ErrCodeNetworkNotFound if the record does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}

// NetworkCache stores built networks keyed by request fingerprint.
type NetworkCache interface {
	// Get returns the cached network and true, or nil and false on a miss.
	Get(ctx context.Context, fingerprint string) (*Network, bool, error)
	Set(ctx context.Context, fingerprint string, net *Network, ttl time.Duration) error
	Invalidate(ctx context.Context, fingerprint string) error
}

// GraphProjector mirrors a network into a graph database.  Nodes are merged
// by key so that networks sharing scaffolds share graph nodes.
type GraphProjector interface {
	ProjectNetwork(ctx context.Context, rec *NetworkRecord) error
	// Children returns the keys directly derived from key, any edge type.
	Children(ctx context.Context, key CanonicalKey) ([]CanonicalKey, error)
}

// ScaffoldIndex makes scaffold nodes searchable across networks.
type ScaffoldIndex interface {
	IndexNetwork(ctx context.Context, rec *NetworkRecord) error
	// SearchByKey returns the nodes whose key equals key, newest networks first.
	SearchByKey(ctx context.Context, key CanonicalKey, limit int) ([]ScaffoldNode, error)
}

// ArtifactStore exports network documents.
type ArtifactStore interface {
	// ExportNetwork writes rec and returns the object location.
	ExportNetwork(ctx context.Context, rec *NetworkRecord) (string, error)
}

// EventPublisher announces completed builds.
type EventPublisher interface {
	PublishNetworkBuilt(ctx context.Context, evt NetworkBuiltEvent) error
}

//Personal.AI order the ending
