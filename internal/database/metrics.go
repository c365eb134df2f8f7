package database

import (
	"context"

	"github.com/pkg/errors"
	"vintedwatch/internal/metrics"
)

func (db Database) MetricsSnapshotInsert(ctx context.Context, s metrics.Snapshot) error {
	_, err := db.Collection(CollectionMetricsSnapshots).InsertOne(ctx, s)
	return errors.Wrap(err, "error inserting metrics Snapshot")
}
