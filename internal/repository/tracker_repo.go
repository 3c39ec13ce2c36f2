package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/sriRacha21/rct-backend/internal/models"
)

const trackersCollection = "trackers"

// TrackerRepository reads and deactivates trackers in Firestore.
type TrackerRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewTrackerRepository(client *firestore.Client, log *zap.Logger) *TrackerRepository {
	return &TrackerRepository{client: client, log: log}
}

func (r *TrackerRepository) activeQuery() firestore.Query {
	return r.client.Collection(trackersCollection).Where("active", "==", true)
}

// ListActive fetches every active tracker. Used once at startup to
// populate the cache before the first cycle runs.
func (r *TrackerRepository) ListActive(ctx context.Context) ([]models.Tracker, error) {
	iter := r.activeQuery().Documents(ctx)
	defer iter.Stop()

	var trackers []models.Tracker
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list active trackers: %w", err)
		}

		var t models.Tracker
		if err := doc.DataTo(&t); err != nil {
			r.log.Warn("skipping malformed tracker document",
				zap.String("doc", doc.Ref.ID), zap.Error(err))
			continue
		}
		t.ID = doc.Ref.ID
		trackers = append(trackers, t)
	}
	return trackers, nil
}

// Watch subscribes to the active-tracker query and hands each full
// replacement set to apply. Blocks until ctx is canceled or the
// listener fails.
func (r *TrackerRepository) Watch(ctx context.Context, apply func([]models.Tracker)) error {
	snaps := r.activeQuery().Snapshots(ctx)
	defer snaps.Stop()

	for {
		qsnap, err := snaps.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("tracker listener: %w", err)
		}

		docs, err := qsnap.Documents.GetAll()
		if err != nil {
			r.log.Error("reading tracker snapshot failed", zap.Error(err))
			continue
		}

		set := make([]models.Tracker, 0, len(docs))
		for _, doc := range docs {
			var t models.Tracker
			if err := doc.DataTo(&t); err != nil {
				r.log.Warn("skipping malformed tracker document",
					zap.String("doc", doc.Ref.ID), zap.Error(err))
				continue
			}
			t.ID = doc.Ref.ID
			set = append(set, t)
		}

		r.log.Debug("tracker change feed fired", zap.Int("trackers", len(set)))
		apply(set)
	}
}

// Deactivate flips a tracker's active flag to false. This is the only
// write this service performs against trackers.
func (r *TrackerRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.client.Collection(trackersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "active", Value: false},
	})
	if err != nil {
		return fmt.Errorf("deactivate tracker %s: %w", id, err)
	}
	return nil
}
