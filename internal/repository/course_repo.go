package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
)

const coursesCollection = "currentCourses"

// CourseRepository writes the per-season catalog mirror produced by
// the harvest job.
type CourseRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewCourseRepository(client *firestore.Client, log *zap.Logger) *CourseRepository {
	return &CourseRepository{client: client, log: log}
}

// SetSeasonIndex replaces the season's section-index map.
func (r *CourseRepository) SetSeasonIndex(ctx context.Context, season models.Season, entries map[string]models.CourseRef) error {
	r.log.Info("writing season catalog",
		zap.String("season", season.String()), zap.Int("sections", len(entries)))

	_, err := r.client.Collection(coursesCollection).Doc(season.String()).Set(ctx, map[string]interface{}{
		"courses": entries,
	})
	if err != nil {
		return fmt.Errorf("write season %s: %w", season, err)
	}
	return nil
}
