// Package harvest is the one-shot job that mirrors the SOC catalog
// into per-season section-index documents.
package harvest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

const (
	maxConcurrentRequests = 8
	requestAttempts       = 3
)

var retryBaseDelay = time.Second

// Catalog is the slice of the SOC client the job needs.
type Catalog interface {
	Subjects(ctx context.Context, season models.Season, year int) ([]soc.Subject, error)
	Courses(ctx context.Context, subjectCode string, season models.Season, year int) ([]soc.Course, error)
}

// CourseWriter persists one season's index map.
type CourseWriter interface {
	SetSeasonIndex(ctx context.Context, season models.Season, entries map[string]models.CourseRef) error
}

// Job harvests the catalog for the main season and its companion
// (fall+summer or spring+winter).
type Job struct {
	catalog Catalog
	writer  CourseWriter
	log     *zap.Logger
	now     func() time.Time
}

func NewJob(catalog Catalog, writer CourseWriter, log *zap.Logger) *Job {
	return &Job{catalog: catalog, writer: writer, log: log, now: time.Now}
}

// Run fetches subjects once, fans out per-subject course requests for
// both seasons, and writes the resulting index maps.
func (j *Job) Run(ctx context.Context, mainSeason models.Season) error {
	started := j.now()
	seasons := mainSeason.HarvestPair()

	subjects, err := j.subjectsWithRetry(ctx, mainSeason, models.FetchYear(mainSeason, started))
	if err != nil {
		return fmt.Errorf("fetch subjects: %w", err)
	}
	j.log.Info("harvesting catalog",
		zap.String("mainSeason", mainSeason.String()),
		zap.Int("subjects", len(subjects)))

	var mu sync.Mutex
	indexes := map[models.Season]map[string]models.CourseRef{}
	for _, s := range seasons {
		indexes[s] = map[string]models.CourseRef{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)
	for _, subject := range subjects {
		for _, season := range seasons {
			subject, season := subject, season
			g.Go(func() error {
				year := models.FetchYear(season, started)
				courses, err := j.coursesWithRetry(gctx, subject.Code, season, year)
				if err != nil {
					return fmt.Errorf("subject %s season %s: %w", subject.Code, season, err)
				}

				entries := buildEntries(courses, j.log)
				mu.Lock()
				for idx, ref := range entries {
					indexes[season][idx] = ref
				}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, season := range seasons {
		if err := j.writer.SetSeasonIndex(ctx, season, indexes[season]); err != nil {
			return err
		}
	}

	j.log.Info("harvest complete", zap.Duration("took", j.now().Sub(started)))
	return nil
}

// buildEntries flattens courses into index → CourseRef, skipping
// records with missing fields.
func buildEntries(courses []soc.Course, log *zap.Logger) map[string]models.CourseRef {
	entries := map[string]models.CourseRef{}
	for _, course := range courses {
		if len(course.Sections) == 0 {
			log.Warn("course has no sections, skipping",
				zap.String("course", course.Title),
				zap.String("courseNumber", course.CourseNumber))
			continue
		}
		for _, section := range course.Sections {
			if course.Subject == "" || course.Title == "" || section.Number == "" || section.Index == "" {
				log.Warn("incomplete section record, skipping",
					zap.String("course", course.Title),
					zap.String("index", section.Index))
				continue
			}
			entries[section.Index] = models.CourseRef{
				Subject: course.Subject,
				Name:    course.Title,
				Section: section.Number,
			}
		}
	}
	return entries
}

func (j *Job) subjectsWithRetry(ctx context.Context, season models.Season, year int) ([]soc.Subject, error) {
	var subjects []soc.Subject
	err := withRetry(ctx, func() error {
		var err error
		subjects, err = j.catalog.Subjects(ctx, season, year)
		return err
	})
	return subjects, err
}

func (j *Job) coursesWithRetry(ctx context.Context, code string, season models.Season, year int) ([]soc.Course, error) {
	var courses []soc.Course
	err := withRetry(ctx, func() error {
		var err error
		courses, err = j.catalog.Courses(ctx, code, season, year)
		return err
	})
	return courses, err
}

// withRetry runs fn up to requestAttempts times with a doubling delay.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 0; attempt < requestAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
