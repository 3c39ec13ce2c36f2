package scheduler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sriRacha21/rct-backend/internal/models"
)

// TermSource resolves which term and catalog year a cycle should query.
type TermSource interface {
	Resolve(now time.Time) (models.Season, int, error)
}

// FileTermSource reads the main season from a text file. The file is
// re-read every cycle so operators can flip terms without a restart.
type FileTermSource struct {
	Path string
}

// Resolve scans the file for "spring" or "fall" and derives the
// catalog year (spring queries target the following calendar year).
func (f FileTermSource) Resolve(now time.Time) (models.Season, int, error) {
	contents, err := os.ReadFile(f.Path)
	if err != nil {
		return "", 0, fmt.Errorf("read season file %s: %w", f.Path, err)
	}

	text := strings.ToLower(string(contents))
	var season models.Season
	switch {
	case strings.Contains(text, string(models.Spring)):
		season = models.Spring
	case strings.Contains(text, string(models.Fall)):
		season = models.Fall
	default:
		return "", 0, fmt.Errorf("season file %s names neither spring nor fall", f.Path)
	}

	return season, models.FetchYear(season, now), nil
}

// StaticTermSource pins the term, for overrides and tests.
type StaticTermSource struct {
	Season models.Season
}

func (s StaticTermSource) Resolve(now time.Time) (models.Season, int, error) {
	return s.Season, models.FetchYear(s.Season, now), nil
}
