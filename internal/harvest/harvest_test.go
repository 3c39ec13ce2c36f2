package harvest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

type fakeCatalog struct {
	mu       sync.Mutex
	subjects []soc.Subject
	courses  map[string][]soc.Course // keyed by subject code
	failures map[string]int         // remaining failures per subject code
}

func (f *fakeCatalog) Subjects(context.Context, models.Season, int) ([]soc.Subject, error) {
	return f.subjects, nil
}

func (f *fakeCatalog) Courses(_ context.Context, code string, _ models.Season, _ int) ([]soc.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[code] > 0 {
		f.failures[code]--
		return nil, errors.New("transient upstream error")
	}
	return f.courses[code], nil
}

type fakeWriter struct {
	mu      sync.Mutex
	written map[models.Season]map[string]models.CourseRef
}

func (f *fakeWriter) SetSeasonIndex(_ context.Context, season models.Season, entries map[string]models.CourseRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.written == nil {
		f.written = map[models.Season]map[string]models.CourseRef{}
	}
	f.written[season] = entries
	return nil
}

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestRunBuildsSeasonIndexes(t *testing.T) {
	fastRetries(t)

	catalog := &fakeCatalog{
		subjects: []soc.Subject{{Code: "198"}},
		courses: map[string][]soc.Course{
			"198": {{
				Subject:      "198",
				Title:        "Data Structures",
				CourseNumber: "112",
				Sections: []soc.Section{
					{Number: "01", Index: "01234"},
					{Number: "02", Index: "01235"},
				},
			}},
		},
	}
	writer := &fakeWriter{}
	job := NewJob(catalog, writer, zap.NewNop())

	require.NoError(t, job.Run(context.Background(), models.Fall))

	// Fall harvest covers fall and summer.
	require.Contains(t, writer.written, models.Fall)
	require.Contains(t, writer.written, models.Summer)

	fall := writer.written[models.Fall]
	require.Len(t, fall, 2)
	assert.Equal(t, models.CourseRef{Subject: "198", Name: "Data Structures", Section: "01"}, fall["01234"])
}

func TestRunSkipsIncompleteRecords(t *testing.T) {
	fastRetries(t)

	catalog := &fakeCatalog{
		subjects: []soc.Subject{{Code: "640"}},
		courses: map[string][]soc.Course{
			"640": {
				{Subject: "640", Title: "Calculus", Sections: []soc.Section{
					{Number: "01", Index: "40001"},
					{Number: "", Index: "40002"}, // missing section number
				}},
				{Subject: "640", Title: "No Sections"}, // no sections at all
			},
		},
	}
	writer := &fakeWriter{}
	job := NewJob(catalog, writer, zap.NewNop())

	require.NoError(t, job.Run(context.Background(), models.Spring))

	spring := writer.written[models.Spring]
	require.Len(t, spring, 1)
	assert.Contains(t, spring, "40001")
}

func TestRunRetriesTransientFailures(t *testing.T) {
	fastRetries(t)

	catalog := &fakeCatalog{
		subjects: []soc.Subject{{Code: "198"}},
		courses: map[string][]soc.Course{
			"198": {{
				Subject: "198", Title: "Data Structures",
				Sections: []soc.Section{{Number: "01", Index: "01234"}},
			}},
		},
		failures: map[string]int{"198": 2},
	}
	writer := &fakeWriter{}
	job := NewJob(catalog, writer, zap.NewNop())

	require.NoError(t, job.Run(context.Background(), models.Fall))
	assert.Contains(t, writer.written[models.Fall], "01234")
}

func TestRunFailsAfterExhaustedRetries(t *testing.T) {
	fastRetries(t)

	catalog := &fakeCatalog{
		subjects: []soc.Subject{{Code: "198"}},
		courses:  map[string][]soc.Course{},
		failures: map[string]int{"198": 100},
	}
	writer := &fakeWriter{}
	job := NewJob(catalog, writer, zap.NewNop())

	err := job.Run(context.Background(), models.Fall)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "198")
}
