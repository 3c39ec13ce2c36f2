// Package soc is a thin client for the Rutgers Schedule of Classes API.
package soc

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sriRacha21/rct-backend/internal/models"
)

// OpenSet is one cycle's view of which section indexes are open.
// Discarded after matching.
type OpenSet map[string]bool

// IsOpen reports whether the section index appears in the set.
func (o OpenSet) IsOpen(index string) bool {
	return o[index]
}

// Subject is one entry of the SOC subject listing.
type Subject struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Section is a schedulable offering of a course.
type Section struct {
	Number string `json:"number"`
	Index  string `json:"index"`
}

// Course is one entry of the SOC per-subject course listing.
type Course struct {
	Subject      string    `json:"subject"`
	Title        string    `json:"title"`
	CourseNumber string    `json:"courseNumber"`
	Sections     []Section `json:"sections"`
}

// Client calls the SOC API. One OpenSections call covers every tracked
// section, so upstream load is constant per cycle regardless of how
// many trackers exist.
type Client struct {
	base    string
	campus  string
	level   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client. The timeout bounds every request so a hung
// upstream call cannot outlive a reconciliation cycle.
func NewClient(baseURL, campus, level string, timeout time.Duration) *Client {
	return &Client{
		base:    baseURL,
		campus:  campus,
		level:   level,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
}

// OpenSections fetches the bulk list of open section indexes for a term.
// Any failure is returned as a value; callers treat it as "no data this
// cycle".
func (c *Client) OpenSections(ctx context.Context, season models.Season, year int) (OpenSet, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("term", strconv.Itoa(season.TermCode()))
	q.Set("campus", c.campus)

	var indexes []string
	if err := c.getJSON(ctx, "/soc/api/openSections.gzip", q, &indexes); err != nil {
		return nil, err
	}

	open := make(OpenSet, len(indexes))
	for _, idx := range indexes {
		open[idx] = true
	}
	return open, nil
}

// Subjects fetches the subject listing for a term.
func (c *Client) Subjects(ctx context.Context, season models.Season, year int) ([]Subject, error) {
	q := url.Values{}
	q.Set("semester", fmt.Sprintf("%d%d", season.TermCode(), year))
	q.Set("campus", c.campus)
	q.Set("level", c.level)

	var subjects []Subject
	if err := c.getJSON(ctx, "/oldsoc/subjects.json", q, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// Courses fetches every course offered under a subject for a term.
func (c *Client) Courses(ctx context.Context, subjectCode string, season models.Season, year int) ([]Course, error) {
	q := url.Values{}
	q.Set("subject", subjectCode)
	q.Set("semester", fmt.Sprintf("%d%d", season.TermCode(), year))
	q.Set("campus", c.campus)
	q.Set("level", c.level)

	var courses []Course
	if err := c.getJSON(ctx, "/oldsoc/courses.json", q, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	uri := c.base + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := decompressed(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// decompressed unwraps a gzip body the transport did not decode for us.
// The openSections endpoint sometimes serves raw gzip bytes without a
// Content-Encoding header.
func decompressed(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return gzip.NewReader(br)
	}
	return br, nil
}
