package models

import (
	"fmt"
	"strings"
	"time"
)

// Season is the academic term a tracker was created for.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// termCodes maps each season to the integer code the SOC API expects.
var termCodes = map[Season]int{
	Winter: 0,
	Spring: 1,
	Summer: 7,
	Fall:   9,
}

// ParseSeason normalizes a season string from the store or a config value.
func ParseSeason(s string) (Season, error) {
	season := Season(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := termCodes[season]; !ok {
		return "", fmt.Errorf("unknown season %q", s)
	}
	return season, nil
}

// TermCode returns the SOC integer code for the season.
func (s Season) TermCode() int {
	return termCodes[s]
}

func (s Season) String() string {
	return string(s)
}

// HarvestPair returns the two seasons mirrored together during a bulk
// harvest: fall registration covers fall and summer, spring covers
// spring and winter.
func (s Season) HarvestPair() [2]Season {
	if s == Fall {
		return [2]Season{Fall, Summer}
	}
	return [2]Season{Spring, Winter}
}

// FetchYear returns the catalog year to query for the season. Spring
// registration opens the calendar year before the term runs, so spring
// queries target the following year.
func FetchYear(s Season, now time.Time) int {
	year := now.Year()
	if s == Spring {
		year++
	}
	return year
}
