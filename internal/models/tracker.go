package models

import "time"

// Tracker is a user's standing request to be notified when a specific
// course section opens. Mirrored in the "trackers" collection; this
// service only ever flips the active flag to false.
type Tracker struct {
	ID           string    `firestore:"-" json:"id"`
	UserID       string    `firestore:"user" json:"userId"`
	Subject      string    `firestore:"subject" json:"subject"`
	CourseNumber string    `firestore:"courseNumber" json:"courseNumber"`
	Course       string    `firestore:"course" json:"course"`
	Index        string    `firestore:"index" json:"index"`
	Semester     Season    `firestore:"semester" json:"semester"`
	CreatedTime  time.Time `firestore:"createdTime" json:"createdTime"`
	Active       bool      `firestore:"active" json:"active"`
}

// Year returns the catalog year the tracker targets, derived from its
// creation time with the spring bump.
func (t *Tracker) Year() int {
	return FetchYear(t.Semester, t.CreatedTime)
}
