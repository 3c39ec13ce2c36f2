package models

// CourseRef is the catalog entry stored per section index in the
// per-season mirror documents written by the harvest job.
type CourseRef struct {
	Subject string `firestore:"subject" json:"subject"`
	Name    string `firestore:"name" json:"name"`
	Section string `firestore:"section" json:"section"`
}
