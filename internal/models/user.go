package models

// User holds the push-delivery identity for a tracker owner. The token
// is opaque and may be revoked by the platform at any time.
type User struct {
	UID   string `firestore:"user" json:"userId"`
	Token string `firestore:"rToken" json:"-"`
}
