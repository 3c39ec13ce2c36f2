package notify

import (
	"context"
	"fmt"
	"strconv"

	"firebase.google.com/go/messaging"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
)

// DeliveryStatus classifies the outcome of one push attempt.
type DeliveryStatus int

const (
	// DeliverySent means the transport accepted the message.
	DeliverySent DeliveryStatus = iota
	// DeliveryInvalidToken means the recipient can never be reached
	// again; no further attempts are possible.
	DeliveryInvalidToken
	// DeliveryRetry covers transient failures worth retrying next cycle.
	DeliveryRetry
)

// DeliveryResult is the single variant every transport error collapses
// into. Success/terminal/transient logic lives in the engine's outcome
// handler, nowhere else.
type DeliveryResult struct {
	Status    DeliveryStatus
	MessageID string
	Err       error
}

// Notification is the payload for an open-section push.
type Notification struct {
	CourseTitle string
	Index       string
	Season      models.Season
	Year        int
}

// Title renders the visible notification title.
func (n Notification) Title() string {
	return fmt.Sprintf("%s (%s) is now open!", n.CourseTitle, n.Index)
}

// Sender delivers one notification to one token.
type Sender interface {
	Send(ctx context.Context, token string, n Notification) DeliveryResult
}

// FCMSender delivers notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	log    *zap.Logger
}

func NewFCMSender(client *messaging.Client, log *zap.Logger) *FCMSender {
	return &FCMSender{client: client, log: log}
}

// Send builds the FCM message and classifies the result. An
// unregistered token is terminal; everything else is retried by the
// next cycle.
func (s *FCMSender) Send(ctx context.Context, token string, n Notification) DeliveryResult {
	msg := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"index": n.Index,
			"year":  strconv.Itoa(n.Year),
			"sem":   strconv.Itoa(n.Season.TermCode()),
		},
		Android: &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
		Notification: &messaging.Notification{
			Title: n.Title(),
			Body:  "Tap to open WebReg",
		},
	}

	id, err := s.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return DeliveryResult{Status: DeliveryInvalidToken, Err: err}
		}
		return DeliveryResult{Status: DeliveryRetry, Err: err}
	}
	return DeliveryResult{Status: DeliverySent, MessageID: id}
}
