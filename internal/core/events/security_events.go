package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventTypeSessionsRevoked = "user.sessions_revoked"
)

// Reasons attached to a sessions-revoked event.
const (
	RevokeReasonPasswordChanged   = "password_changed"
	RevokeReasonRolesReplaced     = "roles_replaced"
	RevokeReasonCompaniesReplaced = "companies_replaced"
	RevokeReasonDeactivated       = "deactivated"
	RevokeReasonForced            = "forced"
)

type SessionsRevokedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	Reason  string `json:"reason"`
	Revoked int64  `json:"revoked"`
}

func NewSessionsRevokedEvent(userID int64, reason string, revoked int64) *SessionsRevokedEvent {
	return &SessionsRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        NewEventID(),
			Type:      EventTypeSessionsRevoked,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"user_id": userID,
				"reason":  reason,
				"revoked": revoked,
			},
		},
		UserID:  userID,
		Reason:  reason,
		Revoked: revoked,
	}
}

// AuditSessionsRevoked writes a security audit line for every revocation.
func AuditSessionsRevoked(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(*SessionsRevokedEvent)
		if !ok {
			logger.Warn("audit: unexpected event payload", "event_type", event.EventType(), "event_id", event.EventID())
			return nil
		}
		logger.Info("audit: user sessions revoked",
			"event_id", e.ID,
			"user_id", e.UserID,
			"reason", e.Reason,
			"revoked_tokens", e.Revoked,
			"occurred_at", e.Timestamp)
		return nil
	}
}
