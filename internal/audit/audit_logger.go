package audit

import (
	"time"

	"go.uber.org/zap"
)

const (
	EventLogin            = "LOGIN"
	EventLoginBlocked     = "LOGIN_BLOCKED"
	EventLoginFailed      = "LOGIN_FAILED"
	EventLogout           = "LOGOUT"
	EventRegister         = "REGISTER"
	EventEnrollmentStart  = "2FA_ENROLLMENT_STARTED"
	EventEnrollmentDone   = "2FA_ENROLLED"
	EventEnrollmentFailed = "2FA_CODE_REJECTED"
	EventResetRequested   = "PASSWORD_RESET_REQUESTED"
	EventPasswordReset    = "PASSWORD_RESET"
	EventPasswordChanged  = "PASSWORD_CHANGED"
	EventRoleChanged      = "ROLE_CHANGED"
	EventBlockChanged     = "BLOCK_CHANGED"
	EventAccountCreated   = "ACCOUNT_CREATED"
	EventAccountDeleted   = "ACCOUNT_DELETED"
	EventAccessDenied     = "ACCESS_DENIED"
)

type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	ActorID   int               `json:"actor_id,omitempty"`
	AccountID int               `json:"account_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
}

// Logger writes audit events to a dedicated zap logger.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("audit")}
}

// LogSuccess records a completed operation on accountID.
func (a *Logger) LogSuccess(eventType string, actorID, accountID int, details map[string]string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: eventType,
		ActorID:   actorID,
		AccountID: accountID,
		Status:    "SUCCESS",
		Details:   details,
	})
}

// LogFailure records a rejected operation. subject identifies the caller when
// no account id is known, e.g. the submitted email.
func (a *Logger) LogFailure(eventType string, actorID int, subject string, err error) {
	ev := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		ActorID:   actorID,
		Subject:   subject,
		Status:    "FAILED",
	}
	if err != nil {
		ev.Details = map[string]string{"error": err.Error()}
	}
	a.log(ev)
}

func (a *Logger) log(event Event) {
	if a == nil {
		return
	}
	a.logger.Info("AUDIT",
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.Int("actor_id", event.ActorID),
		zap.Int("account_id", event.AccountID),
		zap.String("subject", event.Subject),
		zap.String("status", event.Status),
		zap.Any("details", event.Details),
	)
}
