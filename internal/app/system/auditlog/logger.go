package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/councilhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, registration and verification events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for account actions and content changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger writes audit events to MongoDB and zap according to Config.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a sign-in attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedNotFound,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "user not found",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedWrongPassword logs a bad password for a known user.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "wrong password",
	})
}

// LoginFailedNotAllowed logs a correct password on an account that may not
// sign in yet (unverified, pending or deactivated). reason names the bucket.
func (l *Logger) LoginFailedNotAllowed(ctx context.Context, r *http.Request, userID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedNotAllowed,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a sign-out. userIDStr may be empty or malformed.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &oid
	}
	l.Log(ctx, event)
}

// Registered logs a self-registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string, verificationSent bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details: map[string]string{
			"email":             email,
			"verification_sent": strconv.FormatBool(verificationSent),
		},
	})
}

// EmailVerified logs a user following their verification link.
func (l *Logger) EmailVerified(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventEmailVerified,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// --- Admin Events ---

// AccountAction records an administrator lifecycle action on a user account.
// A zero targetID is omitted, as for batch actions.
func (l *Logger) AccountAction(ctx context.Context, actorID, targetID primitive.ObjectID, action string, success bool, reason string) {
	event := audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventAccountPrefix + action,
		ActorID:       &actorID,
		Success:       success,
		FailureReason: reason,
	}
	if !targetID.IsZero() {
		event.UserID = &targetID
	}
	l.Log(ctx, event)
}

// Action records a content change by an editor or admin. subject names the
// record (an event title, a settings key) and is stored under "subject".
func (l *Logger) Action(ctx context.Context, r *http.Request, actorID primitive.ObjectID, eventType, subject string, details map[string]string) {
	d := map[string]string{}
	for k, v := range details {
		d[k] = v
	}
	if subject != "" {
		d["subject"] = subject
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   d,
	})
}

// ContactsImported records a directory CSV import.
func (l *Logger) ContactsImported(ctx context.Context, r *http.Request, actorID primitive.ObjectID, imported, total int) {
	l.Action(ctx, r, actorID, audit.EventContactsImported, "", map[string]string{
		"imported": strconv.Itoa(imported),
		"total":    strconv.Itoa(total),
	})
}
