// Package auditlog records account actions taken through the dashboard in
// the audit collection, so they appear in the audit feed next to the
// platform's own entries.
package auditlog

import (
	"context"
	"strings"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.uber.org/zap"
)

// Modes select where entries go.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Actions written by the dashboard.
const (
	ActionSignIn          = "signed in"
	ActionSignInFailed    = "failed sign-in"
	ActionSignOut         = "signed out"
	ActionUsernameChanged = "changed username"
	ActionEmailRequested  = "requested email change"
	ActionEmailChanged    = "changed email"
	ActionEmailVerified   = "verified email"
	ActionPasswordChanged = "changed password"
	ActionAvatarUploaded  = "uploaded profile picture"
)

const (
	objectAccountEmail     = "account email"
	objectAccountPassword  = "account password"
	objectAccountUsername  = "account username"
	objectAccountAvatar    = "profile picture"
	objectDashboardSession = "dashboard session"
)

// Writer persists entries. *audit.Store satisfies it.
type Writer interface {
	Log(ctx context.Context, e models.AuditEntry) error
}

// Logger writes audit entries according to its mode. A nil Logger is a
// no-op.
type Logger struct {
	w    Writer
	log  *zap.Logger
	mode string
}

// New creates a Logger. Unknown modes behave like ModeAll.
func New(w Writer, logger *zap.Logger, mode string) *Logger {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{w: w, log: logger, mode: mode}
}

// Log records one entry.
func (l *Logger) Log(ctx context.Context, e models.AuditEntry) {
	if l == nil || l.mode == ModeOff {
		return
	}
	if l.mode == ModeAll || l.mode == ModeLog {
		l.log.Info("audit event",
			zap.Bool("audit", true),
			zap.String("action", e.Action),
			zap.String("object", e.Object),
			zap.String("user", e.User))
	}
	if l.mode == ModeAll || l.mode == ModeDB {
		if err := l.w.Log(ctx, e); err != nil {
			l.log.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("action", e.Action))
		}
	}
}

func (l *Logger) record(ctx context.Context, user, action, object string) {
	l.Log(ctx, models.AuditEntry{User: user, Action: action, Object: object})
}

// SignedIn records a successful admin sign-in.
func (l *Logger) SignedIn(ctx context.Context, username string) {
	l.record(ctx, username, ActionSignIn, objectDashboardSession)
}

// SignInFailed records a rejected sign-in. email is what was typed.
func (l *Logger) SignInFailed(ctx context.Context, email string) {
	l.record(ctx, email, ActionSignInFailed, objectDashboardSession)
}

// SignedOut records a sign-out.
func (l *Logger) SignedOut(ctx context.Context, username string) {
	l.record(ctx, username, ActionSignOut, objectDashboardSession)
}

// UsernameChanged records a username change.
func (l *Logger) UsernameChanged(ctx context.Context, username string) {
	l.record(ctx, username, ActionUsernameChanged, objectAccountUsername)
}

// EmailChangeRequested records that a verification link was sent to a new
// address.
func (l *Logger) EmailChangeRequested(ctx context.Context, username string) {
	l.record(ctx, username, ActionEmailRequested, objectAccountEmail)
}

// EmailChanged records a completed email change.
func (l *Logger) EmailChanged(ctx context.Context, username string) {
	l.record(ctx, username, ActionEmailChanged, objectAccountEmail)
}

// EmailVerified records verification of the current address.
func (l *Logger) EmailVerified(ctx context.Context, username string) {
	l.record(ctx, username, ActionEmailVerified, objectAccountEmail)
}

// PasswordChanged records a password change.
func (l *Logger) PasswordChanged(ctx context.Context, username string) {
	l.record(ctx, username, ActionPasswordChanged, objectAccountPassword)
}

// AvatarUploaded records a new profile picture.
func (l *Logger) AvatarUploaded(ctx context.Context, username string) {
	l.record(ctx, username, ActionAvatarUploaded, objectAccountAvatar)
}
