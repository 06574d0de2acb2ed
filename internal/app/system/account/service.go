// Package account implements admin sign-in and self-service changes to
// username, email, password and profile picture.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/couponhub/internal/app/store/emailverify"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	"github.com/dalemusser/couponhub/internal/app/system/auditlog"
	"github.com/dalemusser/couponhub/internal/app/system/avatars"
	"github.com/dalemusser/couponhub/internal/app/system/mailer"
	"github.com/dalemusser/couponhub/internal/app/system/metrics"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Username and password rules.
const (
	MinUsernameLength = 2
	MaxUsernameLength = 30
	MinPasswordLength = 8
)

// Users is the user storage the service needs. *userstore.Store satisfies it.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) error
	UpdateEmail(ctx context.Context, id primitive.ObjectID, email string, verified bool) error
	SetEmailVerified(ctx context.Context, id primitive.ObjectID) error
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error)
}

// Verifications issues and consumes email tokens. *emailverify.Store
// satisfies it.
type Verifications interface {
	Create(ctx context.Context, userID primitive.ObjectID, email, purpose string) (models.EmailChange, error)
	Consume(ctx context.Context, token string) (models.EmailChange, error)
	Expiry() time.Duration
}

// Sender delivers mail. *mailer.Mailer satisfies it.
type Sender interface {
	Send(ctx context.Context, e mailer.Email) error
}

// Config carries the settings used in outgoing links.
type Config struct {
	SiteName   string
	BaseURL    string
	BcryptCost int
}

// Service is the account API used by the login and settings handlers.
type Service struct {
	users   Users
	verify  Verifications
	mail    Sender
	avatars *avatars.Pictures
	audit   *auditlog.Logger
	cfg     Config
	log     *zap.Logger
}

// NewService wires the account service.
func NewService(users Users, verify Verifications, mail Sender, pics *avatars.Pictures, audit *auditlog.Logger, cfg Config, logger *zap.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "CouponHub"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		users:   users,
		verify:  verify,
		mail:    mail,
		avatars: pics,
		audit:   audit,
		cfg:     cfg,
		log:     logger,
	}
}

// HashPassword returns a bcrypt hash at the service's cost.
func (s *Service) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// SignIn checks credentials and admits admins only.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.signIn(ctx, email, password)
	outcome := "success"
	switch {
	case err == nil:
		s.audit.SignedIn(ctx, u.Username)
	case errors.Is(err, ErrNotAdmin):
		outcome = "not_admin"
	case errors.Is(err, ErrUserNotFound), IsCode(err, CodeInvalidCredential), IsCode(err, CodeInvalidEmail):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	if err != nil && outcome != "error" {
		s.audit.SignInFailed(ctx, userstore.NormalizeEmail(email))
	}
	metrics.RecordSignIn(outcome)
	return u, err
}

func (s *Service) signIn(ctx context.Context, email, password string) (models.User, error) {
	email = userstore.NormalizeEmail(email)
	if !validate.SimpleEmailValid(email) {
		return models.User{}, authError(CodeInvalidEmail)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := checkPassword(u, password); err != nil {
		return models.User{}, err
	}
	if !u.IsAdmin() {
		return models.User{}, ErrNotAdmin
	}
	return u, nil
}

// UserData returns the stored profile of id.
func (s *Service) UserData(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// ChangeUsername sets a trimmed username of 2 to 30 characters.
func (s *Service) ChangeUsername(ctx context.Context, id primitive.ObjectID, username string) error {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	if err := s.users.UpdateUsername(ctx, id, username); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update username: %w", err)
	}
	s.audit.UsernameChanged(ctx, username)
	return nil
}

// RequestEmailChange starts moving the account to newEmail. The current
// address must be verified first; when it is not, a verification link is
// sent to it and ErrCurrentEmailUnverified is returned.
func (s *Service) RequestEmailChange(ctx context.Context, id primitive.ObjectID, newEmail, currentPassword string) error {
	u, err := s.UserData(ctx, id)
	if err != nil {
		return err
	}

	if !u.EmailVerified {
		if err := s.sendLink(ctx, u, u.Email, models.EmailChangeCurrent); err != nil {
			return err
		}
		return ErrCurrentEmailUnverified
	}

	if err := checkPassword(u, currentPassword); err != nil {
		return err
	}

	newEmail = userstore.NormalizeEmail(newEmail)
	if !validate.SimpleEmailValid(newEmail) {
		return authError(CodeInvalidEmail)
	}
	if newEmail == u.Email {
		return authError(CodeEmailInUse)
	}
	taken, err := s.users.EmailExistsForOther(ctx, newEmail, u.ID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return authError(CodeEmailInUse)
	}

	if err := s.sendLink(ctx, u, newEmail, models.EmailChangeNew); err != nil {
		return err
	}
	s.audit.EmailChangeRequested(ctx, u.Username)
	return nil
}

// CompleteEmailUpdate applies the pending change behind token. The new
// address is stored as verified.
func (s *Service) CompleteEmailUpdate(ctx context.Context, token string) (models.User, error) {
	ec, err := s.consume(ctx, token, models.EmailChangeNew)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return models.User{}, ErrNewEmailUnverified
		}
		return models.User{}, err
	}

	taken, err := s.users.EmailExistsForOther(ctx, ec.Email, ec.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return models.User{}, authError(CodeEmailInUse)
	}
	if err := s.users.UpdateEmail(ctx, ec.UserID, ec.Email, true); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return models.User{}, authError(CodeEmailInUse)
		}
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("update email: %w", err)
	}

	u, err := s.UserData(ctx, ec.UserID)
	if err != nil {
		return models.User{}, err
	}
	s.audit.EmailChanged(ctx, u.Username)
	return u, nil
}

// VerifyCurrentEmail marks the account's current address verified. A link
// issued for an address the account no longer has is rejected.
func (s *Service) VerifyCurrentEmail(ctx context.Context, token string) (models.User, error) {
	ec, err := s.consume(ctx, token, models.EmailChangeCurrent)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.UserData(ctx, ec.UserID)
	if err != nil {
		return models.User{}, err
	}
	if u.Email != ec.Email {
		return models.User{}, ErrInvalidToken
	}
	if err := s.users.SetEmailVerified(ctx, u.ID); err != nil {
		return models.User{}, fmt.Errorf("verify email: %w", err)
	}
	u.EmailVerified = true
	s.audit.EmailVerified(ctx, u.Username)
	return u, nil
}

// ChangePassword re-authenticates with current and stores next.
func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	u, err := s.UserData(ctx, id)
	if err != nil {
		return err
	}
	if err := checkPassword(u, current); err != nil {
		return err
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.audit.PasswordChanged(ctx, u.Username)
	return nil
}

// ProfilePictureURL resolves the user's picture. A missing picture or any
// storage failure yields "".
func (s *Service) ProfilePictureURL(ctx context.Context, userID string) string {
	if s.avatars == nil || userID == "" {
		return ""
	}
	u, err := s.avatars.URL(ctx, userID)
	if err != nil {
		if !errors.Is(err, avatars.ErrNotFound) {
			s.log.Warn("profile picture lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return ""
	}
	return u
}

// UploadProfilePicture replaces the user's picture and returns its URL.
func (s *Service) UploadProfilePicture(ctx context.Context, userID primitive.ObjectID, r io.Reader) (string, error) {
	if s.avatars == nil {
		return "", errors.New("account: picture storage is not configured")
	}
	u, err := s.UserData(ctx, userID)
	if err != nil {
		return "", err
	}
	data, contentType, err := avatars.ReadImage(r)
	if err != nil {
		return "", err
	}
	if err := s.avatars.Put(ctx, userID.Hex(), data, contentType); err != nil {
		return "", fmt.Errorf("store picture: %w", err)
	}
	s.audit.AvatarUploaded(ctx, u.Username)
	return s.ProfilePictureURL(ctx, userID.Hex()), nil
}

func (s *Service) sendLink(ctx context.Context, u models.User, to, purpose string) error {
	ec, err := s.verify.Create(ctx, u.ID, to, purpose)
	if err != nil {
		if errors.Is(err, emailverify.ErrTooManyRequests) {
			return err
		}
		return fmt.Errorf("create verification: %w", err)
	}

	data := mailer.LinkEmailData{
		SiteName:  s.cfg.SiteName,
		ExpiresIn: humanDuration(s.verify.Expiry()),
	}
	var msg mailer.Email
	if purpose == models.EmailChangeNew {
		data.Link = s.link("/api/account/email/confirm", ec.Token)
		msg = mailer.BuildEmailChangeEmail(data)
	} else {
		data.Link = s.link("/api/account/email/verify", ec.Token)
		msg = mailer.BuildVerifyCurrentEmail(data)
	}
	msg.To = to
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

func (s *Service) consume(ctx context.Context, token, purpose string) (models.EmailChange, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.EmailChange{}, ErrInvalidToken
	}
	ec, err := s.verify.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, emailverify.ErrNotFound) {
			return models.EmailChange{}, ErrInvalidToken
		}
		return models.EmailChange{}, fmt.Errorf("consume token: %w", err)
	}
	if ec.Purpose != purpose {
		return models.EmailChange{}, ErrInvalidToken
	}
	return ec, nil
}

func (s *Service) link(path, token string) string {
	return s.cfg.BaseURL + path + "?token=" + url.QueryEscape(token)
}

// checkPassword re-authenticates u. An empty password means the caller
// never re-entered it.
func checkPassword(u models.User, password string) error {
	if password == "" {
		return authError(CodeRequiresRecentLogin)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return authError(CodeInvalidCredential)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
