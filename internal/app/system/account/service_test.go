package account_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/app/store/emailverify"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/auditlog"
	"github.com/dalemusser/couponhub/internal/app/system/avatars"
	"github.com/dalemusser/couponhub/internal/app/system/mailer"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory account store.
type memUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[primitive.ObjectID]models.User{}}
}

func (m *memUsers) add(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = primitive.NewObjectID()
	m.byID[u.ID] = u
	return u
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, userstore.ErrNotFound
}

func (m *memUsers) modify(id primitive.ObjectID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return userstore.ErrNotFound
	}
	fn(&u)
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateUsername(_ context.Context, id primitive.ObjectID, username string) error {
	return m.modify(id, func(u *models.User) { u.Username = username })
}

func (m *memUsers) UpdateEmail(_ context.Context, id primitive.ObjectID, email string, verified bool) error {
	return m.modify(id, func(u *models.User) {
		u.Email = email
		u.EmailVerified = verified
	})
}

func (m *memUsers) SetEmailVerified(_ context.Context, id primitive.ObjectID) error {
	return m.modify(id, func(u *models.User) { u.EmailVerified = true })
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	return m.modify(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) EmailExistsForOther(_ context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.byID {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// memVerify issues sequential tokens and consumes each once.
type memVerify struct {
	mu      sync.Mutex
	pending map[string]models.EmailChange
	n       int
	limit   bool
}

func newMemVerify() *memVerify {
	return &memVerify{pending: map[string]models.EmailChange{}}
}

func (v *memVerify) Create(_ context.Context, userID primitive.ObjectID, email, purpose string) (models.EmailChange, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.limit {
		return models.EmailChange{}, emailverify.ErrTooManyRequests
	}
	v.n++
	ec := models.EmailChange{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		Token:   "tok" + string(rune('a'+v.n)),
	}
	v.pending[ec.Token] = ec
	return ec, nil
}

func (v *memVerify) Consume(_ context.Context, token string) (models.EmailChange, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ec, ok := v.pending[token]
	if !ok {
		return models.EmailChange{}, emailverify.ErrNotFound
	}
	delete(v.pending, token)
	return ec, nil
}

func (v *memVerify) Expiry() time.Duration { return 24 * time.Hour }

type outbox struct {
	sent []mailer.Email
	err  error
}

func (o *outbox) Send(_ context.Context, e mailer.Email) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, e)
	return nil
}

// tokenFrom pulls the token query parameter out of the link in a sent mail.
func tokenFrom(t *testing.T, e mailer.Email) string {
	t.Helper()
	i := strings.Index(e.TextBody, "http://")
	if i < 0 {
		t.Fatalf("no link in mail body: %q", e.TextBody)
	}
	link := strings.Fields(e.TextBody[i:])[0]
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	return u.Query().Get("token")
}

type fixture struct {
	svc    *account.Service
	users  *memUsers
	verify *memVerify
	mail   *outbox
	pics   *avatars.Pictures
	admin  models.User
}

const adminPassword = "correct horse"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	pics := avatars.New(storage.NewMemory(storage.MemoryConfig{BaseURL: "/media"}), 0)

	f := &fixture{users: newMemUsers(), verify: newMemVerify(), mail: &outbox{}, pics: pics}
	f.admin = f.users.add(models.User{
		Username:      "root",
		Email:         "root@example.com",
		EmailVerified: true,
		Role:          models.RoleAdmin,
		PasswordHash:  string(hash),
	})
	f.users.add(models.User{
		Username:     "shopper",
		Email:        "shopper@example.com",
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	})

	f.svc = account.NewService(f.users, f.verify, f.mail, pics,
		auditlog.New(nil, zap.NewNop(), auditlog.ModeOff),
		account.Config{SiteName: "CouponHub", BaseURL: "http://localhost:3000/", BcryptCost: bcrypt.MinCost},
		zap.NewNop())
	return f
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		check    func(error) bool
	}{
		{"admin", "  ROOT@example.com ", adminPassword, func(err error) bool { return err == nil }},
		{"unknown email", "nobody@example.com", adminPassword, func(err error) bool { return errors.Is(err, account.ErrUserNotFound) }},
		{"wrong password", "root@example.com", "nope", func(err error) bool { return account.IsCode(err, account.CodeInvalidCredential) }},
		{"malformed email", "root", adminPassword, func(err error) bool { return account.IsCode(err, account.CodeInvalidEmail) }},
		{"domain without dot", "root@localhost", adminPassword, func(err error) bool { return account.IsCode(err, account.CodeInvalidEmail) }},
		{"not admin", "shopper@example.com", adminPassword, func(err error) bool { return errors.Is(err, account.ErrNotAdmin) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SignIn(ctx, tc.email, tc.password)
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestChangeUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bad := range []string{"", " a ", strings.Repeat("x", 31)} {
		if err := f.svc.ChangeUsername(ctx, f.admin.ID, bad); !errors.Is(err, account.ErrInvalidUsername) {
			t.Errorf("ChangeUsername(%q) = %v, want ErrInvalidUsername", bad, err)
		}
	}

	if err := f.svc.ChangeUsername(ctx, f.admin.ID, "  boss  "); err != nil {
		t.Fatalf("ChangeUsername: %v", err)
	}
	u, _ := f.svc.UserData(ctx, f.admin.ID)
	if u.Username != "boss" {
		t.Errorf("username = %q, want boss", u.Username)
	}

	if err := f.svc.ChangeUsername(ctx, primitive.NewObjectID(), "ghost"); !errors.Is(err, account.ErrUserNotFound) {
		t.Errorf("unknown user: got %v", err)
	}
}

func TestEmailChange_FullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestEmailChange(ctx, f.admin.ID, "New@Example.com", adminPassword); err != nil {
		t.Fatalf("RequestEmailChange: %v", err)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].To != "new@example.com" {
		t.Fatalf("expected one mail to the new address, got %+v", f.mail.sent)
	}

	u, _ := f.svc.UserData(ctx, f.admin.ID)
	if u.Email != "root@example.com" {
		t.Errorf("email changed before confirmation: %q", u.Email)
	}

	token := tokenFrom(t, f.mail.sent[0])
	u, err := f.svc.CompleteEmailUpdate(ctx, token)
	if err != nil {
		t.Fatalf("CompleteEmailUpdate: %v", err)
	}
	if u.Email != "new@example.com" || !u.EmailVerified {
		t.Errorf("got %+v, want verified new@example.com", u)
	}

	if _, err := f.svc.CompleteEmailUpdate(ctx, token); !errors.Is(err, account.ErrNewEmailUnverified) {
		t.Errorf("reused token: got %v, want ErrNewEmailUnverified", err)
	}
}

func TestRequestEmailChange_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		check    func(error) bool
	}{
		{"missing password", "a@example.com", "", func(err error) bool { return account.IsCode(err, account.CodeRequiresRecentLogin) }},
		{"wrong password", "a@example.com", "nope", func(err error) bool { return account.IsCode(err, account.CodeInvalidCredential) }},
		{"invalid email", "not-an-email", adminPassword, func(err error) bool { return account.IsCode(err, account.CodeInvalidEmail) }},
		{"taken by another", "shopper@example.com", adminPassword, func(err error) bool { return account.IsCode(err, account.CodeEmailInUse) }},
		{"same as current", "root@example.com", adminPassword, func(err error) bool { return account.IsCode(err, account.CodeEmailInUse) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.RequestEmailChange(ctx, f.admin.ID, tc.email, tc.password)
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("no mail expected, got %d", len(f.mail.sent))
	}
}

func TestRequestEmailChange_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.verify.limit = true

	err := f.svc.RequestEmailChange(context.Background(), f.admin.ID, "a@example.com", adminPassword)
	if !errors.Is(err, emailverify.ErrTooManyRequests) {
		t.Fatalf("got %v, want ErrTooManyRequests", err)
	}
	if account.Message(err) == account.UnknownMessage {
		t.Error("rate limit should have a specific message")
	}
}

func TestRequestEmailChange_UnverifiedCurrentEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.users.modify(f.admin.ID, func(u *models.User) { u.EmailVerified = false })

	err := f.svc.RequestEmailChange(ctx, f.admin.ID, "new@example.com", adminPassword)
	if !errors.Is(err, account.ErrCurrentEmailUnverified) {
		t.Fatalf("got %v, want ErrCurrentEmailUnverified", err)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].To != "root@example.com" {
		t.Fatalf("expected verification mail to current address, got %+v", f.mail.sent)
	}

	// A confirm link cannot be used to verify the current address.
	if _, err := f.svc.CompleteEmailUpdate(ctx, tokenFrom(t, f.mail.sent[0])); !errors.Is(err, account.ErrNewEmailUnverified) {
		t.Errorf("wrong purpose: got %v", err)
	}

	if err := f.svc.RequestEmailChange(ctx, f.admin.ID, "new@example.com", adminPassword); !errors.Is(err, account.ErrCurrentEmailUnverified) {
		t.Fatalf("second request: %v", err)
	}
	u, err := f.svc.VerifyCurrentEmail(ctx, tokenFrom(t, f.mail.sent[1]))
	if err != nil {
		t.Fatalf("VerifyCurrentEmail: %v", err)
	}
	if !u.EmailVerified {
		t.Error("expected email verified")
	}

	if err := f.svc.RequestEmailChange(ctx, f.admin.ID, "new@example.com", adminPassword); err != nil {
		t.Errorf("request after verification: %v", err)
	}
}

func TestVerifyCurrentEmail_StaleAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.users.modify(f.admin.ID, func(u *models.User) { u.EmailVerified = false })

	_ = f.svc.RequestEmailChange(ctx, f.admin.ID, "new@example.com", adminPassword)
	_ = f.users.modify(f.admin.ID, func(u *models.User) { u.Email = "moved@example.com" })

	if _, err := f.svc.VerifyCurrentEmail(ctx, tokenFrom(t, f.mail.sent[0])); !errors.Is(err, account.ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
	if _, err := f.svc.VerifyCurrentEmail(ctx, ""); !errors.Is(err, account.ErrInvalidToken) {
		t.Errorf("empty token: got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.ChangePassword(ctx, f.admin.ID, "", "long enough"); !account.IsCode(err, account.CodeRequiresRecentLogin) {
		t.Errorf("missing current: got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, f.admin.ID, "wrong", "long enough"); !account.IsCode(err, account.CodeInvalidCredential) {
		t.Errorf("wrong current: got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, f.admin.ID, adminPassword, "short"); !errors.Is(err, account.ErrWeakPassword) {
		t.Errorf("short password: got %v", err)
	}

	if err := f.svc.ChangePassword(ctx, f.admin.ID, adminPassword, "a much better secret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "root@example.com", adminPassword); !account.IsCode(err, account.CodeInvalidCredential) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "root@example.com", "a much better secret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestProfilePicture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if got := f.svc.ProfilePictureURL(ctx, f.admin.ID.Hex()); got != "" {
		t.Errorf("expected no picture, got %q", got)
	}

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := f.svc.UploadProfilePicture(ctx, f.admin.ID, &buf)
	if err != nil {
		t.Fatalf("UploadProfilePicture: %v", err)
	}
	want := "/media/" + avatars.Key(f.admin.ID.Hex())
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
	if again := f.svc.ProfilePictureURL(ctx, f.admin.ID.Hex()); again != want {
		t.Errorf("ProfilePictureURL = %q, want %q", again, want)
	}

	if _, err := f.svc.UploadProfilePicture(ctx, f.admin.ID, strings.NewReader("plain text")); !errors.Is(err, avatars.ErrUnsupportedType) {
		t.Errorf("text upload: got %v", err)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{account.ErrUserNotFound, "No user found with this email."},
		{account.ErrNotAdmin, "Access denied: User is not an admin."},
		{account.ErrCurrentEmailUnverified, "Please verify your current email before changing to a new email."},
		{account.ErrNewEmailUnverified, "The new email address has not been verified yet."},
		{&account.AuthError{Code: account.CodeEmailInUse}, "The email address is already in use by another account."},
		{&account.AuthError{Code: account.CodeInvalidEmail}, "The email address is not valid."},
		{&account.AuthError{Code: account.CodeRequiresRecentLogin}, "The user must reauthenticate before this operation can be executed."},
		{&account.AuthError{Code: account.CodeInvalidCredential}, "The provided credentials are invalid. Please check your current password."},
		{&account.AuthError{Code: "auth/other"}, account.UnknownMessage},
		{errors.New("boom"), account.UnknownMessage},
	}
	for _, tc := range tests {
		if got := account.Message(tc.err); got != tc.want {
			t.Errorf("Message(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{account.ErrNotAdmin, http.StatusForbidden},
		{account.ErrUserNotFound, http.StatusUnauthorized},
		{&account.AuthError{Code: account.CodeInvalidCredential}, http.StatusUnauthorized},
		{&account.AuthError{Code: account.CodeEmailInUse}, http.StatusBadRequest},
		{account.ErrWeakPassword, http.StatusBadRequest},
		{emailverify.ErrTooManyRequests, http.StatusTooManyRequests},
		{avatars.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := account.HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
