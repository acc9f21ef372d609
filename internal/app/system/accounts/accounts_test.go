package accounts_test

import (
	"errors"
	"strings"
	"testing"

	settingsstore "github.com/dalemusser/stratagate/internal/app/store/settings"
	userstore "github.com/dalemusser/stratagate/internal/app/store/users"
	"github.com/dalemusser/stratagate/internal/app/system/accounts"
	"github.com/dalemusser/stratagate/internal/app/system/authn"
	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/mailer"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/stratagate/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	authutil.SetCost(bcrypt.MinCost)
	m.Run()
}

type env struct {
	db       *testutil.FlakyStore
	fixtures *testutil.Fixtures
	users    *userstore.Store
	sender   *testutil.FakeSender
	mgr      *accounts.Manager
	authn    *authn.Authenticator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewFlakyStore(testutil.SetupTestStore(t))
	fixtures := testutil.NewFixtures(t, db)
	settings := settingsstore.New(db)
	sender := testutil.NewFakeSender()
	dispatcher := mailer.NewDispatcher(sender, settings, "http://test.local", zap.NewNop())
	return &env{
		db:       db,
		fixtures: fixtures,
		users:    fixtures.Users(),
		sender:   sender,
		mgr:      accounts.New(fixtures.Users(), settings, dispatcher, zap.NewNop()),
		authn:    authn.New(fixtures.Users(), settings),
	}
}

// tokenFromLink extracts the token that follows prefix in the last email.
func tokenFromLink(t *testing.T, sender *testutil.FakeSender, prefix string) string {
	t.Helper()
	e, ok := sender.Last()
	if !ok {
		t.Fatal("no email sent")
	}
	i := strings.Index(e.TextBody, prefix)
	if i < 0 {
		t.Fatalf("email has no %q link:\n%s", prefix, e.TextBody)
	}
	rest := e.TextBody[i+len(prefix):]
	if j := strings.IndexAny(rest, "\n "); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func assertTokenInvariant(t *testing.T, u models.User) {
	t.Helper()
	if u.Verified && u.VerificationToken != nil {
		t.Errorf("user %q is verified but still has a verification token", u.Username)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Register                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func TestRegister_AutoVerifiedWhenNotForced(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := e.mgr.Register(ctx, "alice", "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !u.Verified {
		t.Error("expected user to be verified at creation")
	}
	if u.VerificationToken != nil {
		t.Error("expected no verification token")
	}
	if !u.WelcomeEmailSent {
		t.Error("expected WelcomeEmailSent to be true")
	}
	if u.IsAdmin {
		t.Error("registration must not grant admin")
	}
	if u.PasswordHash == "pw" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	if len(e.sender.WithSubject("Welcome")) != 1 {
		t.Errorf("welcome emails: got %d, want 1", len(e.sender.WithSubject("Welcome")))
	}
	if len(e.sender.WithSubject("Verify")) != 0 {
		t.Error("no verification email expected when verification is not forced")
	}

	if out := e.authn.Authenticate(ctx, "alice", "pw"); !out.OK() {
		t.Errorf("Authenticate after register: %v", out.Err)
	}
	assertTokenInvariant(t, e.fixtures.GetUser(ctx, "alice"))
}

func TestRegister_ForceVerifyFlow(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.SetForceVerify(ctx, true)

	u, err := e.mgr.Register(ctx, "bob", "b@x.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Verified {
		t.Error("expected user to start unverified")
	}
	if u.VerificationToken == nil {
		t.Fatal("expected a verification token")
	}

	token := tokenFromLink(t, e.sender, "http://test.local/verify/")
	if token != *u.VerificationToken {
		t.Errorf("emailed token %q does not match stored token", token)
	}

	out := e.authn.Authenticate(ctx, "bob", "pw")
	if !out.NeedsVerification() {
		t.Fatalf("Authenticate before verify: got %v, want verification required", out.Err)
	}

	if err := e.mgr.Verify(ctx, token); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	stored := e.fixtures.GetUser(ctx, "bob")
	if !stored.Verified || stored.VerificationToken != nil {
		t.Errorf("after Verify: verified=%v token=%v", stored.Verified, stored.VerificationToken)
	}

	if out := e.authn.Authenticate(ctx, "bob", "pw"); !out.OK() {
		t.Errorf("Authenticate after verify: %v", out.Err)
	}
}

func TestRegister_DuplicatesRejectedWithoutMutation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := e.mgr.Register(ctx, "alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	sets := e.db.Sets()
	sent := len(e.sender.Sent())

	cases := []struct{ username, email string }{
		{"alice", "new@x.com"},
		{"newname", "a@x.com"},
		{"alice", "a@x.com"},
	}
	for _, tc := range cases {
		_, err := e.mgr.Register(ctx, tc.username, tc.email, "pw2")
		if !errors.Is(err, autherr.ErrAlreadyExists) {
			t.Errorf("Register(%q, %q): got %v, want ErrAlreadyExists", tc.username, tc.email, err)
		}
	}

	if e.db.Sets() != sets {
		t.Error("rejected registrations wrote to the store")
	}
	if len(e.sender.Sent()) != sent {
		t.Error("rejected registrations sent email")
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cases := []struct{ username, email, password string }{
		{"", "a@x.com", "pw"},
		{"al@ice", "a@x.com", "pw"},
		{"alice", "not-an-email", "pw"},
		{"alice", "a@x.com", ""},
	}
	for _, tc := range cases {
		_, err := e.mgr.Register(ctx, tc.username, tc.email, tc.password)
		if !errors.Is(err, autherr.ErrInvalidInput) {
			t.Errorf("Register(%q, %q, %q): got %v, want ErrInvalidInput", tc.username, tc.email, tc.password, err)
		}
	}
	if e.db.Sets() != 0 {
		t.Error("invalid registrations wrote to the store")
	}
}

func TestRegister_MailFailureKeepsUser(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.SetForceVerify(ctx, true)
	e.sender.Fail(errors.New("smtp down"))

	u, err := e.mgr.Register(ctx, "carol", "c@x.com", "pw")
	if !errors.Is(err, autherr.ErrMail) {
		t.Fatalf("Register: got %v, want ErrMail", err)
	}
	if u == nil {
		t.Fatal("expected the persisted user to be returned with the mail error")
	}

	stored := e.fixtures.GetUser(ctx, "carol")
	if !stored.WelcomeEmailSent {
		t.Error("WelcomeEmailSent should reflect the completed send attempt")
	}
	if stored.VerificationToken != nil {
		t.Error("token must not be stored when its email was not sent")
	}
	assertTokenInvariant(t, stored)

	// The account can still be recovered through a resend.
	e.sender.Fail(nil)
	if err := e.mgr.Resend(ctx, "c@x.com"); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if e.fixtures.GetUser(ctx, "carol").VerificationToken == nil {
		t.Error("expected a token after resend")
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.db.FailSets(testutil.ErrInjected)
	_, err := e.mgr.Register(ctx, "dave", "d@x.com", "pw")
	if !errors.Is(err, autherr.ErrStore) {
		t.Errorf("Register: got %v, want ErrStore", err)
	}
	if !errors.Is(err, testutil.ErrInjected) {
		t.Errorf("Register: cause not attached: %v", err)
	}
	if len(e.sender.Sent()) != 0 {
		t.Error("no email should be sent when the user could not be stored")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Verify / Resend                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func TestVerify_InvalidToken(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "bob", "b@x.com", "pw", false)
	sets := e.db.Sets()

	for _, tok := range []string{"nope", ""} {
		if err := e.mgr.Verify(ctx, tok); !errors.Is(err, autherr.ErrInvalidToken) {
			t.Errorf("Verify(%q): got %v, want ErrInvalidToken", tok, err)
		}
	}
	if e.db.Sets() != sets {
		t.Error("invalid verification wrote to the store")
	}
}

func TestVerify_TokenIsSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "bob", "b@x.com", "pw", false)

	if err := e.mgr.Verify(ctx, "verify-bob"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if err := e.mgr.Verify(ctx, "verify-bob"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("second Verify: got %v, want ErrInvalidToken", err)
	}
}

func TestVerify_ResetTokenNotAccepted(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "bob", "b@x.com", "pw", false)
	if err := e.mgr.RequestReset(ctx, "b@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	resetTok := *e.fixtures.GetUser(ctx, "bob").ResetToken

	if err := e.mgr.Verify(ctx, resetTok); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("Verify(reset token): got %v, want ErrInvalidToken", err)
	}
	if err := e.mgr.CompleteReset(ctx, "verify-bob", "newpw"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("CompleteReset(verification token): got %v, want ErrInvalidToken", err)
	}
}

func TestResend(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "bob", "b@x.com", "pw", false)

	if err := e.mgr.Resend(ctx, "b@x.com"); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	newTok := tokenFromLink(t, e.sender, "/verify/")
	if newTok == "verify-bob" {
		t.Fatal("Resend must issue a new token")
	}

	// The previous token is invalidated by overwrite.
	if err := e.mgr.Verify(ctx, "verify-bob"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("Verify(old token): got %v, want ErrInvalidToken", err)
	}
	if err := e.mgr.Verify(ctx, newTok); err != nil {
		t.Errorf("Verify(new token): %v", err)
	}
}

func TestResend_NotFoundAndAlreadyVerified(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "pw", true)

	if err := e.mgr.Resend(ctx, "ghost@x.com"); !errors.Is(err, autherr.ErrNotFound) {
		t.Errorf("Resend(unknown): got %v, want ErrNotFound", err)
	}
	if err := e.mgr.Resend(ctx, "a@x.com"); !errors.Is(err, autherr.ErrAlreadyVerified) {
		t.Errorf("Resend(verified): got %v, want ErrAlreadyVerified", err)
	}
	if len(e.sender.Sent()) != 0 {
		t.Error("no email expected")
	}
	assertTokenInvariant(t, e.fixtures.GetUser(ctx, "alice"))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password reset                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func TestRequestReset_UnknownEmail(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "pw", true)
	sets := e.db.Sets()

	if err := e.mgr.RequestReset(ctx, "ghost@x.com"); !errors.Is(err, autherr.ErrNotFound) {
		t.Errorf("RequestReset: got %v, want ErrNotFound", err)
	}
	if e.db.Sets() != sets {
		t.Error("unknown email must not mutate the store")
	}
	if len(e.sender.Sent()) != 0 {
		t.Error("unknown email must not send mail")
	}
}

func TestRequestReset_OverwritesPriorToken(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "pw", true)

	if err := e.mgr.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	first := *e.fixtures.GetUser(ctx, "alice").ResetToken
	if link := tokenFromLink(t, e.sender, "http://test.local/auth/reset/"); link != first {
		t.Errorf("emailed token %q does not match stored %q", link, first)
	}

	if err := e.mgr.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("second RequestReset failed: %v", err)
	}
	second := *e.fixtures.GetUser(ctx, "alice").ResetToken
	if first == second {
		t.Fatal("expected a new reset token")
	}

	if err := e.mgr.CompleteReset(ctx, first, "newpw"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("CompleteReset(old token): got %v, want ErrInvalidToken", err)
	}
}

func TestCompleteReset(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "oldpw", true)
	if err := e.mgr.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	token := tokenFromLink(t, e.sender, "/auth/reset/")

	if err := e.mgr.CompleteReset(ctx, token, "newpw"); err != nil {
		t.Fatalf("CompleteReset failed: %v", err)
	}

	stored := e.fixtures.GetUser(ctx, "alice")
	if stored.ResetToken != nil {
		t.Error("expected reset token to be removed")
	}
	raw, _ := e.db.Store.(interface{ Raw(string) ([]byte, bool) }).Raw(userstore.Key)
	if strings.Contains(string(raw), "reset_token") {
		t.Errorf("reset_token should be absent from the stored document: %s", raw)
	}

	if out := e.authn.Authenticate(ctx, "alice", "oldpw"); !errors.Is(out.Err, autherr.ErrBadPassword) {
		t.Errorf("old password: got %v, want ErrBadPassword", out.Err)
	}
	if out := e.authn.Authenticate(ctx, "alice", "newpw"); !out.OK() {
		t.Errorf("new password: %v", out.Err)
	}

	// Consumed tokens cannot be reused.
	if err := e.mgr.CompleteReset(ctx, token, "again"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("reused token: got %v, want ErrInvalidToken", err)
	}
}

func TestCompleteReset_InvalidTokenNoMutation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "pw", true)
	sets := e.db.Sets()

	if err := e.mgr.CompleteReset(ctx, "bogus", "newpw"); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
	if err := e.mgr.CompleteReset(ctx, "bogus", ""); !errors.Is(err, autherr.ErrInvalidToken) {
		t.Errorf("unknown token, empty password: got %v, want ErrInvalidToken", err)
	}
	if e.db.Sets() != sets {
		t.Error("failed reset wrote to the store")
	}
}

func TestCompleteReset_EmptyPasswordKeepsToken(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "oldpw", true)
	if err := e.mgr.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	token := tokenFromLink(t, e.sender, "/auth/reset/")
	sets := e.db.Sets()

	if err := e.mgr.CompleteReset(ctx, token, ""); !errors.Is(err, autherr.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
	if e.db.Sets() != sets {
		t.Error("rejected reset wrote to the store")
	}
	if stored := e.fixtures.GetUser(ctx, "alice"); stored.ResetToken == nil || *stored.ResetToken != token {
		t.Error("reset token should survive an empty password")
	}
	if err := e.mgr.CompleteReset(ctx, token, "newpw"); err != nil {
		t.Errorf("retry with password: %v", err)
	}
}

func TestRequestReset_MailFailure(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "alice", "a@x.com", "pw", true)
	e.sender.Fail(errors.New("smtp down"))

	err := e.mgr.RequestReset(ctx, "a@x.com")
	if !errors.Is(err, autherr.ErrMail) {
		t.Errorf("got %v, want ErrMail", err)
	}
	if autherr.Message(err, "generic") != "generic" {
		t.Error("collaborator failures must not expose a user-facing message")
	}
}
