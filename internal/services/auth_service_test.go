package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/token"
)

func TestLogin_TokenResolvesToSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []userSpec{
		{email: "a@x.com", role: models.RolePatient},
		{email: "doc@x.com", password: "hunter22", role: models.RoleProvider},
		{email: "root@x.com", password: "p@ss word", role: models.RoleAdmin},
	}

	for _, us := range cases {
		u := f.seedUser(t, us)
		pw := us.password
		if pw == "" {
			pw = "secret"
		}

		res := f.login(t, us.email, pw)
		if res.Token == "" {
			t.Fatalf("%s: empty token", us.email)
		}

		id, err := f.auth.ResolveToken(ctx, res.Token)
		if err != nil {
			t.Fatalf("%s: ResolveToken: %v", us.email, err)
		}
		if id.UserID() != u.ID {
			t.Errorf("%s: resolved user %s, want %s", us.email, id.UserID(), u.ID)
		}
		if id.Role() != us.role {
			t.Errorf("%s: role = %s, want %s", us.email, id.Role(), us.role)
		}
	}
}

func TestLogin_PatientScenario(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "a@x.com", password: "secret", role: models.RolePatient})

	res := f.login(t, "a@x.com", "secret")

	if res.Identity.Role() != models.RolePatient {
		t.Errorf("role = %s, want PATIENT", res.Identity.Role())
	}
	p, ok := res.Identity.Profile.(identity.PatientProfile)
	if !ok || p.Patient == nil {
		t.Errorf("profile = %#v, want populated PatientProfile", res.Identity.Profile)
	}
	if until := time.Until(res.ExpiresAt); until < 167*time.Hour || until > 169*time.Hour {
		t.Errorf("session expires in %v, want ~7 days", until)
	}
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "mixed@x.com", role: models.RolePatient})

	if _, err := f.auth.Login(context.Background(), &dto.LoginRequest{Email: "  Mixed@X.com ", Password: "secret"}, SessionMeta{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLogin_EachLoginCreatesSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "multi@x.com", role: models.RolePatient})

	first := f.login(t, "multi@x.com", "secret")
	second := f.login(t, "multi@x.com", "secret")

	if first.Token == second.Token {
		t.Error("two logins returned the same token")
	}
	if n := f.sessionCount(t, u); n != 2 {
		t.Errorf("sessions = %d, want 2", n)
	}
	for _, tok := range []string{first.Token, second.Token} {
		if _, err := f.auth.ResolveToken(context.Background(), tok); err != nil {
			t.Errorf("ResolveToken: %v", err)
		}
	}
}

func TestLogin_StoresSessionMetadata(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "meta@x.com", role: models.RoleAdmin})

	res, err := f.auth.Login(context.Background(),
		&dto.LoginRequest{Email: "meta@x.com", Password: "secret"},
		SessionMeta{UserAgent: "curl/8.0", IPAddress: "10.0.0.7"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	s, err := f.sessions.FindByTokenHash(context.Background(), HashToken(res.Token))
	if err != nil {
		t.Fatalf("FindByTokenHash: %v", err)
	}
	if s.UserAgent != "curl/8.0" || s.IPAddress != "10.0.0.7" {
		t.Errorf("session metadata = %q/%q", s.UserAgent, s.IPAddress)
	}
	if s.TokenHash == res.Token {
		t.Error("raw token stored in session row")
	}
}

func TestLogin_StoresSessionMetadata_LongNonASCIIAgent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "agent@x.com", role: models.RolePatient})

	ua := strings.Repeat("a", 254) + "é-agent\xff"
	res, err := f.auth.Login(context.Background(),
		&dto.LoginRequest{Email: "agent@x.com", Password: "secret"},
		SessionMeta{UserAgent: ua, IPAddress: "10.0.0.8\xfe"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	s, err := f.sessions.FindByTokenHash(context.Background(), HashToken(res.Token))
	if err != nil {
		t.Fatalf("FindByTokenHash: %v", err)
	}
	if !utf8.ValidString(s.UserAgent) || len(s.UserAgent) > 255 {
		t.Errorf("user agent stored as %d bytes, valid=%v", len(s.UserAgent), utf8.ValidString(s.UserAgent))
	}
	if s.UserAgent != strings.Repeat("a", 254) {
		t.Errorf("user agent not cut before the split rune: %q", s.UserAgent[250:])
	}
	if !utf8.ValidString(s.IPAddress) {
		t.Errorf("ip address %q is not valid UTF-8", s.IPAddress)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 255, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"aé", 3, "aé"},
		{"日本語", 5, "日"},
		{"ok\xffok", 255, "ok\uFFFDok"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) returned invalid UTF-8", tc.in, tc.n)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "known@x.com", role: models.RolePatient})
	ctx := context.Background()

	for _, req := range []*dto.LoginRequest{
		{Email: "known@x.com", Password: "wrong"},
		{Email: "unknown@x.com", Password: "secret"},
	} {
		_, err := f.auth.Login(ctx, req, SessionMeta{})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", req.Email, err)
		}
	}
	if n := f.sessionCount(t, u); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestLogin_InactiveUserCreatesNoSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "gone@x.com", role: models.RolePatient, inactive: true})
	ctx := context.Background()

	_, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "gone@x.com", Password: "secret"}, SessionMeta{})
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("error = %v, want ErrAccountDeactivated", err)
	}

	// Without the right password the account state is not revealed.
	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "gone@x.com", Password: "nope"}, SessionMeta{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}

	if n := f.sessionCount(t, u); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), &dto.LoginRequest{Email: "not-an-email"}, SessionMeta{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	want := "Validation error: email must be a valid email address, password is required"
	if verr.Error() != want {
		t.Errorf("message = %q, want %q", verr.Error(), want)
	}
}

func TestLogin_TwoFactor(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "2fa@x.com", role: models.RoleProvider, twoFactor: true})
	ctx := context.Background()

	tests := []struct {
		code string
		want error
	}{
		{"", ErrSecondFactorRequired},
		{"12ab56", ErrSecondFactorInvalid},
		{"1234567", ErrSecondFactorInvalid},
		{"123456", nil},
	}
	for _, tt := range tests {
		_, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "2fa@x.com", Password: "secret", TwoFAToken: tt.code}, SessionMeta{})
		if !errors.Is(err, tt.want) {
			t.Errorf("code %q: error = %v, want %v", tt.code, err, tt.want)
		}
	}
	if n := f.sessionCount(t, u); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

type rejectAll struct{ calls int }

func (r *rejectAll) Verify(context.Context, *models.User, string) error {
	r.calls++
	return errors.New("code not recognised")
}

func TestLogin_UsesInjectedVerifier(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "otp@x.com", role: models.RoleAdmin, twoFactor: true})
	verifier := &rejectAll{}
	auth := NewAuthService(AuthDeps{Users: f.users, Sessions: f.sessions, Codec: f.codec, Verifier: verifier})

	_, err := auth.Login(context.Background(), &dto.LoginRequest{Email: "otp@x.com", Password: "secret", TwoFAToken: "123456"}, SessionMeta{})

	if !errors.Is(err, ErrSecondFactorInvalid) {
		t.Errorf("error = %v, want ErrSecondFactorInvalid", err)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier called %d times, want 1", verifier.calls)
	}
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "busy@x.com", role: models.RolePatient})
	throttle := NewLoginThrottle(2, time.Minute)
	t.Cleanup(throttle.Stop)
	auth := NewAuthService(AuthDeps{Users: f.users, Sessions: f.sessions, Codec: f.codec, Throttle: throttle})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := auth.Login(ctx, &dto.LoginRequest{Email: "busy@x.com", Password: "wrong"}, SessionMeta{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: error = %v", i+1, err)
		}
	}
	_, err := auth.Login(ctx, &dto.LoginRequest{Email: "BUSY@x.com", Password: "secret"}, SessionMeta{})
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("third attempt error = %v, want ErrTooManyAttempts", err)
	}
}

func TestLogin_ThrottleIgnoresSuccessfulLogins(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "daily@x.com", role: models.RoleProvider})
	throttle := NewLoginThrottle(2, time.Minute)
	t.Cleanup(throttle.Stop)
	auth := NewAuthService(AuthDeps{Users: f.users, Sessions: f.sessions, Codec: f.codec, Throttle: throttle})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := auth.Login(ctx, &dto.LoginRequest{Email: "daily@x.com", Password: "secret"}, SessionMeta{}); err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
	}
	if n := f.sessionCount(t, u); n != 4 {
		t.Errorf("sessions = %d, want 4", n)
	}

	// One failure leaves budget for the next correct attempt.
	if _, err := auth.Login(ctx, &dto.LoginRequest{Email: "daily@x.com", Password: "typo"}, SessionMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("typo error = %v", err)
	}
	if _, err := auth.Login(ctx, &dto.LoginRequest{Email: "daily@x.com", Password: "secret"}, SessionMeta{}); err != nil {
		t.Errorf("login after one failure: %v", err)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "out@x.com", role: models.RolePatient})
	ctx := context.Background()
	res := f.login(t, "out@x.com", "secret")

	if err := f.auth.Logout(ctx, "Bearer "+res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := f.codec.Verify(res.Token); err != nil {
		t.Fatalf("token signature should still verify: %v", err)
	}
	_, err := f.auth.ResolveToken(ctx, res.Token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("ResolveToken after logout error = %v, want ErrSessionExpired", err)
	}
	if f.metrics.lastRejection() != "session_expired" {
		t.Errorf("rejection reason = %q", f.metrics.lastRejection())
	}
}

func TestLogout_LeavesOtherSessions(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "two@x.com", role: models.RolePatient})
	ctx := context.Background()
	phone := f.login(t, "two@x.com", "secret")
	laptop := f.login(t, "two@x.com", "secret")

	if err := f.auth.Logout(ctx, "Bearer "+phone.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.auth.ResolveToken(ctx, laptop.Token); err != nil {
		t.Errorf("other session should survive: %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "again@x.com", role: models.RolePatient})
	ctx := context.Background()
	res := f.login(t, "again@x.com", "secret")

	for i := 0; i < 2; i++ {
		if err := f.auth.Logout(ctx, "Bearer "+res.Token); err != nil {
			t.Errorf("Logout #%d: %v", i+1, err)
		}
	}
}

func TestLogout_NoToken(t *testing.T) {
	f := newFixture(t)
	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc"} {
		if err := f.auth.Logout(context.Background(), header); !errors.Is(err, ErrNoToken) {
			t.Errorf("Logout(%q) error = %v, want ErrNoToken", header, err)
		}
	}
}

func TestResolveToken_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "old@x.com", role: models.RolePatient})
	res := f.login(t, "old@x.com", "secret")

	err := f.db.Model(&models.Session{}).
		Where("user_id = ?", u.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("expire session: %v", err)
	}

	_, err = f.auth.ResolveToken(context.Background(), res.Token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("error = %v, want ErrSessionExpired", err)
	}
}

func TestResolveToken_InvalidToken(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, userSpec{email: "sig@x.com", role: models.RolePatient})
	res := f.login(t, "sig@x.com", "secret")
	ctx := context.Background()

	_, err := f.auth.ResolveToken(ctx, "garbage")
	if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, token.ErrMalformedToken) {
		t.Errorf("garbage: error = %v, want ErrInvalidToken wrapping ErrMalformedToken", err)
	}

	other := token.NewCodec("another-secret", "portal-test", time.Hour)
	forged, err := other.Issue(token.PayloadFor(res.Identity.User))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := f.auth.ResolveToken(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("forged: error = %v, want ErrInvalidToken", err)
	}
}

func TestResolveToken_SessionOwnerMismatch(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, userSpec{email: "alice@x.com", role: models.RolePatient})
	bob := f.seedUser(t, userSpec{email: "bob@x.com", role: models.RolePatient})
	ctx := context.Background()

	raw, err := f.codec.Issue(token.PayloadFor(alice))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	err = f.sessions.Create(ctx, &models.Session{
		UserID:    bob.ID,
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := f.auth.ResolveToken(ctx, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestResolveToken_DeactivatedAfterLogin(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "late@x.com", role: models.RoleProvider})
	res := f.login(t, "late@x.com", "secret")

	if err := f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.auth.ResolveToken(context.Background(), res.Token)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestResolveToken_RoleComesFromStore(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "promo@x.com", role: models.RolePatient})
	res := f.login(t, "promo@x.com", "secret")

	if err := f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("update role: %v", err)
	}

	id, err := f.auth.ResolveToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if id.Role() != models.RoleAdmin {
		t.Errorf("role = %s, want ADMIN from the user row", id.Role())
	}
}

func TestAuthenticate_Header(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, userSpec{email: "hdr@x.com", role: models.RoleAdmin})
	res := f.login(t, "hdr@x.com", "secret")
	ctx := context.Background()

	id, err := f.auth.Authenticate(ctx, "bearer "+res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.UserID() != u.ID {
		t.Errorf("user = %s, want %s", id.UserID(), u.ID)
	}

	if _, err := f.auth.Authenticate(ctx, ""); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty header error = %v, want ErrNoToken", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"BEARER  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHashToken(t *testing.T) {
	a, b := HashToken("one"), HashToken("two")
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
	if a == b || a != HashToken("one") {
		t.Error("hash must be deterministic and distinct per token")
	}
}
