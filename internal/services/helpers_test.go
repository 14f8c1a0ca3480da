package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/carebridge/portal-api/internal/database/dbtest"
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key"

type fixture struct {
	db       *gorm.DB
	users    *repository.GormUserRepo
	sessions *repository.GormSessionRepo
	records  *repository.GormMedicalRecordRepo
	codec    *token.Codec
	metrics  *fakeRecorder
	auth     *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:       db,
		users:    repository.NewUserRepo(db),
		sessions: repository.NewSessionRepo(db),
		records:  repository.NewMedicalRecordRepo(db),
		codec:    token.NewCodec(testSecret, "portal-test", 7*24*time.Hour),
		metrics:  &fakeRecorder{},
	}
	f.auth = NewAuthService(AuthDeps{
		Users:    f.users,
		Sessions: f.sessions,
		Codec:    f.codec,
		Metrics:  f.metrics,
	})
	return f
}

type userSpec struct {
	email     string
	password  string
	role      models.Role
	first     string
	last      string
	inactive  bool
	twoFactor bool
}

func (f *fixture) seedUser(t *testing.T, us userSpec) *models.User {
	t.Helper()
	if us.password == "" {
		us.password = "secret"
	}
	if us.first == "" {
		us.first = "Test"
	}
	if us.last == "" {
		us.last = "User"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(us.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Email:            us.email,
		Password:         string(hash),
		FirstName:        us.first,
		LastName:         us.last,
		Role:             us.role,
		IsActive:         !us.inactive,
		TwoFactorEnabled: us.twoFactor,
	}
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	switch us.role {
	case models.RolePatient:
		if err := f.db.Create(&models.Patient{UserID: u.ID, Gender: "F"}).Error; err != nil {
			t.Fatalf("create patient: %v", err)
		}
	case models.RoleProvider:
		if err := f.db.Create(&models.Provider{UserID: u.ID, Specialty: "General Practice"}).Error; err != nil {
			t.Fatalf("create provider: %v", err)
		}
	}
	loaded, err := f.users.FindByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return loaded
}

func (f *fixture) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	res, err := f.auth.Login(context.Background(), &dto.LoginRequest{Email: email, Password: password}, SessionMeta{})
	if err != nil {
		t.Fatalf("Login(%s): %v", email, err)
	}
	return res
}

func (f *fixture) sessionCount(t *testing.T, u *models.User) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Session{}).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	return n
}

type fakeRecorder struct {
	mu         sync.Mutex
	logins     []string
	rejections []string
	created    int
	swept      int64
	reports    int
}

func (r *fakeRecorder) RecordLogin(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, outcome)
}

func (r *fakeRecorder) RecordAuthRejection(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, reason)
}

func (r *fakeRecorder) RecordSessionCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *fakeRecorder) RecordSessionsSwept(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swept += n
}

func (r *fakeRecorder) RecordReportGenerated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports++
}

func (r *fakeRecorder) lastRejection() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rejections) == 0 {
		return ""
	}
	return r.rejections[len(r.rejections)-1]
}
