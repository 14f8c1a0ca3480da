package services

import (
	"context"
	"errors"
	"testing"

	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
)

func TestListUsers_SortedByRoleThenName(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, userSpec{email: "admin@x.com", role: models.RoleAdmin, first: "Zed", last: "Admin"})
	f.seedUser(t, userSpec{email: "p2@x.com", role: models.RolePatient, first: "bob", last: "Young"})
	f.seedUser(t, userSpec{email: "p1@x.com", role: models.RolePatient, first: "Bob", last: "Adams"})
	f.seedUser(t, userSpec{email: "p3@x.com", role: models.RolePatient, first: "alice", last: "Zhu"})
	f.seedUser(t, userSpec{email: "d1@x.com", role: models.RoleProvider, first: "Carl", last: "Doc"})
	svc := NewUserService(f.users)

	users, err := svc.ListUsers(context.Background(), identity.FromUser(admin), "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}

	want := []string{"p3@x.com", "p1@x.com", "p2@x.com", "d1@x.com", "admin@x.com"}
	if len(users) != len(want) {
		t.Fatalf("got %d users, want %d", len(users), len(want))
	}
	for i, u := range users {
		if u.Email != want[i] {
			t.Errorf("users[%d] = %s, want %s", i, u.Email, want[i])
		}
	}
}

func TestListUsers_RoleFilter(t *testing.T) {
	f := newFixture(t)
	doc := f.seedUser(t, userSpec{email: "doc@x.com", role: models.RoleProvider})
	f.seedUser(t, userSpec{email: "pat@x.com", role: models.RolePatient})
	f.seedUser(t, userSpec{email: "root@x.com", role: models.RoleAdmin})
	svc := NewUserService(f.users)

	users, err := svc.ListUsers(context.Background(), identity.FromUser(doc), "patient")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Email != "pat@x.com" {
		t.Errorf("users = %+v, want only pat@x.com", users)
	}
}

func TestListUsers_Denied(t *testing.T) {
	f := newFixture(t)
	pat := f.seedUser(t, userSpec{email: "pat@x.com", role: models.RolePatient})
	doc := f.seedUser(t, userSpec{email: "doc@x.com", role: models.RoleProvider})
	svc := NewUserService(f.users)
	ctx := context.Background()

	if _, err := svc.ListUsers(ctx, identity.FromUser(pat), ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("patient error = %v, want ErrForbidden", err)
	}

	var verr *ValidationError
	if _, err := svc.ListUsers(ctx, identity.FromUser(doc), "NURSE"); !errors.As(err, &verr) {
		t.Errorf("bad role error = %v, want *ValidationError", err)
	}
}
