package state

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/roach88/hacksync/internal/model"
)

// createTestStore creates a store with quiet logging and fixed ids.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	return New(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(NewFixedGenerator(ids...)),
	)
}

func person(email string) model.Person {
	return model.Person{
		Email:        email,
		FirstName:    "Test",
		LastName:     "Person",
		RegisteredAt: time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC),
	}
}

func project(id string, members ...string) model.Project {
	return model.Project{
		ID:       id,
		Kind:     model.ProjectNew,
		Name:     "Project " + id,
		TeamName: "Team " + id,
		Members:  members,
		Status:   model.ProjectSubmitted,
	}
}

func mustPerson(t *testing.T, s model.Snapshot, email string) model.Person {
	t.Helper()
	p, ok := s.Person(email)
	if !ok {
		t.Fatalf("person %s not found", email)
	}
	return p
}
