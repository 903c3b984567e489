package service

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"split-bill/internal/config"
	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// newTestService spins up a Service over a throwaway sqlite database.
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "splitbill-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := gorm.Open(sqlite.Open(tmpFile.Name()), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, log), db
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	email := name + "@example.com"
	user := models.User{Name: name, Email: &email}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createSuperuser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	email := name + "@example.com"
	user := models.User{Name: name, Email: &email, Superuser: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create superuser %s: %v", name, err)
	}
	return user
}

func asActor(u models.User) Actor {
	return Actor{UserID: u.ID, Superuser: u.Superuser}
}

func wantKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("error kind: expected %v, got %v (%v)", kind, got, err)
	}
}
