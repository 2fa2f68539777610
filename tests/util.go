// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/user"
	appfs "github.com/mbooni/bursary/fs"
	"github.com/mbooni/bursary/services/logger"
	"github.com/mbooni/bursary/storage/database"
)

// NewLogger returns a logger that reports nowhere.
func NewLogger() core.Logger {
	conf := core.NewTestConfig()
	return logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), conf)
}

// LoadForm loads the embedded application form.
func LoadForm(t *testing.T) *application.Form {
	t.Helper()
	form, err := application.LoadForm(appfs.FS, core.NewTestConfig().FormPath)
	if err != nil {
		t.Fatalf("LoadForm(): %v", err)
	}
	return form
}

// CreateUser stores a user directly in repo; ident is an email or an admission number.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, ident, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	email, admNo := user.SplitIdentifier(ident)
	usr := user.User{
		Name:        name,
		Gender:      user.GenderOther,
		Email:       email,
		AdmissionNo: admNo,
		Phone:       "0712345678",
		SubCounty:   "Mbooni West",
		Ward:        "Tulimani",
		SubWard:     "Kasikeu",
		Village:     "Kyaani",
		Roles:       roles,
		IsActive:    isActive,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// PrepareDB opens the TEST database, migrates it and empties it.
// The test is skipped when no database is reachable.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	if err := os.Setenv("ENV", "TEST"); err != nil {
		t.Fatalf("os.Setenv(): %v", err)
	}
	conf := core.NewConfig()

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("database not available: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	ResetDB(t, db)
	return db
}

func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE TABLE "user" CASCADE`); err != nil {
		t.Fatalf("ResetDB(): %v", err)
	}
}
