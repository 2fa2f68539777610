// Package inmemdb keeps records in process memory.
// Drafts always live here; users only in tests and local runs without Postgres.
package inmemdb

import (
	"sync"

	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/user"
)

type (
	DB struct {
		user  *userTable
		draft *draftTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	draftTable struct {
		sync.RWMutex
		table map[string]*application.Draft
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		draft: &draftTable{table: make(map[string]*application.Draft)},
	}
}

// Reset drops every record.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.draft.Lock()
	db.draft.table = make(map[string]*application.Draft)
	db.draft.Unlock()
}
