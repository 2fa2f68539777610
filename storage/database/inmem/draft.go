package inmemdb

import (
	"sort"

	"github.com/mbooni/bursary/core/application"
)

type draftStore struct {
	db *draftTable
}

var _ application.DraftStore = (*draftStore)(nil) // interface compliance check

func NewDraftStore(db *DB) *draftStore {
	return &draftStore{db: db.draft}
}

func (store *draftStore) SaveDraft(d application.Draft) error {
	store.db.Lock()
	defer store.db.Unlock()
	store.db.table[d.ID] = d.Clone()
	return nil
}

func (store *draftStore) GetDraft(id string) (application.Draft, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if d, ok := store.db.table[id]; ok {
		return *d.Clone(), nil
	}
	return application.Draft{}, application.ErrDraftNotFound
}

func (store *draftStore) DeleteDraft(id string) error {
	store.db.Lock()
	defer store.db.Unlock()
	delete(store.db.table, id)
	return nil
}

// OwnerDrafts returns the drafts of ownerID, oldest first.
func (store *draftStore) OwnerDrafts(ownerID string) ([]application.Draft, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	drafts := make([]application.Draft, 0)
	for _, d := range store.db.table {
		if d.OwnerID == ownerID {
			drafts = append(drafts, *d.Clone())
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].CreatedAt.Before(drafts[j].CreatedAt) })
	return drafts, nil
}
