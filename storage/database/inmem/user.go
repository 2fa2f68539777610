package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, copyUser(*u))
	}
	return users
}

func (repo *userRepository) CheckUniqueness(_ context.Context, email, admNo string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if isExcluded(usr.ID, excludedIDs) {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if admNo != "" && usr.AdmissionNo == admNo {
			return user.ErrAdmissionNoExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if matches(usr, filter) {
			users = append(users, usr)
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareField(users[i], users[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return copyUser(*usr), nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.table {
		var found bool
		switch {
		case filter.Email != "":
			found = usr.Email == filter.Email
		case filter.AdmissionNo != "":
			found = usr.AdmissionNo == filter.AdmissionNo
		case filter.Identifier != "":
			found = usr.Email == filter.Identifier || usr.AdmissionNo == filter.Identifier
		}
		if found {
			return copyUser(*usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func matches(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(usr.Name), q) ||
			strings.Contains(strings.ToLower(usr.Email), q) ||
			strings.Contains(strings.ToLower(usr.AdmissionNo), q)) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var hasRole bool
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				hasRole = true
				break
			}
		}
		if !hasRole {
			return false
		}
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func compareField(a, b user.User, field string) int {
	switch field {
	case "full_name", "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "is_active":
		switch {
		case a.IsActive == b.IsActive:
			return 0
		case a.IsActive:
			return 1
		default:
			return -1
		}
	case "last_login":
		return compareTime(a.LastLogin.UnixNano(), b.LastLogin.UnixNano())
	default: // created_at
		return compareTime(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	}
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func copyUser(usr user.User) user.User {
	usr.Roles = append([]string(nil), usr.Roles...)
	usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	return usr
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, exclID := range excludedIDs {
		if exclID == id {
			return true
		}
	}
	return false
}
