package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/user"
	"github.com/mbooni/bursary/tests"
)

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	student := testutil.CreateUser(t, repo, "Mwende Musyoka", "adm/001/2024", "pwd", user.StudentRoles, true, now)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@mbooni.test", "pwd", user.AdminRoles, true, now.Add(time.Hour))
	inactive := testutil.CreateUser(t, repo, "Kioko", "kioko@mbooni.test", "pwd", user.StudentRoles, false, now.Add(2*time.Hour))

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrAdmissionNoExists, repo.CheckUniqueness(ctx, "", "ADM/001/2024"))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "admin@mbooni.test", ""))
		assert.NoError(t, repo.CheckUniqueness(ctx, "admin@mbooni.test", "", admin.ID))
		assert.NoError(t, repo.CheckUniqueness(ctx, "new@mbooni.test", ""))
	})

	t.Run("get", func(t *testing.T) {
		usr, err := repo.GetUser(ctx, user.GetFilter{Identifier: "ADM/001/2024"})
		require.NoError(t, err)
		assert.Equal(t, student.ID, usr.ID)
		assert.NoError(t, usr.CheckPassword("pwd"))
		assert.Equal(t, user.StudentRoles, usr.Roles)
		assert.True(t, usr.LastLogin.IsZero())

		usr, err = repo.GetUser(ctx, user.GetFilter{ID: admin.ID})
		require.NoError(t, err)
		assert.Equal(t, "admin@mbooni.test", usr.Email)

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "lol"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{Email: "nobody@mbooni.test"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query", func(t *testing.T) {
		users, err := repo.QueryUsers(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{inactive.ID, admin.ID, student.ID}, ids(users))

		active := true
		users, err = repo.QueryUsers(ctx, &user.QueryFilter{IsActive: &active, Roles: []string{user.RoleStudent}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{student.ID}, ids(users))

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{Search: "MBOONI"}, []core.DBOrdering{{Field: "full_name", Ascending: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{admin.ID, inactive.ID}, ids(users))
	})

	t.Run("update", func(t *testing.T) {
		student.LastLogin = time.Now().UTC()
		student.Village = "Kivani"
		_, err := repo.UpdateUser(ctx, student)
		require.NoError(t, err)

		usr, err := repo.GetUser(ctx, user.GetFilter{ID: student.ID})
		require.NoError(t, err)
		assert.Equal(t, "Kivani", usr.Village)
		assert.False(t, usr.LastLogin.IsZero())

		_, err = repo.UpdateUser(ctx, user.User{ID: "8b8a0f9e-4a1f-4b55-b2c4-0a6bb1e1e0f1", PasswordHash: []byte("x")})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		cnt, err := repo.DeleteUsersByID(ctx, inactive.ID, "lol")
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
		_, err = repo.GetUser(ctx, user.GetFilter{ID: inactive.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func ids(users []user.User) []string {
	res := make([]string, 0, len(users))
	for _, u := range users {
		res = append(res, u.ID)
	}
	return res
}
