package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/user"
)

const userColumns = `id, full_name, gender, email, admission_no, phone, sub_county, ward, sub_ward, village,
	is_active, roles, password_hash, created_at, updated_at, last_login`

// orderable columns
var userOrderings = map[string]string{
	"created_at": "created_at",
	"full_name":  "LOWER(full_name)",
	"name":       "LOWER(full_name)",
	"is_active":  "is_active",
	"last_login": "last_login",
}

// userRow maps a row of the "user" table.
type userRow struct {
	ID           string         `db:"id"`
	FullName     string         `db:"full_name"`
	Gender       null.String    `db:"gender"`
	Email        null.String    `db:"email"`
	AdmissionNo  null.String    `db:"admission_no"`
	Phone        null.String    `db:"phone"`
	SubCounty    null.String    `db:"sub_county"`
	Ward         null.String    `db:"ward"`
	SubWard      null.String    `db:"sub_ward"`
	Village      null.String    `db:"village"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

func toRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		FullName:     usr.Name,
		Gender:       null.NewString(usr.Gender, usr.Gender != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		AdmissionNo:  null.NewString(usr.AdmissionNo, usr.AdmissionNo != ""),
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		SubCounty:    null.NewString(usr.SubCounty, usr.SubCounty != ""),
		Ward:         null.NewString(usr.Ward, usr.Ward != ""),
		SubWard:      null.NewString(usr.SubWard, usr.SubWard != ""),
		Village:      null.NewString(usr.Village, usr.Village != ""),
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.FullName,
		Gender:       row.Gender.String,
		Email:        row.Email.String,
		AdmissionNo:  row.AdmissionNo.String,
		Phone:        row.Phone.String,
		SubCounty:    row.SubCounty.String,
		Ward:         row.Ward.String,
		SubWard:      row.SubWard.String,
		Village:      row.Village.String,
		IsActive:     row.IsActive,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time.UTC(),
		UpdatedAt:    row.UpdatedAt.Time.UTC(),
		LastLogin:    utcOrZero(row.LastLogin),
	}
}

func utcOrZero(t null.Time) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, email, admNo string, excludedIDs ...string) error {
	q := `SELECT email, admission_no FROM "user" WHERE (email = $1 OR admission_no = $2)`
	args := []interface{}{null.NewString(email, email != ""), null.NewString(admNo, admNo != "")}
	if len(excludedIDs) > 0 {
		q += ` AND NOT (id::text = ANY($3))`
		args = append(args, pq.Array(excludedIDs))
	}
	q += ` LIMIT 1`

	var row struct {
		Email       null.String `db:"email"`
		AdmissionNo null.String `db:"admission_no"`
	}
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if email != "" && row.Email.String == email {
		return user.ErrEmailExists
	}
	return user.ErrAdmissionNoExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (
		:id, :full_name, :gender, :email, :admission_no, :phone, :sub_county, :ward, :sub_ward, :village,
		:is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, toRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// users with Name, Email or AdmissionNo matching the search keyword
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			where = append(where, fmt.Sprintf("(full_name ILIKE %s OR email ILIKE %s OR admission_no ILIKE %s)", p, p, p))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			prefixes := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				prefixes = append(prefixes, role+"%")
			}
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ANY(%s))", arg(pq.Array(prefixes))))
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = "+arg(*filter.IsActive))
		}
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := userOrderings[ord.Field]
		if !ok {
			continue
		}
		ord.Field = col
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		return "created_at DESC"
	}
	return strings.Join(orderList, ", ")
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT ` + userColumns + ` FROM "user" WHERE `
	var arg string
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q, arg = q+"id = $1", filter.ID
	case filter.Email != "":
		q, arg = q+"email = $1", filter.Email
	case filter.AdmissionNo != "":
		q, arg = q+"admission_no = $1", filter.AdmissionNo
	case filter.Identifier != "":
		q, arg = q+"(email = $1 OR admission_no = $1)", filter.Identifier
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q+" LIMIT 1", arg); err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET
		full_name = :full_name, gender = :gender, email = :email, admission_no = :admission_no, phone = :phone,
		sub_county = :sub_county, ward = :ward, sub_ward = :sub_ward, village = :village, is_active = :is_active,
		roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, valid)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
