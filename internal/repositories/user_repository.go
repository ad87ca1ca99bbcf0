package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farm_ops_backend/internal/models"
)

// UserRepository defines the interface for account-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	FindIdentityByID(ctx context.Context, userID int64) (*models.Identity, error)
	ListUsersWithStaff(ctx context.Context) ([]models.User, error)
	ListUsersWithoutStaff(ctx context.Context) ([]models.User, error)
	ListAssignableUsers(ctx context.Context) ([]models.AssignableUser, error)
	UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User, newHashedPassword *string) error
	SetStatus(ctx context.Context, executor SQLExecutor, userID int64, status models.Status) error
	SetPassword(ctx context.Context, executor SQLExecutor, userID int64, hashedPassword string) error
	TouchLastLogin(ctx context.Context, executor SQLExecutor, userID int64, at time.Time) error
}

type userRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.username, u.email, u.role, u.status, u.last_login, u.created_at, u.updated_at`

func scanUser(row scanner, extra ...interface{}) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	dest := append([]interface{}{
		&u.ID, &u.Username, &u.Email, &u.Role, &u.Status, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}

// CreateUser inserts a new account. Status defaults to active when empty.
func (r *userRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash, email, role, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          RETURNING id, created_at, updated_at`

	if user.Status == "" {
		user.Status = models.StatusActive
	}
	err := executor.QueryRowContext(ctx, query,
		user.Username, hashedPassword, user.Email, user.Role, user.Status, time.Now(),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, "creating user")
	}
	return user, nil
}

// FindUserByUsername retrieves a user by exact username along with the stored hash.
func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	var hashedPassword string
	query := `SELECT ` + userColumns + `, u.password_hash FROM users u WHERE u.username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username), &hashedPassword)
	if err != nil {
		return nil, "", classifyError(err, fmt.Sprintf("finding user by username %s", username))
	}
	return user, hashedPassword, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("finding user by id %d", userID))
	}
	return user, nil
}

// FindIdentityByID loads the user and a summary of the linked staff record in one query.
func (r *userRepository) FindIdentityByID(ctx context.Context, userID int64) (*models.Identity, error) {
	query := `SELECT u.id, u.username, u.email, u.role, u.status,
	                 s.id, s.staff_id, s.name, s.status
	          FROM users u
	          LEFT JOIN staff s ON s.user_id = u.id
	          WHERE u.id = $1`

	var id models.Identity
	var sID sql.NullInt64
	var sStaffID, sName, sStatus sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&id.ID, &id.Username, &id.Email, &id.Role, &id.Status,
		&sID, &sStaffID, &sName, &sStatus,
	)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("resolving identity %d", userID))
	}
	if sID.Valid {
		id.Staff = &models.StaffSummary{
			ID:      sID.Int64,
			StaffID: sStaffID.String,
			Name:    sName.String,
			Status:  models.Status(sStatus.String),
		}
	}
	return &id, nil
}

// ListUsersWithStaff returns every account with its full staff record, newest first.
func (r *userRepository) ListUsersWithStaff(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + `, ` + staffColumns + `
	          FROM users u
	          LEFT JOIN staff s ON s.user_id = u.id
	          ORDER BY u.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err, "querying users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var staff nullableStaff
		user, err := scanUser(rows, staff.dest()...)
		if err != nil {
			return nil, classifyError(err, "scanning user")
		}
		user.Staff = staff.model()
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating users")
	}
	return users, nil
}

// ListUsersWithoutStaff returns active staff/worker accounts with no linked staff record.
func (r *userRepository) ListUsersWithoutStaff(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users u
	          LEFT JOIN staff s ON s.user_id = u.id
	          WHERE s.id IS NULL
	            AND u.role IN ('staff', 'worker')
	            AND u.status = 'active'
	          ORDER BY u.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err, "querying users without staff")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classifyError(err, "scanning user")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating users without staff")
	}
	return users, nil
}

func (r *userRepository) ListAssignableUsers(ctx context.Context) ([]models.AssignableUser, error) {
	query := `SELECT u.id, u.username, u.email, u.role, s.name, s.position
	          FROM users u
	          LEFT JOIN staff s ON s.user_id = u.id
	          WHERE u.status = 'active'
	            AND u.role IN ('staff', 'worker')
	          ORDER BY u.role DESC, u.username ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err, "querying assignable users")
	}
	defer rows.Close()

	users := []models.AssignableUser{}
	for rows.Next() {
		var au models.AssignableUser
		var name, position sql.NullString
		if err := rows.Scan(&au.ID, &au.Username, &au.Email, &au.Role, &name, &position); err != nil {
			return nil, classifyError(err, "scanning assignable user")
		}
		au.StaffName = stringPtr(name)
		au.StaffPosition = stringPtr(position)
		au.DisplayName = au.Username
		if au.StaffName != nil {
			au.DisplayName = fmt.Sprintf("%s (%s)", *au.StaffName, au.Username)
		}
		users = append(users, au)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating assignable users")
	}
	return users, nil
}

// UpdateUser overwrites username, email, role and status, and the hash when newHashedPassword is set.
func (r *userRepository) UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User, newHashedPassword *string) error {
	query := `UPDATE users
	          SET username = $1, email = $2, role = $3, status = $4,
	              password_hash = COALESCE($5, password_hash), updated_at = $6
	          WHERE id = $7
	          RETURNING last_login, created_at, updated_at`

	var hash sql.NullString
	if newHashedPassword != nil {
		hash = sql.NullString{String: *newHashedPassword, Valid: true}
	}
	var lastLogin sql.NullTime
	err := executor.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Role, user.Status, hash, time.Now(), user.ID,
	).Scan(&lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating user %d", user.ID))
	}
	user.LastLogin = timePtr(lastLogin)
	return nil
}

func (r *userRepository) SetStatus(ctx context.Context, executor SQLExecutor, userID int64, status models.Status) error {
	return r.execOne(ctx, executor, fmt.Sprintf("setting status of user %d", userID),
		`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), userID)
}

func (r *userRepository) SetPassword(ctx context.Context, executor SQLExecutor, userID int64, hashedPassword string) error {
	return r.execOne(ctx, executor, fmt.Sprintf("setting password of user %d", userID),
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hashedPassword, time.Now(), userID)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, executor SQLExecutor, userID int64, at time.Time) error {
	return r.execOne(ctx, executor, fmt.Sprintf("recording login of user %d", userID),
		`UPDATE users SET last_login = $1 WHERE id = $2`, at, userID)
}

// execOne runs a statement that must affect exactly one row.
func (r *userRepository) execOne(ctx context.Context, executor SQLExecutor, op, query string, args ...interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return classifyError(err, op)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classifyError(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
