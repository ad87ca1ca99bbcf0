package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farm_ops_backend/internal/models"
)

// StaffRepository defines the interface for staff record database operations.
type StaffRepository interface {
	CreateStaff(ctx context.Context, executor SQLExecutor, staff *models.Staff) (*models.Staff, error)
	GetStaffByID(ctx context.Context, id int64) (*models.Staff, error)
	// GetStaffByUserID takes an executor so it can observe uncommitted rows inside a transaction.
	GetStaffByUserID(ctx context.Context, executor SQLExecutor, userID int64) (*models.Staff, error)
	ListStaff(ctx context.Context) ([]models.Staff, error)
	ListUnassigned(ctx context.Context) ([]models.Staff, error)
	UpdateStaff(ctx context.Context, executor SQLExecutor, staff *models.Staff) (*models.Staff, error)
	DeleteStaff(ctx context.Context, executor SQLExecutor, id int64) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `s.id, s.staff_id, s.name, s.id_number, s.gender, s.email, s.phone,
	s.position, s.salary, s.status, s.join_date, s.user_id, s.created_at, s.updated_at`

func scanStaff(row scanner) (*models.Staff, error) {
	var s models.Staff
	var userID sql.NullInt64
	if err := row.Scan(
		&s.ID, &s.StaffID, &s.Name, &s.IDNumber, &s.Gender, &s.Email, &s.Phone,
		&s.Position, &s.Salary, &s.Status, &s.JoinDate, &userID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.UserID = int64Ptr(userID)
	return &s, nil
}

// nullableStaff scans staffColumns from a LEFT JOIN where the staff side may be absent.
type nullableStaff struct {
	id        sql.NullInt64
	staffID   sql.NullString
	name      sql.NullString
	idNumber  sql.NullString
	gender    sql.NullString
	email     sql.NullString
	phone     sql.NullString
	position  sql.NullString
	salary    sql.NullFloat64
	status    sql.NullString
	joinDate  sql.NullTime
	userID    sql.NullInt64
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

func (n *nullableStaff) dest() []interface{} {
	return []interface{}{
		&n.id, &n.staffID, &n.name, &n.idNumber, &n.gender, &n.email, &n.phone,
		&n.position, &n.salary, &n.status, &n.joinDate, &n.userID, &n.createdAt, &n.updatedAt,
	}
}

func (n *nullableStaff) model() *models.Staff {
	if !n.id.Valid {
		return nil
	}
	return &models.Staff{
		ID:        n.id.Int64,
		StaffID:   n.staffID.String,
		Name:      n.name.String,
		IDNumber:  n.idNumber.String,
		Gender:    n.gender.String,
		Email:     n.email.String,
		Phone:     n.phone.String,
		Position:  n.position.String,
		Salary:    n.salary.Float64,
		Status:    models.Status(n.status.String),
		JoinDate:  n.joinDate.Time,
		UserID:    int64Ptr(n.userID),
		CreatedAt: n.createdAt.Time,
		UpdatedAt: n.updatedAt.Time,
	}
}

func (r *staffRepository) CreateStaff(ctx context.Context, executor SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	query := `INSERT INTO staff (staff_id, name, id_number, gender, email, phone, position, salary, status, join_date, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	err := executor.QueryRowContext(ctx, query,
		staff.StaffID, staff.Name, staff.IDNumber, staff.Gender, staff.Email, staff.Phone,
		staff.Position, staff.Salary, staff.Status, staff.JoinDate, nullInt64(staff.UserID), currentTime,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, "creating staff")
	}
	return staff, nil
}

func (r *staffRepository) GetStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + `,
	            u.id, u.username, u.email, u.role, u.status
	          FROM staff s
	          LEFT JOIN users u ON s.user_id = u.id
	          WHERE s.id = $1`
	staff, err := scanStaffWithUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting staff %d", id))
	}
	return staff, nil
}

func (r *staffRepository) GetStaffByUserID(ctx context.Context, executor SQLExecutor, userID int64) (*models.Staff, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + staffColumns + ` FROM staff s WHERE s.user_id = $1`
	staff, err := scanStaff(executor.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting staff for user %d", userID))
	}
	return staff, nil
}

// scanStaffWithUser expects staffColumns followed by the linked user's id, username, email, role and status.
func scanStaffWithUser(row scanner) (*models.Staff, error) {
	var s models.Staff
	var userID, uID sql.NullInt64
	var uName, uEmail, uRole, uStatus sql.NullString
	if err := row.Scan(
		&s.ID, &s.StaffID, &s.Name, &s.IDNumber, &s.Gender, &s.Email, &s.Phone,
		&s.Position, &s.Salary, &s.Status, &s.JoinDate, &userID, &s.CreatedAt, &s.UpdatedAt,
		&uID, &uName, &uEmail, &uRole, &uStatus,
	); err != nil {
		return nil, err
	}
	s.UserID = int64Ptr(userID)
	hasAccount := uID.Valid
	s.HasUserAccount = &hasAccount
	if hasAccount {
		s.User = &models.StaffUser{
			ID:       uID.Int64,
			Username: uName.String,
			Email:    uEmail.String,
			Role:     models.Role(uRole.String),
			Status:   models.Status(uStatus.String),
		}
	}
	return &s, nil
}

func (r *staffRepository) ListStaff(ctx context.Context) ([]models.Staff, error) {
	query := `SELECT ` + staffColumns + `,
	            u.id, u.username, u.email, u.role, u.status
	          FROM staff s
	          LEFT JOIN users u ON s.user_id = u.id
	          ORDER BY s.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err, "querying staff")
	}
	defer rows.Close()

	staff := []models.Staff{}
	for rows.Next() {
		s, err := scanStaffWithUser(rows)
		if err != nil {
			return nil, classifyError(err, "scanning staff")
		}
		staff = append(staff, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating staff")
	}
	return staff, nil
}

func (r *staffRepository) ListUnassigned(ctx context.Context) ([]models.Staff, error) {
	query := `SELECT ` + staffColumns + `
	          FROM staff s
	          WHERE s.user_id IS NULL AND s.status = 'active'
	          ORDER BY s.name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err, "querying unassigned staff")
	}
	defer rows.Close()

	staff := []models.Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, classifyError(err, "scanning unassigned staff")
		}
		s.DisplayName = fmt.Sprintf("%s - %s (%s)", s.Name, s.StaffID, s.Position)
		staff = append(staff, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating unassigned staff")
	}
	return staff, nil
}

// UpdateStaff overwrites the mutable columns of an existing staff record.
func (r *staffRepository) UpdateStaff(ctx context.Context, executor SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	query := `UPDATE staff
	          SET staff_id = $1, name = $2, id_number = $3, gender = $4, email = $5, phone = $6,
	              position = $7, salary = $8, status = $9, join_date = $10, user_id = $11, updated_at = $12
	          WHERE id = $13
	          RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		staff.StaffID, staff.Name, staff.IDNumber, staff.Gender, staff.Email, staff.Phone,
		staff.Position, staff.Salary, staff.Status, staff.JoinDate, nullInt64(staff.UserID), time.Now(),
		staff.ID,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("updating staff %d", staff.ID))
	}
	return staff, nil
}

func (r *staffRepository) DeleteStaff(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting staff %d", id))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classifyError(err, "checking affected rows")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
