package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
)

// AttendanceRepository defines the interface for punch-in/punch-out records.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, executor SQLExecutor, attendance *models.Attendance) (*models.Attendance, error)
	// FindByStaffAndDate looks up the record for a calendar day formatted as models.DateLayout.
	FindByStaffAndDate(ctx context.Context, staffID int64, date string) (*models.Attendance, error)
	// SetPunchOut records the punch-out only if none is recorded yet; otherwise ErrStaleUpdate.
	SetPunchOut(ctx context.Context, executor SQLExecutor, id string, at time.Time) (*models.Attendance, error)
	ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
}

type attendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `a.id, a.staff_id, a.date, a.punch_in_time, a.punch_out_time, a.created_at, a.updated_at`

func scanAttendance(row scanner, extra ...interface{}) (*models.Attendance, error) {
	var a models.Attendance
	var punchOut sql.NullTime
	dest := append([]interface{}{
		&a.ID, &a.StaffID, &a.Date, &a.PunchInTime, &punchOut, &a.CreatedAt, &a.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.PunchOutTime = timePtr(punchOut)
	return &a, nil
}

func (r *attendanceRepository) CreateAttendance(ctx context.Context, executor SQLExecutor, attendance *models.Attendance) (*models.Attendance, error) {
	query := `INSERT INTO attendance (id, staff_id, date, punch_in_time, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          RETURNING date, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		attendance.ID, attendance.StaffID, attendance.Date.Format(models.DateLayout),
		attendance.PunchInTime, time.Now(),
	).Scan(&attendance.Date, &attendance.CreatedAt, &attendance.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, "creating attendance")
	}
	return attendance, nil
}

func (r *attendanceRepository) FindByStaffAndDate(ctx context.Context, staffID int64, date string) (*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + `, s.id, s.staff_id, s.name
	          FROM attendance a
	          JOIN staff s ON s.id = a.staff_id
	          WHERE a.staff_id = $1 AND a.date = $2`

	staff := &models.AttendanceStaff{}
	a, err := scanAttendance(r.db.QueryRowContext(ctx, query, staffID, date), &staff.ID, &staff.StaffID, &staff.Name)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("finding attendance of staff %d on %s", staffID, date))
	}
	a.Staff = staff
	return a, nil
}

func (r *attendanceRepository) SetPunchOut(ctx context.Context, executor SQLExecutor, id string, at time.Time) (*models.Attendance, error) {
	query := `UPDATE attendance a
	          SET punch_out_time = $1, updated_at = $2
	          FROM staff s
	          WHERE a.id = $3 AND a.punch_out_time IS NULL AND s.id = a.staff_id
	          RETURNING ` + attendanceColumns + `, s.id, s.staff_id, s.name`

	staff := &models.AttendanceStaff{}
	a, err := scanAttendance(executor.QueryRowContext(ctx, query, at, time.Now(), id), &staff.ID, &staff.StaffID, &staff.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleUpdate
		}
		return nil, classifyError(err, fmt.Sprintf("punching out attendance %s", id))
	}
	a.Staff = staff
	return a, nil
}

// ListAttendance returns one page of records ordered by date then punch-in time, newest first,
// together with the total number of matching records.
func (r *attendanceRepository) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + attendanceColumns + `,
	    s.id, s.staff_id, s.name, s.position, u.username, u.email,
	    COUNT(*) OVER() AS total_count
	  FROM attendance a
	  JOIN staff s ON s.id = a.staff_id
	  LEFT JOIN users u ON u.id = s.user_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", argCount))
		args = append(args, filter.StartDate.Format(models.DateLayout))
		argCount++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", argCount))
		args = append(args, filter.EndDate.Format(models.DateLayout))
		argCount++
	}
	if filter.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("a.staff_id = $%d", argCount))
		args = append(args, *filter.StaffID)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY a.date DESC, a.punch_in_time DESC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filter.Limit)
		argCount++
		if filter.Page > 1 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filter.Page-1)*filter.Limit)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, classifyError(err, "querying attendance")
	}
	defer rows.Close()

	records := []models.Attendance{}
	totalCount := 0
	for rows.Next() {
		staff := &models.AttendanceStaff{}
		var username, email sql.NullString
		a, err := scanAttendance(rows,
			&staff.ID, &staff.StaffID, &staff.Name, &staff.Position, &username, &email, &totalCount)
		if err != nil {
			return nil, 0, classifyError(err, "scanning attendance")
		}
		if username.Valid {
			staff.User = &models.AttendanceStaffUser{Username: username.String, Email: email.String}
		}
		a.Staff = staff
		records = append(records, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterating attendance")
	}

	// COUNT(*) OVER() is absent when the requested page is past the end.
	if len(records) == 0 && filter.Page > 1 {
		countQuery := "SELECT COUNT(*) FROM attendance a"
		if len(conditions) > 0 {
			countQuery += " WHERE " + strings.Join(conditions, " AND ")
		}
		countArgs := args[:len(conditions)]
		if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
			return nil, 0, classifyError(err, "counting attendance")
		}
	}
	return records, totalCount, nil
}
