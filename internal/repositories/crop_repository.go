package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farm_ops_backend/internal/models"

	"github.com/lib/pq"
)

// CropRepository defines the interface for crop plot database operations.
type CropRepository interface {
	CreateCrop(ctx context.Context, executor SQLExecutor, crop *models.Crop) (*models.Crop, error)
	GetCropByID(ctx context.Context, id int64) (*models.Crop, error)
	ListCrops(ctx context.Context) ([]models.Crop, error)
	ListCropsByStatus(ctx context.Context, statuses []string) ([]models.Crop, error)
	UpdateCrop(ctx context.Context, executor SQLExecutor, crop *models.Crop) (*models.Crop, error)
	DeleteCrop(ctx context.Context, executor SQLExecutor, id int64) error
}

type cropRepository struct {
	db *sql.DB
}

// NewCropRepository creates a new instance of CropRepository.
func NewCropRepository(db *sql.DB) CropRepository {
	return &cropRepository{db: db}
}

const cropColumns = `c.id, c.plot_id, c.length, c.width, c.expected_harvest_date, c.crop_type, c.status,
	c.planting_date, c.expected_yield, c.actual_yield, c.notes, c.user_id, c.created_at, c.updated_at`

func scanCrop(row scanner, extra ...interface{}) (*models.Crop, error) {
	var c models.Crop
	var harvest sql.NullTime
	var expectedYield, actualYield sql.NullFloat64
	var notes sql.NullString
	var userID sql.NullInt64
	dest := append([]interface{}{
		&c.ID, &c.PlotID, &c.Length, &c.Width, &harvest, &c.CropType, &c.Status,
		&c.PlantingDate, &expectedYield, &actualYield, &notes, &userID, &c.CreatedAt, &c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.ExpectedHarvestDate = timePtr(harvest)
	c.ExpectedYield = float64Ptr(expectedYield)
	c.ActualYield = float64Ptr(actualYield)
	c.Notes = stringPtr(notes)
	c.UserID = int64Ptr(userID)
	return &c, nil
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func (r *cropRepository) CreateCrop(ctx context.Context, executor SQLExecutor, crop *models.Crop) (*models.Crop, error) {
	query := `INSERT INTO crops (plot_id, length, width, expected_harvest_date, crop_type, status,
	              planting_date, expected_yield, actual_yield, notes, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	          RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		crop.PlotID, crop.Length, crop.Width, nullTime(crop.ExpectedHarvestDate), crop.CropType, crop.Status,
		crop.PlantingDate, nullFloat64(crop.ExpectedYield), nullFloat64(crop.ActualYield), crop.Notes,
		nullInt64(crop.UserID), time.Now(),
	).Scan(&crop.ID, &crop.CreatedAt, &crop.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, "creating crop")
	}
	crop.Decorate()
	return crop, nil
}

func (r *cropRepository) GetCropByID(ctx context.Context, id int64) (*models.Crop, error) {
	query := `SELECT ` + cropColumns + `, u.username
	          FROM crops c
	          LEFT JOIN users u ON u.id = c.user_id
	          WHERE c.id = $1`
	var username sql.NullString
	crop, err := scanCrop(r.db.QueryRowContext(ctx, query, id), &username)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting crop %d", id))
	}
	crop.AssignedUsername = stringPtr(username)
	crop.Decorate()
	return crop, nil
}

func (r *cropRepository) ListCrops(ctx context.Context) ([]models.Crop, error) {
	query := `SELECT ` + cropColumns + `, u.username
	          FROM crops c
	          LEFT JOIN users u ON u.id = c.user_id
	          ORDER BY c.planting_date DESC`
	return r.queryCrops(ctx, "querying crops", query)
}

// ListCropsByStatus returns crops whose status is in statuses, ordered by plot id.
func (r *cropRepository) ListCropsByStatus(ctx context.Context, statuses []string) ([]models.Crop, error) {
	query := `SELECT ` + cropColumns + `, u.username
	          FROM crops c
	          LEFT JOIN users u ON u.id = c.user_id
	          WHERE c.status = ANY($1)
	          ORDER BY c.plot_id ASC`
	return r.queryCrops(ctx, "querying crops by status", query, pq.Array(statuses))
}

func (r *cropRepository) queryCrops(ctx context.Context, op, query string, args ...interface{}) ([]models.Crop, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, op)
	}
	defer rows.Close()

	crops := []models.Crop{}
	for rows.Next() {
		var username sql.NullString
		crop, err := scanCrop(rows, &username)
		if err != nil {
			return nil, classifyError(err, op)
		}
		crop.AssignedUsername = stringPtr(username)
		crop.Decorate()
		crops = append(crops, *crop)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, op)
	}
	return crops, nil
}

func (r *cropRepository) UpdateCrop(ctx context.Context, executor SQLExecutor, crop *models.Crop) (*models.Crop, error) {
	query := `UPDATE crops
	          SET plot_id = $1, length = $2, width = $3, expected_harvest_date = $4, crop_type = $5,
	              status = $6, planting_date = $7, expected_yield = $8, actual_yield = $9, notes = $10,
	              user_id = $11, updated_at = $12
	          WHERE id = $13
	          RETURNING created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		crop.PlotID, crop.Length, crop.Width, nullTime(crop.ExpectedHarvestDate), crop.CropType,
		crop.Status, crop.PlantingDate, nullFloat64(crop.ExpectedYield), nullFloat64(crop.ActualYield), crop.Notes,
		nullInt64(crop.UserID), time.Now(), crop.ID,
	).Scan(&crop.CreatedAt, &crop.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("updating crop %d", crop.ID))
	}
	crop.Decorate()
	return crop, nil
}

func (r *cropRepository) DeleteCrop(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM crops WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting crop %d", id))
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
