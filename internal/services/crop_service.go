package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

// --- DTOs ---

// CropRequest is the body of both create and update; every write replaces the whole plot.
type CropRequest struct {
	PlotID              string   `json:"plotId"`
	Length              *float64 `json:"length"`
	Width               *float64 `json:"width"`
	ExpectedHarvestDate *string  `json:"expectedHarvestDate"`
	Status              string   `json:"status"`
	PlantingDate        string   `json:"plantingDate"`
	ExpectedYield       *float64 `json:"expectedYield"`
	ActualYield         *float64 `json:"actualYield"`
	Notes               *string  `json:"notes"`
	UserID              *int64   `json:"userId"`
}

// --- CropService Interface ---
type CropService interface {
	ListCrops(ctx context.Context) ([]models.Crop, error)
	GetCrop(ctx context.Context, id int64) (*models.Crop, error)
	CreateCrop(ctx context.Context, req CropRequest) (*models.Crop, error)
	UpdateCrop(ctx context.Context, id int64, req CropRequest) (*models.Crop, error)
	DeleteCrop(ctx context.Context, id int64) error
	ListAssignableCrops(ctx context.Context) ([]models.PlotOption, error)
	ListAssignablePlots(ctx context.Context) ([]models.PlotOption, error)
}

type cropService struct {
	cropRepo repositories.CropRepository
	db       repositories.SQLExecutor
}

// NewCropService creates a new instance of CropService.
func NewCropService(cropRepo repositories.CropRepository, db repositories.SQLExecutor) CropService {
	return &cropService{cropRepo: cropRepo, db: db}
}

var errCropNotFound = newError(KindNotFound, "Crop plot not found", ErrCropNotFound)

func (s *cropService) ListCrops(ctx context.Context) ([]models.Crop, error) {
	crops, err := s.cropRepo.ListCrops(ctx)
	if err != nil {
		return nil, internalError("CropService.ListCrops", err)
	}
	return crops, nil
}

func (s *cropService) GetCrop(ctx context.Context, id int64) (*models.Crop, error) {
	crop, err := s.cropRepo.GetCropByID(ctx, id)
	if err != nil {
		return nil, fromRepository("CropService.GetCrop", err, errCropNotFound)
	}
	return crop, nil
}

// buildCrop validates req and converts it into a crop row. The crop type is always the farm default.
func buildCrop(req CropRequest) (*models.Crop, error) {
	if utils.IsEmpty(req.PlotID) || utils.IsEmpty(req.Status) || utils.IsEmpty(req.PlantingDate) ||
		req.Length == nil || req.Width == nil || *req.Length == 0 || *req.Width == 0 {
		return nil, validationError("", "Incomplete plot information. Plot ID, status, planting date, length and width are required.")
	}
	if *req.Length < 0 || *req.Width < 0 {
		return nil, validationError("length", "Length and width must be positive")
	}

	planted, err := parseDate(req.PlantingDate)
	if err != nil {
		return nil, validationError("plantingDate", "Invalid planting date")
	}
	var harvest *time.Time
	if req.ExpectedHarvestDate != nil && strings.TrimSpace(*req.ExpectedHarvestDate) != "" {
		t, err := parseDate(*req.ExpectedHarvestDate)
		if err != nil {
			return nil, validationError("expectedHarvestDate", "Invalid expected harvest date")
		}
		harvest = &t
	}

	return &models.Crop{
		PlotID:              strings.TrimSpace(req.PlotID),
		Length:              *req.Length,
		Width:               *req.Width,
		ExpectedHarvestDate: harvest,
		CropType:            models.DefaultCropType,
		Status:              req.Status,
		PlantingDate:        planted,
		ExpectedYield:       req.ExpectedYield,
		ActualYield:         req.ActualYield,
		Notes:               req.Notes,
		UserID:              req.UserID,
	}, nil
}

func cropWriteError(op string, err error, notFound *Error) error {
	if errors.Is(err, repositories.ErrForeignKey) {
		return &Error{Kind: KindValidation, Message: "Invalid user ID", Field: "userId", Err: err}
	}
	return fromRepository(op, err, notFound)
}

func (s *cropService) CreateCrop(ctx context.Context, req CropRequest) (*models.Crop, error) {
	crop, err := buildCrop(req)
	if err != nil {
		return nil, err
	}
	created, err := s.cropRepo.CreateCrop(ctx, s.db, crop)
	if err != nil {
		return nil, cropWriteError("CropService.CreateCrop", err, nil)
	}
	utils.LogInfo("Crop plot created", map[string]interface{}{"plot_id": created.PlotID})
	return created, nil
}

func (s *cropService) UpdateCrop(ctx context.Context, id int64, req CropRequest) (*models.Crop, error) {
	crop, err := buildCrop(req)
	if err != nil {
		return nil, err
	}
	crop.ID = id
	updated, err := s.cropRepo.UpdateCrop(ctx, s.db, crop)
	if err != nil {
		return nil, cropWriteError("CropService.UpdateCrop", err, errCropNotFound)
	}
	return updated, nil
}

func (s *cropService) DeleteCrop(ctx context.Context, id int64) error {
	err := s.cropRepo.DeleteCrop(ctx, s.db, id)
	switch {
	case err == nil:
		utils.LogInfo("Crop plot deleted", map[string]interface{}{"id": id})
		return nil
	case errors.Is(err, repositories.ErrForeignKey):
		return newError(KindConflict, "This plot cannot be deleted because it has related tasks", ErrCropInUse)
	default:
		return fromRepository("CropService.DeleteCrop", err, errCropNotFound)
	}
}

// ListAssignableCrops returns plots that can receive new tasks.
func (s *cropService) ListAssignableCrops(ctx context.Context) ([]models.PlotOption, error) {
	return s.plotOptions(ctx, "CropService.ListAssignableCrops", models.AssignableCropStatuses)
}

// ListAssignablePlots is the wider picker list, including active and finished plots.
func (s *cropService) ListAssignablePlots(ctx context.Context) ([]models.PlotOption, error) {
	return s.plotOptions(ctx, "CropService.ListAssignablePlots", models.AssignablePlotStatuses)
}

func (s *cropService) plotOptions(ctx context.Context, op string, statuses []string) ([]models.PlotOption, error) {
	crops, err := s.cropRepo.ListCropsByStatus(ctx, statuses)
	if err != nil {
		return nil, internalError(op, err)
	}
	options := make([]models.PlotOption, 0, len(crops))
	for _, c := range crops {
		options = append(options, models.NewPlotOption(c))
	}
	return options, nil
}
