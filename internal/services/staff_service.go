package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

const (
	defaultStaffPosition = "Staff"
	maxSalary            = 100000
)

var (
	icNumberPattern = regexp.MustCompile(`^\d{6}[\s-]?\d{2}[\s-]?\d{4}$`)
	phonePattern    = regexp.MustCompile(`^(\+?6?01[0-9][\s-]?\d{3}[\s-]?\d{4}|\+?6?0[2-9][\s-]?\d{3}[\s-]?\d{4})$`)
)

// --- DTOs ---

type CreateStaffRequest struct {
	Name     string        `json:"name"`
	IDNumber string        `json:"idNumber"`
	Gender   string        `json:"gender"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Salary   *float64      `json:"salary"`
	Status   models.Status `json:"status"`
	JoinDate string        `json:"joinDate"`
	UserID   *int64        `json:"userId"`
}

type UpdateStaffRequest struct {
	StaffID  string        `json:"staffId"`
	Name     string        `json:"name"`
	IDNumber string        `json:"idNumber"`
	Gender   string        `json:"gender"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Position string        `json:"position"`
	Salary   *float64      `json:"salary"`
	Status   models.Status `json:"status"`
	JoinDate string        `json:"joinDate"`
}

// --- StaffService Interface ---
type StaffService interface {
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaff(ctx context.Context, id int64) (*models.Staff, error)
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.Staff, error)
	UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest) (*models.Staff, error)
	DeleteStaff(ctx context.Context, id int64) error
}

type staffService struct {
	staffRepo repositories.StaffRepository
	userRepo  repositories.UserRepository
	db        repositories.SQLExecutor
	now       func() time.Time
	newID     func(time.Time) string
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(staffRepo repositories.StaffRepository, userRepo repositories.UserRepository, db repositories.SQLExecutor) StaffService {
	return &staffService{
		staffRepo: staffRepo,
		userRepo:  userRepo,
		db:        db,
		now:       time.Now,
		newID:     generateStaffID,
	}
}

// generateStaffID returns STF followed by the unix millisecond timestamp and four random digits.
func generateStaffID(at time.Time) string {
	return fmt.Sprintf("STF%d%04d", at.UnixMilli(), rand.IntN(10000))
}

func (s *staffService) validateCreate(req CreateStaffRequest) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", req.Name}, {"idNumber", req.IDNumber}, {"gender", req.Gender},
		{"email", req.Email}, {"phone", req.Phone},
	} {
		if utils.IsEmpty(f.value) {
			missing = append(missing, f.name)
		}
	}
	if req.Salary == nil {
		missing = append(missing, "salary")
	}
	if len(missing) > 0 {
		return &Error{
			Kind:    KindValidation,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
			Field:   missing[0],
		}
	}

	if len(strings.TrimSpace(req.Name)) < 2 {
		return validationError("name", "Name must be at least 2 characters")
	}
	if !icNumberPattern.MatchString(strings.ReplaceAll(req.IDNumber, " ", "")) {
		return validationError("idNumber", "Invalid IC number format, e.g. 900101-01-1234")
	}
	if !phonePattern.MatchString(strings.ReplaceAll(req.Phone, " ", "")) {
		return validationError("phone", "Invalid phone number format, e.g. 013-1234567")
	}
	if req.Gender != models.GenderMale && req.Gender != models.GenderFemale {
		return validationError("gender", "Gender must be Lelaki or Perempuan")
	}
	if err := validateSalary(*req.Salary); err != nil {
		return err
	}
	if !utils.IsValidEmail(req.Email) {
		return validationError("email", "Invalid email format")
	}
	if req.Status != "" && !req.Status.Valid() {
		return validationError("status", "Status must be active or inactive")
	}
	return nil
}

func validateSalary(salary float64) error {
	if salary < 0 {
		return validationError("salary", "Salary must be a positive number")
	}
	if salary > maxSalary {
		return validationError("salary", "Salary cannot exceed RM 100,000")
	}
	return nil
}

func (s *staffService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.staffRepo.ListStaff(ctx)
	if err != nil {
		return nil, internalError("StaffService.ListStaff", err)
	}
	return staff, nil
}

func (s *staffService) GetStaff(ctx context.Context, id int64) (*models.Staff, error) {
	staff, err := s.staffRepo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fromRepository("StaffService.GetStaff", err, newError(KindNotFound, "Staff not found", ErrStaffNotFound))
	}
	return staff, nil
}

// CreateStaff validates and normalises the profile, then inserts it with a generated staff id.
func (s *staffService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.Staff, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	now := s.now()
	joinDate := now
	if req.JoinDate != "" {
		parsed, err := parseDate(req.JoinDate)
		if err != nil {
			return nil, validationError("joinDate", "Invalid join date")
		}
		if parsed.After(now.AddDate(1, 0, 0)) {
			return nil, validationError("joinDate", "Join date cannot be more than one year from now")
		}
		joinDate = parsed
	}

	if req.UserID != nil {
		if _, err := s.userRepo.FindUserByID(ctx, *req.UserID); err != nil {
			return nil, fromRepository("StaffService.CreateStaff: checking user", err,
				&Error{Kind: KindValidation, Message: "Selected user does not exist", Field: "userId", Err: ErrUserNotFound})
		}
		_, err := s.staffRepo.GetStaffByUserID(ctx, s.db, *req.UserID)
		if err == nil {
			return nil, &Error{Kind: KindConflict, Message: "User already has a staff record", Field: "userId", Err: ErrUserHasStaff}
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, internalError("StaffService.CreateStaff: checking existing staff", err)
		}
	}

	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	staff := &models.Staff{
		StaffID:  s.newID(now),
		Name:     strings.TrimSpace(req.Name),
		IDNumber: utils.StripSeparators(req.IDNumber),
		Gender:   req.Gender,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    utils.StripSeparators(req.Phone),
		Position: defaultStaffPosition,
		Salary:   *req.Salary,
		Status:   status,
		JoinDate: joinDate,
		UserID:   req.UserID,
	}

	created, err := s.staffRepo.CreateStaff(ctx, s.db, staff)
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, &Error{Kind: KindValidation, Message: "Selected user does not exist", Field: "userId", Err: err}
		}
		return nil, fromRepository("StaffService.CreateStaff", err, nil)
	}
	utils.LogInfo("Staff created", map[string]interface{}{"staff_id": created.StaffID, "user_id": created.UserID})
	return created, nil
}

// UpdateStaff replaces the profile fields. The linked user is left unchanged.
func (s *staffService) UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest) (*models.Staff, error) {
	if utils.IsEmpty(req.StaffID) || utils.IsEmpty(req.Name) || utils.IsEmpty(req.IDNumber) ||
		utils.IsEmpty(req.Email) || utils.IsEmpty(req.Position) || req.Salary == nil {
		return nil, validationError("", "Incomplete staff information")
	}
	if err := validateSalary(*req.Salary); err != nil {
		return nil, err
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, validationError("email", "Invalid email format")
	}

	existing, err := s.staffRepo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fromRepository("StaffService.UpdateStaff", err, newError(KindNotFound, "Staff not found", ErrStaffNotFound))
	}

	existing.StaffID = req.StaffID
	existing.Name = strings.TrimSpace(req.Name)
	existing.IDNumber = utils.StripSeparators(req.IDNumber)
	existing.Email = strings.ToLower(strings.TrimSpace(req.Email))
	existing.Position = req.Position
	existing.Salary = *req.Salary
	if req.Gender != "" {
		existing.Gender = req.Gender
	}
	if req.Phone != "" {
		existing.Phone = utils.StripSeparators(req.Phone)
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, validationError("status", "Status must be active or inactive")
		}
		existing.Status = req.Status
	}
	if req.JoinDate != "" {
		if existing.JoinDate, err = parseDate(req.JoinDate); err != nil {
			return nil, validationError("joinDate", "Invalid join date")
		}
	}

	updated, err := s.staffRepo.UpdateStaff(ctx, s.db, existing)
	if err != nil {
		return nil, fromRepository("StaffService.UpdateStaff", err, newError(KindNotFound, "Staff not found", ErrStaffNotFound))
	}
	return updated, nil
}

func (s *staffService) DeleteStaff(ctx context.Context, id int64) error {
	err := s.staffRepo.DeleteStaff(ctx, s.db, id)
	switch {
	case err == nil:
		utils.LogInfo("Staff deleted", map[string]interface{}{"id": id})
		return nil
	case errors.Is(err, repositories.ErrForeignKey):
		return newError(KindConflict, "Staff cannot be deleted while related records exist", ErrStaffInUse)
	default:
		return fromRepository("StaffService.DeleteStaff", err, newError(KindNotFound, "Staff not found", ErrStaffNotFound))
	}
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
