package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const minPasswordLength = 6

// --- DTOs ---

type CreateUserRequest struct {
	Username string        `json:"username" binding:"required"`
	Email    string        `json:"email" binding:"required"`
	Password string        `json:"password" binding:"required"`
	Role     models.Role   `json:"role" binding:"required"`
	Status   models.Status `json:"status"`
}

// StaffDataRequest is the optional staff profile carried by a user update.
type StaffDataRequest struct {
	StaffID  string        `json:"staffId"`
	Name     string        `json:"name"`
	IDNumber string        `json:"idNumber"`
	Gender   string        `json:"gender"`
	Phone    string        `json:"phone"`
	Position string        `json:"position"`
	Salary   *float64      `json:"salary"`
	Status   models.Status `json:"status"`
	JoinDate string        `json:"joinDate"`
}

type UpdateUserRequest struct {
	Username  string            `json:"username" binding:"required"`
	Email     string            `json:"email" binding:"required"`
	Role      models.Role       `json:"role" binding:"required"`
	Status    models.Status     `json:"status"`
	Password  string            `json:"password"`
	StaffData *StaffDataRequest `json:"staffData"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

// --- UserService Interface ---
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, userID int64, req UpdateUserRequest) (*models.User, error)
	ToggleStatus(ctx context.Context, userID int64) (*models.User, error)
	ResetPassword(ctx context.Context, userID int64, req ResetPasswordRequest) error
	ListUnassignedStaff(ctx context.Context) ([]models.Staff, error)
	ListUsersWithoutStaff(ctx context.Context) ([]models.User, error)
	ListAssignableUsers(ctx context.Context) ([]models.AssignableUser, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	staffRepo repositories.StaffRepository
	db        repositories.SQLExecutor
	tx        repositories.Transactor
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo repositories.UserRepository, staffRepo repositories.StaffRepository, db repositories.SQLExecutor, tx repositories.Transactor) UserService {
	return &userService{userRepo: userRepo, staffRepo: staffRepo, db: db, tx: tx}
}

func validateAccountFields(username, email string, role models.Role) error {
	if len(strings.TrimSpace(username)) < 3 {
		return validationError("username", "Username must be at least 3 characters")
	}
	if !usernamePattern.MatchString(username) {
		return validationError("username", "Username may only contain letters, numbers and underscores")
	}
	if !utils.IsValidEmail(email) {
		return validationError("email", "Invalid email format")
	}
	if !role.Valid() {
		return validationError("role", "Role must be one of admin, staff or worker")
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListUsersWithStaff(ctx)
	if err != nil {
		return nil, internalError("UserService.ListUsers", err)
	}
	return users, nil
}

// CreateUser registers an account only; staff profiles are linked separately.
func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := validateAccountFields(req.Username, req.Email, req.Role); err != nil {
		return nil, err
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return nil, validationError("password", "Password must be at least 6 characters")
	}
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if !status.Valid() {
		return nil, validationError("status", "Status must be active or inactive")
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, internalError("UserService.CreateUser: hashing password", err)
	}

	user := &models.User{Username: req.Username, Email: req.Email, Role: req.Role, Status: status}
	created, err := s.userRepo.CreateUser(ctx, s.db, user, hashedPassword)
	if err != nil {
		return nil, fromRepository("UserService.CreateUser", err, nil)
	}
	utils.LogInfo("User created", map[string]interface{}{"user_id": created.ID, "role": created.Role})
	return created, nil
}

// UpdateUser edits the account and, for staff and worker roles, its staff profile in one transaction.
func (s *userService) UpdateUser(ctx context.Context, userID int64, req UpdateUserRequest) (*models.User, error) {
	if err := validateAccountFields(req.Username, req.Email, req.Role); err != nil {
		return nil, err
	}
	if err := validateStaffData(req.StaffData); err != nil {
		return nil, err
	}
	var newHash *string
	if strings.TrimSpace(req.Password) != "" {
		if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
			return nil, validationError("password", "Password must be at least 6 characters")
		}
		hashed, err := hashPassword(req.Password)
		if err != nil {
			return nil, internalError("UserService.UpdateUser: hashing password", err)
		}
		newHash = &hashed
	}

	existing, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fromRepository("UserService.UpdateUser", err, newError(KindNotFound, "User not found", ErrUserNotFound))
	}
	status := req.Status
	if status == "" {
		status = existing.Status
	}
	if !status.Valid() {
		return nil, validationError("status", "Status must be active or inactive")
	}

	user := &models.User{ID: userID, Username: req.Username, Email: req.Email, Role: req.Role, Status: status}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.UpdateUser(ctx, exec, user, newHash); err != nil {
			return err
		}
		if req.StaffData == nil || (req.Role != models.RoleStaff && req.Role != models.RoleWorker) {
			return nil
		}
		return s.upsertLinkedStaff(ctx, exec, user, req.StaffData)
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, fromRepository("UserService.UpdateUser", err, newError(KindNotFound, "User not found", ErrUserNotFound))
	}

	if staff, err := s.staffRepo.GetStaffByUserID(ctx, s.db, userID); err == nil {
		user.Staff = staff
	}
	return user, nil
}

// validateStaffData checks the optional staff profile before anything is written.
func validateStaffData(data *StaffDataRequest) error {
	if data == nil {
		return nil
	}
	if data.Status != "" && !data.Status.Valid() {
		return validationError("status", "Staff status must be active or inactive")
	}
	if data.Salary != nil {
		return validateSalary(*data.Salary)
	}
	return nil
}

// upsertLinkedStaff updates the user's staff record, or creates one when the
// identifying fields are all present. The staff email always follows the account.
func (s *userService) upsertLinkedStaff(ctx context.Context, exec repositories.SQLExecutor, user *models.User, data *StaffDataRequest) error {
	staff, err := s.staffRepo.GetStaffByUserID(ctx, exec, user.ID)
	switch {
	case err == nil:
		if data.Name != "" {
			staff.Name = data.Name
		}
		if data.IDNumber != "" {
			staff.IDNumber = utils.StripSeparators(data.IDNumber)
		}
		if data.Gender != "" {
			staff.Gender = data.Gender
		}
		if data.Phone != "" {
			staff.Phone = utils.StripSeparators(data.Phone)
		}
		if data.Position != "" {
			staff.Position = data.Position
		}
		if data.Salary != nil {
			staff.Salary = *data.Salary
		}
		if data.Status != "" {
			staff.Status = data.Status
		}
		if data.JoinDate != "" {
			joinDate, err := parseDate(data.JoinDate)
			if err != nil {
				return validationError("joinDate", "Invalid join date")
			}
			staff.JoinDate = joinDate
		}
		staff.Email = user.Email
		_, err = s.staffRepo.UpdateStaff(ctx, exec, staff)
		return err

	case errors.Is(err, repositories.ErrNotFound):
		if data.StaffID == "" || data.Name == "" || data.IDNumber == "" {
			return nil
		}
		joinDate := time.Now()
		if data.JoinDate != "" {
			if joinDate, err = parseDate(data.JoinDate); err != nil {
				return validationError("joinDate", "Invalid join date")
			}
		}
		staff := &models.Staff{
			StaffID:  data.StaffID,
			Name:     data.Name,
			IDNumber: utils.StripSeparators(data.IDNumber),
			Gender:   orDefault(data.Gender, "Not Specified"),
			Email:    user.Email,
			Phone:    orDefault(utils.StripSeparators(data.Phone), "Not Provided"),
			Position: orDefault(data.Position, defaultStaffPosition),
			Status:   models.Status(orDefault(string(data.Status), string(models.StatusActive))),
			JoinDate: joinDate,
			UserID:   &user.ID,
		}
		if data.Salary != nil {
			staff.Salary = *data.Salary
		}
		_, err = s.staffRepo.CreateStaff(ctx, exec, staff)
		return err

	default:
		return err
	}
}

func (s *userService) ToggleStatus(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fromRepository("UserService.ToggleStatus", err, newError(KindNotFound, "User not found", ErrUserNotFound))
	}
	next := user.Status.Toggled()
	if err := s.userRepo.SetStatus(ctx, s.db, userID, next); err != nil {
		return nil, fromRepository("UserService.ToggleStatus", err, newError(KindNotFound, "User not found", ErrUserNotFound))
	}
	user.Status = next
	utils.LogInfo("User status changed", map[string]interface{}{"user_id": userID, "status": next})
	return user, nil
}

func (s *userService) ResetPassword(ctx context.Context, userID int64, req ResetPasswordRequest) error {
	if !utils.IsValidPasswordLength(req.NewPassword, minPasswordLength) {
		return validationError("newPassword", "Password must be at least 6 characters")
	}
	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return internalError("UserService.ResetPassword: hashing password", err)
	}
	if err := s.userRepo.SetPassword(ctx, s.db, userID, hashed); err != nil {
		return fromRepository("UserService.ResetPassword", err, newError(KindNotFound, "User not found", ErrUserNotFound))
	}
	utils.LogInfo("User password reset", map[string]interface{}{"user_id": userID})
	return nil
}

func (s *userService) ListUnassignedStaff(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.staffRepo.ListUnassigned(ctx)
	if err != nil {
		return nil, internalError("UserService.ListUnassignedStaff", err)
	}
	return staff, nil
}

func (s *userService) ListUsersWithoutStaff(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListUsersWithoutStaff(ctx)
	if err != nil {
		return nil, internalError("UserService.ListUsersWithoutStaff", err)
	}
	return users, nil
}

func (s *userService) ListAssignableUsers(ctx context.Context) ([]models.AssignableUser, error) {
	users, err := s.userRepo.ListAssignableUsers(ctx)
	if err != nil {
		return nil, internalError("UserService.ListAssignableUsers", err)
	}
	return users, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
