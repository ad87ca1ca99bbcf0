// Package repotest provides an in-memory implementation of every repository
// interface, enforcing the same uniqueness and reference rules as the schema.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
)

type userRow struct {
	user models.User
	hash string
}

// Store satisfies all repository interfaces and repositories.Transactor.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]userRow
	staff      map[int64]models.Staff
	attendance map[string]models.Attendance
	crops      map[int64]models.Crop
	tasks      map[int64]models.Task
	presets    map[int64]models.PresetTask

	// ForcedError, when set, is returned by every repository call.
	ForcedError error
	// BeforeAttendanceInsert runs just before an attendance row is inserted, outside the lock.
	BeforeAttendanceInsert func()
}

var (
	_ repositories.UserRepository       = (*Store)(nil)
	_ repositories.StaffRepository      = (*Store)(nil)
	_ repositories.AttendanceRepository = (*Store)(nil)
	_ repositories.CropRepository       = (*Store)(nil)
	_ repositories.TaskRepository       = (*Store)(nil)
	_ repositories.PresetTaskRepository = (*Store)(nil)
	_ repositories.Transactor           = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users:      map[int64]userRow{},
		staff:      map[int64]models.Staff{},
		attendance: map[string]models.Attendance{},
		crops:      map[int64]models.Crop{},
		tasks:      map[int64]models.Task{},
		presets:    map[int64]models.PresetTask{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func unique(constraint string) error {
	return &repositories.UniqueViolationError{Field: repositories.FieldForConstraint(constraint), Constraint: constraint}
}

func foreignKey(constraint string) error {
	return &repositories.ForeignKeyViolationError{Constraint: constraint}
}

// WithinTx snapshots the store and restores it when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	users      map[int64]userRow
	staff      map[int64]models.Staff
	attendance map[string]models.Attendance
	crops      map[int64]models.Crop
	tasks      map[int64]models.Task
	presets    map[int64]models.PresetTask
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:      copyMap(s.users),
		staff:      copyMap(s.staff),
		attendance: copyMap(s.attendance),
		crops:      copyMap(s.crops),
		tasks:      copyMap(s.tasks),
		presets:    copyMap(s.presets),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.staff = snap.staff
	s.attendance = snap.attendance
	s.crops = snap.crops
	s.tasks = snap.tasks
	s.presets = snap.presets
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, _ repositories.SQLExecutor, user *models.User, hashedPassword string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if err := s.checkUserUnique(0, user.Username, user.Email); err != nil {
		return nil, err
	}
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	user.ID = s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Staff = nil
	s.users[user.ID] = userRow{user: stored, hash: hashedPassword}
	return user, nil
}

func (s *Store) checkUserUnique(selfID int64, username, email string) error {
	for id, row := range s.users {
		if id == selfID {
			continue
		}
		if row.user.Username == username {
			return unique("users_username_key")
		}
		if row.user.Email == email {
			return unique("users_email_key")
		}
	}
	return nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, "", s.ForcedError
	}
	for _, row := range s.users {
		if row.user.Username == username {
			u := row.user
			return &u, row.hash, nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (s *Store) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	row, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u := row.user
	return &u, nil
}

// Hash returns the stored password hash of a user.
func (s *Store) Hash(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].hash
}

func (s *Store) staffForUser(userID int64) *models.Staff {
	for _, st := range s.staff {
		if st.UserID != nil && *st.UserID == userID {
			st := st
			return &st
		}
	}
	return nil
}

func (s *Store) FindIdentityByID(ctx context.Context, userID int64) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	row, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u := row.user
	return &models.Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
		Staff:    s.staffForUser(u.ID).Summary(),
	}, nil
}

func (s *Store) ListUsersWithStaff(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.User{}
	for _, row := range s.users {
		u := row.user
		u.Staff = s.staffForUser(u.ID)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListUsersWithoutStaff(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.User{}
	for _, row := range s.users {
		u := row.user
		if u.Status != models.StatusActive || !(u.Role == models.RoleStaff || u.Role == models.RoleWorker) {
			continue
		}
		if s.staffForUser(u.ID) != nil {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListAssignableUsers(ctx context.Context) ([]models.AssignableUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.AssignableUser{}
	for _, row := range s.users {
		u := row.user
		if u.Status != models.StatusActive || !(u.Role == models.RoleStaff || u.Role == models.RoleWorker) {
			continue
		}
		au := models.AssignableUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, DisplayName: u.Username}
		if st := s.staffForUser(u.ID); st != nil {
			name, position := st.Name, st.Position
			au.StaffName, au.StaffPosition = &name, &position
			au.DisplayName = fmt.Sprintf("%s (%s)", name, u.Username)
		}
		out = append(out, au)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role > out[j].Role
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, _ repositories.SQLExecutor, user *models.User, newHashedPassword *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	row, ok := s.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := s.checkUserUnique(user.ID, user.Username, user.Email); err != nil {
		return err
	}
	row.user.Username = user.Username
	row.user.Email = user.Email
	row.user.Role = user.Role
	row.user.Status = user.Status
	row.user.UpdatedAt = time.Now()
	if newHashedPassword != nil {
		row.hash = *newHashedPassword
	}
	s.users[user.ID] = row
	user.LastLogin = row.user.LastLogin
	user.CreatedAt = row.user.CreatedAt
	user.UpdatedAt = row.user.UpdatedAt
	return nil
}

func (s *Store) mutateUser(userID int64, fn func(*userRow)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	row, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&row)
	s.users[userID] = row
	return nil
}

func (s *Store) SetStatus(ctx context.Context, _ repositories.SQLExecutor, userID int64, status models.Status) error {
	return s.mutateUser(userID, func(r *userRow) { r.user.Status = status })
}

func (s *Store) SetPassword(ctx context.Context, _ repositories.SQLExecutor, userID int64, hashedPassword string) error {
	return s.mutateUser(userID, func(r *userRow) { r.hash = hashedPassword })
}

func (s *Store) TouchLastLogin(ctx context.Context, _ repositories.SQLExecutor, userID int64, at time.Time) error {
	return s.mutateUser(userID, func(r *userRow) { r.user.LastLogin = &at })
}

// --- Staff ---

func (s *Store) checkStaffConstraints(st *models.Staff) error {
	if st.UserID != nil {
		if _, ok := s.users[*st.UserID]; !ok {
			return foreignKey("staff_user_id_fkey")
		}
	}
	for id, other := range s.staff {
		if id == st.ID {
			continue
		}
		if other.StaffID == st.StaffID {
			return unique("staff_staff_id_key")
		}
		if other.IDNumber == st.IDNumber {
			return unique("staff_id_number_key")
		}
		if st.UserID != nil && other.UserID != nil && *other.UserID == *st.UserID {
			return unique("staff_user_id_key")
		}
	}
	return nil
}

func (s *Store) CreateStaff(ctx context.Context, _ repositories.SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if err := s.checkStaffConstraints(staff); err != nil {
		return nil, err
	}
	staff.ID = s.id()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	s.staff[staff.ID] = *staff
	return staff, nil
}

func (s *Store) withAccount(st models.Staff) models.Staff {
	has := false
	st.User = nil
	if st.UserID != nil {
		if row, ok := s.users[*st.UserID]; ok {
			has = true
			st.User = &models.StaffUser{
				ID:       row.user.ID,
				Username: row.user.Username,
				Email:    row.user.Email,
				Role:     row.user.Role,
				Status:   row.user.Status,
			}
		}
	}
	st.HasUserAccount = &has
	return st
}

func (s *Store) GetStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	st, ok := s.staff[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	st = s.withAccount(st)
	return &st, nil
}

func (s *Store) GetStaffByUserID(ctx context.Context, _ repositories.SQLExecutor, userID int64) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if st := s.staffForUser(userID); st != nil {
		return st, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) ListStaff(ctx context.Context) ([]models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.Staff{}
	for _, st := range s.staff {
		out = append(out, s.withAccount(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListUnassigned(ctx context.Context) ([]models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.Staff{}
	for _, st := range s.staff {
		if st.UserID != nil || st.Status != models.StatusActive {
			continue
		}
		st.DisplayName = fmt.Sprintf("%s - %s (%s)", st.Name, st.StaffID, st.Position)
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateStaff(ctx context.Context, _ repositories.SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	existing, ok := s.staff[staff.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if err := s.checkStaffConstraints(staff); err != nil {
		return nil, err
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = time.Now()
	stored := *staff
	stored.User, stored.HasUserAccount = nil, nil
	s.staff[staff.ID] = stored
	return staff, nil
}

func (s *Store) DeleteStaff(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	if _, ok := s.staff[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, a := range s.attendance {
		if a.StaffID == id {
			return foreignKey("attendance_staff_id_fkey")
		}
	}
	delete(s.staff, id)
	return nil
}

// --- Attendance ---

func (s *Store) attendanceStaff(staffID int64, full bool) *models.AttendanceStaff {
	st, ok := s.staff[staffID]
	if !ok {
		return nil
	}
	out := &models.AttendanceStaff{ID: st.ID, StaffID: st.StaffID, Name: st.Name}
	if full {
		out.Position = st.Position
		if st.UserID != nil {
			if row, ok := s.users[*st.UserID]; ok {
				out.User = &models.AttendanceStaffUser{Username: row.user.Username, Email: row.user.Email}
			}
		}
	}
	return out
}

func (s *Store) CreateAttendance(ctx context.Context, _ repositories.SQLExecutor, attendance *models.Attendance) (*models.Attendance, error) {
	if s.BeforeAttendanceInsert != nil {
		s.BeforeAttendanceInsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if _, ok := s.staff[attendance.StaffID]; !ok {
		return nil, foreignKey("attendance_staff_id_fkey")
	}
	day := attendance.Date.Format(models.DateLayout)
	for _, a := range s.attendance {
		if a.StaffID == attendance.StaffID && a.Date.Format(models.DateLayout) == day {
			return nil, unique("attendance_staff_id_date_key")
		}
	}
	if _, ok := s.attendance[attendance.ID]; ok {
		return nil, unique("attendance_pkey")
	}
	attendance.Date, _ = time.Parse(models.DateLayout, day)
	attendance.CreatedAt = time.Now()
	attendance.UpdatedAt = attendance.CreatedAt
	stored := *attendance
	stored.Staff = nil
	s.attendance[attendance.ID] = stored
	return attendance, nil
}

func (s *Store) FindByStaffAndDate(ctx context.Context, staffID int64, date string) (*models.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	for _, a := range s.attendance {
		if a.StaffID == staffID && a.Date.Format(models.DateLayout) == date {
			a.Staff = s.attendanceStaff(staffID, false)
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) SetPunchOut(ctx context.Context, _ repositories.SQLExecutor, id string, at time.Time) (*models.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	a, ok := s.attendance[id]
	if !ok || a.PunchOutTime != nil {
		return nil, repositories.ErrStaleUpdate
	}
	if !at.After(a.PunchInTime) {
		return nil, fmt.Errorf("%w: attendance_punch_order_check", repositories.ErrDatabaseError)
	}
	a.PunchOutTime = &at
	a.UpdatedAt = time.Now()
	s.attendance[id] = a
	a.Staff = s.attendanceStaff(a.StaffID, false)
	return &a, nil
}

func (s *Store) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, 0, s.ForcedError
	}
	matched := []models.Attendance{}
	for _, a := range s.attendance {
		day := a.Date.Format(models.DateLayout)
		if filter.StartDate != nil && day < filter.StartDate.Format(models.DateLayout) {
			continue
		}
		if filter.EndDate != nil && day > filter.EndDate.Format(models.DateLayout) {
			continue
		}
		if filter.StaffID != nil && a.StaffID != *filter.StaffID {
			continue
		}
		a.Staff = s.attendanceStaff(a.StaffID, true)
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].PunchInTime.After(matched[j].PunchInTime)
	})
	total := len(matched)
	if filter.Limit > 0 {
		start := 0
		if filter.Page > 1 {
			start = (filter.Page - 1) * filter.Limit
		}
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

// --- Crops ---

func (s *Store) checkCrop(c *models.Crop) error {
	for id, other := range s.crops {
		if id != c.ID && other.PlotID == c.PlotID {
			return unique("crops_plot_id_key")
		}
	}
	if c.UserID != nil {
		if _, ok := s.users[*c.UserID]; !ok {
			return foreignKey("crops_user_id_fkey")
		}
	}
	return nil
}

func (s *Store) decorateCrop(c models.Crop) models.Crop {
	c.AssignedUsername = nil
	if c.UserID != nil {
		if row, ok := s.users[*c.UserID]; ok {
			name := row.user.Username
			c.AssignedUsername = &name
		}
	}
	c.Decorate()
	return c
}

func (s *Store) CreateCrop(ctx context.Context, _ repositories.SQLExecutor, crop *models.Crop) (*models.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if err := s.checkCrop(crop); err != nil {
		return nil, err
	}
	crop.ID = s.id()
	crop.CreatedAt = time.Now()
	crop.UpdatedAt = crop.CreatedAt
	s.crops[crop.ID] = *crop
	crop.Decorate()
	return crop, nil
}

func (s *Store) GetCropByID(ctx context.Context, id int64) (*models.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	c, ok := s.crops[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c = s.decorateCrop(c)
	return &c, nil
}

func (s *Store) ListCrops(ctx context.Context) ([]models.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.Crop{}
	for _, c := range s.crops {
		out = append(out, s.decorateCrop(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantingDate.After(out[j].PlantingDate) })
	return out, nil
}

func (s *Store) ListCropsByStatus(ctx context.Context, statuses []string) ([]models.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	allowed := map[string]bool{}
	for _, st := range statuses {
		allowed[st] = true
	}
	out := []models.Crop{}
	for _, c := range s.crops {
		if allowed[c.Status] {
			out = append(out, s.decorateCrop(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlotID < out[j].PlotID })
	return out, nil
}

func (s *Store) UpdateCrop(ctx context.Context, _ repositories.SQLExecutor, crop *models.Crop) (*models.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	existing, ok := s.crops[crop.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if err := s.checkCrop(crop); err != nil {
		return nil, err
	}
	crop.CreatedAt = existing.CreatedAt
	crop.UpdatedAt = time.Now()
	s.crops[crop.ID] = *crop
	crop.Decorate()
	return crop, nil
}

func (s *Store) DeleteCrop(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	if _, ok := s.crops[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, t := range s.tasks {
		if t.CropID != nil && *t.CropID == id {
			return foreignKey("tasks_crop_id_fkey")
		}
	}
	delete(s.crops, id)
	return nil
}

// --- Tasks ---

func (s *Store) checkTask(t *models.Task) error {
	for id, other := range s.tasks {
		if id != t.ID && other.TaskID == t.TaskID {
			return unique("tasks_task_id_key")
		}
	}
	if _, ok := s.users[t.UserID]; !ok {
		return foreignKey("tasks_user_id_fkey")
	}
	if t.CropID != nil {
		if _, ok := s.crops[*t.CropID]; !ok {
			return foreignKey("tasks_crop_id_fkey")
		}
	}
	return nil
}

func (s *Store) joinTask(t models.Task) models.Task {
	t.AssignedTo, t.Crop = nil, nil
	if row, ok := s.users[t.UserID]; ok {
		t.AssignedTo = &models.TaskAssignee{ID: row.user.ID, Username: row.user.Username}
	}
	if t.CropID != nil {
		if c, ok := s.crops[*t.CropID]; ok {
			t.Crop = &models.TaskCrop{ID: c.ID, PlotID: c.PlotID}
		}
	}
	return t
}

func (s *Store) CreateTask(ctx context.Context, _ repositories.SQLExecutor, task *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	if err := s.checkTask(task); err != nil {
		return nil, err
	}
	task.ID = s.id()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	s.tasks[task.ID] = *task
	t := s.joinTask(*task)
	return &t, nil
}

func (s *Store) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	t, ok := s.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	t = s.joinTask(t)
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, assigneeID *int64) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.Task{}
	for _, t := range s.tasks {
		if assigneeID != nil && t.UserID != *assigneeID {
			continue
		}
		out = append(out, s.joinTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (s *Store) UpdateTask(ctx context.Context, _ repositories.SQLExecutor, task *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	existing, ok := s.tasks[task.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if err := s.checkTask(task); err != nil {
		return nil, err
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	stored := *task
	stored.AssignedTo, stored.Crop = nil, nil
	s.tasks[task.ID] = stored
	t := s.joinTask(stored)
	return &t, nil
}

func (s *Store) DeleteTask(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	if _, ok := s.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// --- Preset tasks ---

func (s *Store) CreatePresetTask(ctx context.Context, _ repositories.SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	for _, p := range s.presets {
		if p.TaskID == preset.TaskID {
			return nil, unique("preset_tasks_task_id_key")
		}
	}
	preset.ID = s.id()
	preset.CreatedAt = time.Now()
	preset.UpdatedAt = preset.CreatedAt
	s.presets[preset.ID] = *preset
	return preset, nil
}

func (s *Store) GetPresetTaskByID(ctx context.Context, id int64) (*models.PresetTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	p, ok := s.presets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPresetTasks(ctx context.Context) ([]models.PresetTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	out := []models.PresetTask{}
	for _, p := range s.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) LastTaskID(ctx context.Context, _ repositories.SQLExecutor) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return "", s.ForcedError
	}
	last, lastN := "", -1
	for _, p := range s.presets {
		if !strings.HasPrefix(p.TaskID, "TSK") {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(p.TaskID, "TSK%d", &n); err != nil {
			continue
		}
		if n > lastN {
			last, lastN = p.TaskID, n
		}
	}
	return last, nil
}

func (s *Store) UpdatePresetTask(ctx context.Context, _ repositories.SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return nil, s.ForcedError
	}
	p, ok := s.presets[preset.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Name = preset.Name
	p.Description = preset.Description
	p.UpdatedAt = time.Now()
	s.presets[p.ID] = p
	return &p, nil
}

func (s *Store) DeletePresetTask(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedError != nil {
		return s.ForcedError
	}
	if _, ok := s.presets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.presets, id)
	return nil
}

// AttendanceCount reports how many attendance rows are stored.
func (s *Store) AttendanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendance)
}

// StaffCount reports how many staff rows are stored.
func (s *Store) StaffCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staff)
}
