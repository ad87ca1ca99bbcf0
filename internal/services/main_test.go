package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories/repotest"
	"farm_ops_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	passwordHashCost = bcrypt.MinCost
	utils.InitLoggerWithWriter("error", "json", io.Discard)
	os.Exit(m.Run())
}

func seedUser(t *testing.T, store *repotest.Store, username, password string, role models.Role, status models.Status) *models.User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := store.CreateUser(context.Background(), nil, &models.User{
		Username: username,
		Email:    username + "@farm.test",
		Role:     role,
		Status:   status,
	}, hash)
	if err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

var seedSeq int

func seedStaff(t *testing.T, store *repotest.Store, userID *int64, status models.Status) *models.Staff {
	t.Helper()
	seedSeq++
	staff, err := store.CreateStaff(context.Background(), nil, &models.Staff{
		StaffID:  fmt.Sprintf("STF%04d", seedSeq),
		Name:     fmt.Sprintf("Pekerja %d", seedSeq),
		IDNumber: fmt.Sprintf("9001010%05d", seedSeq),
		Gender:   models.GenderMale,
		Email:    fmt.Sprintf("staff%d@farm.test", seedSeq),
		Phone:    "0131234567",
		Position: "Staff",
		Status:   status,
		JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UserID:   userID,
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	return staff
}

func identityFor(t *testing.T, store *repotest.Store, userID int64) *models.Identity {
	t.Helper()
	id, err := store.FindIdentityByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("identity %d: %v", userID, err)
	}
	return id
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *services.Error of kind %s, got %v", kind, err)
	}
	if se.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, se.Kind, se.Message)
	}
	return se
}
