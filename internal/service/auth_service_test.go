package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	revoked       []string
	revokedAll    []string
	passwords     map[string]string
	auditLogs     []models.AuditLog
}

func newMockAuthUserRepo() *mockAuthUserRepo {
	return &mockAuthUserRepo{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		passwords:     make(map[string]string),
	}
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwords[id] = passwordHash
	return nil
}

func (m *mockAuthUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *mockAuthUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

type mockAuthTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (m *mockAuthTeacherRepo) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if t, ok := m.teachers[userID]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuthStudentRepo struct {
	students map[string]models.Student
}

func (m *mockAuthStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.students[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func authFixture(t *testing.T) (*AuthService, *mockAuthUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newMockAuthUserRepo()
	repo.users["user-1"] = models.User{
		ID:           "user-1",
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		FullName:     "Jane Doe",
		Role:         models.RoleTeacher,
		Active:       true,
	}
	repo.users["user-2"] = models.User{
		ID:           "user-2",
		Email:        "sam@example.com",
		PasswordHash: string(hash),
		FullName:     "Sam Student",
		Role:         models.RoleStudent,
		Active:       true,
	}

	teachers := &mockAuthTeacherRepo{teachers: map[string]models.Teacher{
		"user-1": {ID: "teacher-1", UserID: "user-1", DisplayName: "Jane Doe"},
	}}
	students := &mockAuthStudentRepo{students: map[string]models.Student{
		"user-2": {ID: "student-1", TeacherID: "teacher-1", FullName: "Sam Student"},
	}}

	svc := NewAuthService(repo, teachers, students, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tutorhive-api",
		Audience:           []string{"tutorhive"},
	})
	return svc, repo
}

func TestAuthLoginTeacher(t *testing.T) {
	svc, repo := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "teacher-1", resp.User.TeacherID)
	assert.Empty(t, resp.User.StudentID)
	assert.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "teacher-1", claims.TeacherID)
}

func TestAuthLoginStudentCarriesTenant(t *testing.T) {
	svc, _ := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "student-1", resp.User.StudentID)
	assert.Equal(t, "teacher-1", resp.User.TeacherID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.StudentID)
	assert.Equal(t, "teacher-1", claims.TeacherID)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, repo := authFixture(t)
	user := repo.users["user-1"]
	user.Active = false
	repo.users["user-1"] = user

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	svc, repo := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, repo.revoked, 1)
}

func TestAuthRefreshRejectsRevokedToken(t *testing.T) {
	svc, repo := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	stored := repo.refreshTokens[login.RefreshToken]
	stored.Revoked = true
	repo.refreshTokens[login.RefreshToken] = stored

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthChangePassword(t *testing.T) {
	svc, repo := authFixture(t)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password-1",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.passwords, "user-1")
	assert.Contains(t, repo.revokedAll, "user-1")

	err = svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-2",
	})
	require.Error(t, err)
}

func TestAuthValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)
}
