package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

// ErrInvalidCredentials indicates a failed email/password combination.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountDisabled indicates a login against a deactivated account.
var ErrAccountDisabled = errors.New("account is deactivated")

// ErrUserExists indicates a registration with a taken email or username.
var ErrUserExists = errors.New("user with this email or username already exists")

// ErrUserNotFound indicates the requested account does not exist.
var ErrUserNotFound = errors.New("user not found")

// AuthService registers accounts and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.RegisterResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	students  repository.StudentRepository
	teachers  repository.TeacherRepository
	profiles  repository.ProfileRepository
	validator *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds the auth service.
func NewAuthService(users repository.UserRepository, students repository.StudentRepository, teachers repository.TeacherRepository, profiles repository.ProfileRepository, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		students:  students,
		teachers:  teachers,
		profiles:  profiles,
		validator: validate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.RegisterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegisterResponse{}, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, payload.Email, payload.Username)
	if err != nil {
		return dto.RegisterResponse{}, err
	}
	if exists {
		return dto.RegisterResponse{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.RegisterResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: string(hash),
		Role:         payload.Role,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Phone:        payload.Phone,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.RegisterResponse{}, err
	}

	roleCode, err := s.createRoleRecord(ctx, user, payload)
	if err != nil {
		return dto.RegisterResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return dto.RegisterResponse{
		User:     dto.NewUserResponse(user),
		RoleCode: roleCode,
	}, nil
}

func (s *authService) createRoleRecord(ctx context.Context, user models.User, payload dto.RegisterRequest) (string, error) {
	switch user.Role {
	case models.RoleStudent:
		count, err := s.students.Count(ctx)
		if err != nil {
			return "", err
		}

		grade := payload.CurrentGrade
		class := payload.CurrentClass
		if grade == "" {
			grade = "1"
		}
		if class == "" {
			class = grade + "A"
		}

		student := models.Student{
			UserID:       user.ID,
			StudentID:    s.roleCode("STU", count+1),
			CurrentGrade: grade,
			CurrentClass: class,
		}
		if err := s.students.Create(ctx, &student); err != nil {
			return "", err
		}
		return student.StudentID, nil

	case models.RoleTeacher:
		count, err := s.teachers.Count(ctx)
		if err != nil {
			return "", err
		}

		teacher := models.Teacher{
			UserID:    user.ID,
			TeacherID: s.roleCode("TCH", count+1),
		}
		if err := s.teachers.Create(ctx, &teacher); err != nil {
			return "", err
		}
		return teacher.TeacherID, nil

	case models.RoleParent:
		count, err := s.profiles.CountParents(ctx)
		if err != nil {
			return "", err
		}

		parent := models.Parent{
			UserID:   user.ID,
			ParentID: s.roleCode("PAR", count+1),
		}
		if err := s.profiles.CreateParent(ctx, &parent); err != nil {
			return "", err
		}
		return parent.ParentID, nil

	case models.RoleAdmin, models.RoleReceptionist:
		count, err := s.profiles.CountStaff(ctx)
		if err != nil {
			return "", err
		}

		prefix := "ADM"
		if user.Role == models.RoleReceptionist {
			prefix = "REC"
		}

		staff := models.StaffProfile{
			UserID:   user.ID,
			StaffID:  s.roleCode(prefix, count+1),
			Position: user.Role,
		}
		if err := s.profiles.CreateStaff(ctx, &staff); err != nil {
			return "", err
		}
		return staff.StaffID, nil
	}

	return "", nil
}

// roleCode builds codes like "STU20260001" from the current year and a
// per-role sequence.
func (s *authService) roleCode(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%d%04d", prefix, s.now().Year(), sequence)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return dto.LoginResponse{}, ErrAccountDisabled
	}

	lastLogin := s.now()
	user.LastLogin = &lastLogin
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.LoginResponse{}, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) issueToken(user models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
