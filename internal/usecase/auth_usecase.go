package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 12 * time.Hour

type AuthUsecase struct {
	users     repo.UserRepository
	jwtSecret []byte
	logger    *logrus.Logger
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string, logger *logrus.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Registerは管理者がスタッフアカウントを作る。
func (u *AuthUsecase) Register(ctx context.Context, adminUserID int64, in RegisterInput) (model.User, error) {
	if adminUserID <= 0 {
		return model.User{}, NewError(KindUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.User{}, NewError(KindInvalidArgument, "name required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, NewError(KindInvalidArgument, "invalid email")
	}
	if len(in.Password) < 8 {
		return model.User{}, NewError(KindInvalidArgument, "password must be at least 8 characters")
	}

	role := model.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.RoleStaff
	}
	if role != model.RoleStaff && role != model.RoleAdmin {
		return model.User{}, NewError(KindInvalidArgument, "invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 12)
	if err != nil {
		return model.User{}, NewError(KindInternal, "internal error")
	}

	now := time.Now()
	user, err := u.users.Create(ctx, model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.User{}, NewError(KindConflict, "email already registered")
	}
	if err != nil {
		return model.User{}, internalError(u.logger, "auth", "Register", err)
	}

	return user, nil
}

type LoginOutput struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginOutput{}, NewError(KindInvalidArgument, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		//存在の有無は返さない
		return LoginOutput{}, NewError(KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, internalError(u.logger, "auth", "Login", err)
	}
	if !user.IsActive {
		return LoginOutput{}, NewError(KindUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginOutput{}, NewError(KindUnauthorized, "invalid credentials")
	}

	now := time.Now()
	expiresAt := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return LoginOutput{}, NewError(KindInternal, "internal error")
	}

	//最終ログインはベストエフォート
	_ = u.users.UpdateLastLogin(ctx, user.ID, now)

	return LoginOutput{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
