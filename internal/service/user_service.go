package service

import (
	"context"
	"errors"

	"Lee_QnA/internal/model"
	"Lee_QnA/internal/pkg"
	"Lee_QnA/internal/repository/database"

	"gorm.io/gorm"
)

var (
	ErrUserIDTaken        = errors.New("user id already taken")
	ErrInvalidCredentials = errors.New("invalid user id or password")
)

// TokenStore 登录态，一个用户同一时刻只有一个有效 access token
type TokenStore interface {
	Add(ctx context.Context, userID uint64, token string) error
	Delete(ctx context.Context, userID uint64) error
}

type UserService struct {
	repo   *database.UserRepository
	tokens TokenStore
	issuer *pkg.TokenIssuer
}

func NewUserService(db *gorm.DB, tokens TokenStore, issuer *pkg.TokenIssuer) *UserService {
	return &UserService{
		repo:   &database.UserRepository{DB: db},
		tokens: tokens,
		issuer: issuer,
	}
}

func (s *UserService) Register(ctx context.Context, userID, password, name, email string) (*model.User, error) {
	user, err := model.NewUser(userID, password, name, email)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByUserID(ctx, user.UserID); err == nil {
		return nil, ErrUserIDTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 新的 access token 写入 redis，之前的登录随之失效
func (s *UserService) Login(ctx context.Context, userID, password string) (*pkg.Pair, *model.User, error) {
	user, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.MatchPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuer.GeneratePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.tokens.Add(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.Delete(ctx, userID)
}

// Refresh 换发的 access token 同样要登记，否则鉴权中间件不认
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	userID, pair, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Add(ctx, userID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Show 只能查看自己的资料
func (s *UserService) Show(ctx context.Context, loginID, targetID uint64) (*model.User, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.Equals(&model.User{ID: loginID}) {
		return nil, model.ErrNotOwner
	}
	return target, nil
}

func (s *UserService) Update(ctx context.Context, loginID, targetID uint64, name, email string) (*model.User, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := target.Update(&model.User{ID: loginID}, name, email); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
