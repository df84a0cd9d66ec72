package services

import (
	"context"
	"strings"

	"supply_manager/internal/apperr"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/repository"
	"supply_manager/pkg/jwtutil"

	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	Role      models.Role     `json:"role"`
	Address   *models.Address `json:"address"`
	Phone     string          `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate holds the fields an admin may change. Nil fields are left alone.
type UserUpdate struct {
	Status  *models.UserStatus `json:"status"`
	Role    *models.Role       `json:"role"`
	Address *models.Address    `json:"address"`
	Courier *bool              `json:"courier"`
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (string, error)
	Login(ctx context.Context, input LoginInput) (string, error)
	Authenticate(ctx context.Context, token string) (policy.Principal, error)
	Me(ctx context.Context, p policy.Principal) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, password string) error
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
	GetAllUsers(ctx context.Context, p policy.Principal) ([]models.User, error)
	GetUser(ctx context.Context, p policy.Principal, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, p policy.Principal, id uint, update UserUpdate) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	signer   *jwtutil.Signer
}

func NewUserService(userRepo repository.UserRepository, signer *jwtutil.Signer) UserService {
	return &userService{userRepo: userRepo, signer: signer}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (string, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return "", apperr.Validation("Email and password are required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return "", apperr.Validation("First and last name are required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleClient
	}
	if !role.Valid() {
		return "", apperr.Validation("Invalid role")
	}
	if role == models.RoleAdmin {
		return "", apperr.Unauthorized("Cannot register as admin")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if exists {
		return "", apperr.Conflict("User already exists")
	}

	user := &models.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     input.Email,
		Role:      role,
		Status:    models.UserActive,
		Phone:     input.Phone,
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if err := s.CreateUser(ctx, user, input.Password); err != nil {
		return "", err
	}
	return s.issueToken(user)
}

func (s *userService) Login(ctx context.Context, input LoginInput) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "User"), apperr.KindNotFound) {
			return "", apperr.Validation("Invalid Credentials")
		}
		return "", apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return "", apperr.Validation("Invalid Credentials")
	}
	if user.Status != models.UserActive {
		return "", apperr.Unauthorized("Account is not active")
	}
	return s.issueToken(user)
}

// Authenticate turns a bearer token into a principal. The user must still exist and be active.
func (s *userService) Authenticate(ctx context.Context, token string) (policy.Principal, error) {
	claims, err := s.signer.ValidateToken(token)
	if err != nil {
		return policy.Principal{}, apperr.Unauthenticated("Token is not valid")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "User"), apperr.KindNotFound) {
			return policy.Principal{}, apperr.Unauthenticated("Token is not valid")
		}
		return policy.Principal{}, apperr.Internal(err)
	}
	if user.Status != models.UserActive {
		return policy.Principal{}, apperr.Unauthenticated("Account is not active")
	}

	// The stored role wins over the one in the token so role changes apply immediately.
	return policy.Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *userService) Me(ctx context.Context, p policy.Principal) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, apperr.FromStore(err, "User")
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return apperr.FromStore(err, "User")
	}
	return nil
}

// EnsureAdmin creates the admin account unless a user with that email exists.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if exists {
		return false, nil
	}

	admin := &models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Role:      models.RoleAdmin,
		Status:    models.UserActive,
	}
	if err := s.CreateUser(ctx, admin, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *userService) GetAllUsers(ctx context.Context, p policy.Principal) ([]models.User, error) {
	if err := policy.CanManageUsers(p); err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, p policy.Principal, id uint) (*models.User, error) {
	if err := policy.CanViewUser(p, id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "User")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, p policy.Principal, id uint, update UserUpdate) (*models.User, error) {
	if err := policy.CanManageUsers(p); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "User")
	}

	var columns []string
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, apperr.Validation("Invalid status")
		}
		user.Status = *update.Status
		columns = append(columns, "status")
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, apperr.Validation("Invalid role")
		}
		user.Role = *update.Role
		columns = append(columns, "role")
	}
	if update.Address != nil {
		user.Address = *update.Address
		columns = append(columns, models.AddressColumns...)
	}
	if update.Courier != nil {
		user.Courier = *update.Courier
		columns = append(columns, "courier")
	}

	if err := s.userRepo.Update(ctx, user, columns...); err != nil {
		return nil, apperr.FromStore(err, "User")
	}
	return user, nil
}

func (s *userService) issueToken(user *models.User) (string, error) {
	token, err := s.signer.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperr.Internal(err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
