package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing.
var BcryptCost = 12

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	DisplayName string
	Email       string
	Password    string
	Avatar      []byte
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  int
	Offset int
}

// UpdateOptions contains options for updating a user. An empty Password keeps
// the stored hash.
type UpdateOptions struct {
	Password string
}

// EditProfileOptions contains a user's own profile edit. Changing the
// password requires the current one.
type EditProfileOptions struct {
	DisplayName     string
	Email           string
	Avatar          []byte
	CurrentPassword string
	NewPassword     string
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a plaintext password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func duplicateEmail() error {
	return errcodes.Conflict("Email already exists")
}

// Create creates a new user with an empty saved-books document.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	hashedPassword, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		DisplayName:  opts.DisplayName,
		Email:        normalizeEmail(opts.Email),
		PasswordHash: hashedPassword,
		Avatar:       opts.Avatar,
		SavedBooks:   models.SavedBooks{},
	}

	_, err = s.db.NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, duplicateEmail()
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve gets a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// List returns a paginated list of users.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// Update replaces the user's profile fields. The saved-books document is
// left alone; it is only written through the tab manager.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	user.Email = normalizeEmail(user.Email)
	user.UpdatedAt = time.Now()
	columns := []string{"display_name", "email", "avatar", "updated_at"}

	if opts.Password != "" {
		hashedPassword, err := HashPassword(opts.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hashedPassword
		columns = append(columns, "password_hash")
	}

	res, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return duplicateEmail()
		}
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

// EditProfile applies a user's own profile edit and returns the stored user.
func (s *Service) EditProfile(ctx context.Context, userID int, opts EditProfileOptions) (*models.User, error) {
	user, err := s.Retrieve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if opts.CurrentPassword != "" && !CheckPassword(opts.CurrentPassword, user.PasswordHash) {
		return nil, errcodes.BadRequest("Current password is incorrect")
	}
	if opts.NewPassword != "" && opts.CurrentPassword == "" {
		return nil, errcodes.BadRequest("Current password is required to set a new password")
	}

	user.DisplayName = opts.DisplayName
	user.Email = opts.Email
	user.Avatar = opts.Avatar
	if err := s.Update(ctx, user, UpdateOptions{Password: opts.NewPassword}); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose email and password match. Any mismatch
// yields the same bad request error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := errcodes.BadRequest("Email or password is not valid")

	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.email = ?", normalizeEmail(email)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalid
		}
		return nil, errors.WithStack(err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, invalid
	}
	return user, nil
}

// Delete removes a user. Ratings, votes and comments go with it.
func (s *Service) Delete(ctx context.Context, userID int) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
