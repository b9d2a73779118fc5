package postgres

import (
	"errors"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// Repository implements auth.Repository using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(username string) (string, int64, error) {
	var u userDatamodel.User
	err := r.db.Where("username = ? AND is_active = ?", username, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, auth.ErrInvalidCredentials
		}
		return "", 0, err
	}
	return u.PasswordHash, u.ID, nil
}

func (r *Repository) GetUserByID(userID int64) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.Where("id = ? AND is_active = ?", userID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	return &auth.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
	}, nil
}

func (r *Repository) CreateUser(username, email, passwordHash string) (*auth.User, error) {
	u := userDatamodel.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := r.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &auth.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
	}, nil
}

func (r *Repository) UsernameOrEmailTaken(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
