package repositories

import (
	"errors"
	"time"

	"eva_harper_backend/internal/database"
	"eva_harper_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepository interface {
	// Поиск
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	FindByResetToken(db *gorm.DB, token string) (*models.User, error)
	UsernameExists(db *gorm.DB, username string) (bool, error)

	Create(db *gorm.DB, user *models.User) error

	// Кредиты. Все операции - атомарные UPDATE без чтения баланса.
	DebitCredits(db *gorm.DB, userID string, amount int) error
	AddCredits(db *gorm.DB, userID string, amount int) error
	GetCredits(db *gorm.DB, userID string) (int, error)

	// Установка пароля
	SetSetupToken(db *gorm.DB, userID, passwordHash, token string, expires time.Time) error
	CompleteSetup(db *gorm.DB, userID, token, passwordHash string, now time.Time) (bool, error)
	Activate(db *gorm.DB, userID, username, passwordHash string) error
	ClearExpiredSetupTokens(db *gorm.DB, now time.Time) (int64, error)

	// Профиль
	SaveOnboarding(db *gorm.DB, userID string, prefs models.UserPreferences, interests models.UserInterests) error
	UpdatePreferences(db *gorm.DB, userID string, prefs models.UserPreferences) error
	UpdateInterests(db *gorm.DB, userID string, interests models.UserInterests) error
	SetOnboardingCompleted(db *gorm.DB, userID string) error

	// Подписки
	ExpireSubscriptions(db *gorm.DB, now time.Time) (int64, error)
}

// LockedPasswordHash не совпадает ни с одним паролем
const LockedPasswordHash = "!"

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) findOne(db *gorm.DB, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	return r.findOne(db, "email = ?", email)
}

func (r *userRepository) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	return r.findOne(db, "username = ?", username)
}

func (r *userRepository) FindByResetToken(db *gorm.DB, token string) (*models.User, error) {
	return r.findOne(db, "password_reset_token = ?", token)
}

func (r *userRepository) UsernameExists(db *gorm.DB, username string) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// DebitCredits списывает amount, только если баланса хватает
func (r *userRepository) DebitCredits(db *gorm.DB, userID string, amount int) error {
	result := db.Model(&models.User{}).
		Where("id = ? AND credits >= ?", userID, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

func (r *userRepository) AddCredits(db *gorm.DB, userID string, amount int) error {
	result := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) GetCredits(db *gorm.DB, userID string) (int, error) {
	var user models.User
	if err := db.Select("credits").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Credits, nil
}

func (r *userRepository) SetSetupToken(db *gorm.DB, userID, passwordHash, token string, expires time.Time) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash":          passwordHash,
		"password_reset_token":   token,
		"password_reset_expires": expires,
		"has_access":             true,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CompleteSetup меняет пароль только при совпадении живого токена.
// false означает, что токен уже использован или истёк, и ничего не изменено.
func (r *userRepository) CompleteSetup(db *gorm.DB, userID, token, passwordHash string, now time.Time) (bool, error) {
	result := db.Model(&models.User{}).
		Where("id = ? AND password_reset_token = ? AND password_reset_expires > ?", userID, token, now).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"has_access":             true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Activate используется при регистрации одобренного email
func (r *userRepository) Activate(db *gorm.DB, userID, username, passwordHash string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"username":               username,
		"password_hash":          passwordHash,
		"has_access":             true,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return ErrUserAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearExpiredSetupTokens сбрасывает просроченные токены. Хеш токена
// заменяется на LockedPasswordHash, иначе токен остался бы паролем.
func (r *userRepository) ClearExpiredSetupTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.User{}).
		Where("password_reset_token IS NOT NULL AND password_reset_expires <= ?", now).
		Updates(map[string]interface{}{
			"password_hash":          LockedPasswordHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	return result.RowsAffected, result.Error
}

// SaveOnboarding сохраняет анкету целиком и закрывает онбординг
func (r *userRepository) SaveOnboarding(db *gorm.DB, userID string, prefs models.UserPreferences, interests models.UserInterests) error {
	return r.updateFields(db, userID, map[string]interface{}{
		"preferences":              datatypes.NewJSONType(prefs),
		"interests":                datatypes.NewJSONType(interests),
		"has_completed_onboarding": true,
	})
}

func (r *userRepository) UpdatePreferences(db *gorm.DB, userID string, prefs models.UserPreferences) error {
	return r.updateFields(db, userID, map[string]interface{}{"preferences": datatypes.NewJSONType(prefs)})
}

func (r *userRepository) UpdateInterests(db *gorm.DB, userID string, interests models.UserInterests) error {
	return r.updateFields(db, userID, map[string]interface{}{"interests": datatypes.NewJSONType(interests)})
}

func (r *userRepository) SetOnboardingCompleted(db *gorm.DB, userID string) error {
	return r.updateFields(db, userID, map[string]interface{}{"has_completed_onboarding": true})
}

func (r *userRepository) updateFields(db *gorm.DB, userID string, fields map[string]interface{}) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ExpireSubscriptions переводит истекшие платные подписки на free
func (r *userRepository) ExpireSubscriptions(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.User{}).
		Where("subscription <> ? AND subscription_ends IS NOT NULL AND subscription_ends < ?", models.SubscriptionFree, now).
		Updates(map[string]interface{}{
			"subscription":      models.SubscriptionFree,
			"subscription_ends": nil,
		})
	return result.RowsAffected, result.Error
}
