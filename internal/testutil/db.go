package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"eva_harper_backend/internal/database"
	"eva_harper_backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter int64

// NewDB открывает изолированную in-memory SQLite базу с миграциями.
// Одно соединение: внутри транзакций используйте только tx.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name, atomic.AddInt64(&dbCounter, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "migrate")
	return db
}

// UserOptions - параметры тестового пользователя
type UserOptions struct {
	Username  string
	Email     string
	Password  string
	Role      models.UserRole
	Credits   int
	HasAccess *bool
}

// CreateUser создает пользователя с захешированным паролем
func CreateUser(t *testing.T, db *gorm.DB, opts UserOptions) *models.User {
	t.Helper()

	if opts.Password == "" {
		opts.Password = "password123"
	}
	if opts.Role == "" {
		opts.Role = models.UserRoleUser
	}
	if opts.Username == "" {
		opts.Username = strings.SplitN(opts.Email, "@", 2)[0]
	}
	hasAccess := true
	if opts.HasAccess != nil {
		hasAccess = *opts.HasAccess
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: string(hash),
		Role:         opts.Role,
		Credits:      opts.Credits,
		Subscription: models.SubscriptionFree,
		HasAccess:    hasAccess,
	}
	require.NoError(t, db.Create(user).Error, "create user %s", opts.Email)
	return user
}

// ReloadUser перечитывает пользователя из базы
func ReloadUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)
	return &user
}

func BoolPtr(b bool) *bool { return &b }
