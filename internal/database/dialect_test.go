package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestBuildSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:eva_harper.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", BuildSQLiteDSN(""))
	assert.Equal(t, "file:dev.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", BuildSQLiteDSN("dev.db?mode=rwc"))
	assert.Equal(t, "file:x?_pragma=foreign_keys(0)", BuildSQLiteDSN("file:x?_pragma=foreign_keys(0)"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.Error(t, err)
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	conn, err := Open(DialectSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, IsSQLite(conn))
	assert.NoError(t, Migrate(conn))
	assert.True(t, conn.Migrator().HasTable("waitlist"))
	assert.True(t, conn.Migrator().HasTable("payment_transactions"))
}
