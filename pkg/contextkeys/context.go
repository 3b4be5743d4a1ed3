package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ для *gorm.DB в gin.Context
	DBContextKey = contextKey("db")
	// UserContextKey - ключ для *models.User после проверки сессии
	UserContextKey = contextKey("user")
	// SessionContextKey - ключ для *models.Session текущего запроса
	SessionContextKey = contextKey("session")
	// FileSizeLimitKey - лимит одного загружаемого файла, int64
	FileSizeLimitKey = contextKey("file_size_limit")
)
