package middleware

import "github.com/gin-gonic/gin"

// Guards - набор middleware, которые хендлеры вешают на свои маршруты
type Guards struct {
	Session    gin.HandlerFunc
	Admin      gin.HandlerFunc
	RateLimit  gin.HandlerFunc
	Upload     gin.HandlerFunc // форма с одним файлом
	UploadPair gin.HandlerFunc // форма с двумя файлами
}

// Require собирает цепочку админского маршрута: Session, Admin,
// проверка разрешения, затем handlers.
func (g *Guards) Require(permission string, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{g.Session, g.Admin, RequirePermission(permission)}
	return append(chain, handlers...)
}
