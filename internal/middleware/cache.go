package middleware

import "github.com/gin-gonic/gin"

// NoStore keeps plans and run counters out of shared caches; they carry
// per-student records.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
