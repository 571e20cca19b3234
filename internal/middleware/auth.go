package middleware

import (
	"net/http"
	"strings"

	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware memvalidasi header "Bearer <token>" lalu menaruh
// userID (uint64) dan roleID (uint) ke context gin.
// Token tanpa claim user_id langsung ditolak, jangan sampai ada
// request jalan dengan identitas 0.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Token tidak ditemukan", nil)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Format token salah", nil)
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Token tidak valid", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Gagal memproses token", nil)
			c.Abort()
			return
		}

		// JWT menyimpan angka sebagai float64
		uid, ok := claims["user_id"].(float64)
		if !ok || uid <= 0 {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Token tidak valid", nil)
			c.Abort()
			return
		}

		var roleID uint
		if val, ok := claims["role_id"].(float64); ok {
			roleID = uint(val)
		}

		c.Set("userID", uint64(uid))
		c.Set("roleID", roleID) // Disimpan sebagai UINT

		c.Next()
	}
}

// AdminOnly: Hanya untuk Role ID 1.
// Gate role untuk aksi lifecycle (claim, complete, dst) TIDAK di
// middleware, tapi lewat dispatch.CanPerform di handler, biar
// aturannya satu pintu dan gampang dites.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, exists := c.Get("roleID")
		if !exists {
			utils.APIResponse(c, http.StatusForbidden, false, "Akses Ditolak", nil)
			c.Abort()
			return
		}

		// Di AuthMiddleware disimpan sebagai UINT
		if role := roleID.(uint); role != 1 {
			utils.APIResponse(c, http.StatusForbidden, false, "Akses Ditolak: Khusus Admin", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
