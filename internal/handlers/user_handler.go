package handlers

import (
	"net/http"

	"daurulang-backend/internal/models"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GetUserProfile mengambil data user yang sedang login
func (h *Handler) GetUserProfile(c *gin.Context) {
	userID, _ := actor(c)

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		utils.APIError(c, http.StatusNotFound, "NOT_FOUND", "User tidak ditemukan")
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Data Profile Berhasil Diambil", gin.H{
		"id":        user.ID,
		"full_name": user.FullName,
		"email":     user.Email,
		"phone":     user.Phone,
		"role_id":   user.RoleID,
	})
}

// UpdateFCMToken menyimpan token device untuk push notification
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	userID, _ := actor(c)

	var input models.FCMTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid")
		return
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("fcm_token", input.Token).Error; err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal menyimpan token", nil)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Token FCM tersimpan", nil)
}
