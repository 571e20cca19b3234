package handlers

import (
	"net/http"

	"daurulang-backend/internal/models"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats ringkasan operasional untuk admin
func (h *Handler) GetDashboardStats(c *gin.Context) {
	var openRequests int64
	var ongoingRequests int64
	var completedRequests int64
	var totalCredited int64

	h.DB.Model(&models.PickupRequest{}).
		Where("status = ?", models.StatusPending).
		Count(&openRequests)

	h.DB.Model(&models.PickupRequest{}).
		Where("status IN (?, ?)", models.StatusAssigned, models.StatusInProgress).
		Count(&ongoingRequests)

	h.DB.Model(&models.PickupRequest{}).
		Where("status = ?", models.StatusCompleted).
		Count(&completedRequests)

	// Total poin yang pernah dikreditkan (Pakai COALESCE biar kalau null jadi 0)
	type result struct {
		Total int64
	}
	var res result
	h.DB.Model(&models.WalletTransaction{}).
		Where("type = ?", models.TxAddition).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&res)
	totalCredited = res.Total

	utils.APIResponse(c, http.StatusOK, true, "Data Dashboard Admin", gin.H{
		"open_requests":      openRequests,
		"ongoing_requests":   ongoingRequests,
		"completed_requests": completedRequests,
		"total_credited":     totalCredited,
	})
}

// GetMaterials daftar tarif material (publik, biar orang tau harga poin)
func (h *Handler) GetMaterials(c *gin.Context) {
	var materials []models.Material
	h.DB.Order("code asc").Find(&materials)

	utils.APIResponse(c, http.StatusOK, true, "Daftar Tarif Material", materials)
}

// UpdateMaterial mengubah tarif poin per kg sebuah material
func (h *Handler) UpdateMaterial(c *gin.Context) {
	id := c.Param("id")

	var input models.UpdateMaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input salah")
		return
	}

	var material models.Material
	if err := h.DB.First(&material, id).Error; err != nil {
		utils.APIError(c, http.StatusNotFound, "NOT_FOUND", "Material tidak ditemukan")
		return
	}

	updates := models.Material{RatePerKG: input.RatePerKG}
	if input.Name != "" {
		updates.Name = input.Name
	}
	if err := h.DB.Model(&material).Updates(updates).Error; err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal update tarif", nil)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Tarif material diupdate", material)
}
