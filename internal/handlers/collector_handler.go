package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"daurulang-backend/internal/dispatch"
	"daurulang-backend/internal/models"
	"daurulang-backend/internal/notify"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FindNearbyRequests mencari request PENDING di sekitar kolektor.
// Contoh URL: GET /collector/requests/nearby?lat=35.701&lng=51.401&radius=2000&limit=10
// Posisi WAJIB dari caller; server tidak pernah menebak posisi default.
func (h *Handler) FindNearbyRequests(c *gin.Context) {
	_, roleID := actor(c)

	if !dispatch.CanPerform(roleID, dispatch.ActionNearby) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Hanya kolektor yang bisa cari job")
		return
	}

	// Koordinat wajib angka valid. "abc" TIDAK boleh jatuh jadi 0:
	// itu sama saja menebak posisi kolektor di (0,0)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Koordinat (lat/lng) wajib diisi angka valid")
		return
	}

	// Radius & limit boleh kosong (pakai default), selain itu harus
	// angka; positif-tidaknya diperiksa service
	radius := 5000.0 // Default radius 5 KM
	if v := c.Query("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Radius harus angka")
			return
		}
		radius = r
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Limit harus angka")
			return
		}
		limit = n
	}

	reqs, err := h.Dispatch.FindNearby(c.Request.Context(), lat, lng, radius, limit)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Daftar Job Tersedia", reqs)
}

// ClaimRequest merebut satu request. Siapa cepat dia dapat: kalau
// keduluan kolektor lain, balasannya ALREADY_CLAIMED dan kolektor
// tinggal cari job lain
func (h *Handler) ClaimRequest(c *gin.Context) {
	userID, roleID := actor(c)
	requestID := utils.StringToUint64(c.Param("id"))

	if !dispatch.CanPerform(roleID, dispatch.ActionClaim) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Hanya kolektor yang bisa claim")
		return
	}

	req, err := h.Dispatch.Claim(c.Request.Context(), requestID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	// Kabari requester kalau jobnya sudah ada yang ambil
	go h.notifyRequester(req, "Kolektor Ditemukan!",
		"Request Anda sudah diambil kolektor. Siapkan sampahnya ya!")

	utils.APIResponse(c, http.StatusOK, true, "Request berhasil di-claim! Segera berangkat.", req)
}

// StartPickup menandai kolektor mulai jalan (ASSIGNED -> IN_PROGRESS)
func (h *Handler) StartPickup(c *gin.Context) {
	userID, roleID := actor(c)
	requestID := utils.StringToUint64(c.Param("id"))

	if !dispatch.CanPerform(roleID, dispatch.ActionStart) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Hanya kolektor yang bisa mulai pickup")
		return
	}

	req, err := h.Dispatch.Start(c.Request.Context(), requestID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Pickup dimulai", req)
}

// CompletePickup menutup request. Status jadi COMPLETED dan poin
// langsung masuk wallet requester dalam satu transaksi
func (h *Handler) CompletePickup(c *gin.Context) {
	userID, roleID := actor(c)
	requestID := utils.StringToUint64(c.Param("id"))

	if !dispatch.CanPerform(roleID, dispatch.ActionComplete) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Hanya kolektor yang bisa menyelesaikan pickup")
		return
	}

	req, amount, err := h.Dispatch.Complete(c.Request.Context(), requestID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	go h.notifyRequester(req, "Pickup Selesai!",
		fmt.Sprintf("Sampah Anda sudah dijemput. %d poin masuk ke wallet!", amount))

	utils.APIResponse(c, http.StatusOK, true, "Pickup selesai! Poin sudah dikreditkan.", gin.H{
		"request":  req,
		"credited": amount,
	})
}

// GetMyJobs daftar request yang sedang/pernah dipegang kolektor
func (h *Handler) GetMyJobs(c *gin.Context) {
	userID, _ := actor(c)

	reqs, err := h.Dispatch.ListByCollector(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Daftar Job Saya", reqs)
}

func (h *Handler) notifyRequester(req *models.PickupRequest, title, body string) {
	if req == nil {
		return
	}

	var requester models.User
	if err := h.DB.First(&requester, req.RequesterID).Error; err != nil {
		return
	}
	if requester.FCMToken == "" {
		return
	}

	h.Notifier.Submit(notify.Job{
		Token: requester.FCMToken,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"request_id": fmt.Sprintf("%d", req.ID),
			"status":     req.Status,
		},
	})
}
