package handlers

import (
	"fmt"
	"net/http"

	"daurulang-backend/internal/dispatch"
	"daurulang-backend/internal/models"
	"daurulang-backend/internal/notify"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CreateRequest membuat pesanan penjemputan baru (status PENDING)
func (h *Handler) CreateRequest(c *gin.Context) {
	userID, roleID := actor(c)

	if !dispatch.CanPerform(roleID, dispatch.ActionCreate) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Hanya requester yang bisa membuat request")
		return
	}

	// 1. Validasi Input JSON
	var input models.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input request salah: "+err.Error())
		return
	}

	// 2. Serahkan ke service (validasi bisnis + simpan)
	req, err := h.Dispatch.CreateRequest(c.Request.Context(), userID, input)
	if err != nil {
		serviceError(c, err)
		return
	}

	// 3. Broadcast ke kolektor yang punya token FCM.
	// Pakai pool biar handler tidak nunggu FCM.
	go h.notifyCollectors(req)

	utils.APIResponse(c, http.StatusCreated, true, "Request berhasil dibuat! Menunggu kolektor.", req)
}

// GetMyRequests history request milik requester yang login
func (h *Handler) GetMyRequests(c *gin.Context) {
	userID, _ := actor(c)

	reqs, err := h.Dispatch.ListByRequester(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "History Request", reqs)
}

// GetRequestDetail detail satu request. Hanya boleh dilihat
// requester-nya, kolektor yang pegang, atau admin
func (h *Handler) GetRequestDetail(c *gin.Context) {
	userID, roleID := actor(c)
	requestID := utils.StringToUint64(c.Param("id"))

	req, err := h.Dispatch.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		serviceError(c, err)
		return
	}

	isOwner := req.RequesterID == userID
	isCollector := req.CollectorID != nil && *req.CollectorID == userID
	if !isOwner && !isCollector && roleID != models.RoleAdmin {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Request ini bukan milik Anda")
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Detail Request", req)
}

// CancelRequest membatalkan request (requester dari PENDING/ASSIGNED,
// kolektor dari ASSIGNED)
func (h *Handler) CancelRequest(c *gin.Context) {
	userID, roleID := actor(c)
	requestID := utils.StringToUint64(c.Param("id"))

	if !dispatch.CanPerform(roleID, dispatch.ActionCancel) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Role ini tidak bisa membatalkan request")
		return
	}

	req, err := h.Dispatch.Cancel(c.Request.Context(), requestID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Request dibatalkan", req)
}

// notifyCollectors broadcast job baru ke semua kolektor ber-token
func (h *Handler) notifyCollectors(req *models.PickupRequest) {
	var collectors []models.User
	h.DB.Where("role_id = ? AND fcm_token <> ''", models.RoleCollector).Find(&collectors)

	for _, col := range collectors {
		h.Notifier.Submit(notify.Job{
			Token: col.FCMToken,
			Title: "Job Baru Masuk!",
			Body:  "Ada request penjemputan baru di sekitar Anda. Cek sebelum diambil orang lain!",
			Data: map[string]string{
				"request_id": fmt.Sprintf("%d", req.ID),
				"type":       "new_request",
			},
		})
	}
}
