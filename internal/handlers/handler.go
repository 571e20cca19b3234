package handlers

import (
	"errors"
	"net/http"

	"daurulang-backend/internal/dispatch"
	"daurulang-backend/internal/notify"
	"daurulang-backend/internal/presence"
	"daurulang-backend/internal/wallet"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler memegang semua dependency lewat constructor, bukan global,
// biar bisa dites dengan service/store palsu
type Handler struct {
	DB       *gorm.DB
	Dispatch *dispatch.Service
	Wallet   *wallet.Service
	Hub      *presence.Hub
	Notifier *notify.Notifier
}

func New(db *gorm.DB, d *dispatch.Service, w *wallet.Service, hub *presence.Hub, n *notify.Notifier) *Handler {
	return &Handler{
		DB:       db,
		Dispatch: d,
		Wallet:   w,
		Hub:      hub,
		Notifier: n,
	}
}

// actor mengambil identitas hasil kerja AuthMiddleware.
// Service TIDAK membaca context gin sendiri: userID/roleID selalu
// dioper eksplisit sebagai parameter.
func actor(c *gin.Context) (uint64, uint) {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")
	return userID.(uint64), roleID.(uint)
}

// serviceError memetakan error bisnis ke HTTP status + kode stabil.
// Frontend tinggal switch di kodenya untuk teks lokal.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrValidation), errors.Is(err, wallet.ErrValidation):
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, dispatch.ErrNotFound):
		utils.APIError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, dispatch.ErrForbidden):
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, dispatch.ErrInvalidTransition):
		utils.APIError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, dispatch.ErrAlreadyClaimed):
		utils.APIError(c, http.StatusConflict, "ALREADY_CLAIMED", err.Error())
	case errors.Is(err, dispatch.ErrClaimIndeterminate):
		utils.APIError(c, http.StatusServiceUnavailable, "CLAIM_INDETERMINATE", err.Error())
	case errors.Is(err, dispatch.ErrSettlementFailed):
		utils.APIError(c, http.StatusInternalServerError, "SETTLEMENT_FAILED", err.Error())
	case errors.Is(err, wallet.ErrInsufficientBalance):
		utils.APIError(c, http.StatusBadRequest, "INSUFFICIENT_BALANCE", err.Error())
	default:
		utils.APIError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Terjadi kesalahan internal")
	}
}
