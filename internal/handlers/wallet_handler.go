package handlers

import (
	"net/http"

	"daurulang-backend/internal/dispatch"
	"daurulang-backend/internal/models"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GetMyWallet menampilkan saldo poin saat ini
func (h *Handler) GetMyWallet(c *gin.Context) {
	userID, _ := actor(c)

	wallet, err := h.Wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Dompet Saya", wallet)
}

// Withdraw menarik poin dari wallet. Langsung final: saldo berkurang
// dan tercatat di ledger dalam satu transaksi DB
func (h *Handler) Withdraw(c *gin.Context) {
	userID, roleID := actor(c)

	if !dispatch.CanPerform(roleID, dispatch.ActionWithdraw) {
		utils.APIError(c, http.StatusForbidden, "FORBIDDEN", "Role ini tidak bisa menarik poin")
		return
	}

	var input models.WithdrawInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input salah: "+err.Error())
		return
	}

	trx, err := h.Wallet.Withdraw(c.Request.Context(), userID, input.Amount)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusCreated, true, "Penarikan berhasil", trx)
}

// GetTransactions riwayat ledger milik user yang login, terbaru duluan
func (h *Handler) GetTransactions(c *gin.Context) {
	userID, _ := actor(c)

	trxs, err := h.Wallet.Transactions(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Riwayat Transaksi", trxs)
}
