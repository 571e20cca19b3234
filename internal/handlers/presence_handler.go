package handlers

import (
	"io"
	"net/http"
	"time"

	"daurulang-backend/internal/presence"
	"daurulang-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Lat/Lng sengaja tanpa binding "required": 0 itu koordinat sah
// (ekuator/meridian), jangkauannya dicek manual di handler
type positionInput struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Accuracy  float64    `json:"accuracy"`
	Timestamp *time.Time `json:"timestamp"`
}

// PublishLocation menerima update posisi periodik dari device.
// Fire-and-forget: hub tidak pernah nge-block, jadi update berikutnya
// tidak ketahan observer yang lemot
func (h *Handler) PublishLocation(c *gin.Context) {
	userID, _ := actor(c)

	var input positionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input posisi salah")
		return
	}
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		utils.APIError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Koordinat di luar jangkauan")
		return
	}

	ts := time.Now()
	if input.Timestamp != nil {
		ts = *input.Timestamp
	}

	h.Hub.Publish(presence.Position{
		UserID:    userID,
		Lat:       input.Lat,
		Lng:       input.Lng,
		Accuracy:  input.Accuracy,
		Timestamp: ts,
	})

	utils.APIResponse(c, http.StatusOK, true, "Posisi diterima", nil)
}

// DisconnectPresence menarik posisi user dari live map.
// Observer dikabari user-nya pergi, bukan dibiarkan lihat titik basi
func (h *Handler) DisconnectPresence(c *gin.Context) {
	userID, _ := actor(c)

	h.Hub.Depart(userID)

	utils.APIResponse(c, http.StatusOK, true, "Posisi ditarik dari peta", nil)
}

// StreamPresence stream SSE posisi semua user aktif untuk live map.
// Event "presence": {user_id, lat, lng} atau {user_id, departed:true}
func (h *Handler) StreamPresence(c *gin.Context) {
	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("presence", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
