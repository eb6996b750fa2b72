package http

import (
	"net/http"
	"strings"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/monitoring"
	"stagecast/pkg/errors"
	"stagecast/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RoomHandler serves the room-metadata REST surface: creation and lookup,
// passcode-gated guest tokens, cover images, background, caption and
// reaction ingestion. Live-room side effects (broadcasts) go through the
// registry; everything else is RoomStore state.
type RoomHandler struct {
	store     ports.RoomStore
	registry  *services.Registry
	auth      services.AuthService
	collector *monitoring.PrometheusCollector
}

func NewRoomHandler(
	store ports.RoomStore,
	registry *services.Registry,
	auth services.AuthService,
	collector *monitoring.PrometheusCollector,
) *RoomHandler {
	return &RoomHandler{
		store:     store,
		registry:  registry,
		auth:      auth,
		collector: collector,
	}
}

func (h *RoomHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms/:roomId", h.GetRoom)
		api.POST("/rooms/:roomId/token", h.IssueGuestToken)
		api.GET("/rooms/:roomId/capabilities", h.GetRouterCapabilities)
	}

	guarded := router.Group("/api/v1/rooms/:roomId",
		middleware.GuestAuthMiddleware(h.auth),
		middleware.RoomScopeMiddleware(),
	)
	{
		guarded.PUT("/passcode", h.SetPasscode)
		guarded.GET("/covers", h.ListCovers)
		guarded.POST("/covers", h.AddCover)
		guarded.DELETE("/covers", h.DeleteCover)
		guarded.PUT("/background", h.SetBackground)
		guarded.GET("/caption", h.GetCaption)
		guarded.PUT("/caption", h.SetCaption)
		guarded.POST("/reactions", h.AddReactions)
	}
}

type roomResponse struct {
	RoomID        domain.RoomID `json:"roomId"`
	HasPasscode   bool          `json:"hasPasscode"`
	CoverURLs     []string      `json:"coverUrls"`
	BackgroundURL string        `json:"backgroundUrl,omitempty"`
	Caption       string        `json:"caption,omitempty"`
	Live          bool          `json:"live"`
	PeerCount     int           `json:"peerCount"`
}

func (h *RoomHandler) roomResponse(record *ports.RoomRecord) roomResponse {
	resp := roomResponse{
		RoomID:        record.RoomID,
		HasPasscode:   record.PasscodeHash != "",
		CoverURLs:     record.CoverURLs,
		BackgroundURL: record.BackgroundURL,
		Caption:       record.Caption,
	}
	if resp.CoverURLs == nil {
		resp.CoverURLs = []string{}
	}
	if room, ok := h.registry.Get(record.RoomID); ok && !room.Closed() {
		resp.Live = true
		resp.PeerCount = room.PeerCount()
	}
	return resp
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		RoomID        string `json:"roomId" binding:"max=64"`
		Passcode      string `json:"passcode" binding:"max=128"`
		Caption       string `json:"caption" binding:"max=512"`
		BackgroundURL string `json:"backgroundUrl" binding:"max=2048"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		roomID = utils.GenerateRoomID()
	}

	record := &ports.RoomRecord{
		RoomID:        domain.RoomID(roomID),
		Caption:       req.Caption,
		BackgroundURL: req.BackgroundURL,
		CoverURLs:     []string{},
	}

	if req.Passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Passcode), bcrypt.DefaultCost)
		if err != nil {
			c.Error(errors.NewInternalError("failed to hash passcode"))
			return
		}
		record.PasscodeHash = string(hash)
	}

	if err := h.store.Create(c.Request.Context(), record); err != nil {
		if err == domain.ErrRoomExists {
			c.JSON(http.StatusConflict, gin.H{"error": "room already exists"})
			return
		}
		c.Error(errors.NewInternalError(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": h.roomResponse(record)})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	record, err := h.store.Get(c.Request.Context(), roomID)
	if err != nil {
		if err == domain.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.Error(errors.NewInternalError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": h.roomResponse(record)})
}

// IssueGuestToken answers the passcode challenge for a room and, on success,
// returns a room-scoped guest token plus the peer identity to connect with.
func (h *RoomHandler) IssueGuestToken(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		Passcode    string `json:"passcode" binding:"max=128"`
		PeerID      string `json:"peerId" binding:"max=64"`
		DisplayName string `json:"displayName" binding:"max=128"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	record, err := h.store.Get(c.Request.Context(), roomID)
	if err != nil {
		if err == domain.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.Error(errors.NewInternalError(err.Error()))
		return
	}

	if record.PasscodeHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(record.PasscodeHash), []byte(req.Passcode)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong passcode"})
			return
		}
	}

	peerID := strings.TrimSpace(req.PeerID)
	if peerID == "" {
		peerID = utils.GeneratePeerID()
	}

	token, err := h.auth.IssueGuestToken(roomID, domain.PeerID(peerID), req.DisplayName)
	if err != nil {
		c.Error(errors.NewInternalError("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"roomId": roomID,
		"peerId": peerID,
	})
}

func (h *RoomHandler) GetRouterCapabilities(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	room, ok := h.registry.Get(roomID)
	if !ok || room.Closed() {
		c.JSON(http.StatusNotFound, gin.H{"error": "room is not live"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"routerRtpCapabilities": room.RouterCapabilities()})
}

func (h *RoomHandler) SetPasscode(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		Passcode string `json:"passcode" binding:"max=128"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	err := h.updateRecord(c, roomID, func(record *ports.RoomRecord) error {
		if req.Passcode == "" {
			record.PasscodeHash = ""
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Passcode), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		record.PasscodeHash = string(hash)
		return nil
	})
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *RoomHandler) ListCovers(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	record, err := h.store.Get(c.Request.Context(), roomID)
	if err != nil {
		if err == domain.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.Error(errors.NewInternalError(err.Error()))
		return
	}

	covers := record.CoverURLs
	if covers == nil {
		covers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"coverUrls": covers})
}

// AddCover appends a cover image and makes it the active one; the live room,
// if any, broadcasts the change to joined peers.
func (h *RoomHandler) AddCover(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		URL string `json:"url" binding:"required,max=2048"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	err := h.updateRecord(c, roomID, func(record *ports.RoomRecord) error {
		for _, url := range record.CoverURLs {
			if url == req.URL {
				return nil
			}
		}
		record.CoverURLs = append(record.CoverURLs, req.URL)
		return nil
	})
	if err != nil {
		return
	}

	if room, ok := h.registry.Get(roomID); ok {
		room.SetCoverURL(req.URL)
	}

	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (h *RoomHandler) DeleteCover(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	url := c.Query("url")
	if url == "" {
		c.Error(errors.NewInvalidInputError("url query parameter required"))
		return
	}

	err := h.updateRecord(c, roomID, func(record *ports.RoomRecord) error {
		kept := record.CoverURLs[:0]
		for _, existing := range record.CoverURLs {
			if existing != url {
				kept = append(kept, existing)
			}
		}
		record.CoverURLs = kept
		return nil
	})
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *RoomHandler) SetBackground(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		URL string `json:"url" binding:"max=2048"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	err := h.updateRecord(c, roomID, func(record *ports.RoomRecord) error {
		record.BackgroundURL = req.URL
		return nil
	})
	if err != nil {
		return
	}

	if room, ok := h.registry.Get(roomID); ok {
		room.SetBackgroundURL(req.URL)
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *RoomHandler) GetCaption(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	// Prefer the live room's caption; fall back to the stored record.
	if room, ok := h.registry.Get(roomID); ok && !room.Closed() {
		c.JSON(http.StatusOK, gin.H{"caption": room.Caption()})
		return
	}

	record, err := h.store.Get(c.Request.Context(), roomID)
	if err != nil {
		if err == domain.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.Error(errors.NewInternalError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"caption": record.Caption})
}

func (h *RoomHandler) SetCaption(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		Caption string `json:"caption" binding:"max=512"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	err := h.updateRecord(c, roomID, func(record *ports.RoomRecord) error {
		record.Caption = req.Caption
		return nil
	})
	if err != nil {
		return
	}

	if room, ok := h.registry.Get(roomID); ok {
		room.SetCaption(req.Caption)
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// AddReactions feeds viewer reactions into the live room's aggregator. The
// aggregator batches them and broadcasts a single count per flush interval.
func (h *RoomHandler) AddReactions(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	var req struct {
		Count int `json:"count" binding:"min=1,max=1000"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	room, ok := h.registry.Get(roomID)
	if !ok || room.Closed() {
		c.JSON(http.StatusNotFound, gin.H{"error": "room is not live"})
		return
	}

	room.AddReaction(req.Count)
	if h.collector != nil {
		h.collector.RecordReactions(req.Count)
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// updateRecord loads, mutates and stores a room record, translating store
// errors into HTTP responses. Callers bail out on a non-nil return.
func (h *RoomHandler) updateRecord(c *gin.Context, roomID domain.RoomID, mutate func(*ports.RoomRecord) error) error {
	record, err := h.store.Get(c.Request.Context(), roomID)
	if err != nil {
		if err == domain.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return err
		}
		c.Error(errors.NewInternalError(err.Error()))
		return err
	}

	if err := mutate(record); err != nil {
		c.Error(errors.NewInternalError(err.Error()))
		return err
	}

	if err := h.store.Update(c.Request.Context(), record); err != nil {
		c.Error(errors.NewInternalError(err.Error()))
		return err
	}
	return nil
}
