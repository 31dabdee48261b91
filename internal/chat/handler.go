package chat

import (
	"errors"
	"net/http"

	gigmee_errors "github.com/ensp1re/Gigmee/pkg/errors"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler serves the chat service's REST routes.
type Handler struct {
	service *MessageService
	log     *logger.Logger
}

func NewHandler(service *MessageService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the chat routes on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/message")
	{
		api.POST("", h.AddMessage)
		api.GET("/conversation/:senderUsername/:receiverUsername", h.GetConversation)
		api.GET("/conversations/:username", h.GetUserConversationList)
		api.GET("/:senderUsername/:receiverUsername", h.GetMessages)
		api.GET("/:senderUsername", h.GetUserMessages)
		api.PUT("/offer", h.UpdateOffer)
		api.PUT("/mark-as-read", h.MarkMessageAsRead)
		api.PUT("/mark-multiple-as-read", h.MarkManyMessagesAsRead)
	}
}

func (h *Handler) AddMessage(c *gin.Context) {
	var m Message
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	created, err := h.service.AddMessage(c.Request.Context(), m)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message added.", "conversationId": created.ConversationID, "messageData": created})
}

func (h *Handler) GetConversation(c *gin.Context) {
	conversations, err := h.service.GetConversation(c.Request.Context(), c.Param("senderUsername"), c.Param("receiverUsername"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat conversation", "conversations": conversations})
}

func (h *Handler) GetUserConversationList(c *gin.Context) {
	messages, err := h.service.GetUserConversationList(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation list", "conversations": messages})
}

func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.service.GetMessages(c.Request.Context(), c.Param("senderUsername"), c.Param("receiverUsername"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat messages", "messages": messages})
}

// GetUserMessages treats the single path segment as a conversation id.
func (h *Handler) GetUserMessages(c *gin.Context) {
	messages, err := h.service.GetUserMessages(c.Request.Context(), c.Param("senderUsername"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat messages", "messages": messages})
}

func (h *Handler) UpdateOffer(c *gin.Context) {
	var req struct {
		MessageID string `json:"messageId"`
		Type      string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	m, err := h.service.UpdateOffer(c.Request.Context(), req.MessageID, req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message updated", "singleMessage": m})
}

func (h *Handler) MarkMessageAsRead(c *gin.Context) {
	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	m, err := h.service.MarkMessageAsRead(c.Request.Context(), req.MessageID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read", "singleMessage": m})
}

func (h *Handler) MarkManyMessagesAsRead(c *gin.Context) {
	var req struct {
		Receiver  string `json:"receiverUsername"`
		Sender    string `json:"senderUsername"`
		MessageID string `json:"messageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	m, err := h.service.MarkManyMessagesAsRead(c.Request.Context(), req.Receiver, req.Sender, req.MessageID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "singleMessage": m})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gigmee_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, gigmee_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid input"})
	default:
		h.log.Errorf("chat: request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
