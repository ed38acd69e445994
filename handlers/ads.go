package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pixels/ads"
	"pixels/middleware"
	"pixels/models"
	"pixels/realtime"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// bodyTokenUser authenticates the legacy ad endpoints. Those clients put
// the JWT in the request body; headers and query are the fallback.
func (h *Handler) bodyTokenUser(c *gin.Context, bodyToken string) (primitive.ObjectID, bool) {
	token := bodyToken
	if token == "" {
		token = middleware.TokenFromRequest(c)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return primitive.NilObjectID, false
	}

	userHex, err := h.Auth.Parse(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

type CreateAdRequest struct {
	URL       string `json:"url" binding:"required"`
	AmountCFA int64  `json:"amountCFA" binding:"required"`
	Token     string `json:"token"`
}

func (h *Handler) CreateAd(c *gin.Context) {
	var req CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := h.bodyTokenUser(c, req.Token)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, ok := h.requireVerifiedUser(c, ctx, userID); !ok {
		return
	}

	ad, err := h.Ads.CreateAd(ctx, userID, req.URL, req.AmountCFA)
	if errors.Is(err, ads.ErrInvalidAmount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ad"})
		return
	}

	h.Realtime.Broadcast(realtime.EventAdUpdate, ad)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Ad created",
		"ad":      ad,
	})
}

func (h *Handler) ListActiveAds(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	active, err := h.Ads.ListActive(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ads"})
		return
	}
	if active == nil {
		active = []models.Ad{}
	}

	c.JSON(http.StatusOK, active)
}

type InteractRequest struct {
	AdID  string `json:"adId" binding:"required"`
	Type  string `json:"type" binding:"required"`
	Token string `json:"token"`
}

func (h *Handler) Interact(c *gin.Context) {
	var req InteractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := h.bodyTokenUser(c, req.Token)
	if !ok {
		return
	}

	adID, err := primitive.ObjectIDFromHex(req.AdID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ad ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, ok := h.requireVerifiedUser(c, ctx, userID); !ok {
		return
	}

	interaction, ad, err := h.Ads.RecordInteraction(ctx, userID, adID, req.Type)
	if errors.Is(err, ads.ErrBudgetExhausted) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Budget épuisé"})
		return
	}
	if errors.Is(err, ads.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		return
	}
	if err != nil {
		h.Log.Errorw("interaction failed", "adId", adID.Hex(), "userId", userID.Hex(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record interaction"})
		return
	}

	h.Realtime.EmitToUsers([]string{ad.OwnerID.Hex()}, realtime.EventAdStatsUpdate, gin.H{
		"adId":            ad.ID.Hex(),
		"remainingBudget": ad.RemainingBudget,
		"interactions":    ad.Interactions,
	})
	if ad.RemainingBudget == 0 {
		h.Realtime.Broadcast(realtime.EventAdDeleted, gin.H{"adId": ad.ID.Hex()})
		h.Push.Notify(ad.OwnerID, "Budget épuisé", "Votre annonce a dépensé tout son budget", "/dashboard")
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Interaction enregistrée",
		"reward":  interaction.Reward,
	})
}

func (h *Handler) GetDashboard(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	dashboard, err := h.Ads.GetDashboard(ctx, userID)
	if errors.Is(err, ads.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	user, err := h.getUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ads":          dashboard.Ads,
		"interactions": dashboard.Interactions,
		"earnings":     dashboard.Earnings,
		"warnings":     user.Warnings,
	})
}

func (h *Handler) GetWarnings(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.getUser(ctx, userID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"warnings": user.Warnings})
}

func (h *Handler) DeleteAd(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	adID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ad ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Ads.DeleteAd(ctx, adID, userID); errors.Is(err, ads.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ad"})
		return
	}

	h.Realtime.Broadcast(realtime.EventAdDeleted, gin.H{"adId": adID.Hex()})

	c.JSON(http.StatusOK, gin.H{"message": "Ad deleted"})
}
