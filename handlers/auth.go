package handlers

import (
	"context"
	"net/http"
	"time"

	"pixels/auth"
	"pixels/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var existing models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}
	if err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	verification, err := auth.NewVerification(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create verification"})
		return
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Username:     req.Username,
		Phone:        req.Phone,
		Following:    []primitive.ObjectID{},

		IsVerified:          false,
		VerificationToken:   verification.Token,
		VerificationCode:    verification.Code,
		VerificationExpires: verification.ExpiresAt,

		CreatedAt: time.Now().Unix(),
		LastSeen:  time.Now().Unix(),
	}

	if _, err := h.DB.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.Mailer.SendVerificationAsync(user.Email, verification.Token, verification.Code)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Compte créé. Vérifiez votre email.",
		"userId":  user.ID.Hex(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Veuillez vérifier votre email"})
		return
	}

	token, err := h.Auth.Sign(user.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"userId":  user.ID.Hex(),
		"message": "Login successful",
	})
}

// VerifyLink handles the one-time verification link from the mail.
func (h *Handler) VerifyLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"verificationToken": token}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lien de vérification invalide ou expiré"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	verification := auth.Verification{
		Token:     user.VerificationToken,
		Code:      user.VerificationCode,
		ExpiresAt: user.VerificationExpires,
	}
	if err := verification.CheckToken(token, time.Now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lien de vérification invalide ou expiré"})
		return
	}

	if err := h.markVerified(ctx, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email vérifié avec succès"})
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyCode handles the 6-digit code path. The code is single-use: the
// first success clears the stored verification state, so a replay finds
// nothing to match and fails.
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	verification := auth.Verification{
		Token:     user.VerificationToken,
		Code:      user.VerificationCode,
		ExpiresAt: user.VerificationExpires,
	}
	if err := verification.CheckCode(req.Code, time.Now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code invalide ou expiré"})
		return
	}

	if err := h.markVerified(ctx, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email vérifié avec succès"})
}

type ResendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendCode regenerates the verification material and mails it again.
func (h *Handler) ResendCode(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if user.IsVerified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email déjà vérifié"})
		return
	}

	verification, err := auth.NewVerification(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create verification"})
		return
	}

	_, err = h.DB.Users.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"verificationToken":   verification.Token,
			"verificationCode":    verification.Code,
			"verificationExpires": verification.ExpiresAt,
		}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh verification"})
		return
	}

	h.Mailer.SendVerificationAsync(user.Email, verification.Token, verification.Code)

	c.JSON(http.StatusOK, gin.H{"message": "Code renvoyé"})
}

func (h *Handler) markVerified(ctx context.Context, userID primitive.ObjectID) error {
	_, err := h.DB.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{"isVerified": true},
			"$unset": bson.M{
				"verificationToken":   "",
				"verificationCode":    "",
				"verificationExpires": "",
			},
		},
	)
	return err
}
