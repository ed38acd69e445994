package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixels/database"
	"pixels/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// newTestHandler builds a Handler over mtest's mock deployment. Only the
// dependencies the endpoint under test touches are wired.
func newTestHandler(mt *mtest.T) *Handler {
	return &Handler{
		DB:   &database.Mongo{Client: mt.Client, Users: mt.DB.Collection("users")},
		Auth: middleware.NewAuth("test-secret"),
		Log:  zap.NewNop().Sugar(),
	}
}

func userDoc(id primitive.ObjectID, email, passwordHash string, verified bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: email},
		{Key: "passwordHash", Value: passwordHash},
		{Key: "username", Value: "marie"},
		{Key: "isVerified", Value: verified},
		{Key: "following", Value: bson.A{}},
		{Key: "earnings", Value: int64(0)},
		{Key: "warnings", Value: 2},
	}
}

func postLogin(t *testing.T, router *gin.Engine, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(gin.H{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := primitive.NewObjectID()

	mt.Run("UnverifiedAccountIsRejected", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.POST("/api/login", h.Login)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pixels.users", mtest.FirstBatch,
			userDoc(userID, "marie@example.com", string(hash), false)))

		w := postLogin(t, router, "marie@example.com", "s3cret-pass")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Veuillez vérifier votre email")
		assert.NotContains(t, w.Body.String(), "token")
	})

	mt.Run("VerifiedAccountGetsToken", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.POST("/api/login", h.Login)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pixels.users", mtest.FirstBatch,
			userDoc(userID, "marie@example.com", string(hash), true)))

		w := postLogin(t, router, "marie@example.com", "s3cret-pass")

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Token  string `json:"token"`
			UserID string `json:"userId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, userID.Hex(), resp.UserID)

		parsed, err := h.Auth.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, userID.Hex(), parsed)
	})

	mt.Run("WrongPasswordIsUnauthorized", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.POST("/api/login", h.Login)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pixels.users", mtest.FirstBatch,
			userDoc(userID, "marie@example.com", string(hash), true)))

		w := postLogin(t, router, "marie@example.com", "wrong-pass")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	mt.Run("UnknownEmailIsUnauthorized", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.POST("/api/login", h.Login)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pixels.users", mtest.FirstBatch))

		w := postLogin(t, router, "nobody@example.com", "whatever")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetWarnings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	userID := primitive.NewObjectID()
	authed := func(c *gin.Context) { c.Set("userId", userID.Hex()) }

	mt.Run("ReturnsCounter", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.GET("/api/warnings", authed, h.GetWarnings)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "pixels.users", mtest.FirstBatch,
			userDoc(userID, "marie@example.com", "", true)))

		req := httptest.NewRequest(http.MethodGet, "/api/warnings", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"warnings": 2}`, w.Body.String())
	})

	mt.Run("MissingUserIsNotFound", func(mt *mtest.T) {
		h := newTestHandler(mt)
		router := gin.New()
		router.GET("/api/warnings", authed, h.GetWarnings)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pixels.users", mtest.FirstBatch))

		req := httptest.NewRequest(http.MethodGet, "/api/warnings", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
