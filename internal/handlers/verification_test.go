package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/balaghcms/notification-service/internal/models"
	"github.com/balaghcms/notification-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Ready() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	args := m.Called(ctx, to, subject, html)
	return args.String(0), args.Error(1)
}

func setupVerificationRouter(handler *VerificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/notifications/send-verification-code", handler.SendVerificationCode)
	router.POST("/api/notifications/verify-code", handler.VerifyCode)
	return router
}

func post(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	encoded, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(encoded))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newVerificationHandler(t *testing.T, mailer services.Mailer) *VerificationHandler {
	renderer := services.NewRenderer("https://balagh-admin.vercel.app")
	return NewVerificationHandler(mailer, renderer, setupMockRedis(t), zap.NewNop())
}

func TestSendVerificationCode_SendsAndStoresCode(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("Ready").Return(nil)

	var sentBody string
	mailer.On("Send", mock.Anything, "admin@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentBody = args.String(3)
		}).
		Return("m-1", nil)

	handler := newVerificationHandler(t, mailer)
	router := setupVerificationRouter(handler)

	w := post(router, "/api/notifications/send-verification-code",
		models.VerificationRequest{Email: "admin@x.com", UserName: "أحمد"})

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		ExpiresAt int64  `json:"expiresAt"`
		Code      string `json:"code"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.True(t, response.Success)
	assert.Equal(t, "Verification code sent", response.Message)
	assert.NotZero(t, response.ExpiresAt)
	// the code travels only by email
	assert.Empty(t, response.Code)

	stored, err := handler.redis.Get(context.Background(), verificationKey("admin@x.com")).Result()
	assert.NoError(t, err)
	assert.Len(t, stored, 6)
	assert.Contains(t, sentBody, stored)
	mailer.AssertExpectations(t)
}

func TestSendVerificationCode_MissingEmail(t *testing.T) {
	handler := newVerificationHandler(t, new(mockMailer))
	w := post(setupVerificationRouter(handler), "/api/notifications/send-verification-code", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendVerificationCode_TransportNotConfigured(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("Ready").Return(services.ErrTransportUnavailable)

	handler := newVerificationHandler(t, mailer)
	w := post(setupVerificationRouter(handler), "/api/notifications/send-verification-code",
		models.VerificationRequest{Email: "admin@x.com"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_MatchConsumesCode(t *testing.T) {
	handler := newVerificationHandler(t, new(mockMailer))
	router := setupVerificationRouter(handler)

	handler.redis.Set(context.Background(), verificationKey("admin@x.com"), "123456", codeTTL)

	w := post(router, "/api/notifications/verify-code",
		models.VerifyCodeRequest{Email: "admin@x.com", Code: "123456"})
	assert.Equal(t, http.StatusOK, w.Code)

	// second attempt finds nothing
	w = post(router, "/api/notifications/verify-code",
		models.VerifyCodeRequest{Email: "admin@x.com", Code: "123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCode_Mismatch(t *testing.T) {
	handler := newVerificationHandler(t, new(mockMailer))
	router := setupVerificationRouter(handler)

	handler.redis.Set(context.Background(), verificationKey("admin@x.com"), "123456", codeTTL)

	w := post(router, "/api/notifications/verify-code",
		models.VerifyCodeRequest{Email: "admin@x.com", Code: "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response struct {
		Error string `json:"error"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Invalid verification code", response.Error)
}
