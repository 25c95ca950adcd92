package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/balaghcms/notification-service/internal/models"
	"github.com/balaghcms/notification-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const codeTTL = 5 * time.Minute

// VerificationHandler emails 6-digit login codes and checks them. Codes
// live only in redis with a 5-minute TTL and are consumed on first match.
type VerificationHandler struct {
	mailer   services.Mailer
	renderer *services.Renderer
	redis    *redis.Client
	log      *zap.Logger
}

func NewVerificationHandler(
	mailer services.Mailer,
	renderer *services.Renderer,
	redisClient *redis.Client,
	log *zap.Logger,
) *VerificationHandler {
	return &VerificationHandler{
		mailer:   mailer,
		renderer: renderer,
		redis:    redisClient,
		log:      log,
	}
}

func (v *VerificationHandler) SendVerificationCode(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	if err := v.mailer.Ready(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server configuration error",
			"details": "Email service not configured",
		})
		return
	}

	code, err := generateVerificationCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send verification code",
			"details": err.Error(),
		})
		return
	}

	key := verificationKey(req.Email)
	if err := v.redis.Set(ctx, key, code, codeTTL).Err(); err != nil {
		v.log.Error("failed to store verification code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send verification code",
			"details": err.Error(),
		})
		return
	}

	subject := fmt.Sprintf("رمز التحقق: %s - بلاغ", code)
	body := v.renderer.VerificationBody(req.UserName, code)
	if _, err := v.mailer.Send(ctx, req.Email, subject, body); err != nil {
		v.log.Error("failed to send verification code email",
			zap.String("email", req.Email),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send verification code",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Verification code sent",
		"expiresAt": time.Now().Add(codeTTL).UnixMilli(),
	})
}

func (v *VerificationHandler) VerifyCode(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email and code are required",
		})
		return
	}

	key := verificationKey(req.Email)
	stored, err := v.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Code expired or not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to verify code",
			"details": err.Error(),
		})
		return
	}
	if stored != req.Code {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid verification code",
		})
		return
	}

	v.redis.Del(ctx, key)
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Code verified",
	})
}

func verificationKey(email string) string {
	return fmt.Sprintf("verification:code:%s", email)
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
