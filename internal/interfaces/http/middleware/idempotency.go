package middleware

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"kaiapay.backend/internal/interfaces/http/response"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"

	CodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyMismatch = "IDEMPOTENCY_KEY_REUSED"
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

type storedResponse struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint"`
}

// IdempotencyMiddleware replays the stored response when a client retries a
// request with the same Idempotency-Key. A key reused for a different
// request is rejected.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID, _ := GetUserID(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s", userID, key)

		fingerprint, err := requestFingerprint(c)
		if err != nil {
			response.ErrorWithError(c, http.StatusBadRequest, "INVALID_INPUT", "request body could not be read")
			c.Abort()
			return
		}

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil:
			replayStored(c, val, fingerprint)
			return
		case !errors.Is(err, goredis.Nil):
			logger.Warn(ctx, "idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil {
			logger.Warn(ctx, "idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			response.ErrorWithError(c, http.StatusConflict, CodeIdempotencyConflict, "request already in progress")
			c.Abort()
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			// allow the client to retry
			_ = redisDel(ctx, storageKey)
			return
		}

		stored, err := json.Marshal(storedResponse{
			Status:      status,
			Body:        json.RawMessage(bodyOrNull(w.body.Bytes())),
			Fingerprint: fingerprint,
		})
		if err == nil {
			err = redisSet(ctx, storageKey, string(stored), RetentionDuration)
		}
		if err != nil {
			logger.Warn(ctx, "idempotency response not stored", zap.Error(err))
			_ = redisDel(ctx, storageKey)
		}
	}
}

func replayStored(c *gin.Context, val, fingerprint string) {
	if val == processingMarker {
		response.ErrorWithError(c, http.StatusConflict, CodeIdempotencyConflict, "request already in progress")
		c.Abort()
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		response.ErrorWithError(c, http.StatusConflict, CodeIdempotencyConflict, "stored response is unreadable")
		c.Abort()
		return
	}
	if stored.Fingerprint != fingerprint {
		response.ErrorWithError(c, http.StatusUnprocessableEntity, CodeIdempotencyMismatch,
			"idempotency key was already used for a different request")
		c.Abort()
		return
	}

	c.Header("X-Idempotency-Hit", "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
}

// requestFingerprint hashes method, path and body; the body is restored for the handler
func requestFingerprint(c *gin.Context) (string, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write([]byte(c.Request.Method))
	h.Write([]byte{0})
	h.Write([]byte(c.Request.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func bodyOrNull(b []byte) []byte {
	if len(bytes.TrimSpace(b)) == 0 {
		return []byte("null")
	}
	return b
}
