package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Limit types accepted by RateLimitMiddleware.
const (
	LimitQuestion = "question"
	LimitUpload   = "upload"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	QuestionsPerMinute int           // Max questions per browser per minute
	UploadsPerHour     int           // Max uploads per browser per hour
	BurstSize          int           // Allow burst of N questions
	CleanupInterval    time.Duration // How often to clean up old entries
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	tokens := min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	return int(tokens)
}

// full reports whether the bucket has refilled completely.
func (tb *TokenBucket) full() bool {
	return tb.Remaining() >= int(tb.maxTokens)
}

// BrowserRateLimiter manages rate limits per browser session
type BrowserRateLimiter struct {
	config         RateLimiterConfig
	questionLimits map[uuid.UUID]*TokenBucket
	uploadLimits   map[uuid.UUID]*TokenBucket
	mu             sync.Mutex
	logger         *zap.Logger
	stopCleanup    chan struct{}
	stopOnce       sync.Once
}

// NewBrowserRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewBrowserRateLimiter(config RateLimiterConfig, logger *zap.Logger) *BrowserRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}

	limiter := &BrowserRateLimiter{
		config:         config,
		questionLimits: make(map[uuid.UUID]*TokenBucket),
		uploadLimits:   make(map[uuid.UUID]*TokenBucket),
		logger:         logger,
		stopCleanup:    make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (brl *BrowserRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(brl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			brl.cleanup()
		case <-brl.stopCleanup:
			return
		}
	}
}

// cleanup drops buckets that have refilled; a fresh bucket behaves the same.
func (brl *BrowserRateLimiter) cleanup() {
	brl.mu.Lock()
	defer brl.mu.Unlock()

	before := len(brl.questionLimits) + len(brl.uploadLimits)
	for id, bucket := range brl.questionLimits {
		if bucket.full() {
			delete(brl.questionLimits, id)
		}
	}
	for id, bucket := range brl.uploadLimits {
		if bucket.full() {
			delete(brl.uploadLimits, id)
		}
	}

	if dropped := before - len(brl.questionLimits) - len(brl.uploadLimits); dropped > 0 {
		brl.logger.Debug("Cleaned up rate limiter buckets", zap.Int("dropped", dropped))
	}
}

// Stop stops the cleanup routine
func (brl *BrowserRateLimiter) Stop() {
	brl.stopOnce.Do(func() { close(brl.stopCleanup) })
}

// AllowQuestion checks if a question can be asked for the given browser
func (brl *BrowserRateLimiter) AllowQuestion(browserID uuid.UUID) bool {
	brl.mu.Lock()
	bucket, exists := brl.questionLimits[browserID]
	if !exists {
		refillRate := float64(brl.config.QuestionsPerMinute) / 60.0
		bucket = NewTokenBucket(float64(brl.config.BurstSize), refillRate)
		brl.questionLimits[browserID] = bucket
	}
	brl.mu.Unlock()

	return bucket.Allow()
}

// AllowUpload checks if an upload can proceed for the given browser
func (brl *BrowserRateLimiter) AllowUpload(browserID uuid.UUID) bool {
	brl.mu.Lock()
	bucket, exists := brl.uploadLimits[browserID]
	if !exists {
		refillRate := float64(brl.config.UploadsPerHour) / 3600.0
		bucket = NewTokenBucket(float64(max(brl.config.UploadsPerHour, 1)), refillRate)
		brl.uploadLimits[browserID] = bucket
	}
	brl.mu.Unlock()

	return bucket.Allow()
}

// QuestionLimit returns remaining question tokens for a browser
func (brl *BrowserRateLimiter) QuestionLimit(browserID uuid.UUID) (remaining int, limit int) {
	brl.mu.Lock()
	bucket, exists := brl.questionLimits[browserID]
	brl.mu.Unlock()

	if !exists {
		return brl.config.BurstSize, brl.config.BurstSize
	}
	return bucket.Remaining(), brl.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware for rate limiting one kind of
// request. Rejected requests get a JSON 429.
func RateLimitMiddleware(limiter *BrowserRateLimiter, limitType string) gin.HandlerFunc {
	return rateLimit(limiter, limitType, func(c *gin.Context, limit, retryAfter int) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"limit":       limit,
			"remaining":   0,
			"retry_after": retryAfter,
		})
	})
}

// FormRateLimitMiddleware is RateLimitMiddleware for HTML form posts:
// rejected requests are handed to onLimited, which is expected to leave a
// notice and redirect, instead of a JSON body.
func FormRateLimitMiddleware(limiter *BrowserRateLimiter, limitType string, onLimited gin.HandlerFunc) gin.HandlerFunc {
	return rateLimit(limiter, limitType, func(c *gin.Context, limit, retryAfter int) {
		onLimited(c)
		c.Abort()
	})
}

func rateLimit(limiter *BrowserRateLimiter, limitType string, reject func(c *gin.Context, limit, retryAfter int)) gin.HandlerFunc {
	return func(c *gin.Context) {
		browserID, exists := BrowserSession(c)
		if !exists {
			// Session middleware should run before this
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session not initialized"})
			return
		}

		var allowed bool
		var remaining, limit int
		retryAfter := 60

		switch limitType {
		case LimitQuestion:
			allowed = limiter.AllowQuestion(browserID)
			remaining, limit = limiter.QuestionLimit(browserID)
		case LimitUpload:
			allowed = limiter.AllowUpload(browserID)
			remaining, limit = limiter.config.UploadsPerHour, limiter.config.UploadsPerHour
			retryAfter = 3600 / max(limiter.config.UploadsPerHour, 1)
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown limit type"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger, _ := c.Get("logger")
			zapLogger, _ := logger.(*zap.Logger)
			if zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("browser_session", browserID.String()),
					zap.String("limit_type", limitType),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			reject(c, limit, retryAfter)
			return
		}

		c.Next()
	}
}
