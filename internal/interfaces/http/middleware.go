package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	DefaultOperatorRate  = rate.Limit(5)
	DefaultOperatorBurst = 10

	// operatorIdleTTL is how long an operator's bucket survives without requests.
	operatorIdleTTL = 15 * time.Minute

	adminRole = "admin"
)

// MiddlewareConfig configures the admin API middleware.
type MiddlewareConfig struct {
	JWTSecret string
	// Origins allowed to call the API from a browser. Empty allows any origin.
	Origins []string
	// Rate and Burst bound each operator's request rate. Zero values use the defaults.
	Rate  rate.Limit
	Burst int
}

type operatorBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Middleware struct {
	jwtSecret []byte
	origins   map[string]struct{}
	limit     rate.Limit
	burst     int
	now       func() time.Time

	mu        sync.Mutex
	operators map[string]*operatorBucket
	lastSweep time.Time
}

func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	m := &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		limit:     cfg.Rate,
		burst:     cfg.Burst,
		now:       time.Now,
		operators: make(map[string]*operatorBucket),
	}
	if m.limit <= 0 {
		m.limit = DefaultOperatorRate
	}
	if m.burst <= 0 {
		m.burst = DefaultOperatorBurst
	}
	if len(cfg.Origins) > 0 {
		m.origins = make(map[string]struct{}, len(cfg.Origins))
		for _, o := range cfg.Origins {
			m.origins[strings.TrimRight(o, "/")] = struct{}{}
		}
	}
	return m
}

// AuthRequired accepts only HS256 bearer tokens issued by the login route
// for the admin role, and stores the operator name under "user_id".
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(c *gin.Context) {
		if len(m.jwtSecret) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication is not configured"})
			return
		}
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		operator, _ := claims["user_id"].(string)
		if role, _ := claims["role"].(string); operator == "" || role != adminRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator access required"})
			return
		}
		c.Set("user_id", operator)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RateLimitPerOperator gives every signed-in operator a token bucket. Web
// chat traffic is limited again per chat by the message service; this
// guards the admin routes themselves.
func (m *Middleware) RateLimitPerOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := getUserID(c)
		if operator == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Operator identity missing"})
			return
		}

		if !m.bucket(operator).Allow() {
			c.Header("Retry-After", strconv.Itoa(m.retryAfterSeconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}

func (m *Middleware) bucket(operator string) *rate.Limiter {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= operatorIdleTTL {
		for key, b := range m.operators {
			if now.Sub(b.lastSeen) >= operatorIdleTTL {
				delete(m.operators, key)
			}
		}
		m.lastSweep = now
	}

	b, ok := m.operators[operator]
	if !ok {
		b = &operatorBucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.operators[operator] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (m *Middleware) trackedOperators() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.operators)
}

func (m *Middleware) retryAfterSeconds() int {
	if m.limit == rate.Inf {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(m.limit))))
}

// CORSMiddleware answers browser preflights for the dashboard. With an origin
// allowlist, only listed origins are echoed back.
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case m.origins == nil:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			h.Add("Vary", "Origin")
			if _, ok := m.origins[strings.TrimRight(origin, "/")]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SecurityHeaders keeps browsers from framing or caching API responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}

// RequestSizeLimiter caps request bodies at maxBytes.
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
