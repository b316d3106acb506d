package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenExpiry = 24 * time.Hour
	CookieName  = "auth_token"

	maxAuthFailures = 5
	lockoutWindow   = 15 * time.Minute
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService issues and validates JWTs and tracks per-client auth failures
// for lockout.
type AuthService struct {
	secret      []byte
	mu          sync.Mutex
	apiFailures map[string]*apiFailure
}

type apiFailure struct {
	count        int
	lockoutUntil time.Time
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{
		secret:      []byte(secret),
		apiFailures: make(map[string]*apiFailure),
	}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (a *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (a *AuthService) GenerateToken(username string) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// RecordFailure notes a failed login for the client and reports whether the
// client is now locked out and for how long.
func (a *AuthService) RecordFailure(clientIP string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.apiFailures[clientIP]
	if f == nil {
		f = &apiFailure{}
		a.apiFailures[clientIP] = f
	}
	f.count++
	if f.count >= maxAuthFailures {
		f.lockoutUntil = time.Now().Add(lockoutWindow)
		return lockoutWindow, true
	}
	return 0, false
}

// CheckLockout reports whether the client is currently locked out.
func (a *AuthService) CheckLockout(clientIP string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.apiFailures[clientIP]
	if f == nil {
		return 0, false
	}
	if remaining := time.Until(f.lockoutUntil); remaining > 0 {
		return remaining, true
	}
	if !f.lockoutUntil.IsZero() {
		// Lockout expired; start the count fresh.
		delete(a.apiFailures, clientIP)
	}
	return 0, false
}

// ClearFailures resets the failure count after a successful login.
func (a *AuthService) ClearFailures(clientIP string) {
	a.mu.Lock()
	delete(a.apiFailures, clientIP)
	a.mu.Unlock()
}

// RequireAuth guards API routes; unauthenticated requests get JSON 401.
func (a *AuthService) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prefer Authorization header but fall back to cookie for browser requests
		tokenString := c.GetHeader("Authorization")
		if tokenString != "" {
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		} else {
			tokenString, _ = c.Cookie(CookieName)
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// SetAuthCookie installs the auth token as an HttpOnly cookie.
func SetAuthCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TokenExpiry.Seconds()),
	})
}

// ClearAuthCookie removes the auth cookie.
func ClearAuthCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
