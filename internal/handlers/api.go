// Package handlers exposes the telemetry engine over a small JSON API:
// login, the latest sample, the in-memory history ring, persisted snapshot
// range queries, and alert rule management.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hostpulse/internal/alerts"
	"hostpulse/internal/middleware"
	"hostpulse/internal/models"
	"hostpulse/internal/store"
	"hostpulse/internal/telemetry"
	"hostpulse/internal/utils"
)

// SnapshotRangeDefault is the query window when from/to are omitted.
const SnapshotRangeDefault = 24 * time.Hour

type API struct {
	engine    *telemetry.Engine
	snapshots *store.Store
	auth      *middleware.AuthService
	evaluator *alerts.Evaluator
	log       *utils.Logger

	adminUser string
	adminHash string
}

func NewAPI(engine *telemetry.Engine, snapshots *store.Store, auth *middleware.AuthService,
	evaluator *alerts.Evaluator, log *utils.Logger, adminUser, adminHash string) *API {
	return &API{
		engine:    engine,
		snapshots: snapshots,
		auth:      auth,
		evaluator: evaluator,
		log:       log,
		adminUser: adminUser,
		adminHash: adminHash,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) LoginPOST(c *gin.Context) {
	ip := c.ClientIP()
	if retryAfter, locked := a.auth.CheckLockout(ip); locked {
		c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed logins"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	if req.Username != a.adminUser || !a.auth.CheckPassword(req.Password, a.adminHash) {
		a.auth.RecordFailure(ip)
		a.logf("Failed login attempt for %q from %s", req.Username, ip)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := a.auth.GenerateToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	a.auth.ClearFailures(ip)
	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *API) LogoutPOST(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// StatsGET returns the latest sample.
func (a *API) StatsGET(c *gin.Context) {
	stats, ok := a.engine.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No sample available yet"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HistoryGET returns the in-memory ring for near-real-time charts.
func (a *API) HistoryGET(c *gin.Context) {
	snap := a.engine.History().Snapshot()
	if snap == nil {
		snap = []models.SystemStats{}
	}
	c.JSON(http.StatusOK, gin.H{"history": snap, "count": len(snap)})
}

// SnapshotsGET serves persisted rows for analytics charts. from/to are
// RFC3339; omitted bounds default to the trailing 24h window.
func (a *API) SnapshotsGET(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-SnapshotRangeDefault)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp, expected RFC3339"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp, expected RFC3339"})
			return
		}
		to = parsed
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'to' precedes 'from'"})
		return
	}

	rows, err := a.snapshots.Range(c.Request.Context(), from, to)
	if err != nil {
		a.logf("Snapshot range query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot query failed"})
		return
	}
	if rows == nil {
		rows = []models.Snapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": rows, "count": len(rows)})
}

// HealthGET is the unauthenticated liveness probe.
func (a *API) HealthGET(c *gin.Context) {
	resp := gin.H{"status": "ok", "sampling": a.engine.Running()}
	if stats, ok := a.engine.Latest(); ok {
		resp["health"] = stats.Health
		resp["sampled_at"] = stats.Timestamp
	}
	c.JSON(http.StatusOK, resp)
}

// RulesGET lists registered alert rules.
func (a *API) RulesGET(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": a.evaluator.Rules()})
}

// RulesPOST registers a new alert rule.
func (a *API) RulesPOST(c *gin.Context) {
	var rule alerts.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed rule payload"})
		return
	}
	added, err := a.evaluator.AddRule(rule)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.logf("Alert rule added: %s (%s %s %.2f)", added.Name, added.Metric, direction(added), added.Threshold)
	c.JSON(http.StatusCreated, added)
}

func direction(r alerts.Rule) string {
	if r.Below {
		return "<"
	}
	return ">"
}

func (a *API) logf(format string, args ...any) {
	if a.log != nil {
		a.log.Write(fmt.Sprintf(format, args...))
	}
}
