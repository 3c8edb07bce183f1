package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"procurement-service/internal/lane"
	"procurement-service/internal/pricing"
	"procurement-service/internal/routing"
	"procurement-service/internal/service"
	"procurement-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RateLimiter gates requests per key. Injected so handlers carry no
// process-global counter state.
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, key string) (bool, error)
}

// Handler contains HTTP handlers
type Handler struct {
	bidService    *service.BidService
	laneService   *service.LaneService
	routingEngine *routing.Engine
	limiter       RateLimiter
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	bidService *service.BidService,
	laneService *service.LaneService,
	routingEngine *routing.Engine,
	limiter RateLimiter,
) *Handler {
	return &Handler{
		bidService:    bidService,
		laneService:   laneService,
		routingEngine: routingEngine,
		limiter:       limiter,
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/bids/price", h.rateLimitMiddleware(), h.priceBid)
		v1.GET("/bids/:id", h.getBid)

		v1.GET("/lanes/:country/:category", h.getLane)
		v1.POST("/lanes/:country/:category/transitions", h.transitionLane)
		v1.GET("/lanes/:country/:category/capacity", h.laneCapacity)
		v1.GET("/lanes/:country/:category/transitions", h.laneTransitions)

		v1.GET("/routing/suppliers", h.qualifiedSuppliers)
		v1.GET("/routing/access", h.accessCheck)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// priceBid handles bid pricing requests
func (h *Handler) priceBid(c *gin.Context) {
	var req service.PriceBidRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.bidService.PriceBid(c.Request.Context(), &req)
	if err != nil {
		var verr *pricing.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Bid rejected",
				"item_index": verr.ItemIndex,
				"field":      verr.Field,
				"details":    verr.Error(),
			})
		case errors.Is(err, pricing.ErrNoItems), errors.Is(err, service.ErrUnknownTradeType):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bid rejected",
				"details": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to price bid",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getBid handles get bid by ID
func (h *Handler) getBid(c *gin.Context) {
	idStr := c.Param("id")
	bidID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bid ID",
		})
		return
	}

	bid, items, err := h.bidService.GetBid(c.Request.Context(), bidID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Bid not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bid":   bid,
		"items": items,
	})
}

// getLane handles get lane requests
func (h *Handler) getLane(c *gin.Context) {
	laneRow, err := h.laneService.GetLane(c.Request.Context(), c.Param("country"), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Lane not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, laneRow)
}

type transitionRequest struct {
	Action   string         `json:"action" binding:"required"`
	Actor    string         `json:"actor" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

var knownActors = map[lane.Actor]bool{
	lane.ActorSystem:   true,
	lane.ActorAdmin:    true,
	lane.ActorSupplier: true,
}

// transitionLane applies a lifecycle action to a lane
func (h *Handler) transitionLane(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if !knownActors[lane.Actor(req.Actor)] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown actor",
		})
		return
	}

	result, err := h.laneService.Transition(
		c.Request.Context(),
		c.Param("country"), c.Param("category"),
		lane.Action(req.Action), lane.Actor(req.Actor), req.Metadata,
	)
	if err != nil {
		var terr *lane.ErrTerminalState
		switch {
		case errors.As(err, &terr):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Lane is in a terminal state",
				"details": err.Error(),
			})
		case errors.Is(err, service.ErrActionNotAllowed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Action not allowed from current state",
				"details": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to transition lane",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// laneCapacity reports derived capacity for a lane's current demand
func (h *Handler) laneCapacity(c *gin.Context) {
	report, err := h.laneService.CapacityStatus(c.Request.Context(), c.Param("country"), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Lane not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// laneTransitions returns a lane's audit trail
func (h *Handler) laneTransitions(c *gin.Context) {
	recs, err := h.laneService.GetTransitions(c.Request.Context(), c.Param("country"), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load lane transitions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transitions": recs})
}

// qualifiedSuppliers returns the ranked routing candidates for an RFQ
func (h *Handler) qualifiedSuppliers(c *gin.Context) {
	category := c.Query("category")
	country := c.Query("country")
	if category == "" || country == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "category and country are required",
		})
		return
	}

	intentScore, err := strconv.Atoi(c.DefaultQuery("intent_score", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid intent_score",
		})
		return
	}

	results, err := h.routingEngine.QualifiedSuppliers(c.Request.Context(), category, country, intentScore)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to route RFQ",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suppliers": results})
}

// accessCheck decides whether a supplier may access an RFQ
func (h *Handler) accessCheck(c *gin.Context) {
	supplierID := c.Query("supplier_id")
	category := c.Query("category")
	country := c.Query("country")
	if supplierID == "" || category == "" || country == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "supplier_id, category and country are required",
		})
		return
	}

	intentScore, err := strconv.Atoi(c.DefaultQuery("intent_score", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid intent_score",
		})
		return
	}

	decision := h.routingEngine.CanSupplierAccessRFQ(c.Request.Context(), supplierID, category, country, intentScore)
	c.JSON(http.StatusOK, decision)
}

// rateLimitMiddleware rejects requests over the per-client budget
func (h *Handler) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil {
			c.Next()
			return
		}

		allowed, err := h.limiter.CheckAndConsume(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Rate limiting is best-effort; never block traffic on a
			// limiter backend failure.
			h.logger.Warn("Rate limiter check failed", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			util.RateLimitRejectedTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
