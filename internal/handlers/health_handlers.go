package handlers

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/types/api/responses"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Pinger checks that the upstream node answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	node         Pinger
	chainID      *big.Int
	relayer      common.Address
	probeTimeout time.Duration
}

func NewHealthHandler(node Pinger, chainID *big.Int, relayer common.Address) *HealthHandler {
	return &HealthHandler{
		node:         node,
		chainID:      chainID,
		relayer:      relayer,
		probeTimeout: 5 * time.Second,
	}
}

type HealthResponse = responses.HealthResponse
type ReadinessResponse = responses.ReadinessResponse

// Health reports that the process is up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready reports whether the upstream node can be reached.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.probeTimeout)
	defer cancel()

	if err := h.node.Ping(ctx); err != nil {
		logger.FromContext(c.Request.Context(), logger.ComponentServer).Warn("Readiness check failed", err)
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
			Status: "unavailable",
			Error:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ReadinessResponse{
		Status:  "ok",
		ChainID: h.chainID.String(),
		Relayer: h.relayer.Hex(),
	})
}
