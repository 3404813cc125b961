package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"go.domaincheck.dev/checker/internal/engine"
)

// handler groups the engine and logger every route needs, mirroring the
// Handler-struct-plus-method-set shape used for the HTTP surface this is
// grounded on.
type handler struct {
	engine *engine.Engine
	log    logr.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// check handles POST /v1/check: a synchronous batch lookup, response
// order matching request order.
func (h *handler) check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if len(req.Domains) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "domains must not be empty"})
		return
	}

	results := h.engine.Run(c.Request.Context(), req.Domains)
	dtos := make([]ResultDTO, len(results))
	for i, r := range results {
		dtos[i] = toDTO(r)
	}
	c.JSON(http.StatusOK, CheckResponse{Results: dtos})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// stream handles GET /v1/check/stream: the client sends one CheckRequest
// text frame, the server writes one JSON frame per completed
// DomainResult in completion order, then closes.
func (h *handler) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.V(0).Info("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	var req CheckRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if len(req.Domains) == 0 {
		_ = conn.WriteJSON(ErrorResponse{Error: "domains must not be empty"})
		return
	}

	ctx := c.Request.Context()
	for res := range h.engine.Stream(ctx, req.Domains) {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(toDTO(res)); err != nil {
			h.log.V(1).Info("websocket write failed, aborting stream", "error", err.Error())
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
