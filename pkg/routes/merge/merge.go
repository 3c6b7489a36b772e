package merge

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	pkgerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/processor"
)

// Handler serves the merge API
type Handler struct {
	processor *processor.MergeProcessor
	version   string
}

// NewHandler creates a merge route handler
func NewHandler(p *processor.MergeProcessor, version string) *Handler {
	return &Handler{processor: p, version: version}
}

// Register registers merge routes
func Register(g *echo.Group, h *Handler) {
	g.POST("", h.Merge)
	g.GET("/capabilities", h.Capabilities)
}

// Merge deduplicates the two record lists in the request body
func (h *Handler) Merge(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body").
			AddMetaValue("code", pkgerrors.CodeInvalidInput)
	}

	resp, err := h.processor.Process(ctx, &req)
	if err != nil {
		return pkgerrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Capabilities describes the merge features and the server's default options
func (h *Handler) Capabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, h.processor.Engine().Capabilities(h.version))
}
