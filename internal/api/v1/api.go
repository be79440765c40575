// Package v1 implements the JSON API that drives the map and community
// pages from a browser.
package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/fieldapi"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/panel"
	"github.com/afcommunity/fieldmap/internal/session"
	"github.com/afcommunity/fieldmap/internal/sidebar"
	"github.com/afcommunity/fieldmap/internal/store"
)

// Page is the part of a page container every page exposes.
type Page interface {
	Page() store.Page
	Reader() store.Reader
	Directive() sidebar.Directive
	Fire(ev sidebar.Event) (sidebar.Mode, error)
	Load(ctx context.Context) error
	Submit(ctx context.Context, kind entity.Kind, sub entity.Submission) (*session.Outcome, error)
}

// MapPage adds the camera and photo operations of the map page.
type MapPage interface {
	Page
	StatusEditor(cameraKey string) (*camstatus.Editor, error)
	UploadPhotos(ctx context.Context, files []entity.File) (string, error)
}

// CommunityPage adds the membership operations of the community page.
type CommunityPage interface {
	Page
	JoinCommunity(ctx context.Context, code string) (*fieldapi.JoinResult, error)
	Members(ctx context.Context, code, query string) ([]entity.Member, error)
}

// Controller manages the v1 routes and the page containers behind them.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	mapPage       MapPage
	communityPage CommunityPage
	renderer      *panel.Renderer
	logger        logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderer sets the renderer used for the text of directives.
func WithRenderer(r *panel.Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.renderer = r
		}
	}
}

// New creates the controller and registers its routes under /api/v1.
func New(e *echo.Echo, mapPage MapPage, communityPage CommunityPage, opts ...Option) *Controller {
	c := &Controller{
		Echo:          e,
		Group:         e.Group("/api/v1"),
		mapPage:       mapPage,
		communityPage: communityPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Global().Module("api")
	}
	if c.renderer == nil {
		c.renderer = panel.New(nil)
	}

	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	// Static segments win over :page in echo's router.
	c.Group.GET("/map/markers", c.GetMarkers)
	c.Group.POST("/map/cameras/:key/status", c.UpdateCameraStatus)
	c.Group.POST("/map/photos", c.UploadPhotos)

	c.Group.POST("/communities/:code/join", c.JoinCommunity)
	c.Group.GET("/communities/:code/members", c.GetMembers)

	c.Group.GET("/:page/directive", c.GetDirective)
	c.Group.POST("/:page/events", c.FireEvent)
	c.Group.POST("/:page/load", c.LoadPage)
	c.Group.POST("/:page/records/:kind", c.CreateRecord)
}

// page resolves the :page path parameter.
func (c *Controller) page(ctx echo.Context) (Page, error) {
	name := ctx.Param("page")
	switch name {
	case store.PageMap.String():
		if c.mapPage != nil {
			return c.mapPage, nil
		}
	case store.PageCommunity.String():
		if c.communityPage != nil {
			return c.communityPage, nil
		}
	}
	return nil, errors.Newf("unknown page %q", name).
		Category(errors.CategoryNotFound).
		Component("api").
		Build()
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	Category      string `json:"category,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	resp := &ErrorResponse{
		Error:         message,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
	if err != nil {
		resp.Error = err.Error()
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			resp.Category = string(ee.Category)
		}
	}
	return resp
}

func generateCorrelationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// StatusCode maps an error category to the HTTP status returned for it.
func StatusCode(err error) int {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return http.StatusInternalServerError
	}
	switch ee.Category {
	case errors.CategoryValidation, errors.CategoryGeometry, errors.CategoryMode:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryState:
		return http.StatusConflict
	case errors.CategoryRejected, errors.CategoryFileParsing:
		return http.StatusBadGateway
	case errors.CategoryNetwork, errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryCancellation:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes it as an ErrorResponse.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	log := c.logger.WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

// fail is HandleError with the status derived from the error category.
func (c *Controller) fail(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, StatusCode(err))
}
