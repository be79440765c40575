package v1

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/mapview"
	"github.com/afcommunity/fieldmap/internal/panel"
)

// GetMarkers handles GET /api/v1/map/markers.
func (c *Controller) GetMarkers(ctx echo.Context) error {
	if c.mapPage == nil {
		return c.HandleError(ctx, nil, "Map page is not configured", http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, mapview.Build(c.mapPage.Reader(), c.logger))
}

// UpdateCameraStatus handles POST /api/v1/map/cameras/:key/status. The
// local record is patched before the collaborator API is called, so a
// failed request still leaves the edit in place.
func (c *Controller) UpdateCameraStatus(ctx echo.Context) error {
	if c.mapPage == nil {
		return c.HandleError(ctx, nil, "Map page is not configured", http.StatusNotFound)
	}

	key := ctx.Param("key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	var req StatusRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid status body", http.StatusBadRequest)
	}

	editor, err := c.mapPage.StatusEditor(key)
	if err != nil {
		return c.fail(ctx, err, "Camera not found")
	}

	reqCtx := ctx.Request().Context()
	if req.Kind != "" {
		kind, ok := camstatus.ParseKind(req.Kind)
		if !ok {
			return c.fail(ctx, errors.Newf("unknown next action %q", req.Kind).
				Category(errors.CategoryValidation).
				Component("api").
				Build(), "Invalid next action")
		}
		if err := editor.SetKind(reqCtx, kind); err != nil {
			return c.fail(ctx, err, "Failed to update camera status")
		}
	}
	if req.Days != nil {
		if err := editor.SetDays(reqCtx, *req.Days); err != nil {
			return c.fail(ctx, err, "Failed to update camera status")
		}
	}
	if req.Text != nil {
		if err := editor.SetText(reqCtx, *req.Text); err != nil {
			return c.fail(ctx, err, "Failed to update camera status")
		}
	}

	status := editor.Status()
	c.logger.Info("camera status updated",
		logger.String("key", key),
		logger.String("status", camstatus.Encode(status)))

	return ctx.JSON(http.StatusOK, newStatusResponse(key, status, panel.StatusText(status)))
}

// UploadPhotos handles POST /api/v1/map/photos with a multipart body. Every
// file part is uploaded regardless of its field name.
func (c *Controller) UploadPhotos(ctx echo.Context) error {
	if c.mapPage == nil {
		return c.HandleError(ctx, nil, "Map page is not configured", http.StatusNotFound)
	}
	if !isMultipart(ctx) {
		return c.HandleError(ctx, nil, "Photos must be sent as multipart/form-data", http.StatusUnsupportedMediaType)
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return c.fail(ctx, formError(err, "multipart"), "Invalid upload")
	}
	files, err := readFiles(form)
	if err != nil {
		return c.fail(ctx, err, "Invalid upload")
	}

	msg, err := c.mapPage.UploadPhotos(ctx.Request().Context(), files)
	if err != nil {
		return c.fail(ctx, err, "Failed to upload photos")
	}
	return ctx.JSON(http.StatusOK, PhotosResponse{Message: msg, Count: len(files)})
}
