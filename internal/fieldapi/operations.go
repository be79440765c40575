package fieldapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
	"github.com/afcommunity/fieldmap/internal/privacy"
)

var createRoutes = map[entity.Kind]string{
	entity.KindCamera:    "/add-camera",
	entity.KindSighting:  "/add-sighting",
	entity.KindArea:      "/add-area",
	entity.KindCommunity: "/add-community",
}

// LoadMarkers fetches every camera, sighting and area visible to the user.
// Lists the response omits come back empty.
func (c *Client) LoadMarkers(ctx context.Context) (entity.Markers, error) {
	var resp markersResponse
	err := c.do(ctx, request{
		op:     metrics.OpLoadMarkers,
		method: http.MethodGet,
		path:   "/get-markers",
	}, &resp)
	if err != nil {
		return entity.Markers{}, err
	}
	return resp.Markers, nil
}

// LoadCommunities fetches the communities the configured user belongs to.
func (c *Client) LoadCommunities(ctx context.Context) ([]entity.Community, error) {
	var resp communitiesResponse
	err := c.do(ctx, request{
		op:          metrics.OpLoadCommunities,
		method:      http.MethodPost,
		path:        "/get-communities",
		contentType: "application/x-www-form-urlencoded",
		body:        url.Values{entity.FieldNameUID: {c.uid}}.Encode(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Communities, nil
}

// Create submits a creation form. The caller validates sub first.
func (c *Client) Create(ctx context.Context, kind entity.Kind, sub entity.Submission) (*CreateResult, error) {
	route, ok := createRoutes[kind]
	if !ok {
		return nil, errors.Newf("no creation route for kind %s", kind).
			Category(errors.CategoryValidation).
			Component("fieldapi").
			Build()
	}

	body, contentType, err := c.creationForm(kind, sub)
	if err != nil {
		return nil, err
	}

	var resp createResponse
	err = c.do(ctx, request{
		op:             metrics.OpCreate,
		method:         http.MethodPost,
		path:           route,
		contentType:    contentType,
		body:           body,
		requireSuccess: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Message: resp.Message, Code: resp.Code}
	switch {
	case kind == entity.KindCamera && resp.Camera != nil:
		result.Record = *resp.Camera
	case kind == entity.KindSighting && resp.Sighting != nil:
		result.Record = *resp.Sighting
	case kind == entity.KindArea && resp.Area != nil:
		result.Record = *resp.Area
	case kind == entity.KindCommunity && resp.Community != nil:
		result.Record = *resp.Community
	}
	return result, nil
}

// creationForm encodes sub as multipart form data. The area geometry is
// sent as a text field even when it was uploaded as a file, and the
// communities field is always present.
func (c *Client) creationForm(kind entity.Kind, sub entity.Submission) (*bytes.Buffer, string, error) {
	values := make(map[string]string, len(sub.Values)+2)
	for k, v := range sub.Values {
		values[k] = v
	}
	if _, ok := values[entity.FieldNameUID]; !ok {
		values[entity.FieldNameUID] = c.uid
	}
	if _, ok := values[entity.FieldNameCommunities]; !ok {
		values[entity.FieldNameCommunities] = ""
	}

	files := sub.Files
	if kind == entity.KindArea && strings.TrimSpace(values[entity.FieldNameGeom]) == "" {
		if f, ok := sub.File(entity.FieldNameGeom); ok {
			values[entity.FieldNameGeom] = string(f.Data)
			files = slices.DeleteFunc(slices.Clone(files), func(f entity.File) bool {
				return f.Field == entity.FieldNameGeom
			})
		}
	}

	return encodeMultipart(values, files)
}

func encodeMultipart(values map[string]string, files []entity.File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := w.WriteField(k, values[k]); err != nil {
			return nil, "", encodeError(err, k)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", encodeError(err, f.Field)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", encodeError(err, f.Field)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", encodeError(err, "")
	}
	return &buf, w.FormDataContentType(), nil
}

func encodeError(err error, field string) error {
	return errors.New(fmt.Errorf("encode form: %w", err)).
		Category(errors.CategoryValidation).
		Component("fieldapi").
		Context("field", field).
		Build()
}

// UpdateCameraStatus persists the encoded status of the camera with the
// given composite key.
func (c *Client) UpdateCameraStatus(ctx context.Context, cameraKey, status string) error {
	return c.do(ctx, request{
		op:     metrics.OpUpdateStatus,
		method: http.MethodPost,
		path:   "/update-camera-status" + pathSegment(cameraKey),
		body:   map[string]string{"status": status},
	}, nil)
}

// JoinCommunity adds the configured user to the community with code.
func (c *Client) JoinCommunity(ctx context.Context, code string) (*JoinResult, error) {
	body, contentType, err := encodeMultipart(map[string]string{entity.FieldNameUID: c.uid}, nil)
	if err != nil {
		return nil, err
	}

	var resp joinResponse
	err = c.do(ctx, request{
		op:             metrics.OpJoinCommunity,
		method:         http.MethodPost,
		path:           "/join-community" + pathSegment(code),
		contentType:    contentType,
		body:           body,
		requireSuccess: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.ForgetMembers(code)
	return &JoinResult{Status: resp.Status, Community: resp.Community}, nil
}

// UploadPhotos sends camera-trap photos in one request.
func (c *Client) UploadPhotos(ctx context.Context, files []entity.File) (string, error) {
	if len(files) == 0 {
		return "", errors.Newf("no photos to upload").
			Category(errors.CategoryValidation).
			Component("fieldapi").
			Build()
	}
	parts := make([]entity.File, len(files))
	for i, f := range files {
		f.Field = "files"
		parts[i] = f
	}
	body, contentType, err := encodeMultipart(nil, parts)
	if err != nil {
		return "", err
	}

	var resp envelope
	err = c.do(ctx, request{
		op:             metrics.OpUploadPhotos,
		method:         http.MethodPost,
		path:           "/upload-photo",
		contentType:    contentType,
		body:           body,
		requireSuccess: true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RegisterUser records a newly signed-in user. It is the only call sent
// without a bearer token.
func (c *Client) RegisterUser(ctx context.Context, uid, name, email string) error {
	body, contentType, err := encodeMultipart(map[string]string{
		entity.FieldNameUID: uid,
		"name":              name,
		"email":             email,
	}, nil)
	if err != nil {
		return err
	}
	c.log.Debug("registering user",
		logger.String("uid", uid),
		logger.String("email", privacy.MaskEmail(email)))
	return c.do(ctx, request{
		op:             metrics.OpRegisterUser,
		method:         http.MethodPost,
		path:           "/add-user",
		contentType:    contentType,
		body:           body,
		noAuth:         true,
		requireSuccess: true,
	}, nil)
}
