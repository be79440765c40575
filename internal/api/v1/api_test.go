package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/fieldapi"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/mapview"
	"github.com/afcommunity/fieldmap/internal/panel"
	"github.com/afcommunity/fieldmap/internal/session"
)

const areaGeom = `{"type":"Polygon","coordinates":[[[-118,34],[-117,34],[-117,35],[-118,34]]]}`

var testCamera = entity.Camera{
	Site:       "Upper Wash",
	Coords:     "34.1, -117.9",
	Date:       "2024-05-01T10:00:00Z",
	CameraType: "Browning",
	CameraID:   "C1",
	Status:     "set,2",
}

// fakeAPI stands in for the collaborator client.
type fakeAPI struct {
	mu          sync.Mutex
	createErr   error
	createCalls int
	statuses    []string
	members     []entity.Member
	joined      *entity.Community
	uploaded    int
}

func (f *fakeAPI) LoadMarkers(context.Context) (entity.Markers, error) {
	return entity.Markers{Cameras: []entity.Camera{testCamera}}, nil
}

func (f *fakeAPI) LoadCommunities(context.Context) ([]entity.Community, error) {
	return []entity.Community{{Name: "Wash Watchers", Code: "abc"}}, nil
}

func (f *fakeAPI) Create(context.Context, entity.Kind, entity.Submission) (*fieldapi.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &fieldapi.CreateResult{Message: "added"}, nil
}

func (f *fakeAPI) UpdateCameraStatus(_ context.Context, _, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeAPI) JoinCommunity(context.Context, string) (*fieldapi.JoinResult, error) {
	return &fieldapi.JoinResult{Status: "joined", Community: f.joined}, nil
}

func (f *fakeAPI) Members(context.Context, string) ([]entity.Member, error) {
	return f.members, nil
}

func (f *fakeAPI) UploadPhotos(_ context.Context, files []entity.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded += len(files)
	return "Upload successful.", nil
}

func setupTestController(t *testing.T, api *fakeAPI) (*echo.Echo, *session.Container, *session.Container) {
	t.Helper()
	nop := logger.NewNopLogger()
	mapPage := session.NewMapPage(api, session.WithLogger(nop))
	communityPage := session.NewCommunityPage(api, session.WithLogger(nop))
	require.NoError(t, mapPage.Load(t.Context()))
	require.NoError(t, communityPage.Load(t.Context()))

	e := echo.New()
	New(e, mapPage, communityPage, WithLogger(nop), WithRenderer(panel.New(nil)))
	return e, mapPage, communityPage
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return serve(e, req)
}

func multipartRequest(t *testing.T, path string, values map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".json")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetDirectiveIdle(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/map/directive", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[DirectiveResponse](t, rec)
	assert.Equal(t, "map", d.Page)
	assert.Equal(t, "idle", d.State)
	assert.False(t, d.Visible)
	assert.Equal(t, "none", d.Panel)
	assert.Empty(t, d.Text)
}

func TestFireEventMenuThenForm(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := postJSON(e, "/api/v1/map/events", `{"type":"open_menu"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[DirectiveResponse](t, rec)
	assert.Equal(t, "type_selector", d.Panel)
	require.Len(t, d.Choices, 3)
	assert.Equal(t, ChoiceResponse{Kind: "camera", Label: "Camera Trap"}, d.Choices[0])
	assert.Contains(t, d.Text, "Camera Trap")

	rec = postJSON(e, "/api/v1/map/events", `{"type":"select_type","kind":"area"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	d = decode[DirectiveResponse](t, rec)
	assert.Equal(t, "form", d.Panel)
	assert.Equal(t, "area", d.Kind)
	assert.Equal(t, "Geographic Area", d.Mode)
	require.Len(t, d.Fields, 3)
	assert.Equal(t, "geom", d.Fields[2].Name)
	assert.Equal(t, "file", d.Fields[2].Type)
	assert.True(t, d.Fields[2].Required)
}

func TestFireEventViewCamera(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	body := `{"type":"view","kind":"camera","key":"` + testCamera.Key() + `"}`
	rec := postJSON(e, "/api/v1/map/events", body)
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[DirectiveResponse](t, rec)
	assert.Equal(t, "detail", d.Panel)
	assert.Equal(t, "Camera-"+testCamera.Key(), d.Mode)
	assert.Contains(t, d.Text, "Upper Wash")
	assert.Contains(t, d.Text, "Set in 2 days")
}

func TestFireEventErrors(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"unknown type", `{"type":"explode"}`, http.StatusBadRequest},
		{"server-only event", `{"type":"submit_succeeded","kind":"area"}`, http.StatusBadRequest},
		{"select without kind", `{"type":"select_type"}`, http.StatusBadRequest},
		{"view without key", `{"type":"view","kind":"camera"}`, http.StatusBadRequest},
		{"another before success", `{"type":"submit_another"}`, http.StatusConflict},
		{"malformed body", `{"type":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := postJSON(e, "/api/v1/map/events", tt.body)
		assert.Equal(t, tt.wantCode, rec.Code, tt.name)

		resp := decode[ErrorResponse](t, rec)
		assert.Len(t, resp.CorrelationID, 8, tt.name)
		assert.Equal(t, tt.wantCode, resp.Code, tt.name)
	}
}

func TestUnknownPage(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/garden/directive", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(errors.CategoryNotFound), decode[ErrorResponse](t, rec).Category)
}

func TestLoadPage(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/v1/map/load", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[LoadResponse](t, rec)
	assert.Equal(t, "map", resp.Page)
	assert.Equal(t, 1, resp.Counts["camera"])
}

func TestCreateAreaRecord(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	e, mapPage, _ := setupTestController(t, api)

	require.Equal(t, http.StatusOK, postJSON(e, "/api/v1/map/events", `{"type":"select_type","kind":"area"}`).Code)

	req := multipartRequest(t, "/api/v1/map/records/area",
		map[string]string{"name": "North Wash", "description": "dry wash"},
		map[string]string{"geom": areaGeom})
	rec := serve(e, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode[struct {
		Acknowledged bool              `json:"acknowledged"`
		Mode         string            `json:"mode"`
		Directive    DirectiveResponse `json:"directive"`
	}](t, rec)
	assert.True(t, out.Acknowledged)
	assert.Equal(t, "Success-Geographic-Area", out.Mode)
	assert.Equal(t, "success", out.Directive.Panel)
	assert.Equal(t, "Geographic Area added. Click here to submit another.", out.Directive.Message)

	assert.Equal(t, 1, mapPage.Reader().Counts()[entity.KindArea])

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/map/markers", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[mapview.View](t, rec)
	require.Len(t, view.Areas, 1)
	assert.Equal(t, "North Wash", view.Areas[0].Name)
	require.Len(t, view.Markers, 1)
	assert.Equal(t, mapview.ColorCamera, view.Markers[0].Color)
}

func TestCreateRecordInvalidForm(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	e, _, _ := setupTestController(t, api)

	form := url.Values{"name": {"North Wash"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/map/records/area", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := serve(e, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.CategoryValidation), decode[ErrorResponse](t, rec).Category)
	assert.Zero(t, api.createCalls)
}

func TestCreateRecordRejected(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{createErr: errors.Newf("duplicate area").Category(errors.CategoryRejected).Build()}
	e, mapPage, _ := setupTestController(t, api)

	req := multipartRequest(t, "/api/v1/map/records/area",
		map[string]string{"name": "North Wash", "description": "dry wash"},
		map[string]string{"geom": areaGeom})
	rec := serve(e, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, mapPage.Reader().Counts()[entity.KindArea])
}

func TestCreateRecordUnknownKind(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/v1/map/records/bird", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCameraStatus(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	e, mapPage, _ := setupTestController(t, api)

	path := "/api/v1/map/cameras/" + url.PathEscape(testCamera.Key()) + "/status"
	rec := postJSON(e, path, `{"kind":"pull","days":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[StatusResponse](t, rec)
	assert.Equal(t, "pull,3", resp.Status)
	assert.Equal(t, "Pull in 3 days", resp.Display)
	assert.Equal(t, testCamera.Key(), resp.Key)

	require.NotEmpty(t, api.statuses)
	assert.Equal(t, "pull,3", api.statuses[len(api.statuses)-1])

	cams := mapPage.Reader().Cameras()
	require.Len(t, cams, 1)
	assert.Equal(t, "pull,3", cams[0].Status)
}

func TestUpdateCameraStatusErrors(t *testing.T) {
	t.Parallel()
	e, _, _ := setupTestController(t, &fakeAPI{})

	rec := postJSON(e, "/api/v1/map/cameras/missing/status", `{"kind":"pull"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := "/api/v1/map/cameras/" + url.PathEscape(testCamera.Key()) + "/status"
	rec = postJSON(e, path, `{"kind":"bury"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPhotos(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	e, _, _ := setupTestController(t, api)

	req := multipartRequest(t, "/api/v1/map/photos", nil,
		map[string]string{"photo1": "jpeg-1", "photo2": "jpeg-2"})
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[PhotosResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Upload successful.", resp.Message)
	assert.Equal(t, 2, api.uploaded)

	rec = postJSON(e, "/api/v1/map/photos", `{}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestJoinCommunityAndMembers(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{
		joined: &entity.Community{Name: "Canyon Crew", Code: "xyz"},
		members: []entity.Member{
			{Name: "Ana Ruiz", Email: "ana@example.org"},
			{Name: "Ben Ortiz"},
		},
	}
	e, _, communityPage := setupTestController(t, api)

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/v1/communities/xyz/join", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	join := decode[JoinResponse](t, rec)
	assert.Equal(t, "joined", join.Status)
	require.NotNil(t, join.Community)
	assert.Equal(t, "xyz", join.Community.Code)
	assert.Equal(t, 2, communityPage.Reader().Counts()[entity.KindCommunity])

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/communities/xyz/members?q=ana", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	members := decode[MembersResponse](t, rec)
	require.Len(t, members.Members, 1)
	assert.Equal(t, "Ana Ruiz", members.Members[0].Name)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/communities/xyz/members?q=zed", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	members = decode[MembersResponse](t, rec)
	assert.Empty(t, members.Members)
	assert.Equal(t, panel.NoMembersMessage, members.Message)
}

func TestCommunityDetailIncludesMembers(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{members: []entity.Member{{Name: "Ana Ruiz"}}}
	e, _, _ := setupTestController(t, api)

	require.Equal(t, http.StatusOK,
		postJSON(e, "/api/v1/community/events", `{"type":"view","kind":"community","key":"abc"}`).Code)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/community/directive", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[DirectiveResponse](t, rec)
	assert.Equal(t, "detail", d.Panel)
	assert.Contains(t, d.Text, "Wash Watchers")
	assert.Contains(t, d.Text, "Ana Ruiz")
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	build := func(c errors.ErrorCategory) error {
		return errors.Newf("boom").Category(c).Build()
	}
	tests := []struct {
		err  error
		want int
	}{
		{build(errors.CategoryValidation), http.StatusBadRequest},
		{build(errors.CategoryNotFound), http.StatusNotFound},
		{build(errors.CategoryState), http.StatusConflict},
		{build(errors.CategoryRejected), http.StatusBadGateway},
		{build(errors.CategoryNetwork), http.StatusGatewayTimeout},
		{build(errors.CategoryTimeout), http.StatusGatewayTimeout},
		{build(errors.CategoryGeneric), http.StatusInternalServerError},
		{errors.NewStd("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), tt.err.Error())
	}
}
