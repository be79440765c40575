package session

import (
	"context"

	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/events"
	"github.com/afcommunity/fieldmap/internal/fieldapi"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
	"github.com/afcommunity/fieldmap/internal/sidebar"
	"github.com/afcommunity/fieldmap/internal/store"
)

// Load performs the one bulk load of the page. Later calls are no-ops once
// a load has succeeded; a failed load may be retried.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	done := c.loaded
	c.mu.Unlock()
	if done {
		return nil
	}

	switch c.store.Page() {
	case store.PageMap:
		m, err := c.api.LoadMarkers(ctx)
		if err != nil {
			c.log.Warn("failed to load markers", logger.Error(err))
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loaded {
			return nil
		}
		c.store.LoadMarkers(m)
	default:
		communities, err := c.api.LoadCommunities(ctx)
		if err != nil {
			c.log.Warn("failed to load communities", logger.Error(err))
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loaded {
			return nil
		}
		c.store.LoadCommunities(communities)
	}

	c.loaded = true
	c.reportSizes()
	c.log.Info("page loaded", logger.Any("counts", c.store.Counts()))
	return nil
}

// Outcome is the result of a successful submission.
type Outcome struct {
	Record  entity.Record
	Message string
	// Acknowledged is false when the form was no longer open when the
	// response arrived; the record is appended either way.
	Acknowledged bool
	Mode         sidebar.Mode
}

// Submit validates and sends a creation form. On success the record is
// appended and, if the form for kind is still open, the sidebar moves to
// Success(kind). On failure the mode and collections are left unchanged.
func (c *Container) Submit(ctx context.Context, kind entity.Kind, sub entity.Submission) (*Outcome, error) {
	if !c.store.Carries(kind) {
		c.metrics.RecordSubmission(kind.String(), metrics.StatusError)
		return nil, errors.Newf("the %s page does not create %s records", c.store.Page(), kind).
			Category(errors.CategoryValidation).
			Component("session").
			Build()
	}

	built, err := entity.Build(kind, sub)
	if err != nil {
		c.metrics.RecordSubmission(kind.String(), metrics.StatusError)
		return nil, err
	}

	res, err := c.api.Create(ctx, kind, sub)
	if err != nil {
		status := metrics.StatusError
		if errors.IsRejected(err) {
			status = metrics.StatusRejected
		}
		c.metrics.RecordSubmission(kind.String(), status)
		c.log.Warn("record creation failed",
			logger.String("kind", kind.String()),
			logger.Error(err))
		return nil, err
	}

	rec := createdRecord(built, res)

	c.mu.Lock()
	if err := c.store.Append(rec); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	mode, ferr := c.fireLocked(sidebar.SubmitSucceeded(kind))
	c.mu.Unlock()

	out := &Outcome{Record: rec, Message: res.Message, Acknowledged: ferr == nil, Mode: mode}
	if ferr != nil {
		c.metrics.RecordSubmission(kind.String(), metrics.StatusStale)
		c.log.Info("record created after its form was closed",
			logger.String("kind", kind.String()),
			logger.String("key", rec.Key()),
			logger.String("mode", mode.String()))
	} else {
		c.metrics.RecordSubmission(kind.String(), metrics.StatusSuccess)
	}

	c.reportSizes()
	c.publish(events.TypeRecordCreated, rec, nil)
	return out, nil
}

// createdRecord prefers the record echoed by the server and fills in what
// only the server knows for locally built ones.
func createdRecord(built entity.Record, res *fieldapi.CreateResult) entity.Record {
	if res.Record != nil && res.Record.Kind() == built.Kind() {
		return res.Record
	}
	if community, ok := built.(entity.Community); ok && res.Code != "" {
		community.Code = res.Code
		return community
	}
	return built
}

// StatusEditor returns the status editor of one camera. Editors are created
// on first use from the camera's stored status and then reused.
func (c *Container) StatusEditor(cameraKey string) (*camstatus.Editor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ed, ok := c.editors[cameraKey]; ok {
		return ed, nil
	}
	rec, ok := c.store.Lookup(entity.Ref{Kind: entity.KindCamera, Key: cameraKey})
	if !ok {
		return nil, errors.Newf("camera %q not found", cameraKey).
			Category(errors.CategoryNotFound).
			Component("session").
			Context("camera_key", cameraKey).
			Build()
	}

	ed := camstatus.NewEditor(cameraKey, rec.(entity.Camera).Status,
		statusPersister{c}, c.store,
		camstatus.WithPolicy(c.policy),
		camstatus.WithLogger(c.log))
	c.editors[cameraKey] = ed
	return ed, nil
}

// statusPersister forwards status writes to the API and announces the ones
// that went through.
type statusPersister struct{ c *Container }

func (p statusPersister) UpdateCameraStatus(ctx context.Context, cameraKey, status string) error {
	if err := p.c.api.UpdateCameraStatus(ctx, cameraKey, status); err != nil {
		return err
	}
	if rec, ok := p.c.store.Lookup(entity.Ref{Kind: entity.KindCamera, Key: cameraKey}); ok {
		p.c.publish(events.TypeStatusUpdated, rec, map[string]any{"status": status})
	}
	return nil
}

// JoinCommunity joins the community with the given code and adds it to the
// page when the server returns it and it is not already listed.
func (c *Container) JoinCommunity(ctx context.Context, code string) (*fieldapi.JoinResult, error) {
	res, err := c.api.JoinCommunity(ctx, code)
	if err != nil {
		c.log.Warn("failed to join community",
			logger.String("code", code),
			logger.Error(err))
		return nil, err
	}
	if res.Community == nil || !c.store.Carries(entity.KindCommunity) {
		return res, nil
	}

	c.mu.Lock()
	_, known := c.store.Lookup(entity.RefOf(*res.Community))
	if !known {
		if err := c.store.Append(*res.Community); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	c.mu.Unlock()

	if !known {
		c.reportSizes()
		c.publish(events.TypeCommunityJoined, *res.Community, nil)
	}
	return res, nil
}

// Members lists the members of a community whose name contains query.
func (c *Container) Members(ctx context.Context, code, query string) ([]entity.Member, error) {
	members, err := c.api.Members(ctx, code)
	if err != nil {
		c.log.Warn("failed to load community members",
			logger.String("code", code),
			logger.Error(err))
		return nil, err
	}
	return fieldapi.FilterMembers(members, query), nil
}

// UploadPhotos sends camera photos and returns the server message.
func (c *Container) UploadPhotos(ctx context.Context, files []entity.File) (string, error) {
	msg, err := c.api.UploadPhotos(ctx, files)
	if err != nil {
		c.log.Warn("photo upload failed",
			logger.Int("files", len(files)),
			logger.Error(err))
		return "", err
	}
	return msg, nil
}
