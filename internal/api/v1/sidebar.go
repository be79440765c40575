package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/panel"
	"github.com/afcommunity/fieldmap/internal/sidebar"
)

// GetDirective handles GET /api/v1/:page/directive.
func (c *Controller) GetDirective(ctx echo.Context) error {
	p, err := c.page(ctx)
	if err != nil {
		return c.fail(ctx, err, "Unknown page")
	}
	return ctx.JSON(http.StatusOK, c.directive(ctx, p))
}

// FireEvent handles POST /api/v1/:page/events. The body names a sidebar
// event; the response is the directive for the resulting mode.
func (c *Controller) FireEvent(ctx echo.Context) error {
	p, err := c.page(ctx)
	if err != nil {
		return c.fail(ctx, err, "Unknown page")
	}

	var req EventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid event body", http.StatusBadRequest)
	}
	ev, err := req.event()
	if err != nil {
		return c.fail(ctx, err, "Invalid event")
	}
	if _, err := p.Fire(ev); err != nil {
		return c.fail(ctx, err, "Event not allowed in the current mode")
	}

	return ctx.JSON(http.StatusOK, c.directive(ctx, p))
}

// LoadPage handles POST /api/v1/:page/load. Repeated calls after a
// successful load do nothing.
func (c *Controller) LoadPage(ctx echo.Context) error {
	p, err := c.page(ctx)
	if err != nil {
		return c.fail(ctx, err, "Unknown page")
	}
	if err := p.Load(ctx.Request().Context()); err != nil {
		return c.fail(ctx, err, "Failed to load records")
	}
	counts := make(map[string]int)
	for kind, n := range p.Reader().Counts() {
		counts[kind.String()] = n
	}
	return ctx.JSON(http.StatusOK, LoadResponse{Page: p.Page().String(), Counts: counts})
}

// CreateRecord handles POST /api/v1/:page/records/:kind with a form or
// multipart body holding the creation form.
func (c *Controller) CreateRecord(ctx echo.Context) error {
	p, err := c.page(ctx)
	if err != nil {
		return c.fail(ctx, err, "Unknown page")
	}
	kind, ok := entity.ParseKind(ctx.Param("kind"))
	if !ok {
		return c.HandleError(ctx, nil, "Unknown record kind "+ctx.Param("kind"), http.StatusBadRequest)
	}

	sub, err := submissionFromRequest(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid form body")
	}

	out, err := p.Submit(ctx.Request().Context(), kind, sub)
	if err != nil {
		return c.fail(ctx, err, "Failed to create "+kind.Noun())
	}

	c.logger.Info("record created",
		logger.String("page", p.Page().String()),
		logger.String("kind", kind.String()),
		logger.String("key", out.Record.Key()),
		logger.Bool("acknowledged", out.Acknowledged))

	return ctx.JSON(http.StatusCreated, OutcomeResponse{
		Acknowledged: out.Acknowledged,
		Message:      out.Message,
		Mode:         out.Mode.String(),
		Record:       out.Record,
		Directive:    c.directive(ctx, p),
	})
}

// directive renders the current directive of p. Community details include
// the member list; a failed member fetch only drops the list.
func (c *Controller) directive(ctx echo.Context, p Page) DirectiveResponse {
	d := p.Directive()

	var opts panel.Options
	if community, ok := d.Record.(entity.Community); ok {
		if cp, ok := p.(CommunityPage); ok {
			query := ctx.QueryParam("q")
			members, err := cp.Members(ctx.Request().Context(), community.Code, query)
			if err != nil {
				c.logger.Warn("member list unavailable",
					logger.String("code", community.Code),
					logger.Error(err))
			} else {
				opts = panel.Options{Members: members, Query: query}
			}
		}
	}

	return newDirectiveResponse(p.Page().String(), d, c.renderer.Render(d, opts))
}

// event converts the request into a sidebar event. submit_succeeded is
// only raised by the server after a create call.
func (r EventRequest) event() (sidebar.Event, error) {
	t, ok := sidebar.ParseEventType(r.Type)
	if !ok || t == sidebar.EventSubmitSucceeded {
		return sidebar.Event{}, errors.Newf("unsupported event type %q", r.Type).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}

	switch t {
	case sidebar.EventOpenMenu:
		return sidebar.OpenMenu(), nil
	case sidebar.EventOpenFilter:
		return sidebar.OpenFilter(), nil
	case sidebar.EventSubmitAnother:
		return sidebar.SubmitAnother(), nil
	case sidebar.EventClose:
		return sidebar.Close(), nil
	case sidebar.EventSetMode:
		return sidebar.SetMode(r.Raw), nil
	}

	kind, ok := entity.ParseKind(r.Kind)
	if !ok {
		return sidebar.Event{}, errors.Newf("%s needs a record kind, got %q", t, r.Kind).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	if t == sidebar.EventSelectType {
		return sidebar.SelectType(kind), nil
	}
	if r.Key == "" {
		return sidebar.Event{}, errors.Newf("view needs a record key").
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return sidebar.View(entity.Ref{Kind: kind, Key: r.Key}), nil
}
