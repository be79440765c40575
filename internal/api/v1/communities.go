package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/panel"
)

// JoinCommunity handles POST /api/v1/communities/:code/join.
func (c *Controller) JoinCommunity(ctx echo.Context) error {
	if c.communityPage == nil {
		return c.HandleError(ctx, nil, "Community page is not configured", http.StatusNotFound)
	}
	code := strings.TrimSpace(ctx.Param("code"))

	res, err := c.communityPage.JoinCommunity(ctx.Request().Context(), code)
	if err != nil {
		return c.fail(ctx, err, "Failed to join community")
	}
	return ctx.JSON(http.StatusOK, JoinResponse{Status: res.Status, Community: res.Community})
}

// GetMembers handles GET /api/v1/communities/:code/members?q=. The query
// matches member names case-insensitively.
func (c *Controller) GetMembers(ctx echo.Context) error {
	if c.communityPage == nil {
		return c.HandleError(ctx, nil, "Community page is not configured", http.StatusNotFound)
	}
	code := ctx.Param("code")
	query := ctx.QueryParam("q")

	members, err := c.communityPage.Members(ctx.Request().Context(), code, query)
	if err != nil {
		return c.fail(ctx, err, "Failed to load members")
	}

	resp := MembersResponse{Code: code, Query: query, Members: members}
	if len(members) == 0 {
		resp.Members = []entity.Member{}
		resp.Message = panel.NoMembersMessage
	}
	return ctx.JSON(http.StatusOK, resp)
}
