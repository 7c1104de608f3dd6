package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	adminapp "leasehub/internal/app/handlers/admin"
	bookingapp "leasehub/internal/app/handlers/booking"
	"leasehub/internal/app/handlers/cascade"
	listingapp "leasehub/internal/app/handlers/listings"
	"leasehub/internal/app/queries"
)

type AdminHTTP interface {
	Users(c *gin.Context)
	PendingOwners(c *gin.Context)
	RejectOwner(c *gin.Context)
	Bookings(c *gin.Context)
	Listings(c *gin.Context)
	ApproveOwner(c *gin.Context)
	DeleteUser(c *gin.Context)
	DeleteListing(c *gin.Context)
}

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Cascade  CascadeHandler
	Logger   *slog.Logger
}

func (h AdminHandler) Users(c *gin.Context) {
	result, err := queries.Ask[adminapp.ListUsersQuery, dto.UserCollection](c.Request.Context(), h.Queries, adminapp.ListUsersQuery{Identity: identity(c)})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) PendingOwners(c *gin.Context) {
	result, err := queries.Ask[adminapp.ListPendingOwnersQuery, dto.UserCollection](c.Request.Context(), h.Queries, adminapp.ListPendingOwnersQuery{Identity: identity(c)})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectOwner deletes a pending owner registration through the user cascade.
func (h AdminHandler) RejectOwner(c *gin.Context) {
	cmd := cascade.RejectOwnerCommand{Identity: identity(c), UserID: c.Param("id")}
	result, err := commands.Dispatch[cascade.RejectOwnerCommand, dto.DeleteUserResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Bookings(c *gin.Context) {
	result, err := queries.Ask[bookingapp.ListAllBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListAllBookingsQuery{Identity: identity(c)})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Listings(c *gin.Context) {
	var q listingapp.ListAllListingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	q.Identity = identity(c)
	result, err := queries.Ask[listingapp.ListAllListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ApproveOwner(c *gin.Context) {
	cmd := adminapp.ApproveOwnerCommand{Identity: identity(c), UserID: c.Param("id")}
	result, err := commands.Dispatch[adminapp.ApproveOwnerCommand, dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) DeleteUser(c *gin.Context) {
	h.Cascade.DeleteUser(c)
}

func (h AdminHandler) DeleteListing(c *gin.Context) {
	h.Cascade.DeleteListing(c)
}

// CascadeHandler serves the deletions shared by owner and admin routes.
type CascadeHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h CascadeHandler) DeleteListing(c *gin.Context) {
	cmd := cascade.DeleteListingCommand{Identity: identity(c), ListingID: c.Param("id")}
	result, err := commands.Dispatch[cascade.DeleteListingCommand, dto.DeleteListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CascadeHandler) DeleteUser(c *gin.Context) {
	cmd := cascade.DeleteUserCommand{Identity: identity(c), UserID: c.Param("id")}
	result, err := commands.Dispatch[cascade.DeleteUserCommand, dto.DeleteUserResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
