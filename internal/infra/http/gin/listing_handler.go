package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	listingapp "leasehub/internal/app/handlers/listings"
	"leasehub/internal/app/queries"
)

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
}

type OwnerListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ListingHandler) Catalog(c *gin.Context) {
	var q listingapp.SearchCatalogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	q := listingapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.Listing](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) List(c *gin.Context) {
	q := listingapp.ListOwnerListingsQuery{Identity: identity(c)}
	result, err := queries.Ask[listingapp.ListOwnerListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	var cmd listingapp.CreateListingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	cmd.Identity = identity(c)
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	var cmd listingapp.UpdateListingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	cmd.Identity = identity(c)
	cmd.ListingID = c.Param("id")
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ ListingHTTP      = ListingHandler{}
	_ OwnerListingHTTP = OwnerListingHandler{}
)

// OwnerListingHandler adds deletion to the owner's listing routes.
type OwnerListingHandler struct {
	ListingHandler
	Cascade CascadeHandler
}

func (h OwnerListingHandler) Delete(c *gin.Context) {
	h.Cascade.DeleteListing(c)
}
