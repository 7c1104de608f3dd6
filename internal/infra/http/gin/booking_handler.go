package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	bookingapp "leasehub/internal/app/handlers/booking"
	"leasehub/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
}

type OwnerBookingHTTP interface {
	ListOwned(c *gin.Context)
	Transition(c *gin.Context)
}

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var cmd bookingapp.RequestBookingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	cmd.Identity = identity(c)
	cmd.IdempotencyKeyV = c.GetHeader(idempotencyHeader)
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	q := bookingapp.ListRenterBookingsQuery{Identity: identity(c)}
	result, err := queries.Ask[bookingapp.ListRenterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	q := bookingapp.GetBookingQuery{Identity: identity(c), BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{Identity: identity(c), BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingTransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListOwned(c *gin.Context) {
	q := bookingapp.ListOwnerBookingsQuery{Identity: identity(c), Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListOwnerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		Identity:  identity(c),
		BookingID: c.Param("id"),
		Status:    req.Status,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *dto.BookingTransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ BookingHTTP      = BookingHandler{}
	_ OwnerBookingHTTP = BookingHandler{}
)
