package handlers

import (
	"net/http"
	"strings"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// ListTickets serves the public approved listing with search, filter, sort and paging.
func (h Handler) ListTickets(c *gin.Context) {
	f := models.TicketFilter{
		From:          c.Query("from"),
		To:            c.Query("to"),
		TransportType: strings.ToLower(strings.TrimSpace(c.Query("transportType"))),
		Sort:          strings.ToLower(strings.TrimSpace(c.Query("sort"))),
	}
	page := domain.Pagination{Page: queryInt(c, "page"), PageSize: queryInt(c, "limit")}

	items, page, err := h.Tickets.ListApproved(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": items, "pagination": page})
}

func (h Handler) AdvertisedTickets(c *gin.Context) {
	items, err := h.Tickets.ListAdvertised(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h Handler) LatestTickets(c *gin.Context) {
	items, err := h.Tickets.ListLatest(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h Handler) GetTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
