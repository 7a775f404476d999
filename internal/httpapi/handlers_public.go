package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/manager"
	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

func (s *Server) handlePublicServices(c echo.Context) error {
	services, err := s.services.List(c.Request().Context(), true)
	if err != nil {
		logger.Errorf("listing services: %v", err)
		return fail(c, http.StatusInternalServerError, "Could not load services")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "services": services})
}

func (s *Server) handleAvailableSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return fail(c, http.StatusBadRequest, "date is required")
	}
	slots, err := s.bookings.AvailableSlots(c.Request().Context(), date)
	if err != nil {
		logger.Errorf("available slots: %v", err)
		return fail(c, http.StatusInternalServerError, "Could not load slots")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "slots": slots})
}

func (s *Server) handleCreateBooking(c echo.Context) error {
	var p manager.BookingParams
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if p.CustomerName == "" || p.CustomerEmail == "" || p.BookingDate == "" || p.BookingTime == "" || p.ServiceID == 0 {
		return fail(c, http.StatusBadRequest, "name, email, service, date and time are required")
	}

	// The booked service must exist and be active.
	svc, err := s.services.Get(c.Request().Context(), p.ServiceID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && svc.Status != model.ServiceStatusActive) {
		return fail(c, http.StatusBadRequest, "Unknown service")
	}
	if err != nil {
		logger.Errorf("create booking: %v", err)
		return fail(c, http.StatusInternalServerError, "Could not create booking")
	}

	rec, err := s.bookings.Create(c.Request().Context(), p)
	if err != nil {
		logger.Errorf("create booking: %v", err)
		return fail(c, http.StatusInternalServerError, "Could not create booking")
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "booking": rec})
}

func (s *Server) handleCreateEnquiry(c echo.Context) error {
	return s.createEnquiryRecord(c, s.enquiries.CreateEnquiry, "enquiry")
}

func (s *Server) handleCreateContact(c echo.Context) error {
	return s.createEnquiryRecord(c, s.enquiries.CreateContactMessage, "message")
}

func (s *Server) createEnquiryRecord(
	c echo.Context,
	create func(context.Context, manager.EnquiryParams) (store.Record, error),
	key string,
) error {
	var p manager.EnquiryParams
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if p.Name == "" || p.Email == "" || p.Subject == "" || p.Message == "" {
		return fail(c, http.StatusBadRequest, "name, email, subject and message are required")
	}

	rec, err := create(c.Request().Context(), p)
	if err != nil {
		logger.Errorf("create %s: %v", key, err)
		return fail(c, http.StatusInternalServerError, "Could not submit "+key)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, key: rec})
}
