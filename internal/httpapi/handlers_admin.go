package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/manager"
	"nananom-farms/site/internal/store"
)

func paramID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func pageParams(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

// mapError turns domain errors into the uniform {success,message} shape.
func mapError(c echo.Context, err error, logContext string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, auth.ErrDuplicateUsername):
		return fail(c, http.StatusConflict, "Username already exists")
	case errors.Is(err, auth.ErrDuplicateEmail):
		return fail(c, http.StatusConflict, "Email already exists")
	case errors.Is(err, auth.ErrWeakPassword):
		return fail(c, http.StatusBadRequest, "Password does not meet requirements")
	case errors.Is(err, auth.ErrInvalidStatus), errors.Is(err, manager.ErrInvalidStatus):
		return fail(c, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, auth.ErrProtectedAccount):
		return fail(c, http.StatusForbidden, "The default admin account cannot be deleted")
	default:
		logger.Errorf("%s: %v", logContext, err)
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()
	bookingStats, err := s.bookings.Stats(ctx)
	if err != nil {
		return mapError(c, err, "booking stats")
	}
	enquiryStats, err := s.enquiries.EnquiryStats(ctx)
	if err != nil {
		return mapError(c, err, "enquiry stats")
	}
	contactStats, err := s.enquiries.ContactStats(ctx)
	if err != nil {
		return mapError(c, err, "contact stats")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"bookings":  bookingStats,
		"enquiries": enquiryStats,
		"contacts":  contactStats,
	})
}

func (s *Server) handleBackup(c echo.Context) error {
	collection := c.Param("collection")
	if err := s.store.Backup(c.Request().Context(), collection); err != nil {
		return mapError(c, err, "backup")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Bookings

func (s *Server) handleListBookings(c echo.Context) error {
	limit, offset := pageParams(c)
	records, err := s.bookings.List(c.Request().Context(), limit, offset)
	if err != nil {
		return mapError(c, err, "list bookings")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "bookings": records})
}

func (s *Server) handleGetBooking(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	rec, err := s.bookings.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err, "get booking")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "booking": rec})
}

type statusRequest struct {
	Status     string `json:"status"`
	AssignedTo int64  `json:"assigned_to"`
}

func (s *Server) handleBookingStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.bookings.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return mapError(c, err, "update booking status")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteBooking(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	if err := s.bookings.Delete(c.Request().Context(), id); err != nil {
		return mapError(c, err, "delete booking")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Enquiries and contact messages

func (s *Server) handleListEnquiries(c echo.Context) error {
	limit, offset := pageParams(c)
	records, err := s.enquiries.ListEnquiries(c.Request().Context(), limit, offset)
	if err != nil {
		return mapError(c, err, "list enquiries")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "enquiries": records})
}

func (s *Server) handleGetEnquiry(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	rec, err := s.enquiries.GetEnquiry(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err, "get enquiry")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "enquiry": rec})
}

func (s *Server) handleEnquiryStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.enquiries.UpdateEnquiryStatus(c.Request().Context(), id, req.Status, req.AssignedTo); err != nil {
		return mapError(c, err, "update enquiry status")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListContacts(c echo.Context) error {
	limit, offset := pageParams(c)
	records, err := s.enquiries.ListContactMessages(c.Request().Context(), limit, offset)
	if err != nil {
		return mapError(c, err, "list contacts")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "messages": records})
}

func (s *Server) handleGetContact(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	rec, err := s.enquiries.GetContactMessage(c.Request().Context(), id)
	if err != nil {
		return mapError(c, err, "get contact")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": rec})
}

func (s *Server) handleContactStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.enquiries.UpdateContactMessageStatus(c.Request().Context(), id, req.Status); err != nil {
		return mapError(c, err, "update contact status")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Services

func (s *Server) handleListServices(c echo.Context) error {
	services, err := s.services.List(c.Request().Context(), false)
	if err != nil {
		return mapError(c, err, "list services")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "services": services})
}

func (s *Server) handleCreateService(c echo.Context) error {
	var p manager.ServiceParams
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if p.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	svc, err := s.services.Create(c.Request().Context(), p)
	if err != nil {
		return mapError(c, err, "create service")
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "service": svc})
}

func (s *Server) handleUpdateService(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var p manager.ServiceParams
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.services.Update(c.Request().Context(), id, p); err != nil {
		return mapError(c, err, "update service")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleToggleService(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	if err := s.services.ToggleStatus(c.Request().Context(), id); err != nil {
		return mapError(c, err, "toggle service")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteService(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	if err := s.services.Delete(c.Request().Context(), id); err != nil {
		return mapError(c, err, "delete service")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Users

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.auth.GetAllUsers(c.Request().Context())
	if err != nil {
		return mapError(c, err, "list users")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var p auth.CreateUserParams
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if p.Username == "" || p.Password == "" || p.Email == "" {
		return fail(c, http.StatusBadRequest, "username, password and email are required")
	}
	user, err := s.auth.CreateUser(c.Request().Context(), p)
	if err != nil {
		return mapError(c, err, "create user")
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "user": user})
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleChangePassword(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.auth.ChangePassword(c.Request().Context(), id, req.Password); err != nil {
		return mapError(c, err, "change password")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Password updated"})
}

func (s *Server) handleUserStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.auth.UpdateUserStatus(c.Request().Context(), id, req.Status); err != nil {
		return mapError(c, err, "update user status")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleResetAttempts(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	if err := s.auth.ResetLoginAttempts(c.Request().Context(), id); err != nil {
		return mapError(c, err, "reset attempts")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	if err := s.auth.DeleteUser(c.Request().Context(), id); err != nil {
		return mapError(c, err, "delete user")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
