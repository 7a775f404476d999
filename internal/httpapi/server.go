package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/config"
	"nananom-farms/site/internal/manager"
	"nananom-farms/site/internal/store"
)

// Server wires the public booking/enquiry API and the session-based admin
// API over the managers and the auth service.
type Server struct {
	cfg       config.Config
	auth      *auth.Service
	store     store.Store
	bookings  *manager.BookingManager
	enquiries *manager.EnquiryManager
	services  *manager.ServiceManager
	echo      *echo.Echo
}

func NewServer(cfg config.Config, st store.Store, authSvc *auth.Service) *Server {
	s := &Server{
		cfg:       cfg,
		auth:      authSvc,
		store:     st,
		bookings:  manager.NewBookingManager(st),
		enquiries: manager.NewEnquiryManager(st),
		services:  manager.NewServiceManager(st),
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/services", s.handlePublicServices)
	api.GET("/slots", s.handleAvailableSlots)
	api.POST("/bookings", s.handleCreateBooking)
	api.POST("/enquiries", s.handleCreateEnquiry)
	api.POST("/contact", s.handleCreateContact)

	admin := e.Group("/admin")
	admin.POST("/login", s.handleLogin)
	admin.POST("/logout", s.handleLogout)

	protected := admin.Group("", s.sessionMiddleware)
	protected.GET("/me", s.handleMe)

	adminOnly := protected.Group("/api", s.requireAdmin)
	adminOnly.GET("/stats", s.handleStats)
	adminOnly.POST("/backup/:collection", s.handleBackup)

	adminOnly.GET("/bookings", s.handleListBookings)
	adminOnly.GET("/bookings/:id", s.handleGetBooking)
	adminOnly.PUT("/bookings/:id/status", s.handleBookingStatus)
	adminOnly.DELETE("/bookings/:id", s.handleDeleteBooking)

	adminOnly.GET("/enquiries", s.handleListEnquiries)
	adminOnly.GET("/enquiries/:id", s.handleGetEnquiry)
	adminOnly.PUT("/enquiries/:id/status", s.handleEnquiryStatus)

	adminOnly.GET("/contacts", s.handleListContacts)
	adminOnly.GET("/contacts/:id", s.handleGetContact)
	adminOnly.PUT("/contacts/:id/status", s.handleContactStatus)

	adminOnly.GET("/services", s.handleListServices)
	adminOnly.POST("/services", s.handleCreateService)
	adminOnly.PUT("/services/:id", s.handleUpdateService)
	adminOnly.POST("/services/:id/toggle", s.handleToggleService)
	adminOnly.DELETE("/services/:id", s.handleDeleteService)

	adminOnly.GET("/users", s.handleListUsers)
	adminOnly.POST("/users", s.handleCreateUser)
	adminOnly.PUT("/users/:id/password", s.handleChangePassword)
	adminOnly.PUT("/users/:id/status", s.handleUserStatus)
	adminOnly.POST("/users/:id/reset-attempts", s.handleResetAttempts)
	adminOnly.DELETE("/users/:id", s.handleDeleteUser)

	s.echo = e
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
