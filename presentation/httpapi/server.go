package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bank_automation/application/reconciler"
	"bank_automation/domain/entities"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Service is the slice of the reconciliation manager the API exposes.
// Handlers only read already-computed state or schedule a pass; they never
// touch the device themselves.
type Service interface {
	Balances() map[string]entities.AccountBalance
	LastUpdate() time.Time
	RequestUpdate(block bool) error
	UpdateRunning() bool
	LastPass() *reconciler.PassReport
}

// Server is the HTTP wrapper around the reconciliation core.
type Server struct {
	echo *echo.Echo
	svc  Service
	log  *logrus.Logger
}

// NewServer creates the server and registers its routes.
func NewServer(svc Service, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo: e,
		svc:  svc,
		log:  log,
	}

	e.GET("/accounts", s.getAccounts)
	e.GET("/request_update", s.requestUpdate)
	e.GET("/update_running", s.updateRunning)
	e.GET("/last_pass", s.lastPass)
	e.GET("/healthz", s.healthz)

	return s
}

// Start blocks serving on the given address.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("http api listening")
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type accountsResponse struct {
	Accounts   map[string]entities.AccountBalance `json:"accounts"`
	LastUpdate time.Time                          `json:"last_update"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) getAccounts(c echo.Context) error {
	return c.JSON(http.StatusOK, accountsResponse{
		Accounts:   s.svc.Balances(),
		LastUpdate: s.svc.LastUpdate(),
	})
}

func (s *Server) requestUpdate(c echo.Context) error {
	if err := s.svc.RequestUpdate(false); err != nil {
		if errors.Is(err, entities.ErrBusy) {
			return c.JSON(http.StatusTooManyRequests, statusResponse{Status: "busy"})
		}
		s.log.WithError(err).Error("update request failed")
		return c.JSON(http.StatusInternalServerError, statusResponse{Status: "error"})
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) updateRunning(c echo.Context) error {
	status := "ok"
	if s.svc.UpdateRunning() {
		status = "busy"
	}
	return c.JSON(http.StatusOK, statusResponse{Status: status})
}

func (s *Server) lastPass(c echo.Context) error {
	report := s.svc.LastPass()
	if report == nil {
		return c.JSON(http.StatusNotFound, statusResponse{Status: "no pass finished yet"})
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
