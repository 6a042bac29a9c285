// Package ui exposes the explorer over HTTP: a gin JSON API for the
// single-page client and a small chi admin mux for health and profiling.
package ui

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"geolens/app"
	"geolens/domain/core"
	"geolens/domain/session"
	"geolens/internal/logging"
)

const sessionHeader = "X-Session-ID"

// maxUploadBytes bounds a single dataset upload.
const maxUploadBytes = 64 << 20

// Server is the JSON API server.
type Server struct {
	router  *gin.Engine
	service *app.ExplorerService
	logger  *logging.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(service *app.ExplorerService, logger *logging.Logger) *Server {
	s := &Server{
		router:  gin.New(),
		service: service,
		logger:  logger,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/session", s.handleNewSession)
	api.POST("/upload", s.handleUpload)
	api.POST("/apply", s.handleApply)
	api.GET("/state", s.handleState)

	api.POST("/sessions/save", s.handleSaveSession)
	api.POST("/sessions/:id/load", s.handleLoadSession)
	api.GET("/sessions", s.handleListSessions)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
}

// Run starts the server on the given port, blocking until it exits.
func (s *Server) Run(port string) error {
	return s.router.Run(":" + port)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleNewSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": s.service.NewSessionID()})
}

// handleUpload ingests a multipart dataset upload into the session.
func (s *Server) handleUpload(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := s.service.Upload(c.Request.Context(), sessionID, fileHeader.Filename, data)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(state))
}

// handleApply runs the dimension reduction for the posted selection.
func (s *Server) handleApply(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	var sel session.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := s.service.Apply(c.Request.Context(), sessionID, sel)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(state))
}

func (s *Server) handleState(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	state, err := s.service.State(c.Request.Context(), sessionID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(state))
}

func (s *Server) handleSaveSession(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	savedID, err := s.service.SaveSession(c.Request.Context(), sessionID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved_id": savedID})
}

func (s *Server) handleLoadSession(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	state, err := s.service.LoadSession(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(state))
}

func (s *Server) handleListSessions(c *gin.Context) {
	ids, err := s.service.ListSessions(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"saved_sessions": ids})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.service.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) sessionID(c *gin.Context) (string, bool) {
	id := c.GetHeader(sessionHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + sessionHeader + " header"})
		return "", false
	}
	return id, true
}

// renderError maps domain errors onto HTTP statuses. Quality-gate failures
// carry the full violation list so the client can show every finding.
func (s *Server) renderError(c *gin.Context, err error) {
	var gateErr *core.QualityGateError
	switch {
	case errors.As(err, &gateErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "data quality checks failed",
			"violations": gateErr.Violations,
		})
	case core.IsSchemaError(err), core.IsTransformError(err), core.IsProjectionError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case app.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// stateResponse shapes the session state for the client. The master dataset
// is omitted; the client plots from the working data and lookups.
func stateResponse(state session.State) gin.H {
	return gin.H{
		"meta_data":     state.MetaData,
		"data_hash":     state.DataHash,
		"working_data":  state.WorkingData,
		"plotting_data": state.PlottingData,
		"version":       state.Version,
	}
}
