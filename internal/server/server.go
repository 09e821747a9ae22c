package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/converter"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/store"
	"github.com/rezonia/einvoice/internal/validator"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool

	// BatchLimit is the default parallelism of batch generation
	BatchLimit int
}

// Settings reads and writes per-owner configuration
type Settings interface {
	Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error)
	Put(ctx context.Context, cfg model.ComplianceConfiguration) error
}

// Services are the collaborators behind the API
type Services struct {
	Orchestrator *compliance.Orchestrator
	Artifacts    compliance.ArtifactStore
	Settings     Settings
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	svc      Services
	embedder *container.Embedder
}

// NewServer creates a new API server
func NewServer(config *Config, svc Services) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	if svc.Gatherer == nil {
		svc.Gatherer = prometheus.DefaultGatherer
	}
	if config.BatchLimit < 1 {
		config.BatchLimit = 4
	}

	s := &Server{
		config:   config,
		router:   router,
		svc:      svc,
		embedder: container.NewEmbedder(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.svc.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		// Generation
		v1.POST("/generate", s.handleGenerate)
		v1.POST("/generate/batch", s.handleGenerateBatch)

		// Stateless document operations
		v1.POST("/validate", s.handleValidate)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/embed", s.handleEmbed)
		v1.POST("/check", s.handleCheck)
		v1.POST("/score", s.handleScore)

		// Artifacts and owner settings
		v1.GET("/artifacts/:id", s.handleGetArtifact)
		v1.GET("/owners/:owner/artifacts", s.handleListArtifacts)
		v1.GET("/owners/:owner/settings", s.handleGetSettings)
		v1.PUT("/owners/:owner/settings", s.handlePutSettings)
		v1.GET("/owners/:owner/score", s.handleOwnerScore)
	}
}

// Run starts the HTTP server and shuts it down when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	if s.svc.Orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "generation is not configured"})
		return
	}

	var req compliance.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if err := normalizeFormat(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	outcome, err := s.svc.Orchestrator.Generate(ctx, req)
	if err != nil {
		c.JSON(statusFor(err), GenerateResponse{Generated: outcome != nil, Outcome: outcome, Error: err.Error()})
		return
	}
	if outcome == nil {
		c.JSON(http.StatusOK, GenerateResponse{Generated: false})
		return
	}
	c.JSON(http.StatusCreated, GenerateResponse{Generated: true, Outcome: outcome})
}

func (s *Server) handleGenerateBatch(c *gin.Context) {
	if s.svc.Orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "generation is not configured"})
		return
	}

	var reqs []compliance.Request
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	for i := range reqs {
		if err := normalizeFormat(&reqs[i]); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(s.config.BatchLimit)))
	if err != nil || limit < 1 {
		limit = s.config.BatchLimit
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	results := s.svc.Orchestrator.GenerateBatch(ctx, reqs, limit)
	resp := make([]BatchItem, len(results))
	for i, r := range results {
		resp[i] = BatchItem{InvoiceID: r.InvoiceID, Outcome: r.Outcome}
		if r.Err != nil {
			resp[i].Error = r.Err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleValidate(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	tag, err := formatParam(c, "format", body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result := validator.Validate(body, tag)
	if c.Query("strict") == "true" {
		result = result.Strict()
	}

	c.JSON(http.StatusOK, ValidationResponse{
		Valid:    result.Valid,
		Format:   string(result.Format),
		Standard: string(model.DetectStandard(body)),
		Errors:   result.Errors,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleConvert(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	from, err := formatParam(c, "from", body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	to, err := model.ParseFormatTag(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid target format", Details: err.Error()})
		return
	}

	conv := converter.New(converter.WithBuyerReference(c.Query("buyer_reference")))
	result, err := conv.Convert(body, from, to)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: "conversion failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEmbed(c *gin.Context) {
	var req EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	out, err := s.embedder.Embed(req.Container, req.Document, req.AttachmentName)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "embedding failed", Details: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/pdf", out)
}

func (s *Server) handleCheck(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, compliance.CheckDocument(body))
}

func (s *Server) handleScore(c *gin.Context) {
	var cfg model.ComplianceConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, compliance.ComputeScore(cfg))
}

func (s *Server) handleGetArtifact(c *gin.Context) {
	if s.svc.Artifacts == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "artifact store is not configured"})
		return
	}

	artifact, err := s.svc.Artifacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: "artifact lookup failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, artifact)
}

func (s *Server) handleListArtifacts(c *gin.Context) {
	if s.svc.Artifacts == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "artifact store is not configured"})
		return
	}

	list, err := s.svc.Artifacts.ListByOwner(c.Request.Context(), c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "artifact listing failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	cfg, ok := s.loadSettings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handlePutSettings(c *gin.Context) {
	if s.svc.Settings == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "settings store is not configured"})
		return
	}

	var cfg model.ComplianceConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	cfg.OwnerID = c.Param("owner")

	if err := s.svc.Settings.Put(c.Request.Context(), cfg); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: "storing settings failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleOwnerScore(c *gin.Context) {
	cfg, ok := s.loadSettings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, compliance.ComputeScore(cfg))
}

func (s *Server) loadSettings(c *gin.Context) (model.ComplianceConfiguration, bool) {
	if s.svc.Settings == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "settings store is not configured"})
		return model.ComplianceConfiguration{}, false
	}
	cfg, err := s.svc.Settings.Load(c.Request.Context(), c.Param("owner"))
	if err != nil {
		s.svc.Logger.ErrorContext(c.Request.Context(), "settings load failed", "owner_id", c.Param("owner"), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "loading settings failed", Details: err.Error()})
		return model.ComplianceConfiguration{}, false
	}
	return cfg, true
}

// Helper functions

func readBody(c *gin.Context) (string, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return "", false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return "", false
	}
	return string(body), true
}

// formatParam reads a format query parameter, detecting it from the
// document root when absent.
func formatParam(c *gin.Context, name, doc string) (model.FormatTag, error) {
	if v := c.Query(name); v != "" {
		return model.ParseFormatTag(v)
	}
	return validator.DetectFormat(doc)
}

func normalizeFormat(req *compliance.Request) error {
	if req.Format == "" {
		return nil
	}
	tag, err := model.ParseFormatTag(string(req.Format))
	if err != nil {
		return err
	}
	req.Format = tag
	return nil
}

func statusFor(err error) int {
	var inputErr *model.InputError
	var collabErr *model.CollaboratorError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &collabErr):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
