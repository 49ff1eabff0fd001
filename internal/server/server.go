// Package server exposes the HTTP API: operator auth, document browsing,
// ledger reference data and the document import endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/docvision/internal/auth"
	"github.com/rezonia/docvision/internal/importer"
	"github.com/rezonia/docvision/internal/ledger"
	"github.com/rezonia/docvision/internal/source"
	"github.com/rezonia/docvision/internal/store"
)

// Config holds server configuration
type Config struct {
	Address        string
	JWTSecret      string
	SessionTTL     time.Duration
	AttachedUserID int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Debug          bool
}

// SourceAPI is the document-source surface the handlers need
type SourceAPI interface {
	Documents(ctx context.Context, userKey string, filter source.ListFilter) (*source.DocumentList, error)
	Document(ctx context.Context, userKey, documentID string) (*source.Document, error)
	DownloadPDF(ctx context.Context, userKey, documentID string) ([]byte, error)
}

// LedgerAPI is the ledger surface the handlers need
type LedgerAPI interface {
	Stocks(ctx context.Context) ([]ledger.Stock, error)
	Currencies(ctx context.Context) ([]ledger.Currency, error)
	PriceTypes(ctx context.Context) ([]ledger.PriceType, error)
	ItemGroups(ctx context.Context) ([]ledger.ItemGroup, error)
	Partners(ctx context.Context, filter ledger.PartnerFilter) ([]ledger.Partner, error)
	PartnerGroups(ctx context.Context) ([]ledger.PartnerGroup, error)
	AddPartner(ctx context.Context, fields ledger.PartnerFields) (int64, error)
}

// ImportRunner runs one import batch
type ImportRunner interface {
	Run(ctx context.Context, lines []importer.LineInput, params importer.Parameters) *importer.Result
}

// Dependencies are the collaborators the server wires together
type Dependencies struct {
	Store        *store.Store
	Sessions     *auth.SessionManager
	AuthProvider auth.AuthenticationProvider
	Source       SourceAPI
	Ledger       LedgerAPI
	Importer     ImportRunner
	Logger       *slog.Logger
}

// Server is the HTTP API server
type Server struct {
	config *Config
	router *gin.Engine
	deps   Dependencies
	log    *slog.Logger
}

// NewServer creates the API server
func NewServer(config *Config, deps Dependencies) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		config: config,
		router: router,
		deps:   deps,
		log:    log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("")
	authed.Use(s.sessionRequired())
	{
		authed.POST("/auth/source-login", s.handleSourceLogin)

		authed.GET("/documents", s.handleDocuments)
		authed.GET("/documents/:id", s.handleDocument)
		authed.GET("/documents/:id/download", s.handleDownload)
		authed.POST("/documents/:id/import", s.handleImport)

		authed.GET("/ledger/stocks", s.handleStocks)
		authed.GET("/ledger/currencies", s.handleCurrencies)
		authed.GET("/ledger/price-types", s.handlePriceTypes)
		authed.GET("/ledger/item-groups", s.handleItemGroups)
		authed.GET("/ledger/partners", s.handlePartners)
		authed.GET("/ledger/partner-groups", s.handlePartnerGroups)
		authed.POST("/ledger/partners", s.handleCreatePartner)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

const sessionKey = "session"

// sessionRequired verifies the Bearer session token and stores the session
// on the request context
func (s *Server) sessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
			return
		}

		session, err := s.deps.Sessions.Verify(header[len(prefix):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func currentSession(c *gin.Context) *auth.Session {
	v, _ := c.Get(sessionKey)
	session, _ := v.(*auth.Session)
	return session
}

// sourceKey loads the stored document-source session token for the current
// operator; replies 400 when none has been stored yet
func (s *Server) sourceKey(c *gin.Context) (string, bool) {
	session := currentSession(c)
	key, err := s.deps.Store.SourceToken(c.Request.Context(), session.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "token lookup failed", Details: err.Error()})
		return "", false
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "no document source session; authenticate via /api/auth/source-login first",
		})
		return "", false
	}
	return key, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	user, err := s.deps.Store.UserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "user lookup failed"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect username or password"})
		return
	}

	token, err := s.deps.Sessions.Issue(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session issue failed"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleSourceLogin(c *gin.Context) {
	var req SourceLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	token, err := s.deps.AuthProvider.Authenticate(ctx, req.TaxID, auth.SignedProof{
		PKCS7:        req.PKCS7,
		SignatureHex: req.SignatureHex,
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "source authentication failed", Details: err.Error()})
		return
	}

	session := currentSession(c)
	if err := s.deps.Store.SaveSourceToken(c.Request.Context(), session.UserID, token); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "token save failed", Details: err.Error()})
		return
	}

	s.log.Info("source token saved", "user", session.Username)
	c.JSON(http.StatusOK, AuthResponse{Success: true, Message: "source session saved"})
}

func (s *Server) handleDocuments(c *gin.Context) {
	key, ok := s.sourceKey(c)
	if !ok {
		return
	}

	filter := source.ListFilter{
		Owner:        intQuery(c, "owner", source.OwnerOutgoing),
		Page:         intQuery(c, "page", 1),
		Limit:        intQuery(c, "limit", 20),
		DocumentType: c.Query("document_type"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		Partner:      c.Query("partner"),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	list, err := s.deps.Source.Documents(ctx, key, filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "document list failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (s *Server) handleDocument(c *gin.Context) {
	key, ok := s.sourceKey(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	doc, err := s.deps.Source.Document(ctx, key, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "document fetch failed", Details: err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/json", doc.Raw())
}

func (s *Server) handleDownload(c *gin.Context) {
	key, ok := s.sourceKey(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	pdf, err := s.deps.Source.DownloadPDF(ctx, key, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "document download failed", Details: err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) handleImport(c *gin.Context) {
	key, ok := s.sourceKey(c)
	if !ok {
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	if req.Parameters.AttachedUserID == 0 {
		req.Parameters.AttachedUserID = s.config.AttachedUserID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	doc, err := s.deps.Source.Document(ctx, key, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "document fetch failed", Details: err.Error()})
		return
	}

	lines := doc.Lines()
	inputs := make([]importer.LineInput, len(lines))
	for i, line := range lines {
		inputs[i] = importer.LineInput{Line: line}
		if ov, ok := req.Overrides[strconv.Itoa(i)]; ok {
			inputs[i].OverrideCode = ov.Code
			inputs[i].OverrideBarcode = ov.Barcode
		}
	}

	result := s.deps.Importer.Run(ctx, inputs, req.Parameters)

	resp := ImportResponse{
		RunID:       result.RunID,
		State:       result.State,
		Reason:      result.Reason,
		DocumentID:  result.DocumentID,
		Counts:      result.Counts,
		Resolutions: result.Resolutions,
		Error:       result.ErrorMessage(),
	}

	switch result.State {
	case importer.StateDone:
		c.JSON(http.StatusOK, resp)
	case importer.StatePartiallyDone:
		// The header exists without operations; 409 so callers cannot
		// mistake this for a clean failure.
		c.JSON(http.StatusConflict, resp)
	default:
		c.JSON(http.StatusUnprocessableEntity, resp)
	}
}

func (s *Server) handleStocks(c *gin.Context) {
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.Stocks(ctx)
	})
}

func (s *Server) handleCurrencies(c *gin.Context) {
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.Currencies(ctx)
	})
}

func (s *Server) handlePriceTypes(c *gin.Context) {
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.PriceTypes(ctx)
	})
}

func (s *Server) handleItemGroups(c *gin.Context) {
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.ItemGroups(ctx)
	})
}

func (s *Server) handlePartnerGroups(c *gin.Context) {
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.PartnerGroups(ctx)
	})
}

func (s *Server) handlePartners(c *gin.Context) {
	filter := ledger.PartnerFilter{
		Search: c.Query("search"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	s.refdata(c, func(ctx context.Context) (interface{}, error) {
		return s.deps.Ledger.Partners(ctx, filter)
	})
}

func (s *Server) handleCreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	id, err := s.deps.Ledger.AddPartner(ctx, req.fields())
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "partner creation failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, CreatedResponse{ID: id})
}

func (s *Server) refdata(c *gin.Context, fetch func(ctx context.Context) (interface{}, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := fetch(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "ledger call failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
