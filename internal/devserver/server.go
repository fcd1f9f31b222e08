// Package devserver is a local fixture implementation of the rental
// API the client consumes. It exists for offline development and
// integration tests; behavior mirrors the real backend's observable
// contract, including its {"message": ...} error bodies.
package devserver

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/theaddress/rentals/internal/core/domain"
)

// Config controls token minting and metrics registration.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Metrics receives the server's collectors. Each server defaults
	// to a private registry, so tests can build several instances in
	// one process without collector name collisions.
	Metrics *prometheus.Registry
}

type account struct {
	user         domain.User
	passwordHash []byte
}

// Server holds all fixture state in memory: accounts, listings, and
// uploaded images. State resets on restart by design.
type Server struct {
	e       *echo.Echo
	secret  string
	ttl     time.Duration
	log     zerolog.Logger
	metrics *serverMetrics

	mu         sync.Mutex
	users      map[string]*account
	apartments map[int64]*domain.Apartment
	uploads    map[string][]byte
	nextUserID int64
	nextAptID  int64
}

// New builds the fixture server with a seeded admin account and a few
// listings so the client has something to browse immediately.
func New(cfg Config, log zerolog.Logger) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	registry := cfg.Metrics
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &Server{
		secret:     cfg.JWTSecret,
		ttl:        cfg.TokenTTL,
		log:        log,
		metrics:    newServerMetrics(registry),
		users:      make(map[string]*account),
		apartments: make(map[int64]*domain.Apartment),
		uploads:    make(map[string][]byte),
	}
	s.seed()

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  namespace,
		Registerer: registry,
	}))

	e.POST("/auth/register", s.register)
	e.POST("/auth/login", s.login)

	e.GET("/apartments", s.listApartments)
	e.GET("/apartments/:id", s.getApartment)

	admin := e.Group("/apartments", s.auth, s.requireRole(domain.RoleAdmin))
	admin.POST("", s.createApartment)
	admin.PATCH("/:id", s.updateApartment)
	admin.DELETE("/:id", s.deleteApartment)

	e.GET("/uploads/:name", s.serveUpload)
	e.GET("/health", s.liveness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: registry,
	}))

	s.e = e
	return s
}

// Handler exposes the router for httptest-based integration tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start blocks serving on the configured address.
func (s *Server) Start(addr string) error { return s.e.Start(addr) }

func (s *Server) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	s.nextUserID = 1
	s.users["admin@theaddress.test"] = &account{
		user: domain.User{
			ID:        "1",
			Email:     "admin@theaddress.test",
			FirstName: "Ada",
			LastName:  "Admin",
			Role:      domain.RoleAdmin,
		},
		passwordHash: hash,
	}

	now := time.Now().UTC()
	fixtures := []*domain.Apartment{
		{Name: "Garden Studio", Address: "12 Elm Street", Description: "Bright studio over the courtyard", NumberOfRooms: 1, Price: "850.00", IsAvailable: true},
		{Name: "Two-Bedroom Corner", Address: "48 Birch Avenue", Description: "Corner unit with open kitchen", NumberOfRooms: 2, Price: "1250.50", IsAvailable: true},
		{Name: "Penthouse Loft", Address: "3 Harbor Road", Description: "Top floor, terrace, city view", NumberOfRooms: 4, Price: "2890.00", IsAvailable: false},
	}
	for _, apt := range fixtures {
		s.nextAptID++
		apt.ID = s.nextAptID
		apt.CreatedAt = now
		apt.UpdatedAt = now
		s.apartments[apt.ID] = apt
	}
}

// fail renders the error envelope the real backend uses.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"message": msg})
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return fail(c, http.StatusBadRequest, "email, password, firstName and lastName are required")
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fail(c, http.StatusBadRequest, "role must be user or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not store credentials")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		return fail(c, http.StatusConflict, "Email already registered")
	}
	s.nextUserID++
	acct := &account{
		user: domain.User{
			ID:        strconv.FormatInt(s.nextUserID, 10),
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      role,
		},
		passwordHash: hash,
	}
	s.users[req.Email] = acct
	s.log.Info().Str("email", req.Email).Str("role", role).Msg("account registered")

	// No session fields in the response; logging in is a separate call.
	return c.JSON(http.StatusCreated, acct.user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.mu.Lock()
	acct, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		s.metrics.authFailures.Inc()
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.mintToken(acct.user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"access_token": token,
		"user":         acct.user,
	})
}

func (s *Server) listApartments(c echo.Context) error {
	// Serialization happens after the lock is released, so handlers
	// only ever hand value copies to the JSON encoder.
	s.mu.Lock()
	out := make([]domain.Apartment, 0, len(s.apartments))
	for _, apt := range s.apartments {
		out = append(out, *apt)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getApartment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid apartment id")
	}

	s.mu.Lock()
	apt, ok := s.apartments[id]
	var snapshot domain.Apartment
	if ok {
		snapshot = *apt
	}
	s.mu.Unlock()
	if !ok {
		return fail(c, http.StatusNotFound, "Apartment not found")
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (s *Server) createApartment(c echo.Context) error {
	fields, imageKey, err := s.readForm(c, true)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.nextAptID++
	apt := &domain.Apartment{
		ID:            s.nextAptID,
		Name:          fields.name,
		Address:       fields.address,
		Description:   fields.description,
		NumberOfRooms: fields.rooms,
		Price:         fields.price,
		IsAvailable:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if imageKey != "" {
		apt.ImageURL = "/uploads/" + imageKey
	}
	s.apartments[apt.ID] = apt
	snapshot := *apt
	s.mu.Unlock()

	s.metrics.listingMutations.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, snapshot)
}

func (s *Server) updateApartment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid apartment id")
	}

	fields, imageKey, err := s.readForm(c, false)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	apt, ok := s.apartments[id]
	if !ok {
		s.mu.Unlock()
		return fail(c, http.StatusNotFound, "Apartment not found")
	}

	// Partial-update semantics: only supplied fields are applied.
	if fields.name != "" {
		apt.Name = fields.name
	}
	if fields.address != "" {
		apt.Address = fields.address
	}
	if fields.description != "" {
		apt.Description = fields.description
	}
	if fields.rooms > 0 {
		apt.NumberOfRooms = fields.rooms
	}
	if fields.price != "" {
		apt.Price = fields.price
	}
	if imageKey != "" {
		apt.ImageURL = "/uploads/" + imageKey
	}
	apt.UpdatedAt = time.Now().UTC()
	snapshot := *apt
	s.mu.Unlock()

	s.metrics.listingMutations.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, snapshot)
}

func (s *Server) deleteApartment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid apartment id")
	}

	s.mu.Lock()
	_, ok := s.apartments[id]
	delete(s.apartments, id)
	s.mu.Unlock()
	if !ok {
		return fail(c, http.StatusNotFound, "Apartment not found")
	}

	s.metrics.listingMutations.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) serveUpload(c echo.Context) error {
	s.mu.Lock()
	data, ok := s.uploads[c.Param("name")]
	s.mu.Unlock()
	if !ok {
		return fail(c, http.StatusNotFound, "Upload not found")
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

func (s *Server) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type formFields struct {
	name        string
	address     string
	description string
	rooms       int
	price       string
}

// readForm parses the multipart mutation payload. With strict set (the
// create path) all text fields are required and numbers must be
// positive; the update path accepts any subset.
func (s *Server) readForm(c echo.Context, strict bool) (formFields, string, error) {
	f := formFields{
		name:        c.FormValue("name"),
		address:     c.FormValue("address"),
		description: c.FormValue("description"),
	}

	if rooms := c.FormValue("numberOfRooms"); rooms != "" {
		n, err := strconv.Atoi(rooms)
		if err != nil || n <= 0 {
			return f, "", fmt.Errorf("numberOfRooms must be a positive integer")
		}
		f.rooms = n
	}
	if price := c.FormValue("price"); price != "" {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil || p <= 0 {
			return f, "", fmt.Errorf("price must be a positive decimal")
		}
		f.price = price
	}

	if strict {
		if f.name == "" || f.address == "" || f.description == "" {
			return f, "", fmt.Errorf("name, address and description are required")
		}
		if f.rooms == 0 {
			return f, "", fmt.Errorf("numberOfRooms is required")
		}
		if f.price == "" {
			return f, "", fmt.Errorf("price is required")
		}
	}

	imageKey, err := s.storeUpload(c)
	if err != nil {
		return f, "", err
	}
	return f, imageKey, nil
}
