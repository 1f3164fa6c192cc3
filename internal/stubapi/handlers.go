package stubapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alquimia/consola/internal/domain/models"
)

// Engine wires the gin engine with the documented endpoint set.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	authed := api.Group("", s.authRequired())
	supervisor := requireRole(string(models.RoleSupervisor))

	authed.GET("/materiales", listHandler(s.listMateriales))
	authed.POST("/materiales", supervisor, s.createMaterial)
	authed.PUT("/materiales/:id", supervisor, s.updateMaterial)
	authed.DELETE("/materiales/:id", supervisor, s.deleteMaterial)
	authed.PATCH("/materiales/:id/ajustar", supervisor, s.adjustMaterial)

	authed.GET("/alquimistas", listHandler(s.listAlquimistas))
	authed.POST("/alquimistas", supervisor, s.createAlquimista)
	authed.PUT("/alquimistas/:id", supervisor, s.updateAlquimista)
	authed.DELETE("/alquimistas/:id", supervisor, s.deleteAlquimista)

	authed.GET("/misiones", listHandler(s.listMisiones))
	authed.POST("/misiones", supervisor, s.createMision)
	authed.PUT("/misiones/:id", supervisor, s.updateMision)
	authed.DELETE("/misiones/:id", supervisor, s.deleteMision)

	authed.GET("/transmutaciones", listHandler(s.listTransmutaciones))
	authed.POST("/transmutaciones", supervisor, s.createTransmutacion)
	authed.PUT("/transmutaciones/:id", supervisor, s.updateTransmutacion)
	authed.DELETE("/transmutaciones/:id", supervisor, s.deleteTransmutacion)

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}

// listHandler adapts one of the store's list functions to the uniform
// {items, page, limit, total} response shape.
func listHandler[T any](list func(listQuery) ([]T, int64)) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		limit, _ := strconv.Atoi(c.Query("limit"))
		q := listQuery{Page: page, Limit: limit, Q: c.Query("q")}.clamped()

		items, total := list(q)
		if items == nil {
			items = []T{}
		}
		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  q.Page,
			"limit": q.Limit,
			"total": total,
		})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return 0, false
	}
	return uint(id), true
}

// --- auth ---

func (s *Server) handleRegister(c *gin.Context) {
	var req models.Registro
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error en servidor"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.findUser(req.Email); exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email ya usado"})
		return
	}
	s.users = append(s.users, userRecord{
		ID:           s.allocID(),
		Email:        req.Email,
		PasswordHash: hash,
		Nombre:       req.Nombre,
		Role:         req.Role,
	})

	c.JSON(http.StatusCreated, gin.H{"message": "usuario registrado correctamente"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req models.Credenciales
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}

	s.mu.RLock()
	user, found := s.findUser(strings.TrimSpace(req.Email))
	s.mu.RUnlock()

	if !found || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credenciales inválidas"})
		return
	}

	token, err := s.createToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generando token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  user.Role,
		"email": user.Email,
		"id":    user.ID,
	})
}

// --- materiales ---

func (s *Server) createMaterial(c *gin.Context) {
	var m models.Material
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}
	if err := m.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.materiales {
		if existing.Nombre == m.Nombre {
			c.JSON(http.StatusConflict, gin.H{"error": "nombre de material duplicado"})
			return
		}
	}

	m.ID = s.allocID()
	touch(&m.CreatedAt)
	touch(&m.UpdatedAt)
	s.materiales = append(s.materiales, m)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMaterial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload models.Material
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.materiales {
		if s.materiales[i].ID != id {
			continue
		}
		// Empty strings keep the stored value; zero is a valid quantity so it
		// always replaces. Same merge rule as the real backend.
		if payload.Nombre != "" {
			s.materiales[i].Nombre = payload.Nombre
		}
		if payload.Unidad != "" {
			s.materiales[i].Unidad = payload.Unidad
		}
		s.materiales[i].Cantidad = payload.Cantidad
		touch(&s.materiales[i].UpdatedAt)
		c.JSON(http.StatusOK, s.materiales[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Material no encontrado"})
}

func (s *Server) deleteMaterial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.materiales {
		if s.materiales[i].ID == id {
			s.materiales = append(s.materiales[:i], s.materiales[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Material no encontrado"})
}

func (s *Server) adjustMaterial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.AjusteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}
	if req.Delta == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Delta no puede ser 0"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.materiales {
		if s.materiales[i].ID != id {
			continue
		}
		nuevo := s.materiales[i].Cantidad + req.Delta
		if nuevo < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuficiente para el ajuste"})
			return
		}
		s.materiales[i].Cantidad = nuevo
		touch(&s.materiales[i].UpdatedAt)
		s.logger.Info("stock adjusted",
			zap.Uint("material_id", id),
			zap.Float64("delta", req.Delta),
			zap.String("motivo", req.Motivo),
			zap.Uint("usuario_id", req.UsuarioID))
		c.JSON(http.StatusOK, s.materiales[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Material no encontrado"})
}

// --- alquimistas ---

func (s *Server) createAlquimista(c *gin.Context) {
	var a models.Alquimista
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}
	if err := a.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.allocID()
	touch(&a.CreatedAt)
	touch(&a.UpdatedAt)
	s.alquimistas = append(s.alquimistas, a)
	c.JSON(http.StatusCreated, a)
}

func (s *Server) updateAlquimista(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload models.Alquimista
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alquimistas {
		if s.alquimistas[i].ID != id {
			continue
		}
		if payload.Nombre != "" {
			s.alquimistas[i].Nombre = payload.Nombre
		}
		if payload.Rango != "" {
			s.alquimistas[i].Rango = payload.Rango
		}
		if payload.Especialidad != "" {
			s.alquimistas[i].Especialidad = payload.Especialidad
		}
		touch(&s.alquimistas[i].UpdatedAt)
		c.JSON(http.StatusOK, s.alquimistas[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Alquimista no encontrado"})
}

func (s *Server) deleteAlquimista(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alquimistas {
		if s.alquimistas[i].ID == id {
			s.alquimistas = append(s.alquimistas[:i], s.alquimistas[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Alquimista no encontrado"})
}

// --- misiones ---

func (s *Server) createMision(c *gin.Context) {
	var m models.Mision
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}
	if err := m.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if m.Prioridad == "" {
		m.Prioridad = models.PrioridadMedia
	}
	if m.Estado == "" {
		m.Estado = models.MisionPendiente
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.allocID()
	touch(&m.CreatedAt)
	touch(&m.UpdatedAt)
	s.misiones = append(s.misiones, m)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMision(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload models.Mision
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.misiones {
		if s.misiones[i].ID != id {
			continue
		}
		if payload.Titulo != "" {
			s.misiones[i].Titulo = payload.Titulo
		}
		if payload.Descripcion != "" {
			s.misiones[i].Descripcion = payload.Descripcion
		}
		if payload.Prioridad != "" {
			s.misiones[i].Prioridad = payload.Prioridad
		}
		if payload.Estado != "" {
			s.misiones[i].Estado = payload.Estado
			if payload.Estado == models.MisionCompletada || payload.Estado == models.MisionRechazada {
				now := time.Now().UTC()
				s.misiones[i].FechaCierre = &now
			}
		}
		if payload.InformeFinal != "" {
			s.misiones[i].InformeFinal = payload.InformeFinal
		}
		touch(&s.misiones[i].UpdatedAt)
		c.JSON(http.StatusOK, s.misiones[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Misión no encontrada"})
}

func (s *Server) deleteMision(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.misiones {
		if s.misiones[i].ID == id {
			s.misiones = append(s.misiones[:i], s.misiones[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Misión no encontrada"})
}

// --- transmutaciones ---

func (s *Server) createTransmutacion(c *gin.Context) {
	var t models.Transmutacion
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}
	if err := t.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if t.Estado == "" {
		t.Estado = "pendiente"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.allocID()
	touch(&t.CreatedAt)
	touch(&t.UpdatedAt)
	s.transmutaciones = append(s.transmutaciones, t)
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTransmutacion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload models.Transmutacion
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transmutaciones {
		if s.transmutaciones[i].ID != id {
			continue
		}
		if payload.Nombre != "" {
			s.transmutaciones[i].Nombre = payload.Nombre
		}
		if payload.Descripcion != "" {
			s.transmutaciones[i].Descripcion = payload.Descripcion
		}
		if payload.Estado != "" {
			s.transmutaciones[i].Estado = payload.Estado
		}
		if payload.Resultado != "" {
			s.transmutaciones[i].Resultado = payload.Resultado
		}
		s.transmutaciones[i].Costo = payload.Costo
		touch(&s.transmutaciones[i].UpdatedAt)
		c.JSON(http.StatusOK, s.transmutaciones[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Transmutación no encontrada"})
}

func (s *Server) deleteTransmutacion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transmutaciones {
		if s.transmutaciones[i].ID == id {
			s.transmutaciones = append(s.transmutaciones[:i], s.transmutaciones[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Transmutación no encontrada"})
}
