// Package controller implements the shared list-view life cycle every
// resource screen needs: paginated fetch, create, edit-in-place, delete and
// stock adjustment, with the visible state always matching the last
// successful server response.
package controller

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/internal/session"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

// API is the transport surface the controller drives. *alquimia.Resource[R]
// satisfies it; tests substitute fakes.
type API[R models.Record] interface {
	List(ctx context.Context, params alquimia.ListParams) (*alquimia.Page[R], error)
	Create(ctx context.Context, record R) (*R, error)
	Update(ctx context.Context, id uint, record R) (*R, error)
	Delete(ctx context.Context, id uint) error
	Adjust(ctx context.Context, id uint, adjustment models.AjusteRequest) (*R, error)
}

var (
	// ErrBusy means an operation is already in flight from this view; the
	// triggering control must stay disabled until it settles.
	ErrBusy = errors.New("operación en curso")
	// ErrNotAllowed means the active session's role may not mutate this
	// resource. UX gate only; the server re-checks every call.
	ErrNotAllowed = errors.New("requiere rol supervisor")
	// ErrNoEdit means no edit session is open.
	ErrNoEdit = errors.New("ningún registro en edición")
	// ErrNoAdjust means no adjustment target is selected.
	ErrNoAdjust = errors.New("ningún material seleccionado para ajuste")
	// ErrNotConfirmed means the user declined the irreversible-action prompt.
	ErrNotConfirmed = errors.New("eliminación cancelada")
	// ErrNotFound means the record is not on the currently displayed page.
	ErrNotFound = errors.New("registro no visible en la página actual")
)

// PendingAjuste is the adjustment input being typed for one material.
type PendingAjuste struct {
	ID     uint
	Delta  float64
	Motivo string
}

type editSession[R models.Record] struct {
	id    uint
	draft R
}

// ResourceController owns the page state and the mutating operations for one
// resource kind. One instance is created per kind; instances share nothing.
type ResourceController[R models.Record] struct {
	api      API[R]
	sessions *session.Store
	logger   *zap.Logger
	confirm  func(R) bool

	mu         sync.Mutex
	page       alquimia.Page[R]
	query      string
	limit      int
	editing    *editSession[R]
	ajuste     *PendingAjuste
	info       string
	errMsg     string
	loading    bool
	submitting bool
	seq        uint64
	applied    uint64
}

// Option configures a controller at construction.
type Option[R models.Record] func(*ResourceController[R])

// WithConfirm installs the irreversible-action prompt used before deletes.
// Without one, Remove always refuses.
func WithConfirm[R models.Record](fn func(R) bool) Option[R] {
	return func(c *ResourceController[R]) { c.confirm = fn }
}

// WithLimit sets the page size.
func WithLimit[R models.Record](limit int) Option[R] {
	return func(c *ResourceController[R]) {
		if limit >= 1 {
			c.limit = limit
		}
	}
}

// New builds a controller over the given transport and session store.
func New[R models.Record](api API[R], sessions *session.Store, logger *zap.Logger, opts ...Option[R]) *ResourceController[R] {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ResourceController[R]{
		api:      api,
		sessions: sessions,
		logger:   logger,
		limit:    10,
		page:     alquimia.Page[R]{Page: 1, Limit: 10},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.page.Limit = c.limit
	return c
}

// State is a consistent snapshot of everything a view renders.
type State[R models.Record] struct {
	Items      []R
	Page       int
	Limit      int
	Total      int64
	TotalPages int
	Query      string
	Loading    bool
	Submitting bool
	Info       string
	Error      string
	Editing    *R
	Ajuste     *PendingAjuste
}

// Snapshot returns the current view state. The slice is copied so the caller
// never observes a partial replacement.
func (c *ResourceController[R]) Snapshot() State[R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State[R]{
		Items:      append([]R(nil), c.page.Items...),
		Page:       c.page.Page,
		Limit:      c.page.Limit,
		Total:      c.page.Total,
		TotalPages: c.page.TotalPages(),
		Query:      c.query,
		Loading:    c.loading,
		Submitting: c.submitting,
		Info:       c.info,
		Error:      c.errMsg,
	}
	if c.editing != nil {
		draft := c.editing.draft
		st.Editing = &draft
	}
	if c.ajuste != nil {
		pending := *c.ajuste
		st.Ajuste = &pending
	}
	return st
}

// CanMutate reports whether mutating controls should be offered at all.
func (c *ResourceController[R]) CanMutate() bool {
	return session.CanMutate(c.sessions.Get())
}

// Load fetches the given page with the current limit and query.
//
// A newer Load supersedes the displayed result of any older in-flight one:
// each call takes a monotonic sequence number and a response is applied only
// if its number is the highest seen so far, so out-of-order arrivals of stale
// pages are ignored rather than flashed at the user.
func (c *ResourceController[R]) Load(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	params := alquimia.ListParams{Page: page, Limit: c.limit, Query: c.query}
	c.loading = true
	c.mu.Unlock()

	result, err := c.api.List(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq == c.seq {
		c.loading = false
	}
	if seq < c.applied {
		// A newer response already landed; this one is stale.
		return nil
	}
	c.applied = seq

	if err != nil {
		// Previously held page stays untouched.
		c.setErrorLocked(userMessage(err, "error cargando datos"))
		return err
	}

	c.page = *result
	c.errMsg = ""
	return nil
}

// Search resets the filter and jumps back to the first page.
func (c *ResourceController[R]) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	return c.Load(ctx, 1)
}

// NextPage advances one page, clamped to the last one.
func (c *ResourceController[R]) NextPage(ctx context.Context) error {
	c.mu.Lock()
	target := c.page.Page + 1
	if last := c.page.TotalPages(); target > last {
		target = last
	}
	c.mu.Unlock()
	return c.Load(ctx, target)
}

// PrevPage steps one page back, clamped to the first one.
func (c *ResourceController[R]) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	target := c.page.Page - 1
	if target < 1 {
		target = 1
	}
	c.mu.Unlock()
	return c.Load(ctx, target)
}

// Create validates and submits a new record. On success the view jumps to
// page 1: the record's position in server sort order may not be on the
// current page.
func (c *ResourceController[R]) Create(ctx context.Context, record R) error {
	if err := record.Validate(); err != nil {
		c.setError(err.Error())
		return err
	}

	release, err := c.beginSubmit()
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.api.Create(ctx, record); err != nil {
		c.setError(userMessage(err, "no se pudo crear (¿nombre duplicado?)"))
		return err
	}

	c.setInfo("registro creado")
	return c.Load(ctx, 1)
}

// StartEdit opens an edit session with a working copy of the record's fields.
// Starting an edit while another is open discards the older draft: last edit
// wins, no merge.
func (c *ResourceController[R]) StartEdit(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.page.Items {
		if item.RecordID() == id {
			c.editing = &editSession[R]{id: id, draft: item}
			return nil
		}
	}
	return ErrNotFound
}

// SetDraft replaces the working copy of the open edit session.
func (c *ResourceController[R]) SetDraft(draft R) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editing == nil {
		return ErrNoEdit
	}
	c.editing.draft = draft
	return nil
}

// CancelEdit discards the working copy.
func (c *ResourceController[R]) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// SaveEdit commits the open edit session via update. On success the edit
// session ends and the current page is refreshed (editing does not change a
// record's page position). On failure the draft is preserved so the user
// does not lose typed input.
func (c *ResourceController[R]) SaveEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.editing == nil {
		c.mu.Unlock()
		return ErrNoEdit
	}
	id, draft := c.editing.id, c.editing.draft
	currentPage := c.page.Page
	c.mu.Unlock()

	if err := draft.Validate(); err != nil {
		c.setError(err.Error())
		return err
	}

	release, err := c.beginSubmit()
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.api.Update(ctx, id, draft); err != nil {
		c.setError(userMessage(err, "no se pudo actualizar"))
		return err
	}

	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()

	c.setInfo("registro actualizado")
	return c.Load(ctx, currentPage)
}

// Remove deletes a record after the installed confirmation prompt accepts.
// If the deletion empties the current page the view steps back one page
// instead of showing an empty one.
func (c *ResourceController[R]) Remove(ctx context.Context, id uint) error {
	c.mu.Lock()
	var target *R
	for _, item := range c.page.Items {
		if item.RecordID() == id {
			found := item
			target = &found
			break
		}
	}
	c.mu.Unlock()

	if target == nil {
		return ErrNotFound
	}
	if c.confirm == nil || !c.confirm(*target) {
		return ErrNotConfirmed
	}

	release, err := c.beginSubmit()
	if err != nil {
		return err
	}
	defer release()

	if err := c.api.Delete(ctx, id); err != nil {
		c.setError(userMessage(err, "no se pudo eliminar"))
		return err
	}

	c.mu.Lock()
	nextPage := c.page.Page
	if last := alquimia.PageCount(c.page.Total-1, c.page.Limit); nextPage > last {
		nextPage = last
	}
	c.mu.Unlock()

	c.setInfo("registro eliminado")
	return c.Load(ctx, nextPage)
}

// StartAjuste selects the material a stock adjustment will target.
func (c *ResourceController[R]) StartAjuste(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.page.Items {
		if item.RecordID() == id {
			c.ajuste = &PendingAjuste{ID: id}
			return nil
		}
	}
	return ErrNotFound
}

// CancelAjuste discards the pending adjustment input.
func (c *ResourceController[R]) CancelAjuste() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ajuste = nil
}

// ApplyAjuste submits the pending adjustment. A zero delta is rejected as a
// no-op before any network call. On success the input is cleared and the
// current page refreshed; on failure the typed input is retained.
func (c *ResourceController[R]) ApplyAjuste(ctx context.Context, delta float64, motivo string) error {
	c.mu.Lock()
	if c.ajuste == nil {
		c.mu.Unlock()
		return ErrNoAdjust
	}
	c.ajuste.Delta = delta
	c.ajuste.Motivo = motivo
	id := c.ajuste.ID
	currentPage := c.page.Page
	c.mu.Unlock()

	if delta == 0 {
		err := &models.ValidationError{Field: "delta", Reason: "no puede ser 0"}
		c.setError(err.Error())
		return err
	}

	release, err := c.beginSubmit()
	if err != nil {
		return err
	}
	defer release()

	if motivo == "" {
		motivo = "Ajuste manual"
	}
	req := models.AjusteRequest{
		Delta:     delta,
		Motivo:    motivo,
		UsuarioID: c.sessions.Get().UserID,
	}

	if _, err := c.api.Adjust(ctx, id, req); err != nil {
		c.setError(userMessage(err, "no se pudo ajustar el stock"))
		return err
	}

	c.mu.Lock()
	c.ajuste = nil
	c.mu.Unlock()

	c.setInfo("stock ajustado")
	return c.Load(ctx, currentPage)
}

// beginSubmit is the re-entrancy guard shared by all mutating operations.
func (c *ResourceController[R]) beginSubmit() (func(), error) {
	if !c.CanMutate() {
		return nil, ErrNotAllowed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return nil, ErrBusy
	}
	c.submitting = true

	return func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}, nil
}

// Success and error messages are single-slot and mutually exclusive.

func (c *ResourceController[R]) setInfo(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = msg
	c.errMsg = ""
}

func (c *ResourceController[R]) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setErrorLocked(msg)
}

func (c *ResourceController[R]) setErrorLocked(msg string) {
	c.errMsg = msg
	c.info = ""
}

// userMessage maps an operation error onto the text shown to the user: a
// validation problem or a verbatim server message when available, otherwise
// the per-operation fallback.
func userMessage(err error, fallback string) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	var se *alquimia.ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	return fallback
}
