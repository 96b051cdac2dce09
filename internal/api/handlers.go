// Package api exposes the contact management endpoints consumed by the
// platform frontend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/rolodex/internal/config"
	"gitea.jw6.us/james/rolodex/internal/contact"
	httperrors "gitea.jw6.us/james/rolodex/internal/http/errors"
	"gitea.jw6.us/james/rolodex/internal/metrics"
	"gitea.jw6.us/james/rolodex/internal/qr"
	"gitea.jw6.us/james/rolodex/internal/store"
	"gitea.jw6.us/james/rolodex/internal/vcard"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handler serves the /api routes.
type Handler struct {
	cfg      *config.Config
	contacts store.ContactRepository
}

func NewHandler(cfg *config.Config, contacts store.ContactRepository) *Handler {
	return &Handler{cfg: cfg, contacts: contacts}
}

// Routes mounts the contact endpoints on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/contacts/import", h.ImportContacts)
	r.Get("/contacts", h.ListContacts)
	r.Post("/contacts", h.CreateContact)
	r.Get("/contacts/{id}", h.GetContact)
	r.Put("/contacts/{id}", h.UpdateContact)
	r.Delete("/contacts/{id}", h.DeleteContact)
	r.Get("/contacts/{id}/vcard", h.ExportVCard)
	r.Post("/qrcode", h.RenderQR)
	return r
}

type listResponse struct {
	Contacts []*contact.Contact `json:"contacts"`
	Total    int                `json:"total"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Contacts []*contact.Contact `json:"contacts"`
}

type fragmentFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type importFailure struct {
	Error     string            `json:"error"`
	Fragments []fragmentFailure `json:"fragments"`
}

// ImportContacts accepts a .vcf upload and inserts every decoded contact in
// one transaction. One malformed vCard fails the whole upload; the response
// enumerates every bad fragment so the client can show them all at once.
func (h *Handler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Import.MaxUploadBytes)

	blob, err := uploadedVCF(r)
	if err != nil {
		httperrors.BadRequestError(w, r, err, "expected a vcf upload in the 'file' field")
		return
	}

	fragments := len(vcard.SplitEntries(blob))
	contacts, err := vcard.DecodeParallel(blob, h.cfg.Import.Workers)
	if err != nil {
		var batch vcard.DecodeErrors
		if errors.As(err, &batch) {
			metrics.ObserveImport(fragments, len(batch))
			httperrors.LogInfo(r, fmt.Sprintf("import rejected: %d of %d fragment(s) invalid", len(batch), fragments))
			writeImportFailure(w, batch)
			return
		}
		httperrors.InternalError(w, r, err, "decode upload")
		return
	}
	metrics.ObserveImport(fragments, 0)

	if err := h.contacts.CreateBatch(r.Context(), contacts); err != nil {
		httperrors.InternalError(w, r, err, "insert imported contacts")
		return
	}

	httperrors.LogInfo(r, fmt.Sprintf("imported %d contact(s)", len(contacts)))
	writeJSON(w, http.StatusCreated, importResponse{Imported: len(contacts), Contacts: contacts})
}

func writeImportFailure(w http.ResponseWriter, batch vcard.DecodeErrors) {
	failure := importFailure{
		Error:     fmt.Sprintf("%d vCard fragment(s) could not be decoded", len(batch)),
		Fragments: make([]fragmentFailure, len(batch)),
	}
	for i, fe := range batch {
		failure.Fragments[i] = fragmentFailure{Index: fe.Index, Message: fe.Err.Error()}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(failure)
}

// uploadedVCF reads the vCard text from a multipart 'file' field, or from the
// raw body for text/vcard requests.
func uploadedVCF(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("read form file: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("read upload: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty body")
	}
	return string(data), nil
}

// ListContacts returns a page of contacts, optionally filtered by ?q=.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  queryInt(r, "limit", defaultPageSize),
		Offset: queryInt(r, "offset", 0),
	}
	if opts.Limit < 1 || opts.Limit > maxPageSize {
		opts.Limit = defaultPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	contacts, err := h.contacts.List(r.Context(), opts)
	if err != nil {
		httperrors.InternalError(w, r, err, "list contacts")
		return
	}
	total, err := h.contacts.Count(r.Context(), opts.Search)
	if err != nil {
		httperrors.InternalError(w, r, err, "count contacts")
		return
	}
	if contacts == nil {
		contacts = []*contact.Contact{}
	}
	writeJSON(w, http.StatusOK, listResponse{Contacts: contacts, Total: total})
}

// GetContact returns a single contact by id.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateContact inserts a contact from a JSON body. Missing identifiers are
// assigned server-side.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c contact.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid contact json")
		return
	}
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		httperrors.BadRequestError(w, r, fmt.Errorf("contact has no name"), "first_name or last_name is required")
		return
	}
	assignIDs(&c)

	if err := h.contacts.Create(r.Context(), &c); err != nil {
		httperrors.InternalError(w, r, err, "create contact")
		return
	}
	writeJSON(w, http.StatusCreated, &c)
}

// UpdateContact replaces a contact. The path id wins over any id in the body.
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var c contact.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid contact json")
		return
	}
	c.ID = chi.URLParam(r, "id")
	assignIDs(&c)

	err := h.contacts.Update(r.Context(), &c)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r)
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "update contact")
		return
	}
	writeJSON(w, http.StatusOK, &c)
}

// DeleteContact removes a contact by id.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.contacts.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r)
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportVCard serves a contact as a downloadable vCard 4.0 file.
func (h *Handler) ExportVCard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	body := vcard.Encode(c)
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(c)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

type qrRequest struct {
	VCard string `json:"vcard"`
	Width int    `json:"width"`
}

// RenderQR answers with an SVG QR code of the posted vCard text.
func (h *Handler) RenderQR(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid qr request json")
		return
	}
	if strings.TrimSpace(req.VCard) == "" {
		httperrors.BadRequestError(w, r, fmt.Errorf("empty vcard"), "vcard text is required")
		return
	}

	svg, err := qr.RenderSVG(req.VCard, req.Width)
	if err != nil {
		httperrors.InternalError(w, r, err, "render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*contact.Contact, bool) {
	id := chi.URLParam(r, "id")
	c, err := h.contacts.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r)
		return nil, false
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "get contact")
		return nil, false
	}
	return c, true
}

// assignIDs fills missing identifiers on the contact and its sub-items.
func assignIDs(c *contact.Contact) {
	if c.ID == "" {
		c.ID = contact.NewID()
	}
	for i := range c.EmailAddresses {
		if c.EmailAddresses[i].ID == "" {
			c.EmailAddresses[i].ID = contact.NewID()
		}
	}
	for i := range c.PhoneNumbers {
		if c.PhoneNumbers[i].ID == "" {
			c.PhoneNumbers[i].ID = contact.NewID()
		}
	}
	for i := range c.MailingAddresses {
		if c.MailingAddresses[i].ID == "" {
			c.MailingAddresses[i].ID = contact.NewID()
		}
	}
	for i := range c.Dates {
		if c.Dates[i].ID == "" {
			c.Dates[i].ID = contact.NewID()
		}
	}
	for i := range c.URLs {
		if c.URLs[i].ID == "" {
			c.URLs[i].ID = contact.NewID()
		}
	}
	for i := range c.Notes {
		if c.Notes[i].ID == "" {
			c.Notes[i].ID = contact.NewID()
		}
	}
}

func exportFilename(c *contact.Contact) string {
	name := strings.TrimSpace(c.DisplayName())
	if name == "" {
		name = "contact"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	return name + ".vcf"
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
