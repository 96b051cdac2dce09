package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.jw6.us/james/rolodex/internal/config"
	"gitea.jw6.us/james/rolodex/internal/contact"
	"gitea.jw6.us/james/rolodex/internal/store"
)

// fakeRepo implements store.ContactRepository with pluggable behavior.
type fakeRepo struct {
	created   []*contact.Contact
	batches   [][]*contact.Contact
	updated   []*contact.Contact
	deleted   []string
	listOpts  []store.ListOptions
	byID      map[string]*contact.Contact
	listed    []*contact.Contact
	total     int
	failNext  error
	searchArg string
}

func (f *fakeRepo) Create(ctx context.Context, c *contact.Contact) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, cs []*contact.Contact) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.batches = append(f.batches, cs)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*contact.Contact, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) Update(ctx context.Context, c *contact.Contact) error {
	if _, ok := f.byID[c.ID]; !ok {
		return store.ErrNotFound
	}
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, opts store.ListOptions) ([]*contact.Contact, error) {
	f.listOpts = append(f.listOpts, opts)
	return f.listed, nil
}

func (f *fakeRepo) Count(ctx context.Context, search string) (int, error) {
	f.searchArg = search
	return f.total, nil
}

func newTestHandler(repo *fakeRepo) *Handler {
	cfg := &config.Config{}
	cfg.Import.MaxUploadBytes = 1 << 20
	cfg.Import.Workers = 2
	return NewHandler(cfg, repo)
}

func serve(h *Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, r)
	return rec
}

func multipartVCF(t *testing.T, blob string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contacts.vcf")
	require.NoError(t, err)
	_, err = fw.Write([]byte(blob))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

const validCard = "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Doe;Jane;;;\r\nFN:Jane Doe\r\nEND:VCARD\r\n"

func TestImportContacts(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	blob := validCard + "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Smith;John;;;\r\nFN:John Smith\r\nEND:VCARD\r\n"
	body, contentType := multipartVCF(t, blob)
	req := httptest.NewRequest(http.MethodPost, "/contacts/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := serve(h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
	require.Len(t, resp.Contacts, 2)
	assert.Equal(t, "Jane", resp.Contacts[0].FirstName)
	assert.Equal(t, "John", resp.Contacts[1].FirstName)

	require.Len(t, repo.batches, 1)
	assert.Len(t, repo.batches[0], 2)
}

func TestImportContactsRawBody(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/contacts/import", strings.NewReader(validCard))
	req.Header.Set("Content-Type", "text/vcard")

	rec := serve(h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, repo.batches, 1)
}

func TestImportContactsRejectsWholeBatch(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	// Second fragment misses END:VCARD, third misses N at 3.0.
	blob := validCard +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:No Name\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nN:Last;First;;;\r\nFN:First Last"
	body, contentType := multipartVCF(t, blob)
	req := httptest.NewRequest(http.MethodPost, "/contacts/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := serve(h, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var failure importFailure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	require.Len(t, failure.Fragments, 2)
	assert.Equal(t, 1, failure.Fragments[0].Index)
	assert.Equal(t, 2, failure.Fragments[1].Index)
	assert.NotEmpty(t, failure.Fragments[0].Message)

	// Nothing may land when any fragment is invalid.
	assert.Empty(t, repo.batches)
}

func TestImportContactsEmptyBody(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/contacts/import", strings.NewReader(""))
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.batches)
}

func TestListContacts(t *testing.T) {
	repo := &fakeRepo{
		listed: []*contact.Contact{{ID: "1", FirstName: "Jane"}},
		total:  41,
	}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/contacts?q=doe&limat=9&limit=10&offset=30", nil)
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 41, resp.Total)
	require.Len(t, resp.Contacts, 1)

	require.Len(t, repo.listOpts, 1)
	assert.Equal(t, store.ListOptions{Search: "doe", Limit: 10, Offset: 30}, repo.listOpts[0])
	assert.Equal(t, "doe", repo.searchArg)
}

func TestListContactsClampsPageSize(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/contacts?limit=%d", maxPageSize+1), nil)
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, repo.listOpts, 1)
	assert.Equal(t, defaultPageSize, repo.listOpts[0].Limit)

	// An empty repository still answers with a JSON array, not null.
	assert.Contains(t, rec.Body.String(), `"contacts":[]`)
}

func TestGetContact(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*contact.Contact{
		"abc": {ID: "abc", FirstName: "Jane", LastName: "Doe"},
	}}
	h := newTestHandler(repo)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/contacts/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var c contact.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "Jane", c.FirstName)
}

func TestGetContactNotFound(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/contacts/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestCreateContactAssignsIdentifiers(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	payload := `{"first_name":"Jane","email_addresses":[{"email_type":"Home","email_address":"jane@example.com"}]}`
	req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(payload))
	rec := serve(h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.EmailAddresses, 1)
	assert.NotEmpty(t, created.EmailAddresses[0].ID)
}

func TestCreateContactRequiresName(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(`{"company":"Acme"}`))
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.created)
}

func TestUpdateContactPathIDWins(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*contact.Contact{
		"abc": {ID: "abc", FirstName: "Jane"},
	}}
	h := newTestHandler(repo)

	payload := `{"id":"spoofed","first_name":"Janet"}`
	req := httptest.NewRequest(http.MethodPut, "/contacts/abc", strings.NewReader(payload))
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, repo.updated, 1)
	assert.Equal(t, "abc", repo.updated[0].ID)
	assert.Equal(t, "Janet", repo.updated[0].FirstName)
}

func TestUpdateContactNotFound(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	req := httptest.NewRequest(http.MethodPut, "/contacts/ghost", strings.NewReader(`{"first_name":"X"}`))
	rec := serve(h, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContact(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*contact.Contact{
		"abc": {ID: "abc"},
	}}
	h := newTestHandler(repo)

	rec := serve(h, httptest.NewRequest(http.MethodDelete, "/contacts/abc", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"abc"}, repo.deleted)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/contacts/abc2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportVCard(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*contact.Contact{
		"abc": {ID: "abc", FirstName: "Jane", LastName: "Doe"},
	}}
	h := newTestHandler(repo)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/contacts/abc/vcard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/vcard; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Jane Doe.vcf"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCARD\nVERSION:4.0\n"), body)
	assert.Contains(t, body, "FN:Jane Doe")
	assert.True(t, strings.HasSuffix(body, "END:VCARD"), body)
}

func TestRenderQR(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	payload := `{"vcard":"BEGIN:VCARD\nVERSION:4.0\nFN:Jane Doe\nEND:VCARD","width":256}`
	req := httptest.NewRequest(http.MethodPost, "/qrcode", strings.NewReader(payload))
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestRenderQRRequiresVCard(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	req := httptest.NewRequest(http.MethodPost, "/qrcode", strings.NewReader(`{"width":256}`))
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
