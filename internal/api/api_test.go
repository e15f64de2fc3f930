package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/slotx-reports/internal/cache"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/service"
	"github.com/andresuchdata/slotx-reports/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryCache map[string]*cache.ArchiveEntry

func (m memoryCache) Enabled() bool { return true }

func (m memoryCache) Get(ctx context.Context, id string) (*cache.ArchiveEntry, bool, error) {
	e, ok := m[id]
	return e, ok, nil
}

func (m memoryCache) Set(ctx context.Context, entry *cache.ArchiveEntry) error {
	m[entry.ID] = entry
	return nil
}

func (m memoryCache) InvalidateAll(ctx context.Context) (int, error) {
	n := len(m)
	for id := range m {
		delete(m, id)
	}
	return n, nil
}

func xlsx(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploads(t *testing.T) map[string][]byte {
	dealHeader := []interface{}{"Brand Name", "Deal Percentage (%)", "Rent Amount (EGP)"}
	return map[string][]byte{
		"sales_alexandria": xlsx(t, map[string][][]interface{}{"S": {
			{"Brand", "Product Name", "Barcode", "Quantity", "Total"},
			{"Nike", "Air - 42", "111", 3, 450},
		}}, "S"),
		"inventory_alexandria": xlsx(t, map[string][][]interface{}{"I": {
			{"Brand", "Product Name", "Barcode", "Unit Price", "Available Quantity"},
			{"Nike", "Air - 42", "111", 50, 10},
		}}, "I"),
		"sales_zamalek": xlsx(t, map[string][][]interface{}{"S": {
			{"Brand", "Product Name", "Barcode", "Quantity", "Total"},
		}}, "S"),
		"inventory_zamalek": xlsx(t, map[string][][]interface{}{"I": {
			{"Brand", "Product Name", "Barcode", "Unit Price", "Available Quantity"},
		}}, "I"),
		"deals": xlsx(t, map[string][][]interface{}{
			"Merged":     {dealHeader, {"Nike", 10, 20}},
			"Alexandria": {dealHeader},
			"Zamalek":    {dealHeader},
		}, "Merged", "Alexandria", "Zamalek"),
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".xlsx")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newTestRouter(c cache.ArchiveCache, store storage.ObjectStorage) *gin.Engine {
	gen := pipeline.NewGenerator(pipeline.Config{Clock: func() time.Time {
		return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	}})
	return NewRouter(&Services{ReportService: service.NewReportService(gen, c, store, "reports")}, []string{"*"})
}

func post(t *testing.T, router *gin.Engine, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerate_StreamsArchive(t *testing.T) {
	rec := post(t, newTestRouter(nil, nil), map[string]string{"mode": "merged", "payout_cycle": "1"}, uploads(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "SlotX_Reports_Merged_Cycle 1.zip")
	assert.NotEmpty(t, rec.Header().Get("X-Report-Id"))

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "Reports/Alexandria/Nike.xlsx", zr.File[0].Name)
}

func TestGenerate_CachedThenDownloaded(t *testing.T) {
	router := newTestRouter(memoryCache{}, storage.NewMemoryStorage())
	rec := post(t, router, map[string]string{"mode": "Merged", "payout_cycle": "Cycle 2", "publish": "true"}, uploads(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID          string         `json:"id"`
		FileName    string         `json:"file_name"`
		Entries     []string       `json:"entries"`
		StorageKey  string         `json:"storage_key"`
		DownloadURL string         `json:"download_url"`
		Diagnostics map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SlotX_Reports_Merged_Cycle 2.zip", resp.FileName)
	assert.Equal(t, []string{"Reports/Alexandria/Nike.xlsx"}, resp.Entries)
	assert.Equal(t, "/api/v1/reports/"+resp.ID, resp.DownloadURL)
	assert.NotEmpty(t, resp.StorageKey)
	assert.EqualValues(t, 2, resp.Diagnostics["rows_read"])

	dl := httptest.NewRecorder()
	router.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	assert.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "application/zip", dl.Header().Get("Content-Type"))

	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), resp.ID)

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	router := newTestRouter(nil, nil)

	t.Run("unknown mode", func(t *testing.T) {
		rec := post(t, router, map[string]string{"mode": "Cairo"}, uploads(t))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing upload", func(t *testing.T) {
		files := uploads(t)
		delete(files, "deals")
		rec := post(t, router, map[string]string{"mode": "Merged"}, files)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "deals")
	})

	t.Run("unresolvable column", func(t *testing.T) {
		files := uploads(t)
		files["sales_zamalek"] = xlsx(t, map[string][][]interface{}{"S": {{"Brand", "Qty"}}}, "S")
		rec := post(t, router, map[string]string{"mode": "Merged"}, files)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("single branch short field names", func(t *testing.T) {
		all := uploads(t)
		files := map[string][]byte{
			"sales":     all["sales_alexandria"],
			"inventory": all["inventory_alexandria"],
			"deals":     all["deals"],
		}
		rec := post(t, router, map[string]string{"mode": "Alexandria"}, files)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestPurgeCache(t *testing.T) {
	router := newTestRouter(memoryCache{}, nil)
	rec := post(t, router, map[string]string{"mode": "Merged"}, uploads(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var generated struct {
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))

	before := httptest.NewRecorder()
	router.ServeHTTP(before, httptest.NewRequest(http.MethodGet, generated.DownloadURL, nil))
	require.Equal(t, http.StatusOK, before.Code)

	purge := httptest.NewRecorder()
	router.ServeHTTP(purge, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/cache", nil))
	assert.Equal(t, http.StatusOK, purge.Code)
	assert.JSONEq(t, `{"purged":1}`, purge.Body.String())

	after := httptest.NewRecorder()
	router.ServeHTTP(after, httptest.NewRequest(http.MethodGet, generated.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, after.Code)
}
