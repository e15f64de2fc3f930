package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/service"
	"github.com/andresuchdata/slotx-reports/internal/source"
)

const zipContentType = "application/zip"

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Generate builds an archive from a multipart upload. The archive is streamed
// back directly unless the cache is on, in which case the response carries an
// id to download it with.
func (h *ReportHandler) Generate(c *gin.Context) {
	mode, err := domain.ParseMode(c.PostForm("mode"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	cycle, err := domain.ParsePayoutCycle(c.DefaultPostForm("payout_cycle", string(domain.CycleOne)))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	publish, _ := strconv.ParseBool(c.PostForm("publish"))

	form, err := c.MultipartForm()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid form data")
		return
	}

	opener, files := uploadedFiles(form, mode)
	batch, err := source.Load(c.Request.Context(), opener, mode, cycle, files)
	if err != nil {
		generationError(c, err)
		return
	}
	defer batch.Close()

	report, err := h.reportService.Generate(c.Request.Context(), batch.Request, service.GenerateOptions{Publish: publish})
	if err != nil {
		generationError(c, err)
		return
	}

	log.Info().
		Str("id", report.ID).
		Str("mode", string(mode)).
		Int("entries", len(report.Entries)).
		Msg("Report generated")

	if h.reportService.CacheEnabled() {
		c.JSON(http.StatusCreated, gin.H{
			"id":           report.ID,
			"file_name":    report.FileName,
			"entries":      report.Entries,
			"storage_key":  report.StorageKey,
			"download_url": fmt.Sprintf("%s/%s", strings.TrimSuffix(c.Request.URL.Path, "/"), report.ID),
			"diagnostics":  diagnosticsResponse(report.Diagnostics),
		})
		return
	}

	c.Header("X-Report-Id", report.ID)
	sendArchive(c, report)
}

// Download serves a cached or published archive by id.
func (h *ReportHandler) Download(c *gin.Context) {
	report, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrReportNotFound) {
		errorResponse(c, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	sendArchive(c, report)
}

// List returns the published archives.
func (h *ReportHandler) List(c *gin.Context) {
	objects, err := h.reportService.Published(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list reports")
		return
	}
	c.JSON(http.StatusOK, objects)
}

// Purge empties the archive cache. Published archives are left in storage.
func (h *ReportHandler) Purge(c *gin.Context) {
	purged, err := h.reportService.Purge(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Report cache purge failed")
		errorResponse(c, http.StatusInternalServerError, "failed to purge report cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// uploadedFiles maps form fields onto the batch files. A single-branch run
// takes "sales"/"inventory" or the branch-suffixed field names.
func uploadedFiles(form *multipart.Form, mode domain.Branch) (source.MultipartOpener, source.Files) {
	opener := make(source.MultipartOpener)
	for field, headers := range form.File {
		if len(headers) > 0 {
			opener[field] = headers[0]
		}
	}

	pick := func(fields ...string) string {
		for _, f := range fields {
			if _, ok := opener[f]; ok {
				return f
			}
		}
		return ""
	}

	files := source.Files{
		Sales:     make(map[domain.Branch]string),
		Inventory: make(map[domain.Branch]string),
		Deals:     pick("deals"),
	}
	for _, b := range domain.Branches {
		suffix := strings.ToLower(string(b))
		salesFields := []string{"sales_" + suffix}
		inventoryFields := []string{"inventory_" + suffix}
		if mode == b {
			salesFields = append([]string{"sales"}, salesFields...)
			inventoryFields = append([]string{"inventory"}, inventoryFields...)
		}
		files.Sales[b] = pick(salesFields...)
		files.Inventory[b] = pick(inventoryFields...)
	}
	return opener, files
}

func generationError(c *gin.Context, err error) {
	var (
		srcErr    *domain.SourceError
		schemaErr *domain.SchemaError
	)
	switch {
	case errors.As(err, &schemaErr):
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &srcErr):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Report generation failed")
		errorResponse(c, http.StatusInternalServerError, "failed to generate report")
	}
}

func sendArchive(c *gin.Context, report *service.Report) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, zipContentType, report.Archive)
}

func diagnosticsResponse(d pipeline.Diagnostics) gin.H {
	return gin.H{
		"rows_read":             d.RowsRead,
		"blank_brand_rows":      d.BlankBrandRows,
		"cells_defaulted":       d.DefaultedCells,
		"refunds":               d.Refunds.Refunds,
		"refunds_matched":       d.Refunds.Matched,
		"refunds_orphaned":      d.Refunds.Orphans,
		"inventory_dropped":     d.InventoryDropped,
		"merge_errors":          len(d.MergeErrors),
		"deal_collisions":       d.DealCollisions,
		"deal_sheet_fallbacks":  d.DealSheetFallbacks,
		"orphaned_branch_sales": d.OrphanedBranchSales,
		"path_collisions":       d.PathCollisions,
		"classifications":       d.Classifications,
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
