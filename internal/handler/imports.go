package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/apierror"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/middleware"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a CSV upload read into memory for queueing.
const maxUploadBytes = 32 << 20

type ImportsHandler struct{ svc service.ImportService }

func NewImportsHandler(svc service.ImportService) *ImportsHandler { return &ImportsHandler{svc: svc} }

// ImportCSV godoc
// @Summary      Import a CSV or POS export
// @Description  Runs every row through normalize, resolve, dedup, price and commit. Rows fail independently; the summary lists committed ids, duplicates, errors and warnings.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file       formData file   true  "CSV file (header row required)"
// @Param        batch_id   formData string false "Batch correlation id; re-sending the same id is idempotent"
// @Param        provenance formData string false "csv_import (default) | pos_system"
// @Success      200  {object} dto.BatchResultResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/imports/csv [post]
func (h *ImportsHandler) ImportCSV(c *gin.Context) {
	var form dto.CSVImportForm
	if !bindForm(c, &form) {
		return
	}
	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	provenance := form.Provenance
	if provenance == "" {
		provenance = model.SourceCSVImport
	}
	actor := middleware.GetClaims(c).Actor()

	result, err := h.svc.ImportCSV(c.Request.Context(), file, form.BatchID, provenance, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportManual godoc
// @Summary      Import manually entered rows
// @Description  Same engine as the CSV import. transactionType defaults to sale when omitted.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ManualImportRequest true "Rows keyed by CSV column name"
// @Success      200  {object} dto.BatchResultResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/imports/manual [post]
func (h *ImportsHandler) ImportManual(c *gin.Context) {
	var req dto.ManualImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	batchID := ""
	if req.BatchID != nil {
		batchID = *req.BatchID
	}

	result, err := h.svc.ImportBatch(c.Request.Context(), service.BatchRequest{
		BatchID:    batchID,
		Provenance: model.SourceManual,
		Rows:       service.RowsFromJSON(req.Rows),
		Actor:      middleware.GetClaims(c).Actor(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportAsync godoc
// @Summary      Queue a CSV import
// @Description  Validates the file, queues it for the worker pool and returns immediately. Poll GET /v1/imports/{batchId} for the result. notify_email receives the PDF report.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData file   true  "CSV file"
// @Param        batch_id     formData string false "Batch correlation id"
// @Param        provenance   formData string false "csv_import (default) | pos_system"
// @Param        notify_email formData string false "Address that receives the report"
// @Success      202  {object} dto.AsyncImportResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/imports/async [post]
func (h *ImportsHandler) ImportAsync(c *gin.Context) {
	var form dto.CSVImportForm
	if !bindForm(c, &form) {
		return
	}
	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("could not read upload"))
		return
	}
	if len(content) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New(fmt.Sprintf("file exceeds %d MB", maxUploadBytes>>20)))
		return
	}

	batchID, err := h.svc.EnqueueCSV(c.Request.Context(), content, form, middleware.GetClaims(c).Actor())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.AsyncImportResponse{BatchID: batchID, Status: "queued"})
}

// GetResult godoc
// @Summary      Fetch a stored batch result
// @Tags         imports
// @Produce      json
// @Security     BearerAuth
// @Param        batchId path string true "Batch id"
// @Success      200  {object} dto.BatchResultResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/imports/{batchId} [get]
func (h *ImportsHandler) GetResult(c *gin.Context) {
	result, err := h.svc.GetResult(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Report godoc
// @Summary      Download the PDF report of a batch
// @Tags         imports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        batchId path string true "Batch id"
// @Success      200
// @Failure      404  {object} apierror.APIError
// @Router       /v1/imports/{batchId}/report.pdf [get]
func (h *ImportsHandler) Report(c *gin.Context) {
	result, err := h.svc.GetResult(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="import_%s.pdf"`, result.BatchID))
	c.Status(http.StatusOK)
	if err := infra.WriteImportReportPDF(result, c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func openUpload(c *gin.Context) (io.ReadCloser, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field \"file\" is required"))
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("could not open upload"))
		return nil, false
	}
	return file, true
}
