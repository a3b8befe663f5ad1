package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eskrenkovic/csv-import-go/internal/metrics"
	"github.com/eskrenkovic/csv-import-go/internal/modules/core"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/csvrecord"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/store"
	"github.com/eskrenkovic/csv-import-go/internal/upload"

	"go.uber.org/zap"
)

const (
	MessageSuccess      = "CSV processed successfully."
	MessageMissingFile  = "CSV file is required."
	MessageEmptyFile    = "CSV file is empty."
	MessageNoValidRows  = "No valid rows found in CSV."
	MessageTooLarge     = "CSV file is too large."
	MessageParseFailed  = "Failed to parse CSV file."
	MessageSaveFailed   = "Failed to save data to the database."
	MessageStageFailed  = "Failed to store uploaded file."
	FileFormField       = "file"
	multipartFraming    = 1 << 20
	defaultMaxFileBytes = 10 << 20
)

var errMalformedUpload = errors.New("malformed multipart upload")

// requestReader tags read failures on the request body so they are not
// mistaken for storage failures.
type requestReader struct {
	io.Reader
}

func (r requestReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %w", errMalformedUpload, err)
	}
	return n, err
}

type ImportProductsCommand struct {
	Records []domain.RawRecord
}

func (c ImportProductsCommand) LogFields() []zap.Field {
	return []zap.Field{zap.Int("records", len(c.Records))}
}

type ImportProductsResponse struct {
	Message  string                `json:"message"`
	Total    int                   `json:"total"`
	Inserted int                   `json:"inserted"`
	Skipped  int                   `json:"skipped"`
	Warnings []domain.FieldWarning `json:"warnings,omitempty"`
}

// ImportEndpoint accepts multipart CSV uploads and hands the parsed records
// to the import pipeline.
type ImportEndpoint struct {
	pipeline *core.Pipeline
	handler  core.RequestHandler[ImportProductsCommand, ImportProductsResponse]
	storage  upload.Storage
	maxBytes int64
}

func NewImportEndpoint(
	pipeline *core.Pipeline,
	handler core.RequestHandler[ImportProductsCommand, ImportProductsResponse],
	storage upload.Storage,
	maxBytes int64,
) *ImportEndpoint {
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}

	return &ImportEndpoint{
		pipeline: pipeline,
		handler:  handler,
		storage:  storage,
		maxBytes: maxBytes,
	}
}

func (e *ImportEndpoint) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, e.maxBytes+multipartFraming)

	staged, err := e.stageFile(r)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	defer func() {
		if err := staged.Close(); err != nil {
			core.LogError(r.Context(), "failed to release staged upload", zap.Error(err))
		}
	}()

	core.Logger(r.Context()).Debug("upload staged", zap.Int64("bytes", staged.Size()))

	records, err := csvrecord.Read(staged)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}

	response, err := core.Send(r.Context(), e.pipeline, e.handler, ImportProductsCommand{Records: records})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

// stageFile streams the first part named file into storage without
// buffering the rest of the form.
func (e *ImportEndpoint) stageFile(r *http.Request) (upload.Staged, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, domain.ErrMissingFile
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrMissingFile
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errMalformedUpload, err)
		}

		if part.FormName() != FileFormField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		staged, err := e.storage.Stage(requestReader{Reader: part})
		_ = part.Close()

		return staged, err
	}
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		maxBytesErr *http.MaxBytesError
		parseErr    *domain.ParseError
	)

	switch {
	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &maxBytesErr):
		core.WriteResponse(w, r, http.StatusRequestEntityTooLarge, core.ErrorResponse{Error: MessageTooLarge})
	case errors.Is(err, domain.ErrMissingFile), errors.Is(err, errMalformedUpload):
		core.WriteBadRequest(w, r, MessageMissingFile)
	case errors.As(err, &parseErr):
		core.WriteBadRequest(w, r, fmt.Sprintf("%s %v", MessageParseFailed, parseErr.Err))
	default:
		core.LogError(r.Context(), "failed to stage upload", zap.Error(err))
		core.WriteResponse(w, r, http.StatusInternalServerError, core.ErrorResponse{Error: MessageStageFailed})
	}
}

var _ core.RequestHandler[ImportProductsCommand, ImportProductsResponse] = (*ImportProductsCommandHandler)(nil)

type ImportProductsCommandHandler struct {
	db       core.Conner
	inserter *store.Inserter
	variant  domain.Variant
	metrics  *metrics.ImportMetrics
}

func NewImportProductsCommandHandler(
	db core.Conner,
	inserter *store.Inserter,
	variant domain.Variant,
	importMetrics *metrics.ImportMetrics,
) *ImportProductsCommandHandler {
	return &ImportProductsCommandHandler{
		db:       db,
		inserter: inserter,
		variant:  variant,
		metrics:  importMetrics,
	}
}

func (h *ImportProductsCommandHandler) Handle(
	ctx context.Context,
	request ImportProductsCommand,
) (ImportProductsResponse, error) {
	started := time.Now()
	variant := string(h.variant)

	if len(request.Records) == 0 {
		h.metrics.ObserveImport(variant, metrics.OutcomeEmpty, started)
		return ImportProductsResponse{}, core.NewCommandError(
			http.StatusBadRequest,
			&domain.EmptyInputError{},
			core.WithReason(MessageEmptyFile),
		)
	}

	var result batchResult
	switch h.variant {
	case domain.VariantSKU:
		result = importBatch(ctx, h.db, request.Records, domain.NormalizeSKUProducts, h.inserter.InsertSKUProducts)
	default:
		result = importBatch(ctx, h.db, request.Records, domain.NormalizeProducts, h.inserter.InsertProducts)
	}

	if result.eligible == 0 {
		h.metrics.ObserveImport(variant, metrics.OutcomeEmpty, started)
		return ImportProductsResponse{}, core.NewCommandError(
			http.StatusBadRequest,
			&domain.EmptyInputError{NoValidRows: true},
			core.WithReason(MessageNoValidRows),
		)
	}

	if result.err != nil {
		h.metrics.ObserveImport(variant, metrics.OutcomeDBError, started)
		return ImportProductsResponse{}, core.NewCommandError(
			http.StatusInternalServerError,
			result.err,
			core.WithReason(MessageSaveFailed),
		)
	}

	total := len(request.Records)

	h.metrics.ObserveRows(variant, total, result.inserted)
	h.metrics.ObserveImport(variant, metrics.OutcomeSuccess, started)

	core.Logger(ctx).Info(
		"csv imported",
		zap.String("variant", variant),
		zap.Int("total", total),
		zap.Int("inserted", result.inserted),
		zap.Int("warnings", len(result.warnings)),
	)

	return ImportProductsResponse{
		Message:  MessageSuccess,
		Total:    total,
		Inserted: result.inserted,
		Skipped:  total - result.inserted,
		Warnings: result.warnings,
	}, nil
}

type batchResult struct {
	eligible int
	inserted int
	warnings []domain.FieldWarning
	err      error
}

// importBatch normalizes records and inserts the eligible ones. The database
// is not touched when nothing is eligible.
func importBatch[T any](
	ctx context.Context,
	db core.Conner,
	records []domain.RawRecord,
	normalize func([]domain.RawRecord) ([]T, []domain.FieldWarning),
	insert func(context.Context, core.Conner, []T) (int, error),
) batchResult {
	rows, warnings := normalize(records)
	if len(rows) == 0 {
		return batchResult{warnings: warnings}
	}

	inserted, err := insert(ctx, db, rows)

	return batchResult{
		eligible: len(rows),
		inserted: inserted,
		warnings: warnings,
		err:      err,
	}
}
