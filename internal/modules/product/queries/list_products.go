package queries

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/modules/core"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"

	"github.com/jmoiron/sqlx"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type ListProductsQuery struct {
	Limit int
}

func (q ListProductsQuery) Validate() error {
	if q.Limit < 1 || q.Limit > MaxLimit {
		return fmt.Errorf("invalid limit - '%d', must be between 1 and %d", q.Limit, MaxLimit)
	}

	return nil
}

type ListProductsResponse struct {
	Variant  domain.Variant `json:"variant"`
	Count    int            `json:"count"`
	Products any            `json:"products"`
}

type ProductsEndpoint struct {
	pipeline *core.Pipeline
	handler  core.RequestHandler[ListProductsQuery, ListProductsResponse]
}

func NewProductsEndpoint(
	pipeline *core.Pipeline,
	handler core.RequestHandler[ListProductsQuery, ListProductsResponse],
) *ProductsEndpoint {
	return &ProductsEndpoint{pipeline: pipeline, handler: handler}
}

func (e *ProductsEndpoint) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	query := ListProductsQuery{Limit: DefaultLimit}

	if param := r.URL.Query().Get("limit"); param != "" {
		limit, err := strconv.Atoi(param)
		if err != nil {
			core.WriteBadRequest(w, r, "invalid format for query param 'limit'")
			return
		}
		query.Limit = limit
	}

	response, err := core.Send(r.Context(), e.pipeline, e.handler, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

var _ core.RequestHandler[ListProductsQuery, ListProductsResponse] = (*ListProductsQueryHandler)(nil)

type ListProductsQueryHandler struct {
	db      *sqlx.DB
	dialect database.Dialect
	variant domain.Variant
}

func NewListProductsQueryHandler(
	db *sqlx.DB,
	dialect database.Dialect,
	variant domain.Variant,
) *ListProductsQueryHandler {
	return &ListProductsQueryHandler{db: db, dialect: dialect, variant: variant}
}

func (h *ListProductsQueryHandler) Handle(
	ctx context.Context,
	request ListProductsQuery,
) (ListProductsResponse, error) {
	response := ListProductsResponse{Variant: h.variant}

	switch h.variant {
	case domain.VariantSKU:
		products := []domain.SKUProduct{}
		if err := h.list(ctx, &products, "sku, name, quantity, price, reorder_level, status", "sku_products", "sku", request.Limit); err != nil {
			return ListProductsResponse{}, err
		}
		response.Count, response.Products = len(products), products
	default:
		products := []domain.Product{}
		if err := h.list(ctx, &products, "name, price, quantity", "products", "id", request.Limit); err != nil {
			return ListProductsResponse{}, err
		}
		response.Count, response.Products = len(products), products
	}

	return response, nil
}

func (h *ListProductsQueryHandler) list(
	ctx context.Context,
	dest any,
	columns, table, orderBy string,
	limit int,
) error {
	var query string
	if h.dialect == database.SQLServer {
		query = fmt.Sprintf(`SELECT TOP (?) %s FROM %s ORDER BY %s`, columns, table, orderBy)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s LIMIT ?`, columns, table, orderBy)
	}

	if err := h.db.SelectContext(ctx, dest, h.db.Rebind(query), limit); err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}

	return nil
}
