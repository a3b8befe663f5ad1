package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eskrenkovic/csv-import-go/internal/config"
	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/modules/core"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/commands"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
	"github.com/eskrenkovic/csv-import-go/internal/upload"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	srv     *HTTPServer
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, variant domain.Variant) testServer {
	t.Helper()

	srv, err := NewHTTPServer(config.Config{
		Logger:             zap.NewNop(),
		Port:               config.DefaultPort,
		DatabaseDriver:     database.SQLite,
		DatabaseURL:        filepath.Join(t.TempDir(), "server.db"),
		MigrateOnStart:     true,
		ImportVariant:      variant,
		UploadStorage:      upload.KindDisk,
		UploadTempDir:      t.TempDir(),
		UploadMaxBytes:     1 << 20,
		CORSAllowedOrigins: []string{"*"},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, srv.Stop())
	})

	return testServer{srv: srv, baseURL: ts.URL, client: ts.Client()}
}

func (s testServer) upload(t *testing.T, path, content string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(commands.FileFormField, "upload.csv")
	require.NoError(t, err)

	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := s.client.Post(s.baseURL+path, writer.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func (s testServer) count(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, s.srv.db.Get(&n, "SELECT count(*) FROM "+table))
	return n
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func Test_Upload_Simple_Variant_Drops_Rows_Without_Name(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	// Act
	resp := s.upload(t, "/upload", "name,price,quantity\nWidget,9.99,5\n,1.00,2\n")

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get(core.CorrelationIDHeader))

	body := decodeBody[commands.ImportProductsResponse](t, resp)
	require.Equal(t, commands.MessageSuccess, body.Message)
	require.Equal(t, 2, body.Total)
	require.Equal(t, 1, body.Inserted)
	require.Equal(t, 1, s.count(t, "products"))
}

func Test_Upload_SKU_Variant_Defaults_Status(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSKU)

	// Act
	resp := s.upload(t, "/api/upload", "sku,name,quantity,price,reorder_level,status\nA1,Bolt,100,0.50,10,\n")

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, decodeBody[commands.ImportProductsResponse](t, resp).Inserted)

	var status string
	require.NoError(t, s.srv.db.Get(&status, "SELECT status FROM sku_products WHERE sku = 'A1'"))
	require.Equal(t, domain.DefaultStatus, status)
}

func Test_Upload_Rejects_Empty_And_Header_Only_Files(t *testing.T) {
	for name, content := range map[string]string{
		"zero bytes":  "",
		"header only": "name,price,quantity\n",
	} {
		t.Run(name, func(t *testing.T) {
			// Arrange
			s := newTestServer(t, domain.VariantSimple)

			// Act
			resp := s.upload(t, "/upload", content)

			// Assert
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, commands.MessageEmptyFile, decodeBody[core.ErrorResponse](t, resp).Error)
			require.Equal(t, 0, s.count(t, "products"))
		})
	}
}

func Test_Upload_SKU_Variant_Twice_Inserts_Nothing_The_Second_Time(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSKU)
	const csv = "sku,name,quantity,price,reorder_level,status\nA1,Bolt,100,0.50,10,\nA2,Nut,50,0.10,5,discontinued\n"

	// Act
	first := s.upload(t, "/upload", csv)
	second := s.upload(t, "/upload", csv)

	// Assert
	require.Equal(t, http.StatusOK, first.StatusCode)
	require.Equal(t, 2, decodeBody[commands.ImportProductsResponse](t, first).Inserted)

	require.Equal(t, http.StatusOK, second.StatusCode)
	require.Equal(t, 0, decodeBody[commands.ImportProductsResponse](t, second).Inserted)

	require.Equal(t, 2, s.count(t, "sku_products"))
}

func Test_Upload_Alias_Is_Only_Routed_For_SKU_Variant(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	// Act
	resp := s.upload(t, "/api/upload", "name\nWidget\n")

	// Assert
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Not Found", decodeBody[core.ErrorResponse](t, resp).Error)
}

func Test_Unknown_Route_Returns_JSON_Not_Found(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	// Act
	resp, err := s.client.Get(s.baseURL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Not Found", decodeBody[core.ErrorResponse](t, resp).Error)
}

func Test_Wrong_Method_Returns_JSON_Method_Not_Allowed(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	// Act
	resp, err := s.client.Get(s.baseURL + "/upload")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "Method Not Allowed", decodeBody[core.ErrorResponse](t, resp).Error)
}

func Test_Upload_Without_File_Returns_Bad_Request(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	// Act
	resp, err := s.client.Post(s.baseURL+"/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, commands.MessageMissingFile, decodeBody[core.ErrorResponse](t, resp).Error)
}

func Test_Products_Lists_Imported_Rows(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)
	s.upload(t, "/upload", "name,price,quantity\nWidget,9.99,5\nGadget,1,2\n")

	// Act
	resp, err := s.client.Get(s.baseURL + "/products?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		Count    int              `json:"count"`
		Products []domain.Product `json:"products"`
	}](t, resp)
	require.Equal(t, 2, body.Count)
	require.Equal(t, "Widget", body.Products[0].Name)
	require.Equal(t, "Gadget", body.Products[1].Name)
}

func Test_Metrics_Exposes_Import_Counters(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)
	s.upload(t, "/upload", "name\nWidget\n")

	// Act
	resp, err := s.client.Get(s.baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(payload), `csv_import_rows_inserted_total{variant="simple"} 1`)
	require.Contains(t, string(payload), `csv_import_imports_total{outcome="success",variant="simple"} 1`)
}

func Test_CORS_Preflight_Is_Allowed(t *testing.T) {
	// Arrange
	s := newTestServer(t, domain.VariantSimple)

	req, err := http.NewRequest(http.MethodOptions, s.baseURL+"/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	// Act
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
