package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"araudit/internal/config"
	"araudit/internal/logger"
	"araudit/internal/pipeline"
)

const ledgerCSV = "customer,invoice,due_date,amount,payment\n" +
	"Acme,A-1,2024-01-01,1000000,0\n" +
	"Acme,A-1,2026-03-01,500,0\n" +
	"Beta,B-1,2026-04-01,2500,0\n"

func newTestApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	cfg.AuditAsOf = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	log := logger.Nop()
	return NewApp(Deps{
		Config:  cfg,
		Service: pipeline.NewAuditService(cfg, log),
		Store:   NewStore(time.Hour),
		Log:     log,
	})
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func upload(t *testing.T, app *fiber.App) UploadResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/audits?filename=ledger.csv", strings.NewReader(ledgerCSV))
	req.Header.Set("Content-Type", "text/csv")
	resp, body := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out UploadResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.ID)
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, config.Config{})
	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","datasets":0}`, string(body))
}

func TestUploadAndQuery(t *testing.T) {
	app := newTestApp(t, config.Config{})
	up := upload(t, app)
	assert.Equal(t, 3, up.Dataset.Summary.InvoiceCount)
	assert.Len(t, up.Dataset.Aging, 5)

	t.Run("summary", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/summary", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var summary map[string]any
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.EqualValues(t, 3, summary["invoiceCount"])
		assert.EqualValues(t, 2, summary["customerCount"])
	})

	t.Run("aging", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/aging", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var aging []map[string]any
		require.NoError(t, json.Unmarshal(body, &aging))
		require.Len(t, aging, 5)
		assert.Equal(t, "CURRENT", aging[0]["bucket"])
		assert.Equal(t, ">90", aging[4]["bucket"])
	})

	t.Run("anomalies", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/anomalies", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var anomalies []map[string]any
		require.NoError(t, json.Unmarshal(body, &anomalies))
		require.Len(t, anomalies, 1)
		assert.Equal(t, "DUPLICATE_ID", anomalies[0]["type"])
	})

	t.Run("customers", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/customers?name=ACME", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var details map[string]any
		require.NoError(t, json.Unmarshal(body, &details))
		assert.Equal(t, true, details["found"])
		assert.EqualValues(t, 2, details["invoiceCount"])

		resp, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/customers", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("full dataset", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"invoices"`)
	})

	t.Run("export", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/"+up.ID+"/export.xlsx", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "audit-"+up.ID+".xlsx")
		assert.Equal(t, pipeline.InputXLSX, pipeline.DetectInputType("", body).Type)
	})

	t.Run("tools", func(t *testing.T) {
		payload := `{"functionCalls":[{"id":"c1","name":"getAuditSummary"},{"id":"c2","name":"getCustomerDetails","args":{"name":"beta"}},{"id":"c3","name":"bogus"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/audits/"+up.ID+"/tools", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, body := doRequest(t, app, req)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out struct {
			FunctionResponses []struct {
				ID       string `json:"id"`
				Response struct {
					Result map[string]any `json:"result"`
				} `json:"response"`
			} `json:"functionResponses"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.Len(t, out.FunctionResponses, 3)
		assert.EqualValues(t, 3, out.FunctionResponses[0].Response.Result["invoiceCount"])
		assert.EqualValues(t, 1, out.FunctionResponses[1].Response.Result["invoiceCount"])
		assert.Equal(t, "unknown function", out.FunctionResponses[2].Response.Result["error"])
	})
}

func TestUploadMultipart(t *testing.T) {
	app := newTestApp(t, config.Config{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "piutang.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pelanggan;jumlah\nPT Maju;1.000,00\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audits", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out UploadResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Dataset.Invoices, 1)
	assert.Equal(t, "PT Maju", out.Dataset.Invoices[0].CustomerName)
}

func TestUploadErrors(t *testing.T) {
	app := newTestApp(t, config.Config{})

	cases := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{name: "header only", target: "/api/audits", body: "customer,amount\n", status: http.StatusUnprocessableEntity, code: "FORMAT_ERROR"},
		{name: "no amount column", target: "/api/audits", body: "customer,invoice\nAcme,1\n", status: http.StatusUnprocessableEntity, code: "SCHEMA_ERROR"},
		{name: "empty body", target: "/api/audits", body: "", status: http.StatusBadRequest, code: "INVALID_UPLOAD"},
		{name: "bad type", target: "/api/audits?type=pdf", body: "customer,amount\nAcme,1\n", status: http.StatusBadRequest, code: "INVALID_PARAMS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "text/csv")
			resp, body := doRequest(t, app, req)
			assert.Equal(t, tc.status, resp.StatusCode)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tc.code, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestUnknownAudit(t *testing.T) {
	app := newTestApp(t, config.Config{})
	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/audits/missing/summary", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestToolList(t *testing.T) {
	app := newTestApp(t, config.Config{})
	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ToolListResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.FunctionDeclarations, 4)
}

func TestUploadRateLimit(t *testing.T) {
	app := newTestApp(t, config.Config{UploadRatePerMin: 1})
	upload(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/audits?filename=ledger.csv", strings.NewReader(ledgerCSV))
	resp, body := doRequest(t, app, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), "RATE_LIMITED")
}

func TestStoreExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Minute)
	s.now = func() time.Time { return now }

	id := s.Put(upload(t, newTestApp(t, config.Config{})).Dataset)
	_, ok := s.Get(id)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = s.Get(id)
	assert.False(t, ok)

	s.Put(upload(t, newTestApp(t, config.Config{})).Dataset)
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Zero(t, s.Len())
}

func TestStoreJanitorStopsOnCancel(t *testing.T) {
	s := NewStore(time.Millisecond)
	s.Put(upload(t, newTestApp(t, config.Config{})).Dataset)

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, 5*time.Millisecond, func(removed, _ int) {
			select {
			case swept <- removed:
			default:
			}
		})
		close(done)
	}()

	select {
	case removed := <-swept:
		assert.Equal(t, 1, removed)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
