package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"araudit/internal"
	"araudit/internal/assistant"
	"araudit/internal/ledger"
	"araudit/internal/pipeline"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UploadResponse struct {
	ID      string           `json:"id"`
	TraceID string           `json:"traceId"`
	Dataset internal.Dataset `json:"dataset"`
}

type ToolCallRequest struct {
	FunctionCalls []assistant.FunctionCall `json:"functionCalls"`
}

type ToolCallResponse struct {
	FunctionResponses []assistant.FunctionResponse `json:"functionResponses"`
}

type ToolListResponse struct {
	FunctionDeclarations []assistant.FunctionDeclaration `json:"functionDeclarations"`
}

// AuditHandler serves uploads and the read-only dataset queries.
type AuditHandler struct {
	svc   *pipeline.AuditService
	store *Store
}

func NewAuditHandler(svc *pipeline.AuditService, store *Store) *AuditHandler {
	return &AuditHandler{svc: svc, store: store}
}

// Upload accepts a multipart "file" field or a raw body named by ?filename=.
func (h *AuditHandler) Upload(c *fiber.Ctx) error {
	var inputType pipeline.InputType
	if raw := c.Query("type"); raw != "" {
		parsed, err := pipeline.ParseInputType(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		}
		inputType = parsed
	}

	filename, content, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_UPLOAD", Message: err.Error()})
	}

	res, err := h.svc.AnalyzeContent(filename, content, inputType)
	if err != nil {
		return writeAuditError(c, err)
	}

	id := h.store.Put(res.Dataset)
	return c.Status(fiber.StatusCreated).JSON(UploadResponse{ID: id, TraceID: res.TraceID, Dataset: res.Dataset})
}

func (h *AuditHandler) Get(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		return c.JSON(idx.Dataset())
	})
}

func (h *AuditHandler) Summary(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		return c.JSON(idx.Summary())
	})
}

func (h *AuditHandler) Aging(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		return c.JSON(idx.Aging())
	})
}

func (h *AuditHandler) Anomalies(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		return c.JSON(idx.Anomalies())
	})
}

func (h *AuditHandler) Customers(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		name := c.Query("name")
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_PARAMS", Message: "name is required"})
		}
		return c.JSON(idx.CustomerDetails(name))
	})
}

func (h *AuditHandler) ExportXLSX(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		var buf bytes.Buffer
		if err := pipeline.WriteDatasetXLSX(idx.Dataset(), &buf); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="audit-%s.xlsx"`, c.Params("id")))
		return c.Send(buf.Bytes())
	})
}

func (h *AuditHandler) Tools(c *fiber.Ctx) error {
	return c.JSON(ToolListResponse{FunctionDeclarations: assistant.Declarations()})
}

func (h *AuditHandler) CallTools(c *fiber.Ctx) error {
	return h.withIndex(c, func(idx *ledger.Index) error {
		var req ToolCallRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "body must be {\"functionCalls\": [...]}"})
		}
		return c.JSON(ToolCallResponse{FunctionResponses: assistant.Dispatch(idx, req.FunctionCalls)})
	})
}

func (h *AuditHandler) withIndex(c *fiber.Ctx, fn func(*ledger.Index) error) error {
	idx, ok := h.store.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "audit not found or expired"})
	}
	return fn(idx)
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		blob, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return fh.Filename, blob, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return "", nil, errors.New("empty upload: send a multipart \"file\" field or a raw body")
	}
	// fasthttp reuses the body buffer after the handler returns.
	return c.Query("filename", "upload.csv"), bytes.Clone(body), nil
}

func writeAuditError(c *fiber.Ctx, err error) error {
	var formatErr *internal.FormatError
	var schemaErr *internal.SchemaError
	switch {
	case errors.As(err, &formatErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "FORMAT_ERROR", Message: formatErr.Error()})
	case errors.As(err, &schemaErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "SCHEMA_ERROR", Message: schemaErr.Error()})
	default:
		return err
	}
}
