// Package main provides the Lambda handler for infra-nli.
// This is the entry point for AWS Lambda Function URL deployment.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/controller"
	"github.com/infra-nli/internal/logging"
	"github.com/infra-nli/internal/web"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, X-API-Key",
	"Content-Type":                 "application/json",
}

// handler serves Function URL requests against one controller, so the
// response cache survives across warm invocations.
type handler struct {
	cfg    *config.Config
	ctrl   *controller.Controller
	logger *logging.Logger
}

func newHandler(cfg *config.Config, logger *logging.Logger) *handler {
	return &handler{
		cfg:    cfg,
		ctrl:   controller.NewWithConfig(cfg, logger),
		logger: logger,
	}
}

// Handle processes Lambda Function URL requests
func (h *handler) Handle(ctx context.Context, request events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	path := request.RawPath
	method := request.RequestContext.HTTP.Method

	// Log request (goes to CloudWatch)
	h.logger.WithFields(logging.Fields{
		"request_id": request.RequestContext.RequestID,
		"source_ip":  request.RequestContext.HTTP.SourceIP,
	}).Info("%s %s", method, path)

	// Handle OPTIONS (CORS preflight)
	if method == http.MethodOptions {
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusOK,
			Headers:    corsHeaders,
		}, nil
	}

	// Route request
	switch {
	case path == "/api/health" && method == http.MethodGet:
		return h.handleHealth()
	case path == "/api/nli/parse" && method == http.MethodPost:
		if !h.authorized(request.Headers) {
			return errorResponse(http.StatusUnauthorized, "Missing or invalid API key", request.RequestContext.RequestID)
		}
		return h.handleParse(ctx, request)
	case path == "/api/nli/examples" && method == http.MethodGet:
		if !h.authorized(request.Headers) {
			return errorResponse(http.StatusUnauthorized, "Missing or invalid API key", request.RequestContext.RequestID)
		}
		return jsonResponse(http.StatusOK, h.ctrl.Examples())
	default:
		return errorResponse(http.StatusNotFound, "Not found", request.RequestContext.RequestID)
	}
}

func (h *handler) authorized(headers map[string]string) bool {
	hdr := http.Header{}
	for k, v := range headers {
		hdr.Set(k, v)
	}
	return web.CheckAPIKey(h.cfg.Server.APIKey, hdr)
}

func (h *handler) handleParse(ctx context.Context, request events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	requestID := request.RequestContext.RequestID
	if int64(len(request.Body)) > h.cfg.Server.MaxBodyBytes {
		return errorResponse(http.StatusRequestEntityTooLarge, "Request body too large", requestID)
	}

	req, err := web.DecodeParseRequest([]byte(request.Body))
	if err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid JSON body", requestID)
	}

	if timeout := h.cfg.Engine.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := h.ctrl.Parse(ctx, req)
	if err != nil {
		status := web.StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Parse failed: %v", err)
		}
		return errorResponse(status, err.Error(), requestID)
	}

	return jsonResponse(http.StatusOK, resp)
}

func (h *handler) handleHealth() (events.LambdaFunctionURLResponse, error) {
	cache := "disabled"
	if h.ctrl.CacheStats().Enabled {
		cache = "enabled"
	}
	return jsonResponse(http.StatusOK, web.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   web.Version,
		Checks: map[string]string{
			"engine": "ok",
			"cache":  cache,
			"region": h.cfg.Engine.Region,
		},
	})
}

func errorResponse(statusCode int, msg, requestID string) (events.LambdaFunctionURLResponse, error) {
	return jsonResponse(statusCode, web.ErrorResponse{
		Success:   false,
		Error:     msg,
		RequestID: requestID,
	})
}

func jsonResponse(statusCode int, body interface{}) (events.LambdaFunctionURLResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders,
			Body:       `{"success":false,"error":"Failed to serialize response"}`,
		}, nil
	}

	return events.LambdaFunctionURLResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders,
		Body:       string(jsonBody),
	}, nil
}

func main() {
	// Initialize config
	cfg := config.Get()

	logger, err := logging.New(controller.LoggerConfig(cfg, "lambda"))
	if err != nil {
		logger = logging.GetDefault()
	}

	// Start Lambda handler
	lambda.Start(newHandler(cfg, logger).Handle)
}
