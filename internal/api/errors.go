package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/readalong/internal/errors"
)

// classifyError maps SDK and transport errors onto the errors package taxonomy.
// Context cancellation is returned unchanged so callers can match it.
func classifyError(err error, operation, endpoint string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(operation + " exceeded its deadline")
	}

	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return apierrors.NewNetworkErrorWithEndpoint(operation, endpoint, err)
	}

	if sdkErr.Request != nil && sdkErr.Request.URL != nil {
		endpoint = sdkErr.Request.URL.Path
	}

	raw := sdkErr.RawJSON()
	message := sdkErr.Message
	if message == "" {
		message = errorField(raw, "message")
	}
	if message == "" {
		message = http.StatusText(sdkErr.StatusCode)
	}
	code := sdkErr.Code
	if code == "" {
		code = errorField(raw, "code")
	}

	switch sdkErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apierrors.AuthError{
			Message:    message,
			StatusCode: sdkErr.StatusCode,
			Endpoint:   endpoint,
		}
	case http.StatusTooManyRequests:
		return &apierrors.UsageLimitError{
			Message:  message,
			Endpoint: endpoint,
		}
	}

	apiErr := apierrors.NewAPIErrorWithBody(sdkErr.StatusCode, endpoint, message, raw)
	apiErr.Code = code
	return apiErr
}

// errorField reads a field from either {"error": {...}} or a bare error object
func errorField(body, field string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}
	if v := gjson.Get(body, "error."+field); v.Exists() {
		return v.String()
	}
	return gjson.Get(body, field).String()
}
