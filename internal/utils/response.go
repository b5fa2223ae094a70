// Package utils provides utility functions and helpers for the application.
// This file implements the response writers shared by every handler: the
// standard envelope, paginated lists, file attachments and the flat error
// body used by the inference endpoint.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// Response represents a standardized API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// MetaInfo carries pagination information.
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"page_size,omitempty"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// PaginationParams contains parameters for pagination.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip for the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// flatError is the error shape of the inference endpoint.
type flatError struct {
	Error string `json:"error"`
}

// JSON sends data wrapped in the standard envelope.
// The success flag follows the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// Attachment sends body as a downloadable file with no-cache headers.
//
// Parameters:
//   - w: The HTTP response writer
//   - contentType: The media type of body
//   - filename: The suggested download name
//   - body: The file contents
func Attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set(constants.HeaderContentType, contentType)
	w.Header().Set(constants.HeaderContentLength, strconv.Itoa(len(body)))
	w.Header().Set(constants.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s",
			filename,
			url.PathEscape(filename)))

	w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
	w.Header().Set(constants.HeaderPragma, constants.PragmaNoCache)
	w.Header().Set(constants.HeaderExpires, constants.ExpiresZero)

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to write attachment")
	}
}

// Error sends an error response in the standard envelope.
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorBody sends the flat {"error": message} body.
func ErrorBody(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, flatError{Error: message})
}

// errorCodes maps sentinel errors to envelope codes.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, constants.CodeNotFound},
	{ErrBadRequest, constants.CodeBadRequest},
	{ErrUnauthorized, constants.CodeUnauthorized},
	{ErrForbidden, constants.CodeForbidden},
	{ErrValidation, constants.CodeValidationError},
	{ErrDuplicate, constants.CodeDuplicateResource},
	{ErrInvalidCredentials, constants.CodeInvalidCredentials},
	{ErrExpiredToken, constants.CodeTokenExpired},
	{ErrInvalidToken, constants.CodeTokenInvalid},
}

// ErrorFromAppError sends an error response based on an AppError.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	errCode := constants.CodeInternalError
	for _, ec := range errorCodes {
		if errors.Is(err.Err, ec.err) {
			errCode = ec.code
			break
		}
	}

	details := err.toDetails()

	if err.StatusCode >= http.StatusInternalServerError {
		log.Error().Str("dev_info", err.DevInfo).Msg(err.Message)
	}

	Error(w, err.StatusCode, errCode, err.Message, details)
}

func (e *AppError) toDetails() map[string]string {
	if e.Field == "" && len(e.Details) == 0 {
		return nil
	}
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = fmt.Sprint(v)
	}
	if e.Field != "" {
		details[e.Field] = e.Message
	}
	return details
}

// Paginated sends a list with page metadata.
func Paginated(w http.ResponseWriter, statusCode int, data interface{}, page, pageSize, totalItems int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = totalItems / pageSize
		if totalItems%pageSize > 0 {
			totalPages++
		}
	}

	response := Response{
		Success: constants.ResponseSuccess,
		Data:    data,
		Meta: &MetaInfo{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: totalItems,
			TotalPages: totalPages,
		},
	}

	SendJSON(w, statusCode, response)
}

// SendJSON marshals data and writes it with the JSON content type.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest sends a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	Error(w, http.StatusBadRequest, constants.CodeBadRequest, message, details)
}

// Unauthorized sends a 401 Unauthorized response with the given message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	Error(w, http.StatusUnauthorized, constants.CodeUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response with the given message.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	Error(w, http.StatusForbidden, constants.CodeForbidden, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, http.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}

// Conflict sends a 409 Conflict response with the given message.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, constants.CodeConflict, message, nil)
}

// TooManyRequests sends a 429 response asking the client to retry later.
func TooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	Error(w, http.StatusTooManyRequests, constants.CodeRateLimited, constants.MsgRateLimited, nil)
}

// InternalServerError logs err and sends a generic 500 response.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, http.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}

// ValidationError sends a 400 Bad Request response with validation error details.
func ValidationError(w http.ResponseWriter, errors map[string]string) {
	Error(w, http.StatusBadRequest, constants.CodeValidationError, "Validation failed", errors)
}

// GetPaginationParams reads page and page_size, clamping the page size.
// Unparseable values fall back to the defaults.
func GetPaginationParams(r *http.Request) PaginationParams {
	query := r.URL.Query()
	page := parseInt(query.Get(constants.QueryParamPage), constants.DefaultPage)
	if page < 1 {
		page = constants.DefaultPage
	}

	pageSize := parseInt(query.Get(constants.QueryParamPageSize), constants.DefaultPageSize)
	switch {
	case pageSize < constants.MinPageSize:
		pageSize = constants.MinPageSize
	case pageSize > constants.MaxPageSize:
		pageSize = constants.MaxPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
	}
}

func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}
