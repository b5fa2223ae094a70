package server

import (
	"net/http"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

type routeDoc map[string]interface{}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

var bearerHeaders = map[string]string{"Authorization": "Bearer <access_token>"}

// GetAPIRoutes serves a description of every endpoint grouped by area.
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	routes := map[string]interface{}{}

	routes["authentication"] = map[string]routeDoc{
		"POST /api/auth/signup": {
			"description": "Register a patient account",
			"headers":     jsonHeaders,
			"body": map[string]string{
				"username":         "string - 3 to 50 characters",
				"email":            "string - Unique email address",
				"password":         "string - At least 6 characters",
				"confirm_password": "string - Must match password",
				"full_name":        "string - Display name",
			},
			"response": "201 with the created user",
		},
		"POST /api/auth/login": {
			"description": "Authenticate with username or email",
			"headers":     jsonHeaders,
			"body": map[string]string{
				"username": "string - Username, or omit and send email",
				"email":    "string - Email, or omit and send username",
				"password": "string - Password",
			},
			"response": map[string]interface{}{
				"user":         "object",
				"access_token": "string - JWT access token",
				"token_type":   "Bearer",
				"expires_in":   900,
			},
			"cookies": map[string]string{"refresh_token": "HTTP-only refresh token cookie"},
		},
		"POST /api/auth/refresh": {
			"description": "Rotate the refresh token and issue a new access token",
			"cookies":     []string{"refresh_token"},
			"body":        map[string]string{"refresh_token": "string - Optional when the cookie is sent"},
		},
		"POST /api/auth/logout": {
			"description": "Revoke the current refresh session",
			"cookies":     []string{"refresh_token"},
		},
		"POST /api/auth/logout-all": {
			"description": "Revoke every session of the caller",
			"headers":     bearerHeaders,
		},
		"GET /api/auth/verify": {
			"description": "Describe the caller of a valid access token",
			"headers":     bearerHeaders,
		},
	}

	routes["users"] = map[string]routeDoc{
		"GET /api/users/check/username?username=": {"description": "Report whether a username is free"},
		"GET /api/users/check/email?email=":       {"description": "Report whether an email is free"},
		"GET /api/users/me":                       {"description": "Current user profile", "headers": bearerHeaders},
		"PUT /api/users/me": {
			"description": "Update username, email or full name",
			"headers":     bearerHeaders,
		},
		"DELETE /api/users/me": {
			"description": "Delete the account with its predictions and sessions",
			"headers":     bearerHeaders,
		},
		"POST /api/users/me/change-password": {
			"description": "Change the password and revoke every session",
			"headers":     bearerHeaders,
			"body": map[string]string{
				"current_password": "string",
				"new_password":     "string - At least 6 characters",
				"confirm_password": "string - Must match new_password",
			},
		},
	}

	routes["predictions"] = map[string]routeDoc{
		"POST /api/predict": {
			"description": "Classify one patient record with every loaded model. Saved when authenticated.",
			"headers":     jsonHeaders,
			"body": map[string]interface{}{
				"Age":            54,
				"Sex":            "M | F",
				"ChestPainType":  "ATA | NAP | ASY | TA",
				"RestingBP":      130,
				"Cholesterol":    220,
				"FastingBS":      "0 | 1",
				"RestingECG":     "Normal | ST | LVH",
				"MaxHR":          150,
				"ExerciseAngina": "Y | N",
				"Oldpeak":        1.0,
				"ST_Slope":       "Up | Flat | Down",
			},
			"response": "Flat JSON with results per model; errors are {\"error\": message}",
		},
		"GET /api/predictions":         {"description": "Own predictions, newest first", "query": "page, page_size"},
		"GET /api/predictions/{id}":    {"description": "One own prediction"},
		"PUT /api/predictions/{id}":    {"description": "Replace the input and re-run the models"},
		"DELETE /api/predictions/{id}": {"description": "Delete one own prediction"},
	}

	routes["admin"] = map[string]routeDoc{
		"GET /api/admin/dashboard":           {"description": "Counts and the most recent predictions"},
		"GET /api/admin/users":               {"description": "All users split into admins and patients"},
		"POST /api/admin/users":              {"description": "Create a user with a chosen role"},
		"GET /api/admin/users/{id}":          {"description": "One user"},
		"PUT /api/admin/users/{id}":          {"description": "Update profile, role or password"},
		"DELETE /api/admin/users/{id}":       {"description": "Delete a user other than the caller"},
		"GET /api/admin/predictions":         {"description": "All predictions", "query": "start_date, end_date (YYYY-MM-DD, both or neither), page, page_size"},
		"DELETE /api/admin/predictions/{id}": {"description": "Delete any prediction"},
		"GET /api/admin/predictions/export/{format}": {
			"description": "Download predictions as json, csv or pdf",
			"query":       "start_date, end_date",
		},
	}

	routes["system"] = map[string]routeDoc{
		"GET /health":     {"description": "Database and model status"},
		"GET /version":    {"description": "Application version and environment"},
		"GET /api/models": {"description": "Loaded classifiers and the input encoding version"},
		"GET /api/routes": {"description": "This document"},
	}

	utils.JSON(w, http.StatusOK, routes)
}
