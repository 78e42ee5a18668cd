package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yogiverse/authkit"
)

const sessionCookie = "access_token"

type handler struct {
	engine       *authkit.Engine
	log          *zap.Logger
	validate     *validator.Validate
	cookieSecure bool
}

func newHandler(engine *authkit.Engine, log *zap.Logger, cookieSecure bool) *handler {
	return &handler{
		engine:       engine,
		log:          log,
		validate:     validator.New(),
		cookieSecure: cookieSecure,
	}
}

type requestOTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type requestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type userPayload struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ProfilePic string `json:"profilePic,omitempty"`
}

func (h *handler) requestRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.RequestRegistrationOTP(r.Context(), req.Email, req.Username); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email."})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Register(r.Context(), authkit.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Code:     req.OTP,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    payloadFrom(res),
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    payloadFrom(res),
	})
}

func (h *handler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (h *handler) requestResetOTP(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.RequestResetOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email for password reset"})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password successfully reset"})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return false
	}
	return true
}

func (h *handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func payloadFrom(res *authkit.AuthResult) userPayload {
	return userPayload{
		ID:         res.UserID,
		Username:   res.Username,
		Email:      res.Email,
		Role:       string(res.Role),
		ProfilePic: res.AvatarURL,
	}
}

// writeError maps the engine taxonomy onto HTTP statuses. Throttled
// responses carry the remaining wait in Retry-After and in the message.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	switch authkit.KindOf(err) {
	case authkit.KindValidation:
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	case authkit.KindConflict:
		h.writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case authkit.KindThrottled:
		seconds := int(authkit.RetryAfter(err).Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		h.writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": err.Error()})
	case authkit.KindAuthentication:
		status := http.StatusUnauthorized
		if errors.Is(err, authkit.ErrAccountBlocked) {
			status = http.StatusForbidden
		}
		h.writeJSON(w, status, map[string]string{"message": err.Error()})
	case authkit.KindNotFound:
		h.writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "service temporarily unavailable"})
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("response encode failed", zap.Error(err))
	}
}
