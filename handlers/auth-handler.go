package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/services"
	"task-manager/backend/utils"
)

const maxUploadSize = 5 << 20

type SignupRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Avatar           string `json:"avatar"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type SigninRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type NewPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	models.User
	Token string `json:"token"`
}

type AuthHandler struct {
	users  *services.UserService
	images *utils.ImageStore
}

func NewAuthHandler(users *services.UserService, images *utils.ImageStore) *AuthHandler {
	return &AuthHandler{users: users, images: images}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Register(r.Context(), services.RegisterInput{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		Avatar:           req.Avatar,
		AdminInviteToken: req.AdminInviteToken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{User: res.User, Token: res.Token})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{User: res.User, Token: res.Token})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	user, err := h.users.Profile(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent.")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req NewPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ResetPassword(r.Context(), mux.Vars(r)["token"], req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset successfully")
}

func (h *AuthHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name, err := h.images.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			writeMessage(w, http.StatusBadRequest, "Only image files are allowed")
			return
		}
		writeError(w, r, err)
		return
	}

	logging.Logger.Infof("Event ID: IMAGE_UPLOADED, Description: Stored upload as %s", name)
	writeJSON(w, http.StatusOK, map[string]string{
		"imageUrl": requestScheme(r) + "://" + r.Host + "/uploads/" + name,
	})
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
