package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"gtahub/internal/validate"
)

// formError is the inline-message shape returned for rejected input.
func formError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"message": msg,
		},
	})
}

// bearerOf extracts the caller's bearer token, empty if absent. The
// token is opaque here: its presence is the only authentication signal,
// validity is the CMS's concern.
func bearerOf(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimPrefix(auth, prefix)
	}
	return ""
}

// Search handles GET /api/search, the search-as-you-type endpoint. An
// empty term yields an empty result set; a term failing validation is
// rejected inline and never sent upstream.
func (h *Handler) Search(c echo.Context) error {
	term := c.QueryParam("q")

	if err := validate.SearchTerm(term); err != nil {
		if errors.Is(err, validate.ErrEmpty) {
			return c.JSON(http.StatusOK, map[string]any{"results": []any{}})
		}
		return formError(c, http.StatusBadRequest, "invalid search term")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	results := h.content.SearchArticles(c.Request().Context(), term, limit)

	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

// commentRequest is the comment submission payload.
type commentRequest struct {
	Article int    `json:"article"`
	Content string `json:"content"`
}

// SubmitComment handles POST /api/comments: validates the text, then
// forwards it to the CMS under the caller's token.
func (h *Handler) SubmitComment(c echo.Context) error {
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return formError(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Article <= 0 {
		return formError(c, http.StatusBadRequest, "missing article reference")
	}
	if err := validate.CommentText(req.Content); err != nil {
		return formError(c, http.StatusBadRequest, "comment rejected: "+err.Error())
	}

	payload, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"article": req.Article,
			"content": strings.TrimSpace(req.Content),
		},
	})
	if err != nil {
		return formError(c, http.StatusInternalServerError, "could not submit comment")
	}

	status, body, err := h.cms.Proxy(c.Request().Context(), http.MethodPost, "/api/comments",
		"application/json", bytes.NewReader(payload), bearerOf(c))
	if err != nil {
		h.log.Error("comment submission failed", "error", err)
		return formError(c, http.StatusBadGateway, "could not submit comment")
	}

	return c.JSONBlob(status, body)
}

// profileRequest carries the editable profile fields.
type profileRequest struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
}

// UpdateProfile handles POST /api/profile: validates the fields and
// forwards the update to the CMS under the caller's token.
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return formError(c, http.StatusBadRequest, "invalid request body")
	}

	if req.ID <= 0 {
		return formError(c, http.StatusBadRequest, "missing user id")
	}
	if err := validate.Username(req.Username); err != nil {
		return formError(c, http.StatusBadRequest, "username rejected: "+err.Error())
	}
	if req.Bio != "" {
		if err := validate.CommentText(req.Bio); err != nil {
			return formError(c, http.StatusBadRequest, "bio rejected: "+err.Error())
		}
	}

	payload, err := json.Marshal(map[string]any{
		"username": strings.TrimSpace(req.Username),
		"bio":      strings.TrimSpace(req.Bio),
	})
	if err != nil {
		return formError(c, http.StatusInternalServerError, "could not update profile")
	}

	status, body, err := h.cms.Proxy(c.Request().Context(), http.MethodPut,
		"/api/users/"+strconv.Itoa(req.ID), "application/json", bytes.NewReader(payload), bearerOf(c))
	if err != nil {
		h.log.Error("profile update failed", "error", err)
		return formError(c, http.StatusBadGateway, "could not update profile")
	}

	return c.JSONBlob(status, body)
}

// UploadAvatar handles POST /api/avatar: a multipart upload validated
// against the avatar constraints, then forwarded to the CMS upload
// endpoint with the ref/refId/field association intact. Constraint
// violations are surfaced inline and the upload is not attempted.
func (h *Handler) UploadAvatar(c echo.Context) error {
	fileHeader, err := c.FormFile("files")
	if err != nil {
		return formError(c, http.StatusBadRequest, "missing avatar file")
	}
	refID := c.FormValue("refId")
	if refID == "" {
		return formError(c, http.StatusBadRequest, "missing refId")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return formError(c, http.StatusBadRequest, "could not read avatar file")
	}
	defer file.Close()

	if err := validate.Avatar(file, fileHeader.Size); err != nil {
		return formError(c, http.StatusBadRequest, "avatar rejected: "+err.Error())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return formError(c, http.StatusInternalServerError, "could not read avatar file")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", fileHeader.Filename)
	if err != nil {
		return formError(c, http.StatusInternalServerError, "could not forward avatar")
	}
	if _, err := io.Copy(part, file); err != nil {
		return formError(c, http.StatusInternalServerError, "could not forward avatar")
	}
	_ = writer.WriteField("ref", "plugin::users-permissions.user")
	_ = writer.WriteField("refId", refID)
	_ = writer.WriteField("field", "avatar")
	if err := writer.Close(); err != nil {
		return formError(c, http.StatusInternalServerError, "could not forward avatar")
	}

	status, body, err := h.cms.Proxy(c.Request().Context(), http.MethodPost, "/api/upload",
		writer.FormDataContentType(), &buf, bearerOf(c))
	if err != nil {
		h.log.Error("avatar upload failed", "error", err)
		return formError(c, http.StatusBadGateway, "could not upload avatar")
	}

	return c.JSONBlob(status, body)
}

// Auth pass-through: plain JSON proxies to the CMS auth endpoints.
// Credentials and tokens are opaque; the browser stores the returned
// token locally and its presence alone marks a session.

func (h *Handler) AuthLogin(c echo.Context) error {
	return h.authProxy(c, "/api/auth/local")
}

func (h *Handler) AuthRegister(c echo.Context) error {
	return h.authProxy(c, "/api/auth/local/register")
}

func (h *Handler) AuthForgot(c echo.Context) error {
	return h.authProxy(c, "/api/auth/forgot-password")
}

func (h *Handler) AuthReset(c echo.Context) error {
	return h.authProxy(c, "/api/auth/reset-password")
}

func (h *Handler) authProxy(c echo.Context, path string) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return formError(c, http.StatusBadRequest, "invalid request body")
	}

	status, respBody, err := h.cms.Proxy(c.Request().Context(), http.MethodPost, path,
		"application/json", bytes.NewReader(body), "")
	if err != nil {
		h.log.Error("auth proxy failed", "path", path, "error", err)
		return formError(c, http.StatusBadGateway, "authentication service unavailable")
	}

	return c.JSONBlob(status, respBody)
}
