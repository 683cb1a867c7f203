package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	"github.com/Miraines/videotube/internal/adapters/transport/http/middleware"
	"github.com/Miraines/videotube/internal/app/user/service"
	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	svc          service.Service
	uploadDir    string
	cookieDomain string
	secure       bool
	log          *zap.Logger
}

func NewHandler(svc service.Service, uploadDir, cookieDomain string, secure bool, log *zap.Logger) *Handler {
	return &Handler{
		svc:          svc,
		uploadDir:    uploadDir,
		cookieDomain: cookieDomain,
		secure:       secure,
		log:          log,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBind(&body); err != nil {
		h.bindError(c, err)
		return
	}

	avatar, err := h.saveUpload(c, "avatar")
	if err != nil {
		h.bindError(c, err)
		return
	}
	defer removeQuietly(avatar)

	cover, err := h.saveUpload(c, "coverImage")
	if err != nil {
		h.bindError(c, err)
		return
	}
	defer removeQuietly(cover)

	body.AvatarPath, body.CoverImagePath = avatar, cover

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAPIResponse(http.StatusCreated, dto.NewUserResponse(user), "User registered successfully"))
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBind(&body); err != nil {
		h.bindError(c, err)
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.setSessionCookies(c, sess.Tokens)
	c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, dto.LoginResponse{
		User:         dto.NewUserResponse(sess.User),
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}, "User logged in successfully"))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var body dto.RefreshDTO
	if tok, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		body.RefreshToken = tok
	}
	if body.RefreshToken == "" && c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&body); err != nil {
			h.bindError(c, err)
			return
		}
	}

	sess, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.setSessionCookies(c, sess.Tokens)
	c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, dto.RefreshResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}, "Access token refreshed"))
}

func (h *Handler) Logout(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		h.handleError(c, customErrors.New(customErrors.ErrInvalidToken, "Unauthorized request"))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), p); err != nil {
		h.handleError(c, err)
		return
	}
	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, gin.H{}, "User logged out"))
}

func (h *Handler) CurrentUser(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		h.handleError(c, customErrors.New(customErrors.ErrInvalidToken, "Unauthorized request"))
		return
	}
	user, err := h.svc.CurrentUser(c.Request.Context(), p.User.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, dto.NewUserResponse(user), "Current user fetched successfully"))
}

func (h *Handler) Healthcheck(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		h.log.Warn("healthcheck failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.NewAPIResponse(http.StatusServiceUnavailable, nil, "Service unavailable"))
		return
	}
	c.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, "OK", "Health check passed"))
}

// saveUpload stores the named multipart file under uploadDir and returns its
// path. A missing file yields an empty path.
func (h *Handler) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return "", nil
	case err != nil:
		return "", err
	}
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", customErrors.WrapInternal(err, "Something went wrong while storing the upload")
	}

	dst := filepath.Join(h.uploadDir, uuid.NewString()+safeExt(fh))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", customErrors.WrapInternal(err, "Something went wrong while storing the upload")
	}
	return dst, nil
}

func safeExt(fh *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}

func removeQuietly(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

func (h *Handler) setSessionCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, int(pair.AccessTTL.Seconds()), "/", h.cookieDomain, h.secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken, int(pair.RefreshTTL.Seconds()), "/", h.cookieDomain, h.secure, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookieDomain, h.secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", h.cookieDomain, h.secure, true)
}

func (h *Handler) bindError(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			dto.NewAPIResponse(http.StatusRequestEntityTooLarge, nil, "Request body too large"))
		return
	}
	if customErrors.IsInternal(err) {
		h.handleError(c, err)
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewAPIResponse(http.StatusBadRequest, nil, "Invalid request body"))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	status := customErrors.HTTPStatus(err)
	// RequestLogger reports the attached error at a level matching status.
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewAPIResponse(status, nil, customErrors.Message(err)))
}
