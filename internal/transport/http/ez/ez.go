// Package ez is a thin typed layer over gin: handlers return (data, error)
// and ez turns both into the response envelope.
package ez

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-market/internal/domain"
	mdw "estate-market/internal/transport/http/middleware"
	resp "estate-market/internal/transport/http/response"
)

type EZ struct {
	g    *gin.RouterGroup
	auth gin.HandlerFunc
	log  *zap.Logger
}

// New wraps g. auth runs before every route declared with Auth: true; it may
// be nil when the group is already authenticated.
func New(g *gin.RouterGroup, auth gin.HandlerFunc, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, auth: auth, log: l}
}

func (e EZ) Group(path string) EZ {
	return EZ{g: e.g.Group(path), auth: e.auth, log: e.log}
}

// GET registers a public route with no input binding.
func (e EZ) GET(path string, h func(c *gin.Context) (any, error)) {
	e.g.GET(path, func(c *gin.Context) {
		data, err := h(c)
		e.reply(c, data, err)
	})
}

// POSTFILES handles a multipart upload of one or more files under fieldName.
// Uploads always run behind e's auth handler when it has one.
func POSTFILES(e EZ, path, fieldName string, h func(c *gin.Context, files []*multipart.FileHeader) (any, error)) {
	handlers := []gin.HandlerFunc{}
	if e.auth != nil {
		handlers = append(handlers, e.auth)
	}
	handlers = append(handlers, func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				resp.Write(c, resp.Error(resp.CodeTooLarge, "request body too large"))
				return
			}
			resp.Write(c, resp.Error(resp.CodeBadRequest, "invalid multipart form: "+err.Error()))
			return
		}
		files := form.File[fieldName]
		if len(files) == 0 {
			resp.Write(c, resp.Error(resp.CodeBadRequest, "no files uploaded"))
			return
		}
		data, err := h(c, files)
		e.reply(c, data, err)
	})
	e.g.POST(path, handlers...)
}

type Binder string

const (
	BindJSON  Binder = "json"  // request body
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // handler reads c.Param itself
)

// AErr carries an explicit envelope code.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: resp.CodeConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FieldData is the data of a 400 caused by a single field.
type FieldData struct {
	Field string `json:"field"`
}

// FromError maps an error onto the envelope. The bool reports whether the
// error is unexpected and worth logging.
func FromError(err error) (resp.Resp, bool) {
	var ae *AErr
	if errors.As(err, &ae) {
		return resp.Error(ae.Code, ae.Error()), ae.Code >= resp.CodeServerError
	}
	if ve, ok := domain.AsValidation(err); ok {
		return resp.New(resp.CodeBadRequest, ve.Error(), FieldData{Field: ve.Field}), false
	}
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return resp.Error(resp.CodeUnauthorized, err.Error()), false
	case errors.Is(err, domain.ErrForbidden):
		return resp.Error(resp.CodeForbidden, err.Error()), false
	case errors.Is(err, domain.ErrNotFound):
		return resp.Error(resp.CodeNotFound, err.Error()), false
	case errors.Is(err, domain.ErrConflict):
		return resp.Error(resp.CodeConflict, err.Error()), false
	}
	return resp.Error(resp.CodeServerError, "internal error"), true
}

func (e EZ) reply(c *gin.Context, data any, err error) {
	if err == nil {
		resp.Write(c, resp.OK(data))
		return
	}
	r, unexpected := FromError(err)
	if unexpected {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.CtxRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	resp.Write(c, r)
}

// Action declares one route: I is the bound input, O the response data.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // requires a signed-in user
	Roles   []string // optional role allow-list, implies Auth
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	needAuth := a.Auth || len(a.Roles) > 0
	h := func(c *gin.Context) {
		if needAuth {
			if mdw.UserID(c) == "" {
				resp.Write(c, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !hasRole(mdw.Role(c), a.Roles) {
				resp.Write(c, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			resp.Write(c, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		e.reply(c, out, err)
	}

	handlers := []gin.HandlerFunc{}
	if needAuth && e.auth != nil {
		handlers = append(handlers, e.auth)
	}
	handlers = append(handlers, h)

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default:
		e.g.POST(a.Path, handlers...)
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
