package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-market/internal/domain"
	"estate-market/internal/imagehost"
	"estate-market/internal/transport/http/ez"
	resp "estate-market/internal/transport/http/response"
)

// UploadHandler proxies listing photos to the configured image host so
// clients never hold host credentials.
type UploadHandler struct {
	up imagehost.Uploader
}

func NewUploadHandler(up imagehost.Uploader) *UploadHandler { return &UploadHandler{up: up} }

func (h *UploadHandler) MountAPI(e ez.EZ) {
	ez.POSTFILES(e.Group("/upload"), "/images", "file", h.images)
}

func (h *UploadHandler) images(c *gin.Context, headers []*multipart.FileHeader) (any, error) {
	if h.up == nil {
		return nil, &ez.AErr{Code: resp.CodeUnavailable, Msg: "image uploads are not configured"}
	}
	if len(headers) > domain.MaxImages {
		return nil, ez.BadRequest(fmt.Sprintf("you can upload only %d images per listing", domain.MaxImages))
	}
	files := make([]imagehost.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	results, err := imagehost.UploadAll(c.Request.Context(), h.up, files, nil)
	if err != nil {
		var ue *imagehost.UploadError
		if errors.As(err, &ue) {
			return nil, &ez.AErr{Code: resp.CodeBadGateway, Msg: "image upload failed", Err: err}
		}
		return nil, err
	}
	return results, nil
}

func readPart(fh *multipart.FileHeader) (imagehost.File, error) {
	if fh.Size > imagehost.MaxFileBytes {
		return imagehost.File{}, &ez.AErr{Code: resp.CodeTooLarge, Msg: fmt.Sprintf("%s is larger than %d MB", fh.Filename, imagehost.MaxFileBytes>>20)}
	}
	src, err := fh.Open()
	if err != nil {
		return imagehost.File{}, ez.BadRequest("cannot read " + fh.Filename)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, imagehost.MaxFileBytes+1))
	if err != nil {
		return imagehost.File{}, ez.BadRequest("cannot read " + fh.Filename)
	}
	f := imagehost.File{Name: fh.Filename, ContentType: http.DetectContentType(data), Data: data}
	if !f.IsImage() {
		return imagehost.File{}, ez.BadRequest(fh.Filename + " is not an image")
	}
	return f, nil
}
