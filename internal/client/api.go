package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"estate-market/internal/domain"
	"estate-market/internal/imagehost"
)

type signUpBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignUp(ctx context.Context, username, email, password string) (*domain.User, error) {
	var u domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", nil, signUpBody{username, email, password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignIn keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	var out struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", nil, in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/signout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/"+url.PathEscape(id), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	var u domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/update/"+url.PathEscape(id), nil, p, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/user/delete/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) UserListings(ctx context.Context, id string) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := c.doJSON(ctx, http.MethodGet, "/api/user/listings/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateListing(ctx context.Context, d domain.ListingDraft) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.doJSON(ctx, http.MethodPost, "/api/listing/create", nil, d, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.doJSON(ctx, http.MethodGet, "/api/listing/get/"+url.PathEscape(id), nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) UpdateListing(ctx context.Context, id string, p domain.ListingPatch) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.doJSON(ctx, http.MethodPost, "/api/listing/update/"+url.PathEscape(id), nil, p, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/listing/delete/"+url.PathEscape(id), nil, nil, nil)
}

// FilterValues encodes f the way the listing search endpoint reads it.
func FilterValues(f domain.ListingFilter) url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	for k, on := range map[string]bool{"offer": f.Offer, "parking": f.Parking, "furnished": f.Furnished} {
		if on {
			q.Set(k, "true")
		}
	}
	if f.SearchTerm != "" {
		q.Set("searchTerm", f.SearchTerm)
	}
	if f.Sort != "" {
		q.Set("sort", string(f.Sort))
	}
	if f.Asc {
		q.Set("order", "asc")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.StartIndex > 0 {
		q.Set("startIndex", strconv.Itoa(f.StartIndex))
	}
	return q
}

func (c *Client) Query(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	out := []domain.Listing{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/listing/get", FilterValues(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Uploader sends photos through the API's upload proxy.
func (c *Client) Uploader() imagehost.Uploader { return uploadProxy{c} }

type uploadProxy struct{ c *Client }

func (p uploadProxy) Upload(ctx context.Context, f imagehost.File, progress imagehost.ProgressFunc) (imagehost.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := imagehost.WriteFilePart(mw, "file", f); err != nil {
		return imagehost.Result{}, err
	}
	if err := mw.Close(); err != nil {
		return imagehost.Result{}, err
	}
	size := int64(buf.Len())
	body := imagehost.TrackProgress(bytes.NewReader(buf.Bytes()), f.Name, size, progress)

	req, err := p.c.newRequest(ctx, http.MethodPost, "/api/upload/images", nil, body)
	if err != nil {
		return imagehost.Result{}, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var results []imagehost.Result
	if err := p.c.send(req, &results); err != nil {
		return imagehost.Result{}, &imagehost.UploadError{Backend: "api", Name: f.Name, Err: err}
	}
	if len(results) != 1 {
		return imagehost.Result{}, &imagehost.UploadError{Backend: "api", Name: f.Name, Msg: "unexpected result count"}
	}
	return results[0], nil
}
