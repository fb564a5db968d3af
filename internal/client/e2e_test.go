package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"estate-market/internal/core/auth"
	"estate-market/internal/core/config"
	"estate-market/internal/domain"
	"estate-market/internal/feature/contact"
	"estate-market/internal/feature/home"
	"estate-market/internal/feature/listingform"
	"estate-market/internal/feature/session"
	"estate-market/internal/imagehost"
	"estate-market/internal/repo"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/router"
)

type cdnStub struct{}

func (cdnStub) Upload(_ context.Context, f imagehost.File, _ imagehost.ProgressFunc) (imagehost.Result, error) {
	return imagehost.Result{URL: "https://cdn.test/" + f.Name, Bytes: int64(len(f.Data))}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		App:    config.App{Env: "test"},
		JWT:    config.JWT{Secret: "s3cret", Issuer: "estate-test", AccessTokenTTLMin: 60, CookieName: "access_token"},
		Limits: config.Limits{RPS: 1000, Burst: 1000, MaxConcurrent: 100, MaxBodyMB: 8, RequestTimeoutSec: 5},
	}
	st := repo.NewMemoryStore()
	listings := service.NewListingService(st.Listings, nil, time.Minute, zap.NewNop())
	users := service.NewUserService(st.Users, listings, zap.NewNop())
	engine := router.NewAPIEngine(router.Deps{
		Log: zap.NewNop(), Config: cfg,
		JWT:   &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()},
		Users: users, Listings: listings, Uploader: cdnStub{},
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := New(srv.URL)

	_, err := c.SignUp(ctx, "ann", "ann@mail.test", "secret1")
	require.NoError(t, err)

	sess := session.NewStore(c)
	ann, err := sess.SignIn(ctx, "ann@mail.test", "secret1")
	require.NoError(t, err)
	require.True(t, sess.State().Authenticated())
	assert.NotEmpty(t, c.Token())

	form := listingform.New(ann.ID)
	require.NoError(t, form.SetName("Cozy Downtown Loft"))
	require.NoError(t, form.SetDescription("Bright loft"))
	require.NoError(t, form.SetAddress("1 Main St"))
	require.NoError(t, form.Next())
	require.NoError(t, form.SetBedrooms(2))
	require.NoError(t, form.SetRegularPrice(15000))
	require.NoError(t, form.SetOffer(true))
	require.NoError(t, form.SetDiscountPrice(12000))
	require.NoError(t, form.Next())

	require.NoError(t, form.SelectFiles(
		imagehost.File{Name: "a.png", Data: pngHeader},
		imagehost.File{Name: "b.png", Data: pngHeader},
	))
	var mu sync.Mutex
	var last imagehost.Progress
	_, err = form.UploadImages(ctx, c.Uploader(), func(p imagehost.Progress) {
		mu.Lock()
		last = p
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/a.png", "https://cdn.test/b.png"}, form.Draft().ImageURLs)
	assert.Equal(t, 100, last.Percent())

	l, err := form.Submit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), l.DiscountPrice)

	rents, err := c.Query(ctx, domain.ListingFilter{Type: domain.TypeRent, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, rents, 1)

	feed, err := home.Fetch(ctx, c)
	require.NoError(t, err)
	assert.Len(t, home.Display(home.FilterAll, feed), 1)
	assert.Empty(t, home.Display(home.FilterSale, feed))

	landlord, err := c.GetUser(ctx, l.UserRef)
	require.NoError(t, err)
	assert.Contains(t, contact.MailtoURL(*landlord, *l, "hi"), "mailto:ann@mail.test?subject=Regarding%20Cozy%20Downtown%20Loft")

	name := "anna"
	_, err = sess.UpdateUser(ctx, domain.UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "anna", sess.State().User.Username)

	require.NoError(t, sess.DeleteUser(ctx))
	assert.False(t, sess.State().Authenticated())
	assert.Empty(t, c.Token())

	_, err = c.GetListing(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "listings go with their owner")
}

func TestEndToEnd_ServerRejectsDraft(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := New(srv.URL)
	_, err := c.SignUp(ctx, "bob", "bob@mail.test", "secret1")
	require.NoError(t, err)
	bob, err := c.SignIn(ctx, "bob@mail.test", "secret1")
	require.NoError(t, err)

	form := listingform.New(bob.ID)
	require.NoError(t, form.SetName("short"))
	require.NoError(t, form.Next())
	require.NoError(t, form.Next())
	require.NoError(t, form.SelectFiles(imagehost.File{Name: "a.png", Data: pngHeader}))
	_, err = form.UploadImages(ctx, c.Uploader(), nil)
	require.NoError(t, err)

	_, err = form.Submit(ctx, c)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, listingform.BasicInfo, form.Step())
}
