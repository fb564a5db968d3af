package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"estate-market/internal/client"
	"estate-market/internal/core/auth"
	"estate-market/internal/core/config"
	"estate-market/internal/domain"
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
	srv := httptest.NewServer(router.NewAPIEngine(router.Deps{
		Log: zap.NewNop(), Config: cfg,
		JWT:   &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()},
		Users: users, Listings: listings, Uploader: cdnStub{},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = orig })
}

func newApp(t *testing.T, baseURL, input, credsPath string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := New(client.New(baseURL), strings.NewReader(input), &out, credsPath)
	require.NoError(t, err)
	return a, &out
}

func TestRunUnknownCommand(t *testing.T) {
	a, out := newApp(t, "http://127.0.0.1:0", "", filepath.Join(t.TempDir(), "creds.json"))
	err := a.Run(context.Background(), []string{"nope"})
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out.String(), "signin")

	require.ErrorIs(t, a.Run(context.Background(), nil), ErrUsage)
}

func TestCreateRequiresSignIn(t *testing.T) {
	a, _ := newApp(t, "http://127.0.0.1:0", "", filepath.Join(t.TempDir(), "creds.json"))
	err := a.Run(context.Background(), []string{"create", "-draft", "x.json", "a.png"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFlow(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "state", "creds.json")
	stubPassword(t, "secret1")

	a, out := newApp(t, srv.URL, "ann\nann@mail.test\nann@mail.test\n", credsPath)
	require.NoError(t, a.Run(ctx, []string{"signup"}))
	assert.Contains(t, out.String(), "account ann created")
	require.NoError(t, a.Run(ctx, []string{"signin"}))
	assert.Contains(t, out.String(), "signed in as ann")

	saved, err := loadCreds(credsPath)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Token)
	require.NotNil(t, saved.User)
	assert.Equal(t, "ann", saved.User.Username)

	draft := domain.ListingDraft{
		Name: "Cozy Downtown Loft", Description: "Bright loft", Address: "1 Main St",
		Type: domain.TypeRent, Bedrooms: 2, Bathrooms: 1,
		RegularPrice: 15000, DiscountPrice: 12000, Offer: true,
	}
	b, err := json.Marshal(draft)
	require.NoError(t, err)
	draftPath := filepath.Join(dir, "draft.json")
	require.NoError(t, os.WriteFile(draftPath, b, 0o600))
	photo := filepath.Join(dir, "front.png")
	require.NoError(t, os.WriteFile(photo, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	// A fresh App picks the session up from disk.
	b2, out2 := newApp(t, srv.URL, "", credsPath)
	st := b2.Session()
	require.True(t, st.Authenticated())
	assert.Equal(t, saved.User.ID, st.User.ID)
	assert.Equal(t, a.Session().User.ID, st.User.ID)
	require.NoError(t, b2.Run(ctx, []string{"create", "-draft", draftPath, photo}))
	assert.Contains(t, out2.String(), "1 images uploaded")
	assert.Contains(t, out2.String(), "created")

	out2.Reset()
	require.NoError(t, b2.Run(ctx, []string{"search", "-offer", "-q", "loft"}))
	assert.Contains(t, out2.String(), "Cozy Downtown Loft")
	assert.Contains(t, out2.String(), "(offer)")

	out2.Reset()
	require.NoError(t, b2.Run(ctx, []string{"home", "-filter", "sale"}))
	assert.Contains(t, out2.String(), "no listings found")

	out2.Reset()
	require.NoError(t, b2.Run(ctx, []string{"mine"}))
	id := strings.Fields(out2.String())[0]

	out2.Reset()
	require.NoError(t, b2.Run(ctx, []string{"contact", "-m", "Is it free?", id}))
	assert.Contains(t, out2.String(), "Contact ann for cozy downtown loft")
	assert.Contains(t, out2.String(), "mailto:ann@mail.test?subject=Regarding%20Cozy%20Downtown%20Loft&body=Is%20it%20free%3F")

	require.NoError(t, b2.Run(ctx, []string{"delete", id}))
	require.NoError(t, a.Run(ctx, []string{"signout"}))
	assert.False(t, a.Session().Authenticated())
	_, err = os.Stat(credsPath)
	assert.True(t, os.IsNotExist(err))

	b3, _ := newApp(t, srv.URL, "", credsPath)
	assert.False(t, b3.Session().Authenticated())
	require.ErrorIs(t, b3.Run(ctx, []string{"mine"}), domain.ErrUnauthorized)
}

func TestNewIgnoresTokenWithoutUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, saveCreds(path, creds{Token: "stale"}))
	a, _ := newApp(t, "http://127.0.0.1:0", "", path)
	assert.False(t, a.Session().Authenticated())
}

func TestCreateValidationNamesStep(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "creds.json")
	stubPassword(t, "secret1")

	a, _ := newApp(t, srv.URL, "bob\nbob@mail.test\nbob@mail.test\n", credsPath)
	require.NoError(t, a.Run(ctx, []string{"signup"}))
	require.NoError(t, a.Run(ctx, []string{"signin"}))

	d := domain.ListingDraft{
		Name: "Sunny Family House", Description: "Garden", Address: "2 Oak Ave",
		Type: domain.TypeSale, Bedrooms: 3, Bathrooms: 2,
		RegularPrice: 20000, DiscountPrice: 25000, Offer: true,
	}
	b, _ := json.Marshal(d)
	draftPath := filepath.Join(dir, "draft.json")
	require.NoError(t, os.WriteFile(draftPath, b, 0o600))
	photo := filepath.Join(dir, "p.png")
	require.NoError(t, os.WriteFile(photo, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	err := a.Run(ctx, []string{"create", "-draft", draftPath, photo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "features-price step")
	_, ok := domain.AsValidation(err)
	assert.True(t, ok)
}
