package listingform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-market/internal/domain"
	"estate-market/internal/imagehost"
)

type stubUploader struct {
	mu    sync.Mutex
	calls int
	fail  string
}

func (u *stubUploader) Upload(_ context.Context, f imagehost.File, progress imagehost.ProgressFunc) (imagehost.Result, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	if f.Name == u.fail {
		return imagehost.Result{}, &imagehost.UploadError{Backend: "stub", Name: f.Name, Status: 500}
	}
	if progress != nil {
		progress(imagehost.Progress{Name: f.Name, Sent: int64(len(f.Data)), Total: int64(len(f.Data))})
	}
	return imagehost.Result{URL: "https://img.test/" + f.Name, Bytes: int64(len(f.Data))}, nil
}

func files(names ...string) []imagehost.File {
	out := make([]imagehost.File, len(names))
	for i, n := range names {
		out[i] = imagehost.File{Name: n, ContentType: "image/jpeg", Data: []byte("jpeg-" + n)}
	}
	return out
}

type recordingCreator struct {
	got  []domain.ListingDraft
	err  error
	wait chan struct{}
	went chan struct{}
}

func (c *recordingCreator) CreateListing(_ context.Context, d domain.ListingDraft) (*domain.Listing, error) {
	if c.went != nil {
		close(c.went)
	}
	if c.wait != nil {
		<-c.wait
	}
	c.got = append(c.got, d)
	if c.err != nil {
		return nil, c.err
	}
	l := d.Listing()
	l.ID = "l1"
	return &l, nil
}

// fillLoft walks the wizard to Images with the loft scenario filled in.
func fillLoft(t *testing.T, discount int64) *Form {
	t.Helper()
	f := New("u1")
	require.NoError(t, f.SetName("Cozy Downtown Loft"))
	require.NoError(t, f.SetDescription("Bright loft close to everything"))
	require.NoError(t, f.SetAddress("1 Main St"))
	require.NoError(t, f.SetType(domain.TypeRent))
	require.NoError(t, f.Next())
	require.NoError(t, f.SetBedrooms(2))
	require.NoError(t, f.SetBathrooms(1))
	require.NoError(t, f.SetRegularPrice(15000))
	require.NoError(t, f.SetOffer(true))
	require.NoError(t, f.SetDiscountPrice(discount))
	require.NoError(t, f.Next())
	require.Equal(t, Images, f.Step())
	return f
}

func TestNavigation(t *testing.T) {
	f := New("u1")
	assert.Equal(t, BasicInfo, f.Step())
	assert.ErrorIs(t, f.Back(), ErrFirstStep)

	require.NoError(t, f.SetName("Cozy Downtown Loft"))
	require.NoError(t, f.Next())
	assert.Equal(t, FeaturesPrice, f.Step())
	assert.ErrorIs(t, f.SetName("other"), ErrWrongStep)
	require.NoError(t, f.Next())
	assert.ErrorIs(t, f.Next(), ErrLastStep)
	require.NoError(t, f.Back())
	require.NoError(t, f.Back())

	assert.Equal(t, "Cozy Downtown Loft", f.Draft().Name, "draft survives transitions")
	assert.Equal(t, "u1", f.Draft().UserRef)
}

func TestUploadImages(t *testing.T) {
	f := fillLoft(t, 12000)
	up := &stubUploader{}

	_, err := f.UploadImages(context.Background(), up, nil)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "imageUrls", ve.Field)
	assert.Zero(t, up.calls)

	require.NoError(t, f.SelectFiles(files("a.jpg", "b.jpg", "c.jpg")...))
	assert.Empty(t, f.Draft().ImageURLs, "selecting does not upload")

	var mu sync.Mutex
	seen := map[int]bool{}
	urls, err := f.UploadImages(context.Background(), up, func(p imagehost.Progress) {
		mu.Lock()
		seen[p.Index] = true
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/a.jpg", "https://img.test/b.jpg", "https://img.test/c.jpg"}, urls)
	assert.Equal(t, urls, f.Draft().ImageURLs)
	assert.Len(t, seen, 3)
	assert.Zero(t, f.Selected())

	require.NoError(t, f.RemoveImage(1))
	assert.Equal(t, []string{"https://img.test/a.jpg", "https://img.test/c.jpg"}, f.Draft().ImageURLs)
	assert.Error(t, f.RemoveImage(5))
}

// gatedUploader holds every upload until release is closed.
type gatedUploader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (u *gatedUploader) Upload(_ context.Context, f imagehost.File, _ imagehost.ProgressFunc) (imagehost.Result, error) {
	u.once.Do(func() { close(u.started) })
	<-u.release
	return imagehost.Result{URL: "https://img.test/" + f.Name}, nil
}

func TestUploadImages_KeepsSelectionMadeDuringUpload(t *testing.T) {
	f := fillLoft(t, 12000)
	up := &gatedUploader{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, f.SelectFiles(files("a.jpg")...))

	done := make(chan error, 1)
	go func() {
		_, err := f.UploadImages(context.Background(), up, nil)
		done <- err
	}()
	<-up.started
	require.NoError(t, f.SelectFiles(files("b.jpg", "c.jpg")...))
	close(up.release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"https://img.test/a.jpg"}, f.Draft().ImageURLs)
	assert.Equal(t, 2, f.Selected(), "the newer selection is still pending")

	urls, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/b.jpg", "https://img.test/c.jpg"}, urls)
	assert.Zero(t, f.Selected())
}

func TestUploadImages_RejectsOverLimit(t *testing.T) {
	f := fillLoft(t, 12000)
	up := &stubUploader{}
	require.NoError(t, f.SelectFiles(files("1", "2", "3", "4")...))
	_, err := f.UploadImages(context.Background(), up, nil)
	require.NoError(t, err)

	require.NoError(t, f.SelectFiles(files("5", "6", "7")...))
	_, err = f.UploadImages(context.Background(), up, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 4, up.calls, "oversized batch never reaches the host")
	assert.Len(t, f.Draft().ImageURLs, 4)
}

func TestUploadImages_AllOrNothing(t *testing.T) {
	f := fillLoft(t, 12000)
	up := &stubUploader{fail: "b.jpg"}
	require.NoError(t, f.SelectFiles(files("a.jpg", "b.jpg")...))

	_, err := f.UploadImages(context.Background(), up, nil)
	var ue *imagehost.UploadError
	require.ErrorAs(t, err, &ue)
	assert.Empty(t, f.Draft().ImageURLs)
	assert.Equal(t, err, f.Err())
	assert.Equal(t, 2, f.Selected(), "selection kept for retry")
}

func TestSubmit_Loft(t *testing.T) {
	f := fillLoft(t, 12000)
	require.NoError(t, f.SelectFiles(files("a.jpg")...))
	_, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
	require.NoError(t, err)

	c := &recordingCreator{}
	l, err := f.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), l.DiscountPrice)
	assert.Equal(t, "u1", c.got[0].UserRef)
	assert.Same(t, l, f.Created())
	assert.ErrorIs(t, f.Back(), ErrDone)
}

func TestSubmit_DiscountNotBelowRegular(t *testing.T) {
	f := fillLoft(t, 16000)
	require.NoError(t, f.SelectFiles(files("a.jpg")...))
	_, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
	require.NoError(t, err)

	c := &recordingCreator{}
	_, err = f.Submit(context.Background(), c)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "discountPrice", ve.Field)
	assert.Equal(t, FeaturesPrice, f.Step())
	assert.Empty(t, c.got)
}

func TestSubmit_NoImages(t *testing.T) {
	f := fillLoft(t, 12000)
	c := &recordingCreator{}
	_, err := f.Submit(context.Background(), c)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, Images, f.Step())
	assert.Empty(t, c.got)
}

func TestSubmit_ImagesCheckedBeforeDiscount(t *testing.T) {
	f := fillLoft(t, 16000)
	_, err := f.Submit(context.Background(), &recordingCreator{})
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "imageUrls", ve.Field)
	assert.Equal(t, Images, f.Step())
}

func TestSubmit_OnlyFromImages(t *testing.T) {
	f := New("u1")
	_, err := f.Submit(context.Background(), &recordingCreator{})
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSubmit_ServerValidationRoutesToStep(t *testing.T) {
	cases := []struct {
		field string
		want  Step
	}{
		{"name", BasicInfo},
		{"address", BasicInfo},
		{"bedrooms", FeaturesPrice},
		{"regularPrice", FeaturesPrice},
		{"imageUrls", Images},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.field, func(t *testing.T) {
			f := fillLoft(t, 12000)
			require.NoError(t, f.SelectFiles(files("a.jpg")...))
			_, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
			require.NoError(t, err)

			_, err = f.Submit(context.Background(), &recordingCreator{err: domain.Invalid(tc.field, "bad")})
			require.Error(t, err)
			assert.Equal(t, tc.want, f.Step())
		})
	}
}

func TestSubmit_UpstreamFailureStays(t *testing.T) {
	f := fillLoft(t, 12000)
	require.NoError(t, f.SelectFiles(files("a.jpg")...))
	_, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
	require.NoError(t, err)

	boom := errors.New("connection refused")
	_, err = f.Submit(context.Background(), CreatorFunc(func(context.Context, domain.ListingDraft) (*domain.Listing, error) {
		return nil, fmt.Errorf("create: %w", boom)
	}))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Images, f.Step())
	assert.Nil(t, f.Created())
}

func TestSubmit_RejectsReentry(t *testing.T) {
	f := fillLoft(t, 12000)
	require.NoError(t, f.SelectFiles(files("a.jpg")...))
	_, err := f.UploadImages(context.Background(), &stubUploader{}, nil)
	require.NoError(t, err)

	c := &recordingCreator{wait: make(chan struct{}), went: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), c)
		done <- err
	}()
	<-c.went

	_, err = f.Submit(context.Background(), c)
	assert.ErrorIs(t, err, ErrSubmitting)
	assert.ErrorIs(t, f.Back(), ErrSubmitting)

	close(c.wait)
	require.NoError(t, <-done)
	assert.Len(t, c.got, 1)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "features-price", FeaturesPrice.String())
	assert.Equal(t, "step(7)", Step(7).String())
}
