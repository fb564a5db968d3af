// Package listingform drives the three-step listing creation wizard. A Form
// accumulates a draft across steps, uploads photos through an image host and
// submits the result to whatever creates listings.
package listingform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"estate-market/internal/domain"
	"estate-market/internal/imagehost"
)

type Step int

const (
	BasicInfo Step = iota
	FeaturesPrice
	Images
)

func (s Step) String() string {
	switch s {
	case BasicInfo:
		return "basic-info"
	case FeaturesPrice:
		return "features-price"
	case Images:
		return "images"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrWrongStep  = errors.New("listingform: not available in this step")
	ErrFirstStep  = errors.New("listingform: already at the first step")
	ErrLastStep   = errors.New("listingform: already at the last step")
	ErrSubmitting = errors.New("listingform: submission already in progress")
	ErrUploading  = errors.New("listingform: upload already in progress")
	ErrDone       = errors.New("listingform: listing already created")
)

// Creator persists a finished draft.
type Creator interface {
	CreateListing(ctx context.Context, d domain.ListingDraft) (*domain.Listing, error)
}

type CreatorFunc func(ctx context.Context, d domain.ListingDraft) (*domain.Listing, error)

func (f CreatorFunc) CreateListing(ctx context.Context, d domain.ListingDraft) (*domain.Listing, error) {
	return f(ctx, d)
}

// StepFor names the step whose inputs own a draft field (by JSON name).
func StepFor(field string) Step {
	switch field {
	case "bedrooms", "bathrooms", "regularPrice", "discountPrice", "offer", "parking", "furnished":
		return FeaturesPrice
	case "imageUrls":
		return Images
	}
	return BasicInfo
}

// Form is safe for concurrent use; uploads and submission release the lock
// while they wait on the network.
type Form struct {
	mu         sync.Mutex
	step       Step
	draft      domain.ListingDraft
	selected   []imagehost.File
	selGen     int // bumped by every SelectFiles
	uploading  bool
	submitting bool
	created    *domain.Listing
	err        error
}

// New starts a wizard at BasicInfo with the default draft owned by ownerID.
func New(ownerID string) *Form {
	d := domain.NewDraft()
	d.UserRef = ownerID
	return &Form{step: BasicInfo, draft: d}
}

func (f *Form) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Draft returns a copy of the accumulated draft.
func (f *Form) Draft() domain.ListingDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	d.ImageURLs = append([]string{}, f.draft.ImageURLs...)
	return d
}

// Err is the last error to show inline, nil after a clean action.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Form) Selected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.selected)
}

// Created is the listing returned by a successful Submit.
func (f *Form) Created() *domain.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func (f *Form) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.movable(); err != nil {
		return err
	}
	if f.step == Images {
		return ErrLastStep
	}
	f.step++
	return nil
}

func (f *Form) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.movable(); err != nil {
		return err
	}
	if f.step == BasicInfo {
		return ErrFirstStep
	}
	f.step--
	return nil
}

func (f *Form) movable() error {
	switch {
	case f.created != nil:
		return ErrDone
	case f.submitting:
		return ErrSubmitting
	}
	return nil
}

// edit applies fn to the draft if the wizard is currently at step.
func (f *Form) edit(step Step, fn func(d *domain.ListingDraft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.movable(); err != nil {
		return err
	}
	if f.step != step {
		return fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	fn(&f.draft)
	return nil
}

func (f *Form) SetName(v string) error {
	return f.edit(BasicInfo, func(d *domain.ListingDraft) { d.Name = v })
}

func (f *Form) SetDescription(v string) error {
	return f.edit(BasicInfo, func(d *domain.ListingDraft) { d.Description = v })
}

func (f *Form) SetAddress(v string) error {
	return f.edit(BasicInfo, func(d *domain.ListingDraft) { d.Address = v })
}

func (f *Form) SetType(v domain.ListingType) error {
	return f.edit(BasicInfo, func(d *domain.ListingDraft) { d.Type = v })
}

func (f *Form) SetBedrooms(n int) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.Bedrooms = n })
}

func (f *Form) SetBathrooms(n int) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.Bathrooms = n })
}

func (f *Form) SetRegularPrice(p int64) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.RegularPrice = p })
}

func (f *Form) SetDiscountPrice(p int64) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.DiscountPrice = p })
}

func (f *Form) SetOffer(v bool) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.Offer = v })
}

func (f *Form) SetParking(v bool) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.Parking = v })
}

func (f *Form) SetFurnished(v bool) error {
	return f.edit(FeaturesPrice, func(d *domain.ListingDraft) { d.Furnished = v })
}

// SelectFiles replaces the pending selection. Nothing is uploaded yet.
func (f *Form) SelectFiles(files ...imagehost.File) error {
	return f.edit(Images, func(*domain.ListingDraft) {
		f.selected = append([]imagehost.File(nil), files...)
		f.selGen++
	})
}

// RemoveImage drops the uploaded image at index i.
func (f *Form) RemoveImage(i int) error {
	var err error
	e := f.edit(Images, func(d *domain.ListingDraft) {
		if i < 0 || i >= len(d.ImageURLs) {
			err = fmt.Errorf("listingform: no image at index %d", i)
			return
		}
		d.ImageURLs = append(d.ImageURLs[:i:i], d.ImageURLs[i+1:]...)
	})
	if e != nil {
		return e
	}
	return err
}

// UploadImages uploads every selected file in parallel and, only if all of
// them succeed, appends their URLs to the draft in selection order. A batch
// that would push the draft past the image limit is rejected up front.
func (f *Form) UploadImages(ctx context.Context, up imagehost.Uploader, progress imagehost.ProgressFunc) ([]string, error) {
	f.mu.Lock()
	if err := f.movable(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.step != Images {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if f.uploading {
		f.mu.Unlock()
		return nil, ErrUploading
	}
	if err := checkBatch(len(f.selected), len(f.draft.ImageURLs)); err != nil {
		f.err = err
		f.mu.Unlock()
		return nil, err
	}
	files, gen := f.selected, f.selGen
	f.uploading = true
	f.mu.Unlock()

	results, err := imagehost.UploadAll(ctx, up, files, progress)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploading = false
	if err != nil {
		f.err = err
		return nil, err
	}
	// images may have been removed meanwhile but never added
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	f.draft.ImageURLs = append(f.draft.ImageURLs, urls...)
	if f.selGen == gen {
		f.selected = nil
	}
	f.err = nil
	return urls, nil
}

func checkBatch(selected, have int) error {
	if selected == 0 {
		return domain.Invalid("imageUrls", "select an image to upload")
	}
	if selected+have > domain.MaxImages {
		return domain.Invalid("imageUrls", fmt.Sprintf("you can upload only %d images per listing", domain.MaxImages))
	}
	return nil
}

// Submit runs the local guards and hands the draft to c. A validation
// failure, local or from c, moves the wizard to the step owning the field.
func (f *Form) Submit(ctx context.Context, c Creator) (*domain.Listing, error) {
	f.mu.Lock()
	if err := f.movable(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.step != Images {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if err := guard(&f.draft); err != nil {
		f.fail(err)
		f.mu.Unlock()
		return nil, err
	}
	d := f.draft
	d.ImageURLs = append([]string{}, f.draft.ImageURLs...)
	f.submitting = true
	f.mu.Unlock()

	l, err := c.CreateListing(ctx, d)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.fail(err)
		return nil, err
	}
	f.created = l
	f.err = nil
	return l, nil
}

func guard(d *domain.ListingDraft) error {
	if len(d.ImageURLs) < 1 {
		return domain.Invalid("imageUrls", "you must upload at least one image")
	}
	if d.Offer && d.DiscountPrice >= d.RegularPrice {
		return domain.Invalid("discountPrice", "discount price must be lower than regular price")
	}
	return nil
}

// fail records err and, for validation errors, jumps to the owning step.
func (f *Form) fail(err error) {
	f.err = err
	if ve, ok := domain.AsValidation(err); ok {
		f.step = StepFor(ve.Field)
	}
}
