package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billed-backend/models"
	"billed-backend/session"
	"billed-backend/store"
	"billed-backend/validators"

	"go.uber.org/zap"
)

// Views the workflow navigates to
const (
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)

// InvalidFormatMessage is logged when an attachment is rejected
const InvalidFormatMessage = "invalid file format, accepted formats: " + validators.AcceptedFormats

const defaultSubmitTimeout = 30 * time.Second

var (
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrNoFileSelected    = errors.New("no file selected")
	ErrNoSession         = errors.New("no current user in session")
	ErrStoreNotSet       = errors.New("bill store not set")
)

// Navigator transitions the visible view to path
type Navigator func(path string)

// SubmitErrorKind tells which step of a submission failed
type SubmitErrorKind string

const (
	SubmitErrorSession     SubmitErrorKind = "session"
	SubmitErrorUpload      SubmitErrorKind = "upload"
	SubmitErrorPersistence SubmitErrorKind = "persistence"
)

// SubmitError reports a failed submission step
type SubmitError struct {
	Kind SubmitErrorKind
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// FileInput is the form's attachment control
type FileInput struct {
	Files        []*models.Attachment
	ErrorVisible bool
}

// FormSnapshot holds the raw values of the new-bill form fields
type FormSnapshot struct {
	Type       string
	Name       string
	Amount     string
	Date       string
	VAT        string
	Pct        string
	Commentary string
}

// NewBillWorkflow drives the new-bill form: attachment validation,
// then upload, record upsert and navigation back to the bills list
type NewBillWorkflow struct {
	store    store.BillStore
	sessions session.Provider
	navigate Navigator
	log      *zap.Logger
	timeout  time.Duration

	fileName *string
	file     *models.Attachment
	billID   *string
	fileURL  *string
}

// NewBillOption is a functional option for NewBillWorkflow
type NewBillOption func(*NewBillWorkflow)

// WithBillStore sets the remote bill store
func WithBillStore(s store.BillStore) NewBillOption {
	return func(w *NewBillWorkflow) {
		w.store = s
	}
}

// WithSessionProvider sets where the current user is read from
func WithSessionProvider(p session.Provider) NewBillOption {
	return func(w *NewBillWorkflow) {
		w.sessions = p
	}
}

// WithNavigator sets the navigation callback
func WithNavigator(n Navigator) NewBillOption {
	return func(w *NewBillWorkflow) {
		w.navigate = n
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(log *zap.Logger) NewBillOption {
	return func(w *NewBillWorkflow) {
		w.log = log
	}
}

// WithTimeout bounds each remote store call
func WithTimeout(d time.Duration) NewBillOption {
	return func(w *NewBillWorkflow) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewNewBillWorkflow creates a workflow for one new-bill form
func NewNewBillWorkflow(opts ...NewBillOption) *NewBillWorkflow {
	w := &NewBillWorkflow{
		log:      zap.NewNop(),
		navigate: func(string) {},
		timeout:  defaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FileName returns the accepted attachment name, nil when none is held
func (w *NewBillWorkflow) FileName() *string { return w.fileName }

// BillID returns the key obtained from the last successful create
func (w *NewBillWorkflow) BillID() *string { return w.billID }

// FileURL returns the attachment URL obtained from the last successful create
func (w *NewBillWorkflow) FileURL() *string { return w.fileURL }

// HandleChangeFile validates the newly selected attachment.
// A rejected file clears the input, shows the error indicator and
// forgets any previously accepted file.
func (w *NewBillWorkflow) HandleChangeFile(in *FileInput) error {
	if in == nil || len(in.Files) == 0 || in.Files[0] == nil {
		return ErrNoFileSelected
	}

	file := in.Files[0]
	in.ErrorVisible = false

	if !validators.ValidateExtension(file.Name) {
		w.log.Info(InvalidFormatMessage, zap.String("file", file.Name))
		in.Files = nil
		in.ErrorVisible = true
		w.fileName = nil
		w.file = nil
		return fmt.Errorf("%w: %s", ErrInvalidFileFormat, file.Name)
	}

	name := file.Name
	w.fileName = &name
	w.file = file
	return nil
}

// Submit uploads the attachment, upserts the assembled bill and navigates
// to the bills list exactly once. Store failures are logged and returned
// as *SubmitError; they never abort navigation.
func (w *NewBillWorkflow) Submit(ctx context.Context, form FormSnapshot) (*models.Bill, error) {
	var user *models.Session
	if w.sessions != nil {
		user, _ = w.sessions.CurrentUser(ctx)
	}
	if user == nil {
		return nil, &SubmitError{Kind: SubmitErrorSession, Err: ErrNoSession}
	}

	if err := w.createBill(ctx, user.Email); err != nil {
		w.log.Error("Failed to create bill", zap.String("email", user.Email), zap.Error(err))
		w.navigate(RouteBills)
		return nil, &SubmitError{Kind: SubmitErrorUpload, Err: err}
	}

	bill := BuildBill(user.Email, form, w.fileURL, w.fileName)

	saved, err := w.updateBill(ctx, bill)
	w.navigate(RouteBills)
	if err != nil {
		w.log.Error("Failed to update bill", zap.String("email", user.Email), zap.Error(err))
		return nil, &SubmitError{Kind: SubmitErrorPersistence, Err: err}
	}
	return saved, nil
}

func (w *NewBillWorkflow) createBill(ctx context.Context, email string) error {
	if w.store == nil {
		return ErrStoreNotSet
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.store.Create(ctx, store.CreateRequest{Email: email, File: w.file})
	if err != nil {
		return err
	}

	w.billID = nil
	w.fileURL = nil
	if res.Key != "" {
		key := res.Key
		w.billID = &key
	}
	if res.FileURL != "" {
		url := res.FileURL
		w.fileURL = &url
	}
	return nil
}

func (w *NewBillWorkflow) updateBill(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req := store.UpdateRequest{Bill: bill}
	if w.billID != nil {
		req.Selector = *w.billID
	}
	return w.store.Update(ctx, req)
}
