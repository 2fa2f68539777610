package application

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
)

const SubmittedRedirect = "/student"

var ErrDraftNotFound = errors.New("application draft not found")

type (
	// DraftStore holds drafts until they are submitted or discarded.
	// Implementations must store and return copies.
	DraftStore interface {
		SaveDraft(d Draft) error
		GetDraft(id string) (Draft, error) // ErrDraftNotFound
		DeleteDraft(id string) error
		OwnerDrafts(ownerID string) ([]Draft, error)
	}

	// Backend is the remote system of record for applications.
	Backend interface {
		// SubmitApplication sends the payload of a draft and returns the backend's success message.
		SubmitApplication(ctx context.Context, s Submission) (string, error)
		QueryApplications(ctx context.Context, filter QueryFilter) (Listing, error)
	}

	// Applicant is the portal user submitting a draft.
	Applicant struct {
		ID    string
		Name  string
		Email string
	}

	// Receipt is returned after a successful submission.
	Receipt struct {
		Message  string `json:"message"`
		Redirect string `json:"redirect"`
	}

	Service struct {
		wizard   *Wizard
		store    DraftStore
		backend  Backend
		mailSvc  core.EmailService
		logger   core.Logger
		newIDFun func() string
	}
)

func NewService(form *Form, store DraftStore, backend Backend, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		wizard:   NewWizard(form),
		store:    store,
		backend:  backend,
		mailSvc:  mailSvc,
		logger:   logger,
		newIDFun: func() string { return uuid.New().String() },
	}
}

func (svc *Service) Form() *Form { return svc.wizard.Form() }

// Start opens a new draft on the first step.
func (svc *Service) Start(ownerID string) (Draft, error) {
	d := NewDraft(svc.newIDFun(), ownerID)
	if err := svc.store.SaveDraft(*d); err != nil {
		return Draft{}, errors.Wrap(err, "saving draft")
	}
	return *d, nil
}

// Get returns the draft with the given id if it belongs to ownerID.
func (svc *Service) Get(ownerID, id string) (Draft, error) {
	d, err := svc.store.GetDraft(id)
	if err != nil {
		return Draft{}, err
	}
	if d.OwnerID != ownerID {
		return Draft{}, ErrDraftNotFound
	}
	return d, nil
}

func (svc *Service) List(ownerID string) ([]Draft, error) {
	return svc.store.OwnerDrafts(ownerID)
}

func (svc *Service) mutate(ownerID, id string, fn func(d *Draft) error) (Draft, error) {
	d, err := svc.Get(ownerID, id)
	if err != nil {
		return Draft{}, err
	}
	if err := fn(&d); err != nil {
		return Draft{}, err
	}
	if err := svc.store.SaveDraft(d); err != nil {
		return Draft{}, errors.Wrap(err, "saving draft")
	}
	return d, nil
}

// Update sets string fields of the draft. Nothing is saved when a field is invalid.
func (svc *Service) Update(ownerID, id string, fields map[string]string) (Draft, error) {
	return svc.Change(ownerID, id, fields)
}

// Attach stores uploaded documents in the draft. Nothing is saved when a file is rejected.
func (svc *Service) Attach(ownerID, id string, files ...File) (Draft, error) {
	return svc.Change(ownerID, id, nil, files...)
}

// Change sets fields and attaches files in a single save.
// Nothing is saved when a field or a file is rejected.
func (svc *Service) Change(ownerID, id string, fields map[string]string, files ...File) (Draft, error) {
	return svc.mutate(ownerID, id, func(d *Draft) error {
		if len(fields) > 0 {
			if err := svc.wizard.SetAll(d, fields); err != nil {
				return err
			}
		}
		for _, f := range files {
			if err := svc.wizard.Attach(d, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// Advance moves the draft to the next step.
// A *core.MissingFieldsError listing the empty required fields is returned when the step is incomplete.
func (svc *Service) Advance(ownerID, id string) (Draft, error) {
	return svc.mutate(ownerID, id, func(d *Draft) error {
		missing, err := svc.wizard.Advance(d)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return core.NewMissingFieldsError(missingStepText, missing)
		}
		return nil
	})
}

func (svc *Service) Retreat(ownerID, id string) (Draft, error) {
	return svc.mutate(ownerID, id, svc.wizard.Retreat)
}

func (svc *Service) Discard(ownerID, id string) error {
	if _, err := svc.Get(ownerID, id); err != nil {
		return err
	}
	return svc.store.DeleteDraft(id)
}

// Submit sends a confirmed draft to the backend in a single attempt.
// The draft is discarded on success only; on any error it is left as it was so the applicant can retry.
func (svc *Service) Submit(ctx context.Context, applicant Applicant, id string) (Receipt, error) {
	d, err := svc.Get(applicant.ID, id)
	if err != nil {
		return Receipt{}, err
	}
	if err = svc.wizard.CheckSubmit(&d); err != nil {
		return Receipt{}, err
	}

	msg, err := svc.backend.SubmitApplication(ctx, svc.wizard.Form().Submission(&d))
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("application.Service.Submit(%s): %v", id, err), err)
		return Receipt{}, err
	}

	if err = svc.store.DeleteDraft(id); err != nil {
		svc.logger.Error(fmt.Sprintf("application.Service.Submit: deleting draft %s: %v", id, err), err)
	}
	d.Submitted = true
	go svc.notify(applicant, d, msg)

	return Receipt{Message: msg, Redirect: SubmittedRedirect}, nil
}

// notify mails the submission confirmation to the applicant.
func (svc *Service) notify(applicant Applicant, d Draft, msg string) {
	if svc.mailSvc == nil || applicant.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: applicant.Name, Address: applicant.Email}},
		Subject:      "Bursary application received",
		TemplateName: "application_submitted",
		TemplateData: map[string]string{
			"Name":        d.Value("fullName"),
			"AdmissionNo": d.Value("admissionNo"),
			"Institution": d.Value("institution"),
			"Message":     msg,
		},
	})
}

// Query fetches the applications matching filter from the backend and returns the requested page.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) (Page, error) {
	filter.Clean()
	listing, err := svc.backend.QueryApplications(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	return NewPage(listing, filter), nil
}
