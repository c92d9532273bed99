package entity

import (
	"context"
	"time"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
)

// Document is the base type for business transactions.
// Example: CountSession.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Posted indicates if document movements are recorded in registers
	Posted bool `db:"posted" json:"posted"`

	// PostedVersion tracks posting iterations for movement reconciliation
	// Incremented each time document movements are (re)generated
	PostedVersion int `db:"posted_version" json:"postedVersion"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// MarkPosted sets the posted flag and increments the posting version.
// The optimistic Version is owned by the repository and is not touched here.
func (d *Document) MarkPosted() {
	d.Posted = true
	d.PostedVersion++
	d.SetUpdatedAt(time.Now().UTC())
}

// MarkUnposted clears the posted flag.
func (d *Document) MarkUnposted() {
	d.Posted = false
	d.SetUpdatedAt(time.Now().UTC())
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// GetPostedVersion returns the current posting version.
func (d *Document) GetPostedVersion() int {
	return d.PostedVersion
}

// IsPosted returns true if document is currently posted.
func (d *Document) IsPosted() bool {
	return d.Posted
}
