// ABOUTME: Store interfaces and data types for coven-contacts persistence
// ABOUTME: Defines User, Tag, Contact and the per-entity store contracts

package store

import (
	"context"
	"time"
)

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3490dc"

// Pagination bounds for ListContacts.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// User is an account that owns tags and contacts.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string // bcrypt hash, never serialized
	FullName       string
	CountryCode    string
	WhatsappNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Tag is a per-user label that can be attached to many contacts.
type Tag struct {
	ID        int64
	OwnerID   int64
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactTag is the tag summary attached to a contact.
type ContactTag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID             int64
	OwnerID        int64
	Name           string
	Email          *string
	Phone          *string
	CountryCode    *string
	WhatsappNumber *string
	Company        *string
	AvatarURL      *string
	Notes          *string
	Tags           []ContactTag // never nil; empty when the contact has no tags
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContactFields holds the columns supplied when creating a contact.
type ContactFields struct {
	Name           string
	Email          *string
	Phone          *string
	CountryCode    *string
	WhatsappNumber *string
	Company        *string
	AvatarURL      *string
	Notes          *string
}

// ContactPatch is a sparse contact update. Only fields with Set == true are written.
type ContactPatch struct {
	Name           Optional
	Email          Optional
	Phone          Optional
	CountryCode    Optional
	WhatsappNumber Optional
	Company        Optional
	AvatarURL      Optional
	Notes          Optional
}

// ListContactsParams selects a page of contacts.
// An empty Search and a zero TagID mean "no filter".
type ListContactsParams struct {
	OwnerID int64
	Page    int
	PerPage int
	Search  string
	TagID   int64
}

// ContactPage is one page of a filtered contact listing.
type ContactPage struct {
	Contacts   []*Contact
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName, countryCode, whatsappNumber string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByPhone(ctx context.Context, countryCode, whatsappNumber string) (*User, error)
}

// TagStore persists per-user tags.
type TagStore interface {
	CreateTag(ctx context.Context, ownerID int64, name string, color *string) (*Tag, error)
	ListTags(ctx context.Context, ownerID int64) ([]*Tag, error)
	UpdateTag(ctx context.Context, tagID, ownerID int64, name, color *string) (bool, error)
	DeleteTag(ctx context.Context, tagID, ownerID int64) (bool, error)
}

// ContactStore persists contacts and their tag associations.
type ContactStore interface {
	CreateContact(ctx context.Context, ownerID int64, fields ContactFields, tagIDs []int64) (*Contact, error)
	GetContact(ctx context.Context, contactID, ownerID int64) (*Contact, error)
	ListContacts(ctx context.Context, params ListContactsParams) (*ContactPage, error)
	UpdateContact(ctx context.Context, contactID, ownerID int64, patch ContactPatch, tagIDs *[]int64) (*Contact, error)
	DeleteContact(ctx context.Context, contactID, ownerID int64) (bool, error)
}

// Store is the full persistence surface used by the API server.
type Store interface {
	UserStore
	TagStore
	ContactStore

	// Close releases any resources held by the store
	Close() error
}
