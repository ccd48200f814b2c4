package model

import (
	"strings"
	"time"
)

// GalleryImage is a picture shown on the gallery page when IsVisible.
type GalleryImage struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	Category  string    `json:"category"`
	SortOrder int       `json:"sort_order"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TestimonialStatus string

const (
	TestimonialPending  TestimonialStatus = "pending"
	TestimonialApproved TestimonialStatus = "approved"
	TestimonialRejected TestimonialStatus = "rejected"
)

func ParseTestimonialStatus(s string) (TestimonialStatus, error) {
	switch st := TestimonialStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TestimonialPending, TestimonialApproved, TestimonialRejected:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Testimonial is a customer review. Public submissions start pending and
// only approved ones are listed on the site.
type Testimonial struct {
	ID           uint64            `json:"id"`
	CustomerName string            `json:"customer_name"`
	Location     string            `json:"location"`
	Rating       int               `json:"rating"`
	Message      string            `json:"message"`
	TourID       *uint64           `json:"tour_id,omitempty"`
	Status       TestimonialStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

func ParseContactStatus(s string) (ContactStatus, error) {
	switch st := ContactStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ContactNew, ContactRead, ContactReplied, ContactArchived:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Contact is a message left through the contact form.
type Contact struct {
	ID        uint64        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type SubscriberStatus string

const (
	Subscribed   SubscriberStatus = "subscribed"
	Unsubscribed SubscriberStatus = "unsubscribed"
)

func ParseSubscriberStatus(s string) (SubscriberStatus, error) {
	switch st := SubscriberStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case Subscribed, Unsubscribed:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// NewsletterSubscriber is keyed by email. UnsubscribeToken goes into the
// footer link of every newsletter.
type NewsletterSubscriber struct {
	ID               uint64           `json:"id"`
	Email            string           `json:"email"`
	Status           SubscriberStatus `json:"status"`
	UnsubscribeToken string           `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
