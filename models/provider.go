package models

import "time"

// Service is one entry of a provider's catalogue.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Description     string  `bson:"description,omitempty" json:"description,omitempty"`
	DurationMinutes int     `bson:"durationMinutes" json:"durationMinutes"`
	Price           float64 `bson:"price" json:"price"`
	Active          bool    `bson:"active" json:"active"`
}

// Provider is a business that accepts bookings.
type Provider struct {
	ID           string               `bson:"id" json:"id"`
	OwnerID      string               `bson:"ownerId" json:"ownerId"` // user that registered the provider
	BusinessName string               `bson:"businessName" json:"businessName"`
	Category     string               `bson:"category" json:"category"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	Email        string               `bson:"email" json:"email"`
	Phone        string               `bson:"phone" json:"phone"`
	Address      string               `bson:"address,omitempty" json:"address,omitempty"`
	City         string               `bson:"city" json:"city"`
	Timezone     string               `bson:"timezone" json:"timezone"` // IANA name, e.g. "Africa/Nairobi"
	Services     []Service            `bson:"services" json:"services"`
	WorkingHours []WorkingDayTemplate `bson:"workingHours" json:"workingHours"`
	BlockedDates []BlockedDate        `bson:"blockedDates" json:"blockedDates"`
	Rating       float64              `bson:"rating" json:"rating"`
	Verified     bool                 `bson:"verified" json:"verified"`
	ProfileImage string               `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ActiveService returns the active catalogue entry with the given name.
func (p *Provider) ActiveService(name string) (Service, bool) {
	for _, s := range p.Services {
		if s.Active && s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// ProviderRegistration is the payload for turning a user into a provider.
type ProviderRegistration struct {
	BusinessName string `json:"businessName" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Description  string `json:"description"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Address      string `json:"address"`
	City         string `json:"city" binding:"required"`
	Timezone     string `json:"timezone"`
}

// ProviderUpdate carries the editable profile fields. Nil means unchanged.
type ProviderUpdate struct {
	BusinessName *string `json:"businessName"`
	Category     *string `json:"category"`
	Description  *string `json:"description"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Timezone     *string `json:"timezone"`
}

// ProviderSearch holds search filters for the public provider listing.
type ProviderSearch struct {
	Query     string  `form:"q"`
	Category  string  `form:"category"`
	City      string  `form:"city"`
	Service   string  `form:"service"`
	MinRating float64 `form:"minRating"`
	Verified  *bool   `form:"verified"`
	Limit     int64   `form:"limit"`
	Skip      int64   `form:"skip"`
}
