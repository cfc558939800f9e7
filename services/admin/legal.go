package admin

import (
	"fmt"
	"time"

	"appointly/models"
	"appointly/services/policy"
)

const legalVersion = "v1.0"

// GetLegalSections returns all legal documents.
func (a *DefaultAdminService) GetLegalSections() []models.LegalSection {
	return []models.LegalSection{
		{
			ID:       "tos",
			Title:    "Terms of Service",
			Summary:  "These terms govern your use of Appointly.",
			Content:  termsOfService(),
			Audience: models.AudienceBoth,
			Version:  legalVersion,
		},
		{
			ID:       "cancellation",
			Title:    "Cancellation & Refund Policy",
			Summary:  "When a booking can be cancelled or moved and how much is refunded.",
			Content:  cancellationPolicy(),
			Audience: models.AudienceBoth,
			Version:  legalVersion,
		},
		{
			ID:       "provider-schedule",
			Title:    "Provider Scheduling Rules",
			Summary:  "How working hours and blocked dates affect bookings.",
			Content:  providerScheduling(),
			Audience: models.AudienceProvider,
			Version:  legalVersion,
		},
	}
}

// GetLegalSectionsFor returns legal documents relevant to the specified audience.
func (a *DefaultAdminService) GetLegalSectionsFor(audience string) []models.LegalSection {
	all := a.GetLegalSections()
	filtered := []models.LegalSection{}
	for _, section := range all {
		if section.Audience == models.AudienceBoth || section.Audience == audience {
			filtered = append(filtered, section)
		}
	}
	return filtered
}

func termsOfService() string {
	return `By booking through Appointly you agree to these terms.

1. Appointly connects customers with independent service providers.
2. A booking holds its slot from the moment it is requested. It is confirmed once payment succeeds.
3. Payments are processed by Stripe. Appointly never stores card details.
4. Providers are responsible for the services they deliver.`
}

func cancellationPolicy() string {
	return fmt.Sprintf(`1. Confirmed bookings can be cancelled up to %s before the start time.
2. Cancelling more than %s ahead refunds the full amount paid.
3. Cancelling between %s and %s ahead refunds half of the amount paid.
4. Confirmed bookings can be moved to another free slot up to %s before the start time.
5. Bookings that are not yet paid can be withdrawn by the provider at any time.`,
		hours(policy.CancelWindow), hours(policy.FullRefundWindow),
		hours(policy.CancelWindow), hours(policy.FullRefundWindow),
		hours(policy.RescheduleWindow))
}

func providerScheduling() string {
	return `1. Customers can only book inside your working hours.
2. Blocking a date hides it from customers. Bookings already made for that date stay in place.
3. Changing a service's price or duration does not change bookings already made.`
}

func hours(d time.Duration) string {
	return fmt.Sprintf("%g hours", d.Hours())
}
