package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentSubmitted   NotificationType = "payment_submitted"
	NotificationTypeMembershipApproved NotificationType = "membership_approved"
	NotificationTypeMembershipRejected NotificationType = "membership_rejected"
	NotificationTypeMembershipExpiring NotificationType = "membership_expiring"
	NotificationTypeMembershipExpired  NotificationType = "membership_expired"
	NotificationTypeTrainerAssigned    NotificationType = "trainer_assigned"
	NotificationTypeTrainerExpired     NotificationType = "trainer_expired"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentSubmitted,
	NotificationTypeMembershipApproved,
	NotificationTypeMembershipRejected,
	NotificationTypeMembershipExpiring,
	NotificationTypeMembershipExpired,
	NotificationTypeTrainerAssigned,
	NotificationTypeTrainerExpired,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
