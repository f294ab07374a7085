package enums

// NotificationType mirrors the events the school API notifies about.
type NotificationType string

const (
	NotificationStudentRegistered      NotificationType = "STUDENT_REGISTERED"
	NotificationExtraStudentRegistered NotificationType = "EXTRA_STUDENT_REGISTERED"
	NotificationPaymentCreated         NotificationType = "PAYMENT_CREATED"
	NotificationExtraPaymentCreated    NotificationType = "EXTRA_PAYMENT_CREATED"
	NotificationPaymentMarkedPaid      NotificationType = "PAYMENT_MARKED_PAID"
	NotificationExtraPaymentMarkedPaid NotificationType = "EXTRA_PAYMENT_MARKED_PAID"
	NotificationSystemAlert            NotificationType = "SYSTEM_ALERT"
	NotificationGeneral                NotificationType = "GENERAL"
)

var validNotificationTypes = []NotificationType{
	NotificationStudentRegistered,
	NotificationExtraStudentRegistered,
	NotificationPaymentCreated,
	NotificationExtraPaymentCreated,
	NotificationPaymentMarkedPaid,
	NotificationExtraPaymentMarkedPaid,
	NotificationSystemAlert,
	NotificationGeneral,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	return contains(validNotificationTypes, n)
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parse(validNotificationTypes, value, "notification type")
}

// NotificationStatus is the read state of a notification.
type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "UNREAD"
	NotificationRead     NotificationStatus = "READ"
	NotificationArchived NotificationStatus = "ARCHIVED"
)

var validNotificationStatuses = []NotificationStatus{NotificationUnread, NotificationRead, NotificationArchived}

func (n NotificationStatus) IsValid() bool {
	return contains(validNotificationStatuses, n)
}

func ParseNotificationStatus(value string) (NotificationStatus, error) {
	return parse(validNotificationStatuses, value, "notification status")
}
