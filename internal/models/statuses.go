package models

type UserRole string
type SubscriptionPlan string
type WaitlistStatus string
type ImageType string
type PaymentStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	SubscriptionFree    SubscriptionPlan = "free"
	SubscriptionMonthly SubscriptionPlan = "monthly"
	SubscriptionYearly  SubscriptionPlan = "yearly"

	WaitlistStatusPending    WaitlistStatus = "pending"
	WaitlistStatusApproved   WaitlistStatus = "approved"
	WaitlistStatusRegistered WaitlistStatus = "registered"

	ImageTypeGenerated ImageType = "generated"
	ImageTypeUploaded  ImageType = "uploaded"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case SubscriptionFree, SubscriptionMonthly, SubscriptionYearly:
		return true
	}
	return false
}

func (t ImageType) Valid() bool {
	return t == ImageTypeGenerated || t == ImageTypeUploaded
}
