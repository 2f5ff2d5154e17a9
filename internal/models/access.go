package models

// AccessType вид доступа, выданного подписчику.
type AccessType string

// Виды доступа.
const (
	AccessTrial AccessType = "trial"
	AccessPaid  AccessType = "paid"
)

// DenyReason причина отказа в доступе.
type DenyReason string

// Причины отказа.
const (
	ReasonNotRegistered DenyReason = "not_registered"
	ReasonTrialExpired  DenyReason = "trial_expired"
	ReasonPlanExpired   DenyReason = "plan_expired"
	ReasonNoActivePlan  DenyReason = "no_active_plan"
	ReasonInternalError DenyReason = "internal_error"
)

// AccessDecision решение о доступе подписчика к сервису.
// При Access == true заполнены Type и DaysRemaining, иначе Reason.
type AccessDecision struct {
	Access        bool       `json:"access"`
	Type          AccessType `json:"type,omitempty"`
	Reason        DenyReason `json:"reason,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
	User          *User      `json:"user,omitempty"`
}

// Granted формирует решение о выдаче доступа.
func Granted(t AccessType, daysRemaining int, u *User) AccessDecision {
	return AccessDecision{Access: true, Type: t, DaysRemaining: daysRemaining, User: u}
}

// Denied формирует решение об отказе.
func Denied(reason DenyReason, u *User) AccessDecision {
	return AccessDecision{Access: false, Reason: reason, User: u}
}
