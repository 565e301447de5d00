package domain

// Connection roles resolved at connection establishment.
const (
	RoleGuest    = "guest"
	RoleOperator = "operator"
)

// Identity is the result of credential resolution for one connection.
// It is resolved exactly once at connection time and never re-evaluated
// per event.
type Identity struct {
	Role       string
	UserID     string
	MerchantID string // set only for operators
}

// Guest returns the anonymous customer identity.
func Guest() Identity {
	return Identity{Role: RoleGuest}
}

// Operator returns an operator identity for the given user and merchant.
func Operator(userID, merchantID string) Identity {
	return Identity{Role: RoleOperator, UserID: userID, MerchantID: merchantID}
}

// IsOperator reports whether the identity is a merchant operator.
func (i Identity) IsOperator() bool {
	return i.Role == RoleOperator
}
