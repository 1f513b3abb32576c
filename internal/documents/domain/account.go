package documents

// ContactRole tags the contractual role of an account contact.
type ContactRole string

const (
	RolePrimary   ContactRole = "primary"
	RoleFinancial ContactRole = "financial"
	RoleTechnical ContactRole = "technical"
)

// positionalRoles is the legacy ordering of contacts without an explicit role.
var positionalRoles = []ContactRole{RolePrimary, RoleFinancial, RoleTechnical}

// RequiredContactRoles lists the roles every rendered document needs.
func RequiredContactRoles() []ContactRole {
	return []ContactRole{RolePrimary, RoleFinancial, RoleTechnical}
}

// NormalizeContactRole validates a role string.
func NormalizeContactRole(value string) (ContactRole, bool) {
	switch ContactRole(value) {
	case RolePrimary, RoleFinancial, RoleTechnical:
		return ContactRole(value), true
	default:
		return "", false
	}
}

// Contact is a person attached to an account.
type Contact struct {
	Name  string
	Phone string
	Email string
	Role  ContactRole
}

// Address is a postal address attached to an account.
type Address struct {
	City       string
	Street     string
	State      string
	PostalCode string
	Primary    bool
}

// Account is the customer a business record is issued to.
type Account struct {
	ID          string
	CompanyName string
	Document    string
	Website     string
	Contacts    []Contact
	Addresses   []Address
}

// AssignPositionalRoles fills empty roles from list position (0 primary,
// 1 financial, 2 technical) when the role is not already taken.
func (a *Account) AssignPositionalRoles() {
	taken := make(map[ContactRole]bool, len(a.Contacts))
	for _, c := range a.Contacts {
		if c.Role != "" {
			taken[c.Role] = true
		}
	}
	for i := range a.Contacts {
		if a.Contacts[i].Role != "" || i >= len(positionalRoles) {
			continue
		}
		role := positionalRoles[i]
		if taken[role] {
			continue
		}
		a.Contacts[i].Role = role
		taken[role] = true
	}
}

// ContactByRole returns the first contact tagged with role.
func (a *Account) ContactByRole(role ContactRole) (Contact, bool) {
	for _, c := range a.Contacts {
		if c.Role == role {
			return c, true
		}
	}
	return Contact{}, false
}

// PrimaryAddress returns the address flagged primary, or the first one.
func (a *Account) PrimaryAddress() (Address, bool) {
	for _, addr := range a.Addresses {
		if addr.Primary {
			return addr, true
		}
	}
	if len(a.Addresses) == 0 {
		return Address{}, false
	}
	return a.Addresses[0], true
}
