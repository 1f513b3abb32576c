package auth

import "context"

type contextKey string

const (
	contextKeyCompany contextKey = "auth.company_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, companyID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyCompany, companyID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// CompanyIDFromContext extracts the caller's company id from context.
func CompanyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if companyID, ok := ctx.Value(contextKeyCompany).(string); ok {
		return companyID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}
