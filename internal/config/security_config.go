// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// TransactionService - Access Protected
	"/bookshare.v1.TransactionService/CreateRequest":      SecurityAccess,
	"/bookshare.v1.TransactionService/Approve":            SecurityAccess,
	"/bookshare.v1.TransactionService/Reject":             SecurityAccess,
	"/bookshare.v1.TransactionService/Cancel":             SecurityAccess,
	"/bookshare.v1.TransactionService/ConfirmHandover":    SecurityAccess,
	"/bookshare.v1.TransactionService/ConfirmReturn":      SecurityAccess,
	"/bookshare.v1.TransactionService/RegenerateOTP":      SecurityAccess,
	"/bookshare.v1.TransactionService/MarkPayment":        SecurityAccess,
	"/bookshare.v1.TransactionService/Rate":               SecurityAccess,
	"/bookshare.v1.TransactionService/GetTransaction":     SecurityAccess,
	"/bookshare.v1.TransactionService/ListMyTransactions": SecurityAccess,

	// NotificationService - Access Protected
	"/bookshare.v1.NotificationService/ListNotifications":    SecurityAccess,
	"/bookshare.v1.NotificationService/MarkNotificationRead": SecurityAccess,
}

// OTPConfirmMethods are the calls that check a handover code and share the attempt limiter
var OTPConfirmMethods = map[string]bool{
	"/bookshare.v1.TransactionService/ConfirmHandover": true,
	"/bookshare.v1.TransactionService/ConfirmReturn":   true,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
