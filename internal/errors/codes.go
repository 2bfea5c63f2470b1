package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// authentication
const (
	CodeAuthMissingToken    Code = "AUTH_001"
	CodeAuthInvalidToken    Code = "AUTH_002"
	CodeAuthExpiredToken    Code = "AUTH_003"
	CodeAuthRequired        Code = "AUTH_004"
	CodeAuthInvalidLogin    Code = "AUTH_005"
	CodeAuthAccountDisabled Code = "AUTH_006"
)

// permissions
const (
	CodePermInsufficientRole Code = "PERM_001"
	CodePermNotOwner         Code = "PERM_002"
)

// rate limiting
const (
	CodeRateTooManyRequests Code = "RATE_001"
	CodeRateTooManyLogins   Code = "RATE_002"
	CodeRateTooManyOrders   Code = "RATE_003"
)

// request validation
const (
	CodeValidationFailed    Code = "VAL_001"
	CodeValidationMalformed Code = "VAL_002"
	CodeUploadTooLarge      Code = "VAL_003"
	CodeUploadBadType       Code = "VAL_004"
	CodeValidationBadID     Code = "VAL_005"
)

// orders
const (
	CodeOrderNotFound          Code = "ORD_001"
	CodeOrderInvalidTransition Code = "ORD_002"
	CodeOrderNotCancellable    Code = "ORD_003"
)

// restaurants
const (
	CodeRestaurantNotFound        Code = "REST_001"
	CodeRestaurantClosed          Code = "REST_002"
	CodeRestaurantPendingApproval Code = "REST_003"
)

// menus
const (
	CodeMenuItemNotFound    Code = "MENU_001"
	CodeMenuItemUnavailable Code = "MENU_002"
)

// users
const (
	CodeUserNotFound    Code = "USER_001"
	CodeUserEmailExists Code = "USER_002"
)

// data access
const (
	CodeDatabaseFailed      Code = "DB_001"
	CodeDatabaseDuplicate   Code = "DB_002"
	CodeDatabaseUnavailable Code = "DB_003"
)

// system
const (
	CodeInternal           Code = "SYS_001"
	CodeServiceUnavailable Code = "SYS_002"
	CodeRouteNotFound      Code = "SYS_003"
	CodeMethodNotAllowed   Code = "SYS_004"
)

// Categories lists the code prefixes in use.
var Categories = []string{"AUTH", "PERM", "RATE", "VAL", "ORD", "REST", "MENU", "USER", "DB", "SYS"}

var definitions = []Definition{
	{
		Code:            CodeAuthMissingToken,
		HTTPStatus:      http.StatusUnauthorized,
		PublicMessage:   "Authentication token is missing",
		InternalMessage: "authorization header absent or not a bearer credential",
		SuggestedAction: "Send an Authorization header of the form 'Bearer <token>'",
	},
	{
		Code:            CodeAuthInvalidToken,
		HTTPStatus:      http.StatusUnauthorized,
		PublicMessage:   "Authentication token is invalid",
		InternalMessage: "bearer token failed signature, algorithm or structure checks",
		SuggestedAction: "Log in again to obtain a new token",
		SecurityAudit:   true,
	},
	{
		Code:            CodeAuthExpiredToken,
		HTTPStatus:      http.StatusUnauthorized,
		PublicMessage:   "Authentication token has expired",
		InternalMessage: "bearer token signature valid but exp claim elapsed",
		SuggestedAction: "Log in again to obtain a new token",
	},
	{
		Code:            CodeAuthRequired,
		HTTPStatus:      http.StatusUnauthorized,
		PublicMessage:   "Authentication required",
		InternalMessage: "route requires a principal but none was attached to the request",
		SuggestedAction: "Log in and retry the request with a bearer token",
	},
	{
		Code:            CodeAuthInvalidLogin,
		HTTPStatus:      http.StatusUnauthorized,
		PublicMessage:   "Invalid email or password",
		InternalMessage: "login rejected: unknown email or password mismatch",
		SuggestedAction: "Check your credentials and try again",
	},
	{
		Code:            CodeAuthAccountDisabled,
		HTTPStatus:      http.StatusForbidden,
		PublicMessage:   "This account has been disabled",
		InternalMessage: "login rejected: account flagged inactive in identity store",
		SuggestedAction: "Contact support to reactivate your account",
	},
	{
		Code:            CodePermInsufficientRole,
		HTTPStatus:      http.StatusForbidden,
		PublicMessage:   "You do not have permission to perform this action",
		InternalMessage: "principal role not in the route's required role set",
		SuggestedAction: "Contact an administrator if you believe you need access",
	},
	{
		Code:            CodePermNotOwner,
		HTTPStatus:      http.StatusForbidden,
		PublicMessage:   "You can only access your own resources",
		InternalMessage: "principal is neither the resource owner nor in an overriding role",
		SuggestedAction: "Request a resource that belongs to your account",
	},
	{
		Code:            CodeRateTooManyRequests,
		HTTPStatus:      http.StatusTooManyRequests,
		PublicMessage:   "Too many requests",
		InternalMessage: "fixed window request quota exhausted",
		SuggestedAction: "Wait for the time given in Retry-After before retrying",
	},
	{
		Code:            CodeRateTooManyLogins,
		HTTPStatus:      http.StatusTooManyRequests,
		PublicMessage:   "Too many authentication attempts",
		InternalMessage: "login window quota exhausted for client",
		SuggestedAction: "Wait for the time given in Retry-After before logging in again",
	},
	{
		Code:            CodeRateTooManyOrders,
		HTTPStatus:      http.StatusTooManyRequests,
		PublicMessage:   "Too many orders submitted",
		InternalMessage: "order submission window quota exhausted for user",
		SuggestedAction: "Wait for the time given in Retry-After before placing another order",
	},
	{
		Code:            CodeValidationFailed,
		HTTPStatus:      http.StatusBadRequest,
		PublicMessage:   "Request validation failed",
		InternalMessage: "payload or parameters failed schema validation",
		SuggestedAction: "Correct the fields listed in details and resubmit",
	},
	{
		Code:            CodeValidationMalformed,
		HTTPStatus:      http.StatusBadRequest,
		PublicMessage:   "Request body could not be parsed",
		InternalMessage: "request body is not well-formed JSON",
		SuggestedAction: "Send a valid JSON document with Content-Type application/json",
	},
	{
		Code:            CodeUploadTooLarge,
		HTTPStatus:      http.StatusBadRequest,
		PublicMessage:   "Uploaded file is too large",
		InternalMessage: "upload exceeded the configured byte limit",
		SuggestedAction: "Upload a smaller file",
	},
	{
		Code:            CodeUploadBadType,
		HTTPStatus:      http.StatusBadRequest,
		PublicMessage:   "Uploaded file type is not supported",
		InternalMessage: "upload content type outside the accepted set",
		SuggestedAction: "Upload a JPEG, PNG or WebP image",
	},
	{
		Code:            CodeValidationBadID,
		HTTPStatus:      http.StatusBadRequest,
		PublicMessage:   "Identifier is not valid",
		InternalMessage: "path or query identifier is not a well-formed uuid",
		SuggestedAction: "Check the identifier in the request URL",
	},
	{
		Code:            CodeOrderNotFound,
		HTTPStatus:      http.StatusNotFound,
		PublicMessage:   "Order not found",
		InternalMessage: "no order row for the requested id",
		SuggestedAction: "Check the order id and try again",
	},
	{
		Code:            CodeOrderInvalidTransition,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Order cannot move to the requested status",
		InternalMessage: "order status transition not allowed from current state",
		SuggestedAction: "Refresh the order and pick a valid next status",
	},
	{
		Code:            CodeOrderNotCancellable,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Order can no longer be cancelled",
		InternalMessage: "cancel requested after order left a cancellable state",
		SuggestedAction: "Contact support for help with this order",
	},
	{
		Code:            CodeRestaurantNotFound,
		HTTPStatus:      http.StatusNotFound,
		PublicMessage:   "Restaurant not found",
		InternalMessage: "no restaurant row for the requested id",
		SuggestedAction: "Check the restaurant id and try again",
	},
	{
		Code:            CodeRestaurantClosed,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Restaurant is currently closed",
		InternalMessage: "order attempted outside restaurant opening hours",
		SuggestedAction: "Try again during the restaurant's opening hours",
	},
	{
		Code:            CodeRestaurantPendingApproval,
		HTTPStatus:      http.StatusForbidden,
		PublicMessage:   "Restaurant is pending approval",
		InternalMessage: "restaurant not yet approved by an administrator",
		SuggestedAction: "Wait for an administrator to approve the restaurant",
	},
	{
		Code:            CodeMenuItemNotFound,
		HTTPStatus:      http.StatusNotFound,
		PublicMessage:   "Menu item not found",
		InternalMessage: "no menu item row for the requested id",
		SuggestedAction: "Check the menu item id and try again",
	},
	{
		Code:            CodeMenuItemUnavailable,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Menu item is unavailable",
		InternalMessage: "menu item flagged unavailable",
		SuggestedAction: "Remove the item from your order or pick another",
	},
	{
		Code:            CodeUserNotFound,
		HTTPStatus:      http.StatusNotFound,
		PublicMessage:   "User not found",
		InternalMessage: "no user row for the requested id",
		SuggestedAction: "Check the user id and try again",
	},
	{
		Code:            CodeUserEmailExists,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Email is already registered",
		InternalMessage: "unique violation on users.email",
		SuggestedAction: "Log in instead, or use a different email address",
	},
	{
		Code:            CodeDatabaseFailed,
		HTTPStatus:      http.StatusInternalServerError,
		PublicMessage:   "Database operation failed",
		InternalMessage: "data access error; see query in log record",
		SuggestedAction: "Retry later; contact support with the correlation id if it persists",
	},
	{
		Code:            CodeDatabaseDuplicate,
		HTTPStatus:      http.StatusConflict,
		PublicMessage:   "Record already exists",
		InternalMessage: "unique constraint violation",
		SuggestedAction: "Modify the request so it does not duplicate an existing record",
	},
	{
		Code:            CodeDatabaseUnavailable,
		HTTPStatus:      http.StatusServiceUnavailable,
		PublicMessage:   "Database is unavailable",
		InternalMessage: "database ping failed",
		SuggestedAction: "Retry later",
	},
	{
		Code:            CodeInternal,
		HTTPStatus:      http.StatusInternalServerError,
		PublicMessage:   "Internal server error",
		InternalMessage: "unclassified error reached the handler; likely a defect",
		SuggestedAction: "Retry later; contact support with the correlation id if it persists",
	},
	{
		Code:            CodeServiceUnavailable,
		HTTPStatus:      http.StatusServiceUnavailable,
		PublicMessage:   "Service temporarily unavailable",
		InternalMessage: "a backing dependency failed or timed out",
		SuggestedAction: "Retry later",
	},
	{
		Code:            CodeRouteNotFound,
		HTTPStatus:      http.StatusNotFound,
		PublicMessage:   "Route not found",
		InternalMessage: "no route registered for path",
		SuggestedAction: "Check the request URL",
	},
	{
		Code:            CodeMethodNotAllowed,
		HTTPStatus:      http.StatusMethodNotAllowed,
		PublicMessage:   "Method not allowed",
		InternalMessage: "route exists but not for this method",
		SuggestedAction: "Check the HTTP method for this route",
	},
}

var registry = buildRegistry(definitions)

func buildRegistry(defs []Definition) map[Code]Definition {
	reg := make(map[Code]Definition, len(defs))

	for _, def := range defs {
		if _, dup := reg[def.Code]; dup {
			panic(fmt.Sprintf("errors: duplicate definition for %s", def.Code))
		}

		reg[def.Code] = def
	}

	return reg
}

// Lookup returns the definition registered for code.
func Lookup(code Code) (Definition, bool) {
	def, ok := registry[code]
	return def, ok
}

// MustLookup is Lookup for codes known at compile time. An unregistered code panics.
func MustLookup(code Code) Definition {
	def, ok := registry[code]
	if !ok {
		panic(fmt.Sprintf("errors: unregistered code %q", code))
	}

	return def
}

// Definitions returns every registered definition ordered by code.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out
}

// returns the category prefix, e.g. "AUTH" for AUTH_002
func (c Code) Category() string {
	prefix, _, found := strings.Cut(string(c), "_")
	if !found {
		return ""
	}

	return prefix
}
