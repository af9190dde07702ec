package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Session Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategorySession,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the session has expired.",
	},
	"E011": {
		Category: CategorySession,
		Message:  "Session registry closed",
		Detail:   "The session registry has been shut down and no longer hands out stores.",
	},

	// ============================================
	// Catalog Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryCatalog,
		Message:  "Product not found",
		Detail:   "No product with the requested id exists in the catalog.",
	},
	"E021": {
		Category: CategoryCatalog,
		Message:  "Invalid catalog document",
		Detail:   "The catalog could not be decoded as YAML.",
	},
	"E022": {
		Category: CategoryCatalog,
		Message:  "Duplicate product id",
		Detail:   "Every product in a catalog must have a unique id.",
	},
	"E023": {
		Category: CategoryCatalog,
		Message:  "Invalid product",
		Detail:   "A product is missing its id or name, or names an unknown section.",
	},
	"E024": {
		Category: CategoryCatalog,
		Message:  "Catalog source unavailable",
		Detail:   "The catalog file or object could not be read.",
	},
	"E025": {
		Category: CategoryCatalog,
		Message:  "Invalid image manifest",
		Detail:   "The image manifest could not be read or is not a map of paths.",
	},

	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "WebSocket connection failed",
		Detail:   "Failed to upgrade the live feed connection.",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Invalid request body",
		Detail:   "The request body could not be decoded as JSON.",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Unknown unread channel",
		Detail:   "Unread channels are alerts, mail and cart.",
	},

	// ============================================
	// Validation Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryValidation,
		Message:  "Required field missing",
		Detail:   "One or more required checkout fields were not provided.",
	},
	"E081": {
		Category: CategoryValidation,
		Message:  "Invalid email format",
		Detail:   "The provided email address is not valid.",
	},
	"E082": {
		Category: CategoryValidation,
		Message:  "Terms not accepted",
		Detail:   "The Terms & Privacy Policy must be accepted before placing an order.",
	},
	"E083": {
		Category: CategoryValidation,
		Message:  "Cart is empty",
		Detail:   "An order cannot be placed without items in the cart.",
	},
	"E084": {
		Category: CategoryValidation,
		Message:  "Unknown shipping method",
		Detail:   "Shipping method must be standard or express.",
	},
	"E085": {
		Category: CategoryValidation,
		Message:  "Unknown payment method",
		Detail:   "Payment method must be card, cod or paypal.",
	},
	"E086": {
		Category: CategoryValidation,
		Message:  "Cart changed during checkout",
		Detail:   "The cart was modified while the order was being placed.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The chrono.json file could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "Port must be between 0 and 65535.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations use Go syntax such as \"30m\" or \"1h\".",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid catalog source",
		Detail:   "Catalog source must be builtin, file or s3, with the matching path, bucket and key set.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid pricing",
		Detail:   "Shipping fees and the tax rate must not be negative.",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No chrono.json was found in the given directory.",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

// Register adds or replaces an error template. Intended for extensions and tests.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for code, if registered.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
