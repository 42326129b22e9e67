package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountDisabled    = fmt.Errorf("account disabled")

	// Lookup errors
	ErrCategoryNotFound = fmt.Errorf("category not found")
	ErrPageNotFound     = fmt.Errorf("page not found")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrProfileNotFound  = fmt.Errorf("profile not found")

	// Session errors
	ErrMalformedSession = fmt.Errorf("malformed session value")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
