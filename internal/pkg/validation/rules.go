package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// CNICPattern accepts 13 digits with optional dashes, e.g. 35202-1234567-1
	CNICPattern = `^\d{5}-?\d{7}-?\d$`

	// MobilePattern accepts 7 to 15 digits with an optional leading +
	MobilePattern = `^\+?\d{7,15}$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	CNIC   *regexp.Regexp
	Mobile *regexp.Regexp
}{
	CNIC:   regexp.MustCompile(CNICPattern),
	Mobile: regexp.MustCompile(MobilePattern),
}

// Tags registered by Register
const (
	TagCNIC   = "cnic"
	TagMobile = "mobile"
)

// Register adds the portal's custom tags to v
func Register(v *validator.Validate) error {
	rules := map[string]*regexp.Regexp{
		TagCNIC:   CompiledPatterns.CNIC,
		TagMobile: CompiledPatterns.Mobile,
	}
	for tag, pattern := range rules {
		pattern := pattern
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return pattern.MatchString(fl.Field().String())
		})
		if err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

var (
	ginOnce sync.Once
	ginErr  error
)

// RegisterGinValidators registers the custom tags on gin's binding validator.
// Safe to call more than once.
func RegisterGinValidators() error {
	ginOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			ginErr = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		ginErr = Register(v)
	})
	return ginErr
}
