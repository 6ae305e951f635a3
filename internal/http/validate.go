package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
)

var supplierCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "suppliercode", func(fl validator.FieldLevel) bool {
		return supplierCodePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "hasdigit", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
	})
	mustRegister(v, "hasletter", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), isASCIILetter) >= 0
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// messages maps "<struct>.<json path>.<tag>" to the text returned to clients.
var messages = map[string]string{
	"registerRequest.name.required":      "Name is required",
	"registerRequest.name.min":           "Name must be between 2 and 50 characters",
	"registerRequest.name.max":           "Name must be between 2 and 50 characters",
	"registerRequest.email.required":     "Email is required",
	"registerRequest.email.email":        "Please provide a valid email",
	"registerRequest.password.required":  "Password is required",
	"registerRequest.password.min":       "Password must be at least 6 characters",
	"registerRequest.password.hasdigit":  "Password must contain at least one number",
	"registerRequest.password.hasletter": "Password must contain at least one letter",

	"loginRequest.email.required":    "Email is required",
	"loginRequest.email.email":       "Please provide a valid email",
	"loginRequest.password.required": "Password is required",

	"updateUserRequest.name.min":    "Name must be between 2 and 50 characters",
	"updateUserRequest.name.max":    "Name must be between 2 and 50 characters",
	"updateUserRequest.email.email": "Please provide a valid email",

	"createProductRequest.productName.required":       "Product name is required",
	"createProductRequest.productName.max":            "Product name cannot exceed 100 characters",
	"createProductRequest.description.required":       "Product description is required",
	"createProductRequest.description.max":            "Description cannot exceed 1000 characters",
	"createProductRequest.supplier.name.required":     "Supplier name is required",
	"createProductRequest.supplier.name.max":          "Supplier name cannot exceed 100 characters",
	"createProductRequest.supplier.code.required":     "Supplier code is required",
	"createProductRequest.supplier.code.max":          "Supplier code cannot exceed 50 characters",
	"createProductRequest.supplier.code.suppliercode": "Supplier code can only contain letters, numbers, and hyphens",
	"createProductRequest.supplierPrice.required":     "Supplier price is required",
	"createProductRequest.supplierPrice.min":          "Supplier price must be a positive number",
	"createProductRequest.supplierPrice.max":          "Supplier price cannot exceed 1,000,000",
	"updateProductRequest.productName.max":            "Product name cannot exceed 100 characters",
	"updateProductRequest.description.max":            "Description cannot exceed 1000 characters",
	"updateProductRequest.supplier.name.max":          "Supplier name cannot exceed 100 characters",
	"updateProductRequest.supplier.code.max":          "Supplier code cannot exceed 50 characters",
	"updateProductRequest.supplier.code.suppliercode": "Supplier code can only contain letters, numbers, and hyphens",
	"updateProductRequest.supplierPrice.min":          "Supplier price must be a positive number",
	"updateProductRequest.supplierPrice.max":          "Supplier price cannot exceed 1,000,000",

	"addItemRequest.productGUID.required": "Product GUID is required",
	"addItemRequest.productGUID.uuid4":    "Invalid product GUID format",
	"addItemRequest.quantity.required":    "Quantity is required",
	"addItemRequest.quantity.min":         "Quantity must be between 1 and 100",
	"addItemRequest.quantity.max":         "Quantity must be between 1 and 100",

	"updateItemRequest.quantity.required": "Quantity is required",
	"updateItemRequest.quantity.min":      "Quantity cannot be negative",
	"updateItemRequest.quantity.max":      "Quantity must be between 0 and 100",
}

const (
	msgInvalidBody        = "Invalid request body"
	msgInvalidProductGUID = "Invalid product GUID format"
)

type trimmer interface {
	trim()
}

// bind decodes the JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Validation(w, r, []string{msgInvalidBody})
		return false
	}
	if t, ok := dst.(trimmer); ok {
		t.trim()
	}
	if err := validate.Struct(dst); err != nil {
		respond.Validation(w, r, validationMessages(err))
		return false
	}
	return true
}

// validProductGUID checks a path parameter and writes the 400 response when it is not a v4 UUID.
func validProductGUID(w http.ResponseWriter, r *http.Request, id string) bool {
	if err := validate.Var(id, "required,uuid4"); err != nil {
		respond.Validation(w, r, []string{msgInvalidProductGUID})
		return false
	}
	return true
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{msgInvalidBody}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Namespace()+"."+fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, fe.Field()+" is invalid")
	}
	return out
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
