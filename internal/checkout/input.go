package checkout

import (
	"reflect"
	"strings"

	"github.com/angelmondragon/ebookshop-backend/internal/order"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// BuyerInput is the contact form submitted with an order.
type BuyerInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Normalize trims the input and checks it, returning the buyer contact.
func (in BuyerInput) Normalize() (order.Buyer, error) {
	buyer := order.Buyer{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.Join(strings.Fields(in.Phone), " "),
	}
	trimmed := BuyerInput{Name: buyer.Name, Email: buyer.Email, Phone: buyer.Phone}

	details := map[string]string{}
	if err := validate.Struct(trimmed); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				details[fe.Field()] = fieldMessage(fe)
			}
		} else {
			return order.Buyer{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
	}
	if _, bad := details["phone"]; !bad && buyer.Phone != "" && !validPhone(buyer.Phone) {
		details["phone"] = "may only contain digits, spaces, + and -"
	}
	if len(details) > 0 {
		return order.Buyer{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return buyer, nil
}

func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits >= 6
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}
