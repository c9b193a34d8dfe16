package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// UserInput is the sanitized form of a user registration.
type UserInput struct {
	FullName string
	Email    string
}

// ProductInput is the parsed form of a product registration.
type ProductInput struct {
	SKU      string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// ValidEmail reports whether email looks like local-part@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateUser trims and checks the fields of a user registration.
func ValidateUser(fullName, email string) (UserInput, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if fullName == "" {
		return UserInput{}, invalid("fullName", "full name is required")
	}
	if email == "" {
		return UserInput{}, invalid("email", "email is required")
	}
	if !ValidEmail(email) {
		return UserInput{}, invalid("email", "email is not a valid address")
	}
	return UserInput{FullName: fullName, Email: email}, nil
}

// ParseProduct checks the raw fields of a product registration. Price must be
// a positive decimal and quantity a non-negative integer.
func ParseProduct(sku, name, price, quantity string) (ProductInput, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	price = strings.TrimSpace(price)
	quantity = strings.TrimSpace(quantity)

	switch {
	case sku == "":
		return ProductInput{}, invalid("sku", "sku is required")
	case name == "":
		return ProductInput{}, invalid("name", "name is required")
	case price == "":
		return ProductInput{}, invalid("price", "price is required")
	case quantity == "":
		return ProductInput{}, invalid("quantity", "quantity is required")
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return ProductInput{}, invalid("price", "price must be a number")
	}
	if !p.IsPositive() {
		return ProductInput{}, invalid("price", "price must be greater than zero")
	}

	q, err := strconv.Atoi(quantity)
	if err != nil {
		return ProductInput{}, invalid("quantity", "quantity must be a whole number")
	}
	if q < 0 {
		return ProductInput{}, invalid("quantity", "quantity must not be negative")
	}

	return ProductInput{SKU: sku, Name: name, Price: p, Quantity: q}, nil
}
