package backend

import (
	"encoding/json"
	"fmt"
)

// LoginRequest is the body of /loginByPassword/.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RegisterRequest is the body of /registerAccount/.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// CartRequest is the body of /addToCart/ and /removeFromCart/.
type CartRequest struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"`
}

// UserAddressRequest is the body of /getUserAddress/.
type UserAddressRequest struct {
	UserID int64 `json:"user_id"`
}

// SaveAddressRequest is the body of /saveAddress/.
type SaveAddressRequest struct {
	UserID    int64   `json:"user_id"`
	Address   string  `json:"address"`
	Label     string  `json:"label,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// PhoneRequest is the body of the send/resend verification code endpoints.
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyCodeRequest is the body of /users/verify-sms-code/.
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Restaurant is one entry of /getRestaurants/.
type Restaurant struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Rating   float64 `json:"rating"`
	ImageURL string  `json:"image"`
	IsOpen   bool    `json:"is_open"`
}

// Product is one menu entry of /getRestaurantProducts/{id}/.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image"`
}

// Restaurants decodes a restaurant listing from "restaurants" or "data".
func (e Envelope) Restaurants() ([]Restaurant, error) {
	var out []Restaurant
	if err := e.firstOf(&out, "restaurants", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

// Products decodes a product listing from "products" or "data".
func (e Envelope) Products() ([]Product, error) {
	var out []Product
	if err := e.firstOf(&out, "products", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingCount extracts the pending order count from "count",
// "pending_count" or data.count.
func (e Envelope) PendingCount() (int, error) {
	var n int
	if err := e.firstOf(&n, "count", "pending_count"); err == nil {
		return n, nil
	}
	if len(e.Data) > 0 {
		var nested struct {
			Count *int `json:"count"`
		}
		if err := json.Unmarshal(e.Data, &nested); err == nil && nested.Count != nil {
			return *nested.Count, nil
		}
		if err := json.Unmarshal(e.Data, &n); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("pending count not present")
}

// RiderOnline extracts the rider's online flag from "is_online", "online"
// or "status" ("online"/"offline").
func (e Envelope) RiderOnline() (bool, error) {
	var online bool
	if err := e.firstOf(&online, "is_online", "online"); err == nil {
		return online, nil
	}
	var status string
	if err := e.Field("status", &status); err == nil {
		switch status {
		case "online", "available", "active":
			return true, nil
		case "offline", "unavailable", "inactive":
			return false, nil
		}
		return false, fmt.Errorf("unknown rider status %q", status)
	}
	return false, fmt.Errorf("rider status not present")
}

func (e Envelope) firstOf(dest any, names ...string) error {
	for _, name := range names {
		if !e.Has(name) {
			continue
		}
		return e.Field(name, dest)
	}
	return fmt.Errorf("none of %v present", names)
}
