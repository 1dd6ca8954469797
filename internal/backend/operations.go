package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Paths maps each backend operation to its fixed path.
type Paths struct {
	Login                  string
	Register               string
	Restaurants            string
	RestaurantProducts     string // format string taking the restaurant id
	AddToCart              string
	RemoveFromCart         string
	UserAddress            string
	SaveAddress            string
	RiderToggleStatus      string
	RiderStatus            string
	PendingOrderCount      string
	SendVerificationCode   string
	VerifySMSCode          string
	ResendVerificationCode string
	OrderUpdatesSocket     string
}

// DefaultPaths returns the endpoint table served by the Django backend.
func DefaultPaths() Paths {
	return Paths{
		Login:                  "/loginByPassword/",
		Register:               "/registerAccount/",
		Restaurants:            "/getRestaurants/",
		RestaurantProducts:     "/getRestaurantProducts/%d/",
		AddToCart:              "/addToCart/",
		RemoveFromCart:         "/removeFromCart/",
		UserAddress:            "/getUserAddress/",
		SaveAddress:            "/saveAddress/",
		RiderToggleStatus:      "/rider/toggle-status/",
		RiderStatus:            "/rider/status/",
		PendingOrderCount:      "/orders/pending-count/",
		SendVerificationCode:   "/users/send-verification-code/",
		VerifySMSCode:          "/users/verify-sms-code/",
		ResendVerificationCode: "/users/resend-verification-code/",
		OrderUpdatesSocket:     "/ws/orders/updates/",
	}
}

// LoginByPassword authenticates with phone number and password.
func (c *Client) LoginByPassword(ctx context.Context, req LoginRequest) Envelope {
	return c.Call(ctx, "login", http.MethodPost, c.paths.Login, req)
}

// RegisterAccount creates a customer or rider account.
func (c *Client) RegisterAccount(ctx context.Context, req RegisterRequest) Envelope {
	return c.Call(ctx, "register", http.MethodPost, c.paths.Register, req)
}

// Restaurants lists restaurants. Use Envelope.Restaurants to decode.
func (c *Client) Restaurants(ctx context.Context) Envelope {
	return c.Call(ctx, "restaurants", http.MethodGet, c.paths.Restaurants, nil)
}

// RestaurantProducts lists the menu of one restaurant.
func (c *Client) RestaurantProducts(ctx context.Context, restaurantID int64) Envelope {
	if restaurantID <= 0 {
		return Failure("restaurant id required", "")
	}
	return c.Call(ctx, "restaurant_products", http.MethodGet, fmt.Sprintf(c.paths.RestaurantProducts, restaurantID), nil)
}

// AddToCart adds a product to the user's cart.
func (c *Client) AddToCart(ctx context.Context, req CartRequest) Envelope {
	return c.Call(ctx, "add_to_cart", http.MethodPost, c.paths.AddToCart, req)
}

// RemoveFromCart removes a product from the user's cart.
func (c *Client) RemoveFromCart(ctx context.Context, req CartRequest) Envelope {
	return c.Call(ctx, "remove_from_cart", http.MethodPost, c.paths.RemoveFromCart, req)
}

// UserAddress fetches the saved delivery address of a user.
func (c *Client) UserAddress(ctx context.Context, req UserAddressRequest) Envelope {
	return c.Call(ctx, "user_address", http.MethodPost, c.paths.UserAddress, req)
}

// SaveAddress stores a delivery address.
func (c *Client) SaveAddress(ctx context.Context, req SaveAddressRequest) Envelope {
	return c.Call(ctx, "save_address", http.MethodPost, c.paths.SaveAddress, req)
}

// ToggleRiderStatus flips the rider between online and offline.
func (c *Client) ToggleRiderStatus(ctx context.Context) Envelope {
	return c.Call(ctx, "rider_toggle_status", http.MethodPost, c.paths.RiderToggleStatus, struct{}{})
}

// RiderStatus fetches whether the rider is currently online.
func (c *Client) RiderStatus(ctx context.Context) Envelope {
	return c.Call(ctx, "rider_status", http.MethodGet, c.paths.RiderStatus, nil)
}

// PendingOrderCount fetches the number of orders awaiting a rider.
func (c *Client) PendingOrderCount(ctx context.Context) Envelope {
	return c.Call(ctx, "pending_count", http.MethodGet, c.paths.PendingOrderCount, nil)
}

// SendVerificationCode asks the backend to text a verification code.
func (c *Client) SendVerificationCode(ctx context.Context, req PhoneRequest) Envelope {
	return c.Call(ctx, "send_verification_code", http.MethodPost, c.paths.SendVerificationCode, req)
}

// VerifySMSCode checks a code the user typed in.
func (c *Client) VerifySMSCode(ctx context.Context, req VerifyCodeRequest) Envelope {
	return c.Call(ctx, "verify_sms_code", http.MethodPost, c.paths.VerifySMSCode, req)
}

// ResendVerificationCode sends a fresh code.
func (c *Client) ResendVerificationCode(ctx context.Context, req PhoneRequest) Envelope {
	return c.Call(ctx, "resend_verification_code", http.MethodPost, c.paths.ResendVerificationCode, req)
}
