package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The confirmation landing must answer with a redirect, never render in
// place: a refresh of the landed page would otherwise re-submit the confirm.
func TestHandleCheckoutConfirmRedirectsOnError(t *testing.T) {
	app := fiber.New()
	app.Get("/checkout/confirm", HandleCheckoutConfirm)

	req := httptest.NewRequest("GET", "/checkout/confirm?orderId=ord_x", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "/checkout/fail")
	assert.Contains(t, location, "orderId=ord_x")
}

func TestHandlePayPalReturnRejectsIncompleteLink(t *testing.T) {
	app := fiber.New()
	app.Get("/checkout/paypal/return", HandlePayPalReturn)

	req := httptest.NewRequest("GET", "/checkout/paypal/return?orderId=ord_x", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/checkout/fail")
}
