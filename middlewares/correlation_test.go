package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelation_EchoesInboundID(t *testing.T) {
	app := fiber.New()
	app.Use(Correlation())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationID(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-inbound")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "corr-inbound", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelation_MintsWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(Correlation())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}
