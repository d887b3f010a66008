package middleware

import (
	"cafe-stock/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const BillingPath = "/api/v1/billing"

// RequireActiveSubscription lets the request through only while the user's
// trial or paid period covers now. An inactive subscription is answered
// with 402 and a pointer to the billing page rather than an auth error.
// With enforced false every request passes.
func RequireActiveSubscription(billing service.BillingService, enforced bool, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enforced {
			return c.Next()
		}

		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		active, err := billing.IsActive(c.UserContext(), actor.UserID)
		if err != nil {
			log.Error("check subscription", zap.String("user_id", actor.UserID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
		if active {
			return c.Next()
		}

		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":    "Subscription inactive",
			"flash":    "Your trial or paid period has ended. Please submit a payment to continue.",
			"redirect": BillingPath,
		})
	}
}
