// Example Swagger Annotations for Different Handler Types
// Copy these patterns when adding Swagger docs to your handlers

package docs

// ============================================
// AUTH EXAMPLES (@Tags auth)
// ============================================

// RequestCode godoc
// @Summary      Request an SMS login code
// @Description  Sends a one-time login code to a registered driver or client phone
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RequestCodeRequest true "Phone and role"
// @Success      200 {object} map[string]interface{} "Message"
// @Failure      400 {object} map[string]interface{} "Bad request"
// @Failure      404 {object} map[string]interface{} "Unknown phone"
// @Failure      422 {object} map[string]interface{} "Validation error"
// @Router       /auth/request-code [post]

// VerifyCode godoc
// @Summary      Verify an SMS code
// @Description  Exchanges a one-time code for a JWT token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.VerifyCodeRequest true "Phone, code and role"
// @Success      200 {object} dto.TokenPairResponse "Access and refresh tokens"
// @Failure      401 {object} map[string]interface{} "Invalid code"
// @Router       /auth/verify-code [post]

// Refresh godoc
// @Summary      Refresh access token
// @Description  Get a new token pair using the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.TokenPairResponse "New token pair"
// @Failure      401 {object} map[string]interface{} "Invalid refresh token"
// @Router       /auth/refresh [post]

// ============================================
// ORDER EXAMPLES (@Tags order)
// ============================================

// Create godoc
// @Summary      Create a new order
// @Description  Creates an order, optionally auto-assigning the nearest matching driver
// @Tags         order
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "Order details"
// @Success      201 {object} dto.OrderResponse "Created order"
// @Failure      400 {object} map[string]interface{} "Bad request"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      422 {object} map[string]interface{} "Validation error"
// @Security     BearerAuth
// @Router       /orders [post]

// Accept godoc
// @Summary      Accept an order
// @Description  Driver takes a free order; the park commission is charged from the balance
// @Tags         order
// @Produce      json
// @Param        order_id path int true "Order ID"
// @Success      200 {object} dto.OrderResponse "Accepted order"
// @Failure      402 {object} map[string]interface{} "Insufficient balance"
// @Failure      409 {object} map[string]interface{} "Order already taken"
// @Security     BearerAuth
// @Router       /orders/{order_id}/accept [post]

// UpdateStatus godoc
// @Summary      Advance order status
// @Description  Moves the order one step along the status chain
// @Tags         order
// @Accept       json
// @Produce      json
// @Param        order_id path int true "Order ID"
// @Param        request body dto.UpdateStatusRequest true "Target status"
// @Success      200 {object} dto.OrderResponse "Updated order"
// @Failure      409 {object} map[string]interface{} "Invalid transition"
// @Security     BearerAuth
// @Router       /orders/{order_id}/status [post]

// ============================================
// DRIVER EXAMPLES (@Tags driver)
// ============================================

// Register godoc
// @Summary      Register a new driver
// @Description  Dispatcher registers a driver with car information in their taxipark
// @Tags         driver
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterDriverRequest true "Driver registration details"
// @Success      201 {object} dto.DriverResponse "Created driver"
// @Failure      409 {object} map[string]interface{} "Phone or car number already registered"
// @Failure      422 {object} map[string]interface{} "Validation error"
// @Security     BearerAuth
// @Router       /drivers [post]

// UpdateLocation godoc
// @Summary      Update driver location
// @Description  Driver reports current GPS coordinates
// @Tags         driver
// @Accept       json
// @Produce      json
// @Param        request body dto.LocationUpdateRequest true "Location coordinates"
// @Success      200 {object} map[string]interface{} "Success message"
// @Failure      400 {object} map[string]interface{} "Bad request"
// @Security     BearerAuth
// @Router       /drivers/me/location [post]

// ============================================
// ADMIN EXAMPLES (@Tags admin)
// ============================================

// GetOverview godoc
// @Summary      Get taxipark overview
// @Description  Aggregated counters, revenue and order statistics for one park
// @Tags         admin
// @Produce      json
// @Param        park_id path int true "Taxipark ID"
// @Success      200 {object} models.ParkOverview "Overview data"
// @Failure      403 {object} map[string]interface{} "Forbidden - Superadmin only"
// @Security     BearerAuth
// @Router       /taxiparks/{park_id}/overview [get]

// ============================================
// COMMON PATTERNS
// ============================================

// For path parameters:
// @Param        id path int true "Entity ID"

// For query parameters:
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)

// For request body with specific model:
// @Param        request body dto.YourRequest true "Request description"

// For responses with models:
// @Success      200 {object} models.YourModel "Description"
// @Success      200 {array} models.YourModel "List description"

// For authentication:
// @Security     BearerAuth

// Multiple tags (for shared endpoints):
// @Tags         order,driver

// ============================================
// IMPORTANT NOTES
// ============================================
// 1. Always use the correct @Tags matching your handler (auth, driver, order, balance, photo, admin)
// 2. Add @Security BearerAuth for protected endpoints
// 3. HTTP methods in @Router should match your actual route (get, post, put, delete)
// 4. Path parameters in {braces} should match @Param definitions
// 5. Run `make swagger-<service>` after adding/modifying annotations
