package docs

// @title           Dispatcher Service API
// @version         1.0
// @description     Dispatcher service provides the taxipark back office: driver registration and management, order creation with manual or automatic driver assignment, balance top-ups, photo verification review, and live order events over WebSocket.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3001
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
