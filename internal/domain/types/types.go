package types

type ServiceMode string

// Driver Service - Mobile-facing API: driver/client auth, orders, balance, photo verification
// Dispatcher Service - Dispatcher console: driver management, order creation and tracking
// Admin Service - Superadmin console: taxipark management and analytics
const (
	DriverService     ServiceMode = "driver-service"
	DispatcherService ServiceMode = "dispatcher-service"
	AdminService      ServiceMode = "admin-service"
)

// OrderStatus - статус заказа. Единый словарь для всех эндпоинтов.
type OrderStatus string

func (s OrderStatus) String() string {
	return string(s)
}

const (
	OrderReceived         OrderStatus = "received"
	OrderAccepted         OrderStatus = "accepted"
	OrderNavigatingToA    OrderStatus = "navigating_to_a"
	OrderArrivedAtA       OrderStatus = "arrived_at_a"
	OrderNavigatingToB    OrderStatus = "navigating_to_b"
	OrderCompleted        OrderStatus = "completed"
	OrderCancelled        OrderStatus = "cancelled"
	OrderRejectedByDriver OrderStatus = "rejected_by_driver"
)

// DriverTransitionStatuses - статусы, которые может выставить водитель.
var DriverTransitionStatuses = []OrderStatus{
	OrderAccepted,
	OrderNavigatingToA,
	OrderArrivedAtA,
	OrderNavigatingToB,
	OrderCompleted,
	OrderCancelled,
	OrderRejectedByDriver,
}

// DispatcherTransitionStatuses - статусы, доступные диспетчеру.
// rejected_by_driver выставляет только водитель.
var DispatcherTransitionStatuses = []OrderStatus{
	OrderReceived,
	OrderAccepted,
	OrderNavigatingToA,
	OrderArrivedAtA,
	OrderNavigatingToB,
	OrderCompleted,
	OrderCancelled,
}

// OpenOrderStatuses - заказ с таким статусом занимает водителя.
var OpenOrderStatuses = []OrderStatus{
	OrderAccepted,
	OrderNavigatingToA,
	OrderArrivedAtA,
	OrderNavigatingToB,
}

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderCompleted, OrderCancelled, OrderRejectedByDriver:
		return true
	default:
		return false
	}
}

// Enum для онлайн-статуса водителя
type OnlineStatus string

const (
	StatusOnline  OnlineStatus = "online"
	StatusOffline OnlineStatus = "offline"
)

// Enum для статуса фотоверификации
type VerificationStatus string

const (
	VerificationNotStarted VerificationStatus = "not_started"
	VerificationPending    VerificationStatus = "pending"
	VerificationApproved   VerificationStatus = "approved"
	VerificationRejected   VerificationStatus = "rejected"
)

// Enum для типа транзакции
type TransactionType string

const (
	TransactionTopup      TransactionType = "topup"
	TransactionCommission TransactionType = "commission"
	TransactionOrder      TransactionType = "order"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionBonus      TransactionType = "bonus"
)

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleDriver     UserRole = "DRIVER"
	RoleClient     UserRole = "CLIENT"
	RoleDispatcher UserRole = "DISPATCHER"
	RoleSuperadmin UserRole = "SUPERADMIN"
)

// Tariffs supported by the mobile apps.
const (
	TariffEconomy  = "Эконом"
	TariffComfort  = "Комфорт"
	TariffBusiness = "Бизнес"
)

// WSAudience - адресат WebSocket-события. Сокеты каждой аудитории живут
// только в одном сервисе, события для чужих аудиторий идут через очередь.
type WSAudience string

const (
	AudienceDriver      WSAudience = "driver"
	AudienceClient      WSAudience = "client"
	AudienceParkDrivers WSAudience = "park_drivers"
	AudienceDispatchers WSAudience = "dispatchers"
)
