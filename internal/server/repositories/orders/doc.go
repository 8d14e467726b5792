// Package orders persists payment gateway orders.
//
// # Overview
//
// Each row mirrors one Razorpay order: amount in minor units, currency,
// receipt, an optional caller-scoped idempotency key (unique), and once paid
// the gateway payment id. PostgresRepository works over a dbx.DBTX, so the
// same code runs on *sql.DB or inside a transaction.
//
// # Concurrency
//
// GetByGatewayOrderIDForUpdate takes a row lock; verification uses it inside
// a transaction so an order is marked paid once even when the same payment
// is verified concurrently.
package orders
