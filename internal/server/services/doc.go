// Package services contains the server-side business logic.
//
// # Overview
//
//   - UserService: registration, login, logout, profile, password changes
//     and refresh-token rotation.
//   - PaymentService: gateway order creation with per-caller idempotency
//     keys, and payment verification that settles bond investments.
//   - BondService: the bond and project catalog and investor holdings.
//   - KYCService: presigned document uploads and KYC status.
//   - AdminService: operator actions used by cmd/admin.
//
// Services take a *sql.DB and a repomanager.RepositoryManager and run every
// multi-row write through dbx.WithTx. Errors are the sentinels of
// internal/common, wrapped with context.
package services
